package introspect

import (
	"context"
	"strings"

	"github.com/pgschemaplan/pgschemaplan/internal/logging"
	"github.com/pgschemaplan/pgschemaplan/internal/schemamodel"
)

func primaryKey(ctx context.Context, db Querier, schemaName, tableName string) (*schemamodel.PrimaryKeyConstraint, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT tc.constraint_name, kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
		WHERE tc.table_schema = $1 AND tc.table_name = $2 AND tc.constraint_type = 'PRIMARY KEY'
		ORDER BY kcu.ordinal_position
	`, schemaName, tableName)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var pk *schemamodel.PrimaryKeyConstraint
	for rows.Next() {
		var name, col string
		if err := rows.Scan(&name, &col); err != nil {
			return nil, err
		}
		if pk == nil {
			pk = &schemamodel.PrimaryKeyConstraint{Name: name}
		}
		pk.Columns = append(pk.Columns, col)
	}
	return pk, rows.Err()
}

// foreignKeys groups key-column-usage/constraint-column-usage rows by
// constraint name, preserving local and referenced column order (spec
// §4.2). Unknown referential actions become absent rather than erroring.
func foreignKeys(ctx context.Context, db Querier, schemaName, tableName string, log logging.Logger) ([]schemamodel.ForeignKeyConstraint, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT
			tc.constraint_name,
			kcu.column_name,
			ccu.table_name AS referenced_table,
			ccu.column_name AS referenced_column,
			rc.update_rule,
			rc.delete_rule,
			tc.is_deferrable,
			tc.initially_deferred
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
		JOIN information_schema.referential_constraints rc
		  ON tc.constraint_name = rc.constraint_name AND tc.table_schema = rc.constraint_schema
		JOIN information_schema.constraint_column_usage ccu
		  ON rc.unique_constraint_name = ccu.constraint_name AND rc.unique_constraint_schema = ccu.table_schema
		WHERE tc.table_schema = $1 AND tc.table_name = $2 AND tc.constraint_type = 'FOREIGN KEY'
		ORDER BY tc.constraint_name, kcu.ordinal_position
	`, schemaName, tableName)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	byName := map[string]*schemamodel.ForeignKeyConstraint{}
	var order []string
	for rows.Next() {
		var (
			name, col, refTable, refCol, updateRule, deleteRule string
			isDeferrable, initiallyDeferred                     string
		)
		if err := rows.Scan(&name, &col, &refTable, &refCol, &updateRule, &deleteRule, &isDeferrable, &initiallyDeferred); err != nil {
			return nil, err
		}
		fk, ok := byName[name]
		if !ok {
			fk = &schemamodel.ForeignKeyConstraint{
				Name:              name,
				ReferencedTable:   refTable,
				Deferrable:        isDeferrable == "YES",
				InitiallyDeferred: initiallyDeferred == "YES",
				OnDelete:          catalogAction(deleteRule, log),
				OnUpdate:          catalogAction(updateRule, log),
			}
			byName[name] = fk
			order = append(order, name)
		}
		fk.Columns = append(fk.Columns, col)
		fk.ReferencedColumns = append(fk.ReferencedColumns, refCol)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]schemamodel.ForeignKeyConstraint, 0, len(order))
	for _, name := range order {
		out = append(out, *byName[name])
	}
	return out, nil
}

func catalogAction(rule string, log logging.Logger) *schemamodel.ReferentialAction {
	var a schemamodel.ReferentialAction
	switch strings.ToUpper(rule) {
	case "CASCADE":
		a = schemamodel.ActionCascade
	case "RESTRICT":
		a = schemamodel.ActionRestrict
	case "SET NULL":
		a = schemamodel.ActionSetNull
	case "SET DEFAULT":
		a = schemamodel.ActionSetDefault
	case "NO ACTION":
		return nil
	default:
		log.Warn("unknown referential action reported by catalog", logging.F("rule", rule))
		return nil
	}
	return &a
}

// checkConstraints reads CHECK constraints, stripping the CHECK (...)
// wrapper from the catalog's pg_get_constraintdef text.
func checkConstraints(ctx context.Context, db Querier, schemaName, tableName string) ([]schemamodel.CheckConstraint, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT con.conname, pg_get_constraintdef(con.oid)
		FROM pg_constraint con
		JOIN pg_class rel ON rel.oid = con.conrelid
		JOIN pg_namespace nsp ON nsp.oid = rel.relnamespace
		WHERE con.contype = 'c' AND nsp.nspname = $1 AND rel.relname = $2
	`, schemaName, tableName)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var checks []schemamodel.CheckConstraint
	for rows.Next() {
		var name, def string
		if err := rows.Scan(&name, &def); err != nil {
			return nil, err
		}
		checks = append(checks, schemamodel.CheckConstraint{
			Name:       name,
			Expression: stripCheckWrapper(def),
		})
	}
	return checks, rows.Err()
}

func stripCheckWrapper(def string) string {
	def = strings.TrimSpace(def)
	def = strings.TrimPrefix(def, "CHECK ")
	def = strings.TrimPrefix(def, "(")
	def = strings.TrimSuffix(def, ")")
	return def
}

func uniqueConstraints(ctx context.Context, db Querier, schemaName, tableName string) ([]schemamodel.UniqueConstraint, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT tc.constraint_name, kcu.column_name, tc.is_deferrable, tc.initially_deferred
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
		WHERE tc.table_schema = $1 AND tc.table_name = $2 AND tc.constraint_type = 'UNIQUE'
		ORDER BY tc.constraint_name, kcu.ordinal_position
	`, schemaName, tableName)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	byName := map[string]*schemamodel.UniqueConstraint{}
	var order []string
	for rows.Next() {
		var name, col, isDeferrable, initiallyDeferred string
		if err := rows.Scan(&name, &col, &isDeferrable, &initiallyDeferred); err != nil {
			return nil, err
		}
		u, ok := byName[name]
		if !ok {
			u = &schemamodel.UniqueConstraint{
				Name:              name,
				Deferrable:        isDeferrable == "YES",
				InitiallyDeferred: initiallyDeferred == "YES",
			}
			byName[name] = u
			order = append(order, name)
		}
		u.Columns = append(u.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]schemamodel.UniqueConstraint, 0, len(order))
	for _, name := range order {
		out = append(out, *byName[name])
	}
	return out, nil
}
