package differ

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pgschemaplan/pgschemaplan/internal/schemamodel"
	"github.com/pgschemaplan/pgschemaplan/internal/sqlgen"
)

// diffChecks matches CHECK constraints by name, falling back to the
// expression text when a constraint is unnamed. A changed expression is a
// drop + recreate (spec §4.4's constraint diff).
func diffChecks(table string, current, desired []schemamodel.CheckConstraint) []string {
	currentByKey := make(map[string]schemamodel.CheckConstraint, len(current))
	for _, c := range current {
		currentByKey[checkKey(c)] = c
	}
	desiredByKey := make(map[string]schemamodel.CheckConstraint, len(desired))
	for _, c := range desired {
		desiredByKey[checkKey(c)] = c
	}

	var statements []string
	for _, d := range desired {
		key := checkKey(d)
		c, ok := currentByKey[key]
		if !ok {
			statements = append(statements, addCheckStatement(table, d))
			continue
		}
		if c.Expression != d.Expression {
			statements = append(statements, dropConstraintStatement(table, constraintName(c.Name, key)))
			statements = append(statements, addCheckStatement(table, d))
		}
	}
	for _, c := range current {
		key := checkKey(c)
		if _, ok := desiredByKey[key]; !ok {
			statements = append(statements, dropConstraintStatement(table, constraintName(c.Name, key)))
		}
	}
	return statements
}

func checkKey(c schemamodel.CheckConstraint) string {
	if c.Name != "" {
		return "name:" + c.Name
	}
	return "expr:" + c.Expression
}

func addCheckStatement(table string, c schemamodel.CheckConstraint) string {
	if c.Name == "" {
		c.Name = synthesizeCheckName(table)
	}
	return fmt.Sprintf("ALTER TABLE %s ADD %s;", sqlgen.QuoteIdent(table), sqlgen.FormatCheckClause(c))
}

// diffUniques matches UNIQUE constraints by name, falling back to a key
// synthesized from the column list.
func diffUniques(table string, current, desired []schemamodel.UniqueConstraint) []string {
	currentByKey := make(map[string]schemamodel.UniqueConstraint, len(current))
	for _, u := range current {
		currentByKey[uniqueKey(u)] = u
	}
	desiredByKey := make(map[string]schemamodel.UniqueConstraint, len(desired))
	for _, u := range desired {
		desiredByKey[uniqueKey(u)] = u
	}

	var statements []string
	for _, d := range desired {
		key := uniqueKey(d)
		c, ok := currentByKey[key]
		if !ok {
			statements = append(statements, addUniqueStatement(table, d))
			continue
		}
		if !uniquesEqual(c, d) {
			statements = append(statements, dropConstraintStatement(table, constraintName(c.Name, key)))
			statements = append(statements, addUniqueStatement(table, d))
		}
	}
	for _, c := range current {
		key := uniqueKey(c)
		if _, ok := desiredByKey[key]; !ok {
			statements = append(statements, dropConstraintStatement(table, constraintName(c.Name, key)))
		}
	}
	return statements
}

func uniqueKey(u schemamodel.UniqueConstraint) string {
	if u.Name != "" {
		return "name:" + u.Name
	}
	return "unique_" + strings.Join(u.Columns, "_")
}

func uniquesEqual(a, b schemamodel.UniqueConstraint) bool {
	return schemamodel.EqualStringSlices(a.Columns, b.Columns) &&
		a.Deferrable == b.Deferrable && a.InitiallyDeferred == b.InitiallyDeferred
}

func addUniqueStatement(table string, u schemamodel.UniqueConstraint) string {
	if u.Name == "" {
		u.Name = synthesizeUniqueName(table, u.Columns)
	}
	return fmt.Sprintf("ALTER TABLE %s ADD %s;", sqlgen.QuoteIdent(table), sqlgen.FormatUniqueClause(u))
}

// diffForeignKeys matches FKs by name, falling back to a key synthesized
// from columns and referenced table. A difference in referenced table,
// columns, actions, or deferrable flags triggers drop + recreate. FK drops
// are skipped when any of the FK's local columns is being dropped in the
// column-diff step, since the column drop implicitly cascade-drops the FK.
func diffForeignKeys(table string, current, desired []schemamodel.ForeignKeyConstraint, droppedColumns map[string]bool) []string {
	currentByKey := make(map[string]schemamodel.ForeignKeyConstraint, len(current))
	for _, fk := range current {
		currentByKey[fkKey(fk)] = fk
	}
	desiredByKey := make(map[string]schemamodel.ForeignKeyConstraint, len(desired))
	for _, fk := range desired {
		desiredByKey[fkKey(fk)] = fk
	}

	var statements []string
	for _, d := range desired {
		key := fkKey(d)
		c, ok := currentByKey[key]
		if !ok {
			statements = append(statements, addForeignKeyStatement(table, d))
			continue
		}
		if !foreignKeysEqual(c, d) {
			if !fkReferencesDroppedColumn(c, droppedColumns) {
				statements = append(statements, dropConstraintStatement(table, constraintName(c.Name, key)))
			}
			statements = append(statements, addForeignKeyStatement(table, d))
		}
	}
	for _, c := range current {
		key := fkKey(c)
		if _, ok := desiredByKey[key]; ok {
			continue
		}
		if fkReferencesDroppedColumn(c, droppedColumns) {
			continue
		}
		statements = append(statements, dropConstraintStatement(table, constraintName(c.Name, key)))
	}
	return statements
}

func fkReferencesDroppedColumn(fk schemamodel.ForeignKeyConstraint, droppedColumns map[string]bool) bool {
	for _, col := range fk.Columns {
		if droppedColumns[col] {
			return true
		}
	}
	return false
}

func fkKey(fk schemamodel.ForeignKeyConstraint) string {
	if fk.Name != "" {
		return "name:" + fk.Name
	}
	return fmt.Sprintf("fk_%s_%s", strings.Join(fk.Columns, "_"), fk.ReferencedTable)
}

func foreignKeysEqual(a, b schemamodel.ForeignKeyConstraint) bool {
	return a.ReferencedTable == b.ReferencedTable &&
		schemamodel.EqualStringSlices(a.Columns, b.Columns) &&
		schemamodel.EqualStringSlices(a.ReferencedColumns, b.ReferencedColumns) &&
		actionEqual(a.OnDelete, b.OnDelete) &&
		actionEqual(a.OnUpdate, b.OnUpdate) &&
		a.Deferrable == b.Deferrable &&
		a.InitiallyDeferred == b.InitiallyDeferred
}

func actionEqual(a, b *schemamodel.ReferentialAction) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}

func dropConstraintStatement(table, name string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s;", sqlgen.QuoteIdent(table), sqlgen.QuoteIdent(name))
}

// constraintName returns the constraint's actual name, falling back to the
// synthesized match key with its "name:"/"expr:" tag stripped — used only
// when dropping a constraint this package matched without a real name.
func constraintName(name, key string) string {
	if name != "" {
		return name
	}
	if idx := strings.IndexByte(key, ':'); idx >= 0 {
		return key[idx+1:]
	}
	return key
}

// shapeSuffix returns a short, collision-resistant tag appended to a
// synthesized CHECK constraint name, whose spec §6 format already carries a
// timestamp: two unnamed CHECK constraints added to the same table within
// the same second would otherwise synthesize identical names. FK and unique
// synthesis stay suffix-free (see below) since their names must stay stable
// across repeated planning runs to remain idempotent.
func shapeSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// synthesizeFKName and synthesizeUniqueName follow spec §6's deterministic
// naming exactly (fk_{table}_{ref}, unique_{table}_{cols}), with no random
// component: an unnamed desired constraint must keep synthesizing the same
// name run after run, or the constraint would drop and recreate every time.
func synthesizeFKName(table string, fk schemamodel.ForeignKeyConstraint) string {
	return fmt.Sprintf("fk_%s_%s", table, fk.ReferencedTable)
}

func synthesizeUniqueName(table string, columns []string) string {
	return fmt.Sprintf("unique_%s_%s", table, strings.Join(columns, "_"))
}

func synthesizeCheckName(table string) string {
	return fmt.Sprintf("check_%s_%s_%s", table, time.Now().UTC().Format("20060102150405"), shapeSuffix())
}
