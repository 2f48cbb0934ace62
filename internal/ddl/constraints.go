package ddl

import (
	"fmt"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/pgschemaplan/pgschemaplan/internal/schemamodel"
	"github.com/pgschemaplan/pgschemaplan/internal/sqlgen"
)

// parseTableConstraint handles table-level CHECK, UNIQUE, and FOREIGN KEY
// constraints. Table-level PRIMARY KEY is handled by the caller (it needs to
// be reconciled against a possible column-level PK first).
func (p *parser) parseTableConstraint(table *schemamodel.Table, c *pg_query.Constraint) error {
	switch c.Contype {
	case pg_query.ConstrType_CONSTR_PRIMARY:
		return nil

	case pg_query.ConstrType_CONSTR_CHECK:
		expr := sqlgen.FormatExpr(c.RawExpr)
		if expr == sqlgen.UnknownExpression {
			p.log.Warn("could not serialize check expression", loggingFields(table.Name, "")...)
		}
		table.Checks = append(table.Checks, schemamodel.CheckConstraint{
			Name:       c.Conname,
			Expression: expr,
		})

	case pg_query.ConstrType_CONSTR_UNIQUE:
		table.Uniques = append(table.Uniques, schemamodel.UniqueConstraint{
			Name:              c.Conname,
			Columns:           indexElemNames(c.Keys),
			Deferrable:        c.Deferrable,
			InitiallyDeferred: c.Initdeferred,
		})

	case pg_query.ConstrType_CONSTR_FOREIGN:
		fk, err := buildForeignKey(c, indexElemNames(c.FkAttrs))
		if err != nil {
			return err
		}
		table.ForeignKeys = append(table.ForeignKeys, *fk)
	}
	return nil
}

// buildForeignKey constructs a ForeignKeyConstraint from a Constraint node of
// type CONSTR_FOREIGN. localColumns is passed in because the column list
// lives in different fields depending on whether the FK is column-level
// (the column itself) or table-level (c.FkAttrs).
func buildForeignKey(c *pg_query.Constraint, localColumns []string) (*schemamodel.ForeignKeyConstraint, error) {
	if c.Pktable == nil {
		return nil, fmt.Errorf("foreign key missing referenced table")
	}
	fk := &schemamodel.ForeignKeyConstraint{
		Name:              c.Conname,
		Columns:           localColumns,
		ReferencedTable:   c.Pktable.Relname,
		ReferencedColumns: indexElemNames(c.PkAttrs),
		Deferrable:        c.Deferrable,
		InitiallyDeferred: c.Initdeferred,
	}
	if fk.Name == "" {
		fk.Name = fmt.Sprintf("fk_%s_%s", localColumns[0], fk.ReferencedTable)
	}
	if action := referentialAction(c.FkDelAction); action != nil {
		fk.OnDelete = action
	}
	if action := referentialAction(c.FkUpdAction); action != nil {
		fk.OnUpdate = action
	}
	return fk, nil
}

// referentialAction maps pg_query's single-character FK action codes
// ('c'=cascade, 'r'=restrict, 'n'=set null, 'd'=set default, 'a'=no action)
// onto the schema model's enum. Unknown codes (including the default 'a',
// no action) are reported as absent per spec §4.2.
func referentialAction(code string) *schemamodel.ReferentialAction {
	var a schemamodel.ReferentialAction
	switch code {
	case "c":
		a = schemamodel.ActionCascade
	case "r":
		a = schemamodel.ActionRestrict
	case "n":
		a = schemamodel.ActionSetNull
	case "d":
		a = schemamodel.ActionSetDefault
	default:
		return nil
	}
	return &a
}
