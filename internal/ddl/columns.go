package ddl

import (
	"fmt"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/pgschemaplan/pgschemaplan/internal/schemamodel"
	"github.com/pgschemaplan/pgschemaplan/internal/sqlgen"
)

// parseColumnDef converts a ColumnDef node into a Column, plus an optional
// PrimaryKeyConstraint when the column carries an inline PRIMARY KEY. Column-
// level CHECK/UNIQUE/FOREIGN KEY constraints are appended directly onto table.
func (p *parser) parseColumnDef(table *schemamodel.Table, colDef *pg_query.ColumnDef) (*schemamodel.Column, *schemamodel.PrimaryKeyConstraint, error) {
	tableName := table.Name
	if colDef.Colname == "" {
		return nil, nil, fmt.Errorf("column missing name in table %q", tableName)
	}

	col := &schemamodel.Column{
		Name:     colDef.Colname,
		Nullable: true,
	}
	if colDef.TypeName != nil {
		col.Type = formatTypeName(colDef.TypeName)
	}

	var pk *schemamodel.PrimaryKeyConstraint

	for _, c := range colDef.Constraints {
		cons, ok := c.Node.(*pg_query.Node_Constraint)
		if !ok {
			continue
		}
		constraint := cons.Constraint
		switch constraint.Contype {
		case pg_query.ConstrType_CONSTR_NOTNULL:
			col.Nullable = false
		case pg_query.ConstrType_CONSTR_NULL:
			col.Nullable = true
		case pg_query.ConstrType_CONSTR_DEFAULT:
			if constraint.RawExpr != nil {
				def := sqlgen.FormatExpr(constraint.RawExpr)
				if def == sqlgen.UnknownExpression {
					p.log.Warn("could not serialize default expression", loggingFields(tableName, col.Name)...)
				}
				col.Default = &def
			}
		case pg_query.ConstrType_CONSTR_PRIMARY:
			col.Nullable = false
			pk = &schemamodel.PrimaryKeyConstraint{Name: constraint.Conname, Columns: []string{col.Name}}
		case pg_query.ConstrType_CONSTR_UNIQUE:
			name := constraint.Conname
			if name == "" {
				name = col.Name + "_unique"
			}
			table.Uniques = append(table.Uniques, schemamodel.UniqueConstraint{
				Name:    name,
				Columns: []string{col.Name},
			})
		case pg_query.ConstrType_CONSTR_CHECK:
			name := constraint.Conname
			if name == "" {
				name = col.Name + "_check"
			}
			expr := sqlgen.FormatExpr(constraint.RawExpr)
			if expr == sqlgen.UnknownExpression {
				p.log.Warn("could not serialize check expression", loggingFields(tableName, col.Name)...)
			}
			table.Checks = append(table.Checks, schemamodel.CheckConstraint{Name: name, Expression: expr})
		case pg_query.ConstrType_CONSTR_FOREIGN:
			fk, err := buildForeignKey(constraint, []string{col.Name})
			if err != nil {
				return nil, nil, err
			}
			table.ForeignKeys = append(table.ForeignKeys, *fk)
		}
	}

	return col, pk, nil
}

// pgInternalTypeNames maps pg_query's internal catalog type names back onto
// the standard SQL names a desired schema declares. pg_query normalizes
// keyword types it parses to PostgreSQL's internal names (INTEGER -> int4,
// BIGINT -> int8, BOOLEAN -> bool, DECIMAL -> numeric, REAL -> float4,
// CHAR -> bpchar, ...), so without this reversal a column declared INTEGER
// would be stored and compared as "INT4" forever. DECIMAL and NUMERIC both
// arrive as numeric, so both come back as NUMERIC.
var pgInternalTypeNames = map[string]string{
	"int2":        "SMALLINT",
	"int4":        "INTEGER",
	"int8":        "BIGINT",
	"bool":        "BOOLEAN",
	"bpchar":      "CHAR",
	"varchar":     "VARCHAR",
	"float4":      "REAL",
	"float8":      "DOUBLE PRECISION",
	"timestamptz": "TIMESTAMP WITH TIME ZONE",
	"timetz":      "TIME WITH TIME ZONE",
	"numeric":     "NUMERIC",
	"text":        "TEXT",
}

// formatTypeName renders a TypeName node as "BASE(params)", uppercased,
// e.g. VARCHAR(255), NUMERIC(10,2) (for a column declared DECIMAL(10,2)).
func formatTypeName(tn *pg_query.TypeName) string {
	if len(tn.Names) == 0 {
		return ""
	}
	var parts []string
	for _, n := range tn.Names {
		if s, ok := n.Node.(*pg_query.Node_String_); ok {
			if s.String_.Sval == "pg_catalog" {
				continue
			}
			parts = append(parts, s.String_.Sval)
		}
	}
	joined := strings.Join(parts, ".")
	var base string
	if std, ok := pgInternalTypeNames[strings.ToLower(joined)]; ok {
		base = std
	} else {
		base = strings.ToUpper(joined)
	}

	if len(tn.Typmods) > 0 {
		var mods []string
		for _, mod := range tn.Typmods {
			if c, ok := mod.Node.(*pg_query.Node_AConst); ok {
				if ival := c.AConst.GetIval(); ival != nil {
					mods = append(mods, fmt.Sprintf("%d", ival.Ival))
				}
			}
		}
		if len(mods) > 0 {
			base = fmt.Sprintf("%s(%s)", base, strings.Join(mods, ","))
		}
	}

	if len(tn.ArrayBounds) > 0 {
		base += "[]"
	}

	return base
}
