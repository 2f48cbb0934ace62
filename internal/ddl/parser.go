// Package ddl parses PostgreSQL DDL text into a schemamodel.Schema. Only
// CREATE TABLE, CREATE INDEX, and CREATE TYPE ... AS ENUM are accepted, plus
// ALTER TABLE ... ENABLE/DISABLE ROW LEVEL SECURITY (see parseAlterTable);
// every other imperative statement (other ALTER TABLE forms, DROP TABLE,
// DROP INDEX) is rejected, since the engine is declarative end-to-end.
package ddl

import (
	"fmt"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/pgschemaplan/pgschemaplan/internal/logging"
	"github.com/pgschemaplan/pgschemaplan/internal/schemamodel"
)

// Parse converts sql into a Schema. log receives non-fatal warnings (e.g.
// conflicting PK definitions, unrecognized expression shapes); pass
// logging.Noop{} to discard them.
func Parse(sql string, log logging.Logger) (*schemamodel.Schema, error) {
	if log == nil {
		log = logging.Noop{}
	}

	tree, err := pg_query.Parse(sql)
	if err != nil {
		return nil, fmt.Errorf("parse SQL: %w", err)
	}

	p := &parser{log: log, tables: map[string]*schemamodel.Table{}}

	for _, stmt := range tree.Stmts {
		if stmt.Stmt == nil {
			continue
		}
		if err := p.parseStmt(stmt.Stmt); err != nil {
			return nil, err
		}
	}

	schema := &schemamodel.Schema{
		Tables: p.tableOrder,
		Enums:  p.enums,
	}
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	return schema, nil
}

type parser struct {
	log        logging.Logger
	tables     map[string]*schemamodel.Table
	tableOrder []schemamodel.Table
	enums      []schemamodel.EnumType
}

func (p *parser) parseStmt(node *pg_query.Node) error {
	switch n := node.Node.(type) {
	case *pg_query.Node_CreateStmt:
		return p.parseCreateTable(n.CreateStmt)
	case *pg_query.Node_IndexStmt:
		return p.parseCreateIndex(n.IndexStmt)
	case *pg_query.Node_CreateEnumStmt:
		return p.parseCreateEnum(n.CreateEnumStmt)
	case *pg_query.Node_AlterTableStmt:
		return p.parseAlterTable(n.AlterTableStmt)
	case *pg_query.Node_DropStmt:
		return fmt.Errorf("%w: DROP is not supported in declarative schema", schemamodel.ErrUnsupportedStatement)
	default:
		// Other statement kinds (e.g. COMMENT ON) are ignored rather than
		// rejected; they carry no schema-model information.
		return nil
	}
}

func (p *parser) parseCreateTable(stmt *pg_query.CreateStmt) error {
	if stmt.Relation == nil {
		return fmt.Errorf("CREATE TABLE missing relation")
	}
	table := &schemamodel.Table{Name: stmt.Relation.Relname}

	var colLevelPK *schemamodel.PrimaryKeyConstraint
	var tableLevelPK *schemamodel.PrimaryKeyConstraint

	for _, elt := range stmt.TableElts {
		if elt.Node == nil {
			continue
		}
		switch node := elt.Node.(type) {
		case *pg_query.Node_ColumnDef:
			col, pk, err := p.parseColumnDef(table, node.ColumnDef)
			if err != nil {
				return err
			}
			table.Columns = append(table.Columns, *col)
			if pk != nil {
				if colLevelPK != nil {
					return fmt.Errorf("%w: table %q has multiple column-level primary keys", schemamodel.ErrInvariantViolation, table.Name)
				}
				colLevelPK = pk
			}
		case *pg_query.Node_Constraint:
			if err := p.parseTableConstraint(table, node.Constraint); err != nil {
				return err
			}
			if node.Constraint.Contype == pg_query.ConstrType_CONSTR_PRIMARY {
				tableLevelPK = buildPrimaryKey(node.Constraint)
			}
		}
	}

	switch {
	case tableLevelPK != nil && colLevelPK != nil:
		p.log.Warn("table-level PRIMARY KEY overrides column-level PRIMARY KEY",
			logging.F("table", table.Name))
		table.PrimaryKey = tableLevelPK
	case tableLevelPK != nil:
		table.PrimaryKey = tableLevelPK
	case colLevelPK != nil:
		table.PrimaryKey = colLevelPK
	}

	p.tables[table.Name] = table
	p.tableOrder = append(p.tableOrder, *table)
	return nil
}

func buildPrimaryKey(c *pg_query.Constraint) *schemamodel.PrimaryKeyConstraint {
	return &schemamodel.PrimaryKeyConstraint{
		Name:    c.Conname,
		Columns: indexElemNames(c.Keys),
	}
}

func indexElemNames(keys []*pg_query.Node) []string {
	var names []string
	for _, k := range keys {
		if s, ok := k.Node.(*pg_query.Node_String_); ok {
			names = append(names, s.String_.Sval)
		}
	}
	return names
}

// parseCreateEnum converts CREATE TYPE name AS ENUM (...) into an EnumType.
func (p *parser) parseCreateEnum(stmt *pg_query.CreateEnumStmt) error {
	name := lastName(stmt.TypeName)
	var values []string
	for _, v := range stmt.Vals {
		if s, ok := v.Node.(*pg_query.Node_String_); ok {
			values = append(values, s.String_.Sval)
		}
	}
	if len(values) == 0 {
		return fmt.Errorf("%w: enum %q", schemamodel.ErrEmptyEnum, name)
	}
	p.enums = append(p.enums, schemamodel.EnumType{Name: name, Values: values})
	return nil
}

func lastName(names []*pg_query.Node) string {
	if len(names) == 0 {
		return ""
	}
	if s, ok := names[len(names)-1].Node.(*pg_query.Node_String_); ok {
		return s.String_.Sval
	}
	return ""
}
