package ddl

import (
	"fmt"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/pgschemaplan/pgschemaplan/internal/schemamodel"
)

// parseAlterTable accepts exactly one ALTER TABLE shape: ENABLE/DISABLE ROW
// LEVEL SECURITY. RLS has no CREATE TABLE-inline spelling in PostgreSQL, so
// this narrow carve-out is how a declarative schema file expresses it.
// Every other ALTER TABLE subcommand (ADD/DROP COLUMN, ADD/DROP CONSTRAINT,
// ALTER COLUMN TYPE, ...) stays rejected: those changes belong to the differ,
// never to the desired-schema source text.
func (p *parser) parseAlterTable(stmt *pg_query.AlterTableStmt) error {
	if stmt.Relation == nil {
		return fmt.Errorf("ALTER TABLE missing relation")
	}
	tableName := stmt.Relation.Relname
	table, ok := p.tables[tableName]
	if !ok {
		return fmt.Errorf("%w: ALTER TABLE %q references a table not defined earlier in the schema",
			schemamodel.ErrInvariantViolation, tableName)
	}

	for _, c := range stmt.Cmds {
		cmd, ok := c.Node.(*pg_query.Node_AlterTableCmd)
		if !ok {
			continue
		}
		switch cmd.AlterTableCmd.Subtype {
		case pg_query.AlterTableType_AT_EnableRowSecurity:
			table.RLSEnabled = true
		case pg_query.AlterTableType_AT_DisableRowSecurity:
			table.RLSEnabled = false
		default:
			return fmt.Errorf("%w: ALTER TABLE %s only supports ENABLE/DISABLE ROW LEVEL SECURITY in declarative schema",
				schemamodel.ErrUnsupportedStatement, tableName)
		}
	}

	for i := range p.tableOrder {
		if p.tableOrder[i].Name == tableName {
			p.tableOrder[i].RLSEnabled = table.RLSEnabled
			break
		}
	}
	return nil
}
