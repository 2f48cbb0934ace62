package ddl

import (
	"fmt"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/pgschemaplan/pgschemaplan/internal/schemamodel"
	"github.com/pgschemaplan/pgschemaplan/internal/sqlgen"
)

// parseCreateIndex converts an IndexStmt into an Index attached to its
// table. Per spec §4.1: a single parenthesized item that is itself an
// expression (function call, cast, case, binary op, paren) makes this an
// expression index; otherwise each item is parsed as a plain column name.
func (p *parser) parseCreateIndex(stmt *pg_query.IndexStmt) error {
	if stmt.Relation == nil {
		return fmt.Errorf("CREATE INDEX missing relation")
	}
	idx := schemamodel.Index{
		Name:       stmt.Idxname,
		TableName:  stmt.Relation.Relname,
		Unique:     stmt.Unique,
		Concurrent: stmt.Concurrent,
	}
	if stmt.AccessMethod != "" {
		idx.Method = schemamodel.IndexMethod(strings.ToLower(stmt.AccessMethod))
	}
	if stmt.WhereClause != nil {
		idx.Predicate = sqlgen.FormatExpr(stmt.WhereClause)
	}
	if stmt.TableSpace != "" {
		idx.Tablespace = stmt.TableSpace
	}
	if len(stmt.Options) > 0 {
		idx.Storage = parseRelOptions(stmt.Options)
	}

	if len(stmt.IndexParams) == 1 && stmt.IndexParams[0].GetIndexElem().GetExpr() != nil {
		idx.Expression = sqlgen.FormatExpr(stmt.IndexParams[0].GetIndexElem().GetExpr())
	} else {
		for _, param := range stmt.IndexParams {
			elem := param.GetIndexElem()
			if elem == nil {
				continue
			}
			if elem.Name != "" {
				idx.Columns = append(idx.Columns, elem.Name)
			} else if elem.Expr != nil {
				// Mixed column/expression index params are rare; fall back
				// to the serialized expression text for this position.
				idx.Columns = append(idx.Columns, sqlgen.FormatExpr(elem.Expr))
			}
		}
	}

	table, ok := p.tables[idx.TableName]
	if !ok {
		return fmt.Errorf("%w: index %q references table %q not defined earlier in the schema",
			schemamodel.ErrInvariantViolation, idx.Name, idx.TableName)
	}
	table.Indexes = append(table.Indexes, idx)

	// Keep the recorded table value (p.tableOrder) in sync with the pointer
	// map, since parseCreateTable appended the table by value.
	for i := range p.tableOrder {
		if p.tableOrder[i].Name == idx.TableName {
			p.tableOrder[i].Indexes = table.Indexes
			break
		}
	}
	return nil
}

// parseRelOptions parses storage-parameter nodes of the form "key=value" or
// "key" (DefElem) into a map.
func parseRelOptions(opts []*pg_query.Node) map[string]string {
	out := map[string]string{}
	for _, o := range opts {
		def, ok := o.Node.(*pg_query.Node_DefElem)
		if !ok || def.DefElem.Defname == "" {
			continue
		}
		val := sqlgen.FormatExpr(def.DefElem.Arg)
		out[def.DefElem.Defname] = val
	}
	return out
}
