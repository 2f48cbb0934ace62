package introspect

import (
	"context"
	"database/sql"
	"regexp"
	"strings"

	"github.com/lib/pq"

	"github.com/pgschemaplan/pgschemaplan/internal/schemamodel"
)

var indexExprRe = regexp.MustCompile(`\(([^()]+(?:\([^()]*\)[^()]*)*)\)$`)

// indexes reads catalog index metadata, excluding primary-key and
// unique-constraint-backing indexes so they aren't double-counted as both
// constraints and indexes (spec §4.2).
func indexes(ctx context.Context, db Querier, schemaName, tableName string) ([]schemamodel.Index, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT
			ic.relname AS index_name,
			am.amname AS method,
			ix.indisunique,
			pg_get_expr(ix.indpred, ix.indrelid) AS predicate,
			CASE WHEN ix.indexprs IS NOT NULL THEN pg_get_indexdef(ix.indexrelid) END AS index_def,
			ic.reloptions,
			COALESCE(ts.spcname, '') AS tablespace,
			(
				SELECT array_agg(a.attname ORDER BY k.ord)
				FROM unnest(ix.indkey) WITH ORDINALITY AS k(attnum, ord)
				JOIN pg_attribute a ON a.attrelid = ix.indrelid AND a.attnum = k.attnum
				WHERE k.attnum <> 0
			) AS columns
		FROM pg_index ix
		JOIN pg_class ic ON ic.oid = ix.indexrelid
		JOIN pg_class tc ON tc.oid = ix.indrelid
		JOIN pg_namespace n ON n.oid = tc.relnamespace
		JOIN pg_am am ON am.oid = ic.relam
		LEFT JOIN pg_tablespace ts ON ts.oid = ic.reltablespace
		WHERE n.nspname = $1 AND tc.relname = $2
		  AND NOT EXISTS (
			SELECT 1 FROM pg_constraint c
			WHERE c.conindid = ix.indexrelid AND c.contype IN ('p', 'u')
		  )
		ORDER BY ic.relname
	`, schemaName, tableName)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []schemamodel.Index
	for rows.Next() {
		var (
			name, method, tablespace string
			unique                   bool
			predicate, indexDef      sql.NullString
			reloptions               []string
			columns                  []string
		)
		if err := rows.Scan(&name, &method, &unique, &predicate, &indexDef, pq.Array(&reloptions), &tablespace, pq.Array(&columns)); err != nil {
			return nil, err
		}

		idx := schemamodel.Index{
			Name:       name,
			TableName:  tableName,
			Method:     schemamodel.IndexMethod(method),
			Unique:     unique,
			Tablespace: tablespace,
			Storage:    parseReloptions(reloptions),
		}
		if predicate.Valid {
			idx.Predicate = predicate.String
		}
		if indexDef.Valid {
			idx.Expression = extractExpression(indexDef.String)
		} else {
			idx.Columns = columns
		}

		out = append(out, idx)
	}
	return out, rows.Err()
}

// extractExpression pulls the expression text out of a full index
// definition string (e.g. "CREATE INDEX i ON t USING btree (lower(name))"),
// per spec §4.2's "extracted by regex when indexprs is non-null" rule.
func extractExpression(indexDef string) string {
	m := indexExprRe.FindStringSubmatch(indexDef)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

func parseReloptions(opts []string) map[string]string {
	if len(opts) == 0 {
		return nil
	}
	out := map[string]string{}
	for _, o := range opts {
		kv := strings.SplitN(o, "=", 2)
		if len(kv) != 2 {
			continue
		}
		out[kv[0]] = kv[1]
	}
	return out
}
