package differ

import (
	"github.com/pgschemaplan/pgschemaplan/internal/schemamodel"
	"github.com/pgschemaplan/pgschemaplan/internal/sqlgen"
)

// diffIndexes matches desired vs current indexes by name; a difference in
// any compared attribute produces a drop-then-recreate pair (spec §4.4's
// index diff).
func diffIndexes(table string, current, desired []schemamodel.Index, opts Options) []string {
	currentByName := make(map[string]schemamodel.Index, len(current))
	for _, idx := range current {
		currentByName[idx.Name] = idx
	}
	desiredByName := make(map[string]schemamodel.Index, len(desired))
	for _, idx := range desired {
		desiredByName[idx.Name] = idx
	}

	var statements []string

	for _, d := range desired {
		c, ok := currentByName[d.Name]
		if !ok {
			statements = append(statements, createIndexStatement(d, opts))
			continue
		}
		if indexesEqual(c, d) {
			continue
		}
		statements = append(statements, dropIndexStatement(c.Name, opts))
		statements = append(statements, createIndexStatement(d, opts))
	}

	for _, c := range current {
		if _, ok := desiredByName[c.Name]; !ok {
			statements = append(statements, dropIndexStatement(c.Name, opts))
		}
	}

	return statements
}

// indexesEqual compares table, method, uniqueness, exact (order-sensitive)
// column list, predicate, expression, storage parameters (unordered), and
// tablespace.
func indexesEqual(a, b schemamodel.Index) bool {
	return a.TableName == b.TableName &&
		a.EffectiveMethod() == b.EffectiveMethod() &&
		a.Unique == b.Unique &&
		schemamodel.EqualStringSlices(a.Columns, b.Columns) &&
		a.Predicate == b.Predicate &&
		a.Expression == b.Expression &&
		schemamodel.EqualStorageParams(a.Storage, b.Storage) &&
		a.Tablespace == b.Tablespace
}

func createIndexStatement(idx schemamodel.Index, opts Options) string {
	concurrent := idx.Concurrent || opts.UseConcurrentIndexes
	return sqlgen.FormatCreateIndex(idx, concurrent)
}

func dropIndexStatement(name string, opts Options) string {
	return sqlgen.FormatDropIndex(name, opts.UseConcurrentDrops)
}
