package differ

import (
	"github.com/pgschemaplan/pgschemaplan/internal/logging"
	"github.com/pgschemaplan/pgschemaplan/internal/schemamodel"
)

// diffTable emits the full ordered statement sequence for one table present
// in both schemas, per spec §4.4 step 1: PK drops, column changes, PK
// adds, index diffs, then constraint diffs.
func diffTable(current, desired schemamodel.Table, opts Options, log logging.Logger) ([]string, error) {
	var statements []string

	pkDropNeeded, pkAddNeeded := diffPrimaryKeyPlan(current.PrimaryKey, desired.PrimaryKey)

	if pkDropNeeded {
		statements = append(statements, dropPrimaryKeyStatement(current.Name, current.PrimaryKey))
	}

	colAdds, colDrops, colMods := diffColumns(current, desired)
	droppedColumns := make(map[string]bool, len(colDrops))
	for _, c := range colDrops {
		droppedColumns[c.Name] = true
	}

	for _, c := range colAdds {
		statements = append(statements, addColumnStatement(current.Name, c))
	}
	for _, m := range colMods {
		statements = append(statements, modifyColumnStatements(current.Name, m)...)
	}
	for _, c := range colDrops {
		statements = append(statements, dropColumnStatement(current.Name, c))
	}

	if pkAddNeeded {
		statements = append(statements, addPrimaryKeyStatement(current.Name, desired.PrimaryKey))
	}

	statements = append(statements, diffIndexes(current.Name, current.Indexes, desired.Indexes, opts)...)

	// Foreign-key drops are skipped here when the FK's columns are already
	// gone: the column drop above implicitly cascade-drops the FK.
	statements = append(statements, diffChecks(current.Name, current.Checks, desired.Checks)...)
	statements = append(statements, diffUniques(current.Name, current.Uniques, desired.Uniques)...)
	statements = append(statements, diffForeignKeys(current.Name, current.ForeignKeys, desired.ForeignKeys, droppedColumns)...)
	statements = append(statements, diffRLS(current.Name, current.RLSEnabled, desired.RLSEnabled)...)

	return statements, nil
}
