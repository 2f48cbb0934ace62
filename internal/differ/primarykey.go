package differ

import (
	"fmt"

	"github.com/pgschemaplan/pgschemaplan/internal/schemamodel"
	"github.com/pgschemaplan/pgschemaplan/internal/sqlgen"
)

// diffPrimaryKeyPlan decides which of the drop/add steps spec §4.4's
// primary-key diff requires. Composition (column list) is what matters;
// names are ignored since the database often auto-generates them.
func diffPrimaryKeyPlan(current, desired *schemamodel.PrimaryKeyConstraint) (dropNeeded, addNeeded bool) {
	switch {
	case current == nil && desired == nil:
		return false, false
	case current == nil && desired != nil:
		return false, true
	case current != nil && desired == nil:
		return true, false
	default:
		if schemamodel.EqualPrimaryKeys(current, desired) {
			return false, false
		}
		return true, true
	}
}

func dropPrimaryKeyStatement(table string, current *schemamodel.PrimaryKeyConstraint) string {
	name := current.Name
	if name == "" {
		name = synthesizePKName(table)
	}
	return fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s;", sqlgen.QuoteIdent(table), sqlgen.QuoteIdent(name))
}

func addPrimaryKeyStatement(table string, desired *schemamodel.PrimaryKeyConstraint) string {
	pk := *desired
	if pk.Name == "" {
		pk.Name = synthesizePKName(table)
	}
	return fmt.Sprintf("ALTER TABLE %s ADD %s;", sqlgen.QuoteIdent(table), sqlgen.FormatPrimaryKeyClause(pk))
}

func synthesizePKName(table string) string {
	return "pk_" + table
}
