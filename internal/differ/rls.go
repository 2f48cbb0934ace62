package differ

import (
	"fmt"

	"github.com/pgschemaplan/pgschemaplan/internal/sqlgen"
)

// diffRLS emits an ALTER TABLE ... ROW LEVEL SECURITY statement when the
// table's RLSEnabled flag differs between current and desired.
func diffRLS(table string, current, desired bool) []string {
	if current == desired {
		return nil
	}
	verb := "DISABLE"
	if desired {
		verb = "ENABLE"
	}
	return []string{fmt.Sprintf("ALTER TABLE %s %s ROW LEVEL SECURITY;", sqlgen.QuoteIdent(table), verb)}
}
