package ddl

import "github.com/pgschemaplan/pgschemaplan/internal/logging"

func loggingFields(table, column string) []logging.Field {
	return []logging.Field{
		logging.F("table", table),
		logging.F("column", column),
	}
}
