package differ

import (
	"fmt"
	"strings"

	"github.com/pgschemaplan/pgschemaplan/internal/schemamodel"
	"github.com/pgschemaplan/pgschemaplan/internal/sqlgen"
)

// columnModification is everything needed to synthesize the ALTER COLUMN
// sequence for one changed column.
type columnModification struct {
	Name               string
	Current            schemamodel.Column
	Desired            schemamodel.Column
	TypeChanged        bool
	DefaultChanged     bool
	NullabilityChanged bool
}

// diffColumns partitions a table's column set into adds, drops, and
// modifications, matching by column name.
func diffColumns(current, desired schemamodel.Table) (adds []schemamodel.Column, drops []schemamodel.Column, mods []columnModification) {
	currentByName := make(map[string]schemamodel.Column, len(current.Columns))
	for _, c := range current.Columns {
		currentByName[c.Name] = c
	}
	desiredByName := make(map[string]schemamodel.Column, len(desired.Columns))
	for _, c := range desired.Columns {
		desiredByName[c.Name] = c
	}

	for _, d := range desired.Columns {
		c, ok := currentByName[d.Name]
		if !ok {
			adds = append(adds, d)
			continue
		}
		typeChanged, defaultChanged, nullChanged := columnsAreDifferent(c, d)
		if typeChanged || defaultChanged || nullChanged {
			mods = append(mods, columnModification{
				Name: d.Name, Current: c, Desired: d,
				TypeChanged: typeChanged, DefaultChanged: defaultChanged, NullabilityChanged: nullChanged,
			})
		}
	}
	for _, c := range current.Columns {
		if _, ok := desiredByName[c.Name]; !ok {
			drops = append(drops, c)
		}
	}
	return adds, drops, mods
}

// serialCounterparts maps a SERIAL-family type to the plain integer type
// PostgreSQL actually stores it as.
var serialCounterparts = map[string]string{
	"SERIAL":      "INTEGER",
	"BIGSERIAL":   "BIGINT",
	"SMALLSERIAL": "SMALLINT",
}

// columnsAreDifferent implements spec §4.4's columns-are-different
// predicate: normalized-type, default, and nullability comparison, with
// two SERIAL-related exceptions.
func columnsAreDifferent(current, desired schemamodel.Column) (typeChanged, defaultChanged, nullabilityChanged bool) {
	curNorm := schemamodel.NormalizeType(current.Type)
	desNorm := schemamodel.NormalizeType(desired.Type)

	desBase, _ := splitTypeParams(desNorm)
	curBase, _ := splitTypeParams(curNorm)

	if plainCounterpart, isSerial := serialCounterparts[desBase]; isSerial &&
		curBase == plainCounterpart && schemamodel.IsSerialDefault(current.Default) {
		// Desired SERIAL vs current integer-with-nextval-default: not a
		// difference in type or default (spec's first SERIAL exception).
		nullabilityChanged = current.Nullable != desired.Nullable
		return false, false, nullabilityChanged
	}

	typeChanged = curNorm != desNorm
	defaultChanged = !schemamodel.EqualDefaults(current.Default, desired.Default)
	nullabilityChanged = current.Nullable != desired.Nullable
	return typeChanged, defaultChanged, nullabilityChanged
}

func splitTypeParams(normalized string) (base, params string) {
	if idx := strings.IndexByte(normalized, '('); idx >= 0 {
		return normalized[:idx], normalized[idx:]
	}
	return normalized, ""
}

func addColumnStatement(table string, c schemamodel.Column) string {
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s;", sqlgen.QuoteIdent(table), sqlgen.FormatColumn(c))
}

func dropColumnStatement(table string, c schemamodel.Column) string {
	return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s;", sqlgen.QuoteIdent(table), sqlgen.QuoteIdent(c.Name))
}

// modifyColumnStatements synthesizes the minimal ordered ALTER COLUMN
// sequence per spec §4.4's modify algorithm.
func modifyColumnStatements(table string, m columnModification) []string {
	var statements []string
	col := sqlgen.QuoteIdent(m.Name)
	prefix := fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s", sqlgen.QuoteIdent(table), col)

	droppedDefaultAlready := false
	if m.TypeChanged && m.DefaultChanged && m.Current.Default != nil {
		statements = append(statements, fmt.Sprintf("%s DROP DEFAULT;", prefix))
		droppedDefaultAlready = true
	}

	if m.TypeChanged {
		target := alterTargetType(m.Desired.Type)
		using := usingClauseFor(col, m.Current.Type, target)
		if using != "" {
			statements = append(statements, fmt.Sprintf("%s TYPE %s USING %s;", prefix, target, using))
		} else {
			statements = append(statements, fmt.Sprintf("%s TYPE %s;", prefix, target))
		}
	}

	if m.DefaultChanged {
		if m.Desired.Default == nil {
			if !droppedDefaultAlready {
				statements = append(statements, fmt.Sprintf("%s DROP DEFAULT;", prefix))
			}
		} else {
			statements = append(statements, fmt.Sprintf("%s SET DEFAULT %s;", prefix, *m.Desired.Default))
		}
	}

	if m.NullabilityChanged {
		if m.Desired.Nullable {
			statements = append(statements, fmt.Sprintf("%s DROP NOT NULL;", prefix))
		} else {
			statements = append(statements, fmt.Sprintf("%s SET NOT NULL;", prefix))
		}
	}

	return statements
}

// alterTargetType substitutes the plain integer type for a SERIAL family
// type: SERIAL cannot be used as an ALTER COLUMN TYPE target (spec §4.4).
// The sequence itself is not managed here.
func alterTargetType(desiredType string) string {
	norm := schemamodel.NormalizeType(desiredType)
	base, params := splitTypeParams(norm)
	if plain, ok := serialCounterparts[base]; ok {
		return plain + params
	}
	return norm
}

// usingClauseFor synthesizes a USING clause when converting from a textual
// type to numeric/boolean, per spec §4.4's type-conversion rules. Returns
// "" when a plain ALTER COLUMN TYPE suffices.
func usingClauseFor(column, currentType, targetType string) string {
	curNorm := schemamodel.NormalizeType(currentType)
	curBase, _ := splitTypeParams(curNorm)
	if curBase != "VARCHAR" && curBase != "TEXT" {
		return ""
	}

	targetBase, _ := splitTypeParams(targetType)
	switch targetBase {
	case "DECIMAL", "NUMERIC":
		return fmt.Sprintf("%s::%s", column, targetType)
	case "INTEGER", "BIGINT", "SMALLINT":
		return fmt.Sprintf("TRUNC(%s::DECIMAL)::%s", column, strings.ToLower(targetBase))
	case "BOOLEAN":
		return column + "::boolean"
	}
	return ""
}
