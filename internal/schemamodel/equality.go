package schemamodel

import (
	"sort"
	"strings"
)

// typeAliases maps PostgreSQL catalog/verbose type spellings onto the
// canonical names the differ compares by (spec §4.4's columns-are-different
// predicate).
var typeAliases = map[string]string{
	"CHARACTER VARYING":          "VARCHAR",
	"TEXT":                       "TEXT",
	"BOOLEAN":                    "BOOLEAN",
	"TIMESTAMP WITHOUT TIME ZONE": "TIMESTAMP",
}

// NormalizeType canonicalizes a SQL type string for equality comparison:
// uppercase, with known verbose catalog spellings collapsed to their short
// form. Parameters (e.g. "(255)") are preserved verbatim.
func NormalizeType(t string) string {
	upper := strings.ToUpper(strings.TrimSpace(t))

	// Split "character varying(255)" -> base "CHARACTER VARYING", params "(255)"
	base := upper
	params := ""
	if idx := strings.IndexByte(upper, '('); idx >= 0 {
		base = strings.TrimSpace(upper[:idx])
		params = upper[idx:]
	}

	if alias, ok := typeAliases[base]; ok {
		return alias + params
	}
	return base + params
}

// IsSerialDefault reports whether a default expression is a sequence
// default of the form nextval('...'::regclass), the marker PostgreSQL uses
// for SERIAL/BIGSERIAL columns.
func IsSerialDefault(def *string) bool {
	if def == nil {
		return false
	}
	return strings.HasPrefix(strings.TrimSpace(*def), "nextval(")
}

// EqualDefaults treats nil and "" as equivalent absence of a default.
func EqualDefaults(a, b *string) bool {
	av, aok := normalizedDefault(a)
	bv, bok := normalizedDefault(b)
	if aok != bok {
		return false
	}
	if !aok {
		return true
	}
	return av == bv
}

func normalizedDefault(d *string) (string, bool) {
	if d == nil || *d == "" {
		return "", false
	}
	return *d, true
}

// EqualStringSlices compares two ordered string slices for exact equality,
// including order (used for PK/FK/unique/index column lists where order is
// significant).
func EqualStringSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// EqualStringSets compares two string slices ignoring order (used for
// storage-parameter key sets and similar unordered collections).
func EqualStringSets(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	return EqualStringSlices(as, bs)
}

// EqualStorageParams compares two storage-parameter maps for unordered
// key/value equality.
func EqualStorageParams(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}

// EqualPrimaryKeys compares two primary keys by column composition only;
// names are ignored because the database often auto-generates them.
func EqualPrimaryKeys(a, b *PrimaryKeyConstraint) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return EqualStringSlices(a.Columns, b.Columns)
}
