package introspect

import (
	"database/sql"
	"testing"
)

func TestNormalizeDefaultStripsTrailingCast(t *testing.T) {
	cases := map[string]string{
		"'pending'::character varying": "'pending'",
		"0::numeric":                   "0",
		"true":                         "true",
		"nextval('users_id_seq'::regclass)": "nextval('users_id_seq'::regclass)",
	}
	for in, want := range cases {
		if got := normalizeDefault(in); got != want {
			t.Errorf("normalizeDefault(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatCatalogType(t *testing.T) {
	cases := []struct {
		dataType              string
		charLen, prec, scale  sql.NullInt64
		want                  string
	}{
		{"character varying", sql.NullInt64{Int64: 255, Valid: true}, sql.NullInt64{}, sql.NullInt64{}, "CHARACTER VARYING(255)"},
		{"numeric", sql.NullInt64{}, sql.NullInt64{Int64: 10, Valid: true}, sql.NullInt64{Int64: 2, Valid: true}, "NUMERIC(10,2)"},
		{"integer", sql.NullInt64{}, sql.NullInt64{}, sql.NullInt64{}, "INTEGER"},
	}
	for _, c := range cases {
		if got := formatCatalogType(c.dataType, c.charLen, c.prec, c.scale); got != c.want {
			t.Errorf("formatCatalogType(%q) = %q, want %q", c.dataType, got, c.want)
		}
	}
}
