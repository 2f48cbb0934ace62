package introspect

import (
	"context"
	"database/sql"
	"regexp"
	"strconv"
	"strings"

	"github.com/pgschemaplan/pgschemaplan/internal/schemamodel"
)

func columns(ctx context.Context, db Querier, schemaName, tableName string) ([]schemamodel.Column, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT column_name, data_type, character_maximum_length,
		       numeric_precision, numeric_scale, is_nullable, column_default
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position
	`, schemaName, tableName)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var columns []schemamodel.Column
	for rows.Next() {
		var (
			name, dataType, nullable string
			charLen, numPrec, numSc  sql.NullInt64
			defaultVal               sql.NullString
		)
		if err := rows.Scan(&name, &dataType, &charLen, &numPrec, &numSc, &nullable, &defaultVal); err != nil {
			return nil, err
		}

		col := schemamodel.Column{
			Name:     name,
			Type:     formatCatalogType(dataType, charLen, numPrec, numSc),
			Nullable: nullable == "YES",
		}
		if defaultVal.Valid {
			normalized := normalizeDefault(defaultVal.String)
			col.Default = &normalized
		}

		if isSerial, serialType := serialColumn(ctx, db, schemaName, tableName, name, dataType, col.Nullable, defaultVal); isSerial {
			col.Type = serialType
			col.Default = nil
		}

		columns = append(columns, col)
	}
	return columns, rows.Err()
}

// formatCatalogType renders information_schema.columns' split type
// representation back into a single "TYPE(params)" string, e.g.
// "VARCHAR(255)", "NUMERIC(10,2)".
func formatCatalogType(dataType string, charLen, numPrec, numScale sql.NullInt64) string {
	base := strings.ToUpper(dataType)
	switch {
	case charLen.Valid:
		return base + "(" + strconv.FormatInt(charLen.Int64, 10) + ")"
	case numPrec.Valid && numScale.Valid && numScale.Int64 > 0:
		return base + "(" + strconv.FormatInt(numPrec.Int64, 10) + "," + strconv.FormatInt(numScale.Int64, 10) + ")"
	case numPrec.Valid:
		return base + "(" + strconv.FormatInt(numPrec.Int64, 10) + ")"
	default:
		return base
	}
}

// defaultCastRe matches a redundant trailing type cast on a default
// expression, e.g. "'pending'::character varying" or "0::numeric". It only
// matches when the cast is the last thing in the string, so it never
// touches a cast nested inside a function call like nextval('s'::regclass).
var defaultCastRe = regexp.MustCompile(`::"?[A-Za-z_ ]+"?(\([0-9, ]+\))?(\[\])?$`)

// normalizeDefault strips a redundant trailing ::type cast from a catalog
// default expression, reducing false-positive diffs against a desired
// schema whose DDL text never spells the cast out explicitly.
func normalizeDefault(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if loc := defaultCastRe.FindStringIndex(trimmed); loc != nil {
		return trimmed[:loc[0]]
	}
	return trimmed
}

var serialSequenceRe = regexp.MustCompile(`nextval\('([^']+)'::regclass\)`)

// serialColumn detects SERIAL/BIGSERIAL/SMALLSERIAL columns by checking that
// the sequence named in the column's nextval(...) default is owned by this
// column (spec §4.2's SERIAL-detection rule, grounded on the stricter
// ownership check rather than a bare substring match on the default text).
func serialColumn(ctx context.Context, db Querier, schemaName, tableName, columnName, dataType string, nullable bool, defaultVal sql.NullString) (bool, string) {
	if nullable || !defaultVal.Valid {
		return false, ""
	}

	var serialType string
	switch strings.ToLower(dataType) {
	case "smallint":
		serialType = "SMALLSERIAL"
	case "integer":
		serialType = "SERIAL"
	case "bigint":
		serialType = "BIGSERIAL"
	default:
		return false, ""
	}

	matches := serialSequenceRe.FindStringSubmatch(defaultVal.String)
	if len(matches) < 2 {
		return false, ""
	}
	sequenceName := matches[1]
	if idx := strings.LastIndex(sequenceName, "."); idx >= 0 {
		sequenceName = sequenceName[idx+1:]
	}
	sequenceName = strings.Trim(sequenceName, `"`)

	var ownerColumn string
	err := db.QueryRowContext(ctx, `
		SELECT a.attname
		FROM pg_class s
		JOIN pg_depend d ON d.objid = s.oid AND d.classid = 'pg_class'::regclass
		JOIN pg_class t ON t.oid = d.refobjid
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = d.refobjsubid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		WHERE s.relkind = 'S' AND n.nspname = $1 AND t.relname = $2 AND s.relname = $3
	`, schemaName, tableName, sequenceName).Scan(&ownerColumn)
	if err != nil {
		return false, ""
	}
	return ownerColumn == columnName, serialType
}
