package introspect

import (
	"context"

	"github.com/pgschemaplan/pgschemaplan/internal/schemamodel"
)

// enumTypes enumerates enum types and their labels in catalog sort order
// (pg_enum.enumsortorder), grouped by type name (spec §4.2).
func enumTypes(ctx context.Context, db Querier, schemaName string) ([]schemamodel.EnumType, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT t.typname, e.enumlabel
		FROM pg_type t
		JOIN pg_namespace n ON n.oid = t.typnamespace
		JOIN pg_enum e ON e.enumtypid = t.oid
		WHERE n.nspname = $1
		ORDER BY t.typname, e.enumsortorder
	`, schemaName)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	byName := map[string]*schemamodel.EnumType{}
	var order []string
	for rows.Next() {
		var name, label string
		if err := rows.Scan(&name, &label); err != nil {
			return nil, err
		}
		e, ok := byName[name]
		if !ok {
			e = &schemamodel.EnumType{Name: name}
			byName[name] = e
			order = append(order, name)
		}
		e.Values = append(e.Values, label)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]schemamodel.EnumType, 0, len(order))
	for _, name := range order {
		out = append(out, *byName[name])
	}
	return out, nil
}
