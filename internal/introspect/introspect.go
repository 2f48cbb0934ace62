// Package introspect queries a live PostgreSQL database's catalog and
// produces a schemamodel.Schema describing its current state (spec §4.2).
package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/cloudflare/backoff"

	"github.com/pgschemaplan/pgschemaplan/internal/logging"
	"github.com/pgschemaplan/pgschemaplan/internal/schemamodel"
)

// Querier is the external database-handle interface the core depends on
// (spec §6). *sql.DB satisfies it directly.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open dials postgresURL and waits for the server to answer pings, retrying
// with exponential backoff — useful right after a container or a fresh
// database has just come up.
func Open(ctx context.Context, postgresURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", postgresURL)
	if err != nil {
		return nil, fmt.Errorf("open connection: %w", err)
	}

	b := backoff.New(5*time.Second, 100*time.Millisecond)
	deadline := time.Now().Add(5 * time.Second)
	var pingErr error
	for time.Now().Before(deadline) {
		pingErr = db.PingContext(ctx)
		if pingErr == nil {
			return db, nil
		}
		time.Sleep(b.Duration())
	}

	_ = db.Close()
	return nil, fmt.Errorf("ping database: %w", pingErr)
}

// Schema introspects schemaName ("public" in the common case) and returns
// the live Schema model. Each catalog query below runs independently on the
// same connection; no cross-query transactional guarantee is required
// because planning tolerates a moment-in-time view (spec §4.2).
func Schema(ctx context.Context, db Querier, schemaName string, log logging.Logger) (*schemamodel.Schema, error) {
	if log == nil {
		log = logging.Noop{}
	}

	tableNames, err := tableNames(ctx, db, schemaName)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}

	schema := &schemamodel.Schema{}

	for _, name := range tableNames {
		table, err := introspectTable(ctx, db, schemaName, name, log)
		if err != nil {
			return nil, fmt.Errorf("introspect table %q: %w", name, err)
		}
		schema.Tables = append(schema.Tables, *table)
	}

	enums, err := enumTypes(ctx, db, schemaName)
	if err != nil {
		return nil, fmt.Errorf("list enums: %w", err)
	}
	schema.Enums = enums

	if err := schema.Validate(); err != nil {
		return nil, fmt.Errorf("introspected schema is invalid: %w", err)
	}
	return schema, nil
}

func introspectTable(ctx context.Context, db Querier, schemaName, tableName string, log logging.Logger) (*schemamodel.Table, error) {
	columns, err := columns(ctx, db, schemaName, tableName)
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}
	pk, err := primaryKey(ctx, db, schemaName, tableName)
	if err != nil {
		return nil, fmt.Errorf("primary key: %w", err)
	}
	fks, err := foreignKeys(ctx, db, schemaName, tableName, log)
	if err != nil {
		return nil, fmt.Errorf("foreign keys: %w", err)
	}
	checks, err := checkConstraints(ctx, db, schemaName, tableName)
	if err != nil {
		return nil, fmt.Errorf("check constraints: %w", err)
	}
	uniques, err := uniqueConstraints(ctx, db, schemaName, tableName)
	if err != nil {
		return nil, fmt.Errorf("unique constraints: %w", err)
	}
	indexes, err := indexes(ctx, db, schemaName, tableName)
	if err != nil {
		return nil, fmt.Errorf("indexes: %w", err)
	}
	rls, err := rlsEnabled(ctx, db, schemaName, tableName)
	if err != nil {
		return nil, fmt.Errorf("rls status: %w", err)
	}

	return &schemamodel.Table{
		Name:        tableName,
		Columns:     columns,
		PrimaryKey:  pk,
		ForeignKeys: fks,
		Checks:      checks,
		Uniques:     uniques,
		Indexes:     indexes,
		RLSEnabled:  rls,
	}, nil
}

func tableNames(ctx context.Context, db Querier, schemaName string) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`, schemaName)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func rlsEnabled(ctx context.Context, db Querier, schemaName, tableName string) (bool, error) {
	var enabled bool
	err := db.QueryRowContext(ctx, `
		SELECT relrowsecurity
		FROM pg_class c
		JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE n.nspname = $1 AND c.relname = $2
	`, schemaName, tableName).Scan(&enabled)
	if err != nil {
		return false, err
	}
	return enabled, nil
}
