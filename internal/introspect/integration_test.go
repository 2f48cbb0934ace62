//go:build integration

package introspect_test

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/pgschemaplan/pgschemaplan/internal/introspect"
	"github.com/pgschemaplan/pgschemaplan/internal/logging"
)

const defaultPostgresVersion = "16.3"

// TestSchemaAgainstLiveContainer spins up a real Postgres, creates a small
// schema exercising columns, a SERIAL PK, a FK, a check, a partial index,
// and an enum, then asserts the introspected Schema matches. Run with:
//
//	go test -tags integration ./internal/introspect/...
func TestSchemaAgainstLiveContainer(t *testing.T) {
	ctx := context.Background()

	version := os.Getenv("POSTGRES_VERSION")
	if version == "" {
		version = defaultPostgresVersion
	}

	waitForLogs := wait.
		ForLog("database system is ready to accept connections").
		WithOccurrence(2).
		WithStartupTimeout(30 * time.Second)

	ctr, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:"+version),
		testcontainers.WithWaitStrategy(waitForLogs),
	)
	if err != nil {
		t.Fatalf("start container: %v", err)
	}
	t.Cleanup(func() {
		if err := ctr.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	connStr, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}

	db, err := introspect.Open(ctx, connStr)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mustExec(t, ctx, db, `CREATE TYPE order_status AS ENUM ('pending', 'shipped', 'cancelled')`)
	mustExec(t, ctx, db, `
		CREATE TABLE users (
			id SERIAL PRIMARY KEY,
			email VARCHAR(255) NOT NULL UNIQUE
		)
	`)
	mustExec(t, ctx, db, `
		CREATE TABLE orders (
			id SERIAL PRIMARY KEY,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			status order_status NOT NULL DEFAULT 'pending',
			total DECIMAL(10,2) NOT NULL CHECK (total >= 0)
		)
	`)
	mustExec(t, ctx, db, `CREATE INDEX idx_orders_user_id ON orders (user_id) WHERE status <> 'cancelled'`)

	schema, err := introspect.Schema(ctx, db, "public", logging.Noop{})
	if err != nil {
		t.Fatalf("introspect schema: %v", err)
	}

	if len(schema.Enums) != 1 || schema.Enums[0].Name != "order_status" {
		t.Fatalf("expected one enum order_status, got %+v", schema.Enums)
	}

	usersTable := schema.FindTable("users")
	if usersTable == nil {
		t.Fatal("expected users table")
	}
	if usersTable.PrimaryKey == nil || len(usersTable.PrimaryKey.Columns) != 1 || usersTable.PrimaryKey.Columns[0] != "id" {
		t.Fatalf("expected users.id primary key, got %+v", usersTable.PrimaryKey)
	}

	ordersTable := schema.FindTable("orders")
	if ordersTable == nil {
		t.Fatal("expected orders table")
	}
	if len(ordersTable.ForeignKeys) != 1 {
		t.Fatalf("expected one foreign key on orders, got %d", len(ordersTable.ForeignKeys))
	}
	fk := ordersTable.ForeignKeys[0]
	if fk.ReferencedTable != "users" || fk.OnDelete == nil || *fk.OnDelete != "CASCADE" {
		t.Fatalf("unexpected foreign key: %+v", fk)
	}
	if len(ordersTable.Checks) != 1 {
		t.Fatalf("expected one check constraint on orders, got %d", len(ordersTable.Checks))
	}

	foundPartialIndex := false
	for _, idx := range ordersTable.Indexes {
		if idx.Name == "idx_orders_user_id" {
			foundPartialIndex = true
			if idx.Predicate == "" {
				t.Error("expected idx_orders_user_id to carry a partial predicate")
			}
		}
	}
	if !foundPartialIndex {
		t.Error("expected idx_orders_user_id to be introspected")
	}
}

func mustExec(t *testing.T, ctx context.Context, db *sql.DB, query string) {
	t.Helper()
	if _, err := db.ExecContext(ctx, query); err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
}
