package ddl_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/pgschemaplan/pgschemaplan/internal/ddl"
	"github.com/pgschemaplan/pgschemaplan/internal/logging"
	"github.com/pgschemaplan/pgschemaplan/internal/schemamodel"
)

func TestParseSimpleTable(t *testing.T) {
	schema, err := ddl.Parse(`
		CREATE TABLE users (
			id SERIAL PRIMARY KEY,
			email VARCHAR(255) NOT NULL UNIQUE,
			bio TEXT
		);
	`, logging.Noop{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	table := schema.FindTable("users")
	if table == nil {
		t.Fatal("expected a users table")
	}
	if table.PrimaryKey == nil || !schemamodel.EqualStringSlices(table.PrimaryKey.Columns, []string{"id"}) {
		t.Fatalf("expected id primary key, got %+v", table.PrimaryKey)
	}
	if len(table.Uniques) != 1 || !schemamodel.EqualStringSlices(table.Uniques[0].Columns, []string{"email"}) {
		t.Fatalf("expected a unique constraint on email, got %+v", table.Uniques)
	}

	email := table.FindColumn("email")
	if email == nil || email.Nullable {
		t.Fatalf("expected email to be NOT NULL, got %+v", email)
	}
	bio := table.FindColumn("bio")
	if bio == nil || !bio.Nullable {
		t.Fatalf("expected bio to be nullable, got %+v", bio)
	}
}

func TestParseTableLevelPrimaryKeyOverridesColumnLevel(t *testing.T) {
	schema, err := ddl.Parse(`
		CREATE TABLE memberships (
			user_id INTEGER PRIMARY KEY,
			org_id INTEGER,
			PRIMARY KEY (user_id, org_id)
		);
	`, logging.Noop{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	table := schema.FindTable("memberships")
	if !schemamodel.EqualStringSlices(table.PrimaryKey.Columns, []string{"user_id", "org_id"}) {
		t.Fatalf("expected table-level composite primary key to win, got %+v", table.PrimaryKey.Columns)
	}
}

func TestParseForeignKeyWithOnDelete(t *testing.T) {
	schema, err := ddl.Parse(`
		CREATE TABLE users (id SERIAL PRIMARY KEY);
		CREATE TABLE orders (
			id SERIAL PRIMARY KEY,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE
		);
	`, logging.Noop{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	orders := schema.FindTable("orders")
	if len(orders.ForeignKeys) != 1 {
		t.Fatalf("expected one foreign key, got %d", len(orders.ForeignKeys))
	}
	fk := orders.ForeignKeys[0]
	if fk.ReferencedTable != "users" || fk.OnDelete == nil || *fk.OnDelete != schemamodel.ActionCascade {
		t.Fatalf("unexpected foreign key: %+v", fk)
	}
}

func TestParseCheckConstraintExpression(t *testing.T) {
	schema, err := ddl.Parse(`
		CREATE TABLE orders (
			id SERIAL PRIMARY KEY,
			total DECIMAL(10,2) NOT NULL CHECK (total >= 0)
		);
	`, logging.Noop{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	orders := schema.FindTable("orders")
	if len(orders.Checks) != 1 {
		t.Fatalf("expected one check constraint, got %d", len(orders.Checks))
	}
	if orders.Checks[0].Expression != "total >= 0" {
		t.Fatalf("got expression %q", orders.Checks[0].Expression)
	}
}

func TestParseDefaultExpression(t *testing.T) {
	schema, err := ddl.Parse(`
		CREATE TABLE orders (
			id SERIAL PRIMARY KEY,
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`, logging.Noop{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	orders := schema.FindTable("orders")
	status := orders.FindColumn("status")
	if status == nil || status.Default == nil || *status.Default != "'pending'" {
		t.Fatalf("unexpected status default: %+v", status)
	}
	createdAt := orders.FindColumn("created_at")
	if createdAt == nil || createdAt.Default == nil || *createdAt.Default != "CURRENT_TIMESTAMP" {
		t.Fatalf("unexpected created_at default: %+v", createdAt)
	}
}

func TestParseCreateIndexPartialAndExpression(t *testing.T) {
	schema, err := ddl.Parse(`
		CREATE TABLE orders (id SERIAL PRIMARY KEY, user_id INTEGER, status VARCHAR(20), email VARCHAR(255));
		CREATE INDEX idx_orders_user_id ON orders (user_id) WHERE status <> 'cancelled';
		CREATE UNIQUE INDEX idx_orders_lower_email ON orders (lower(email));
	`, logging.Noop{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	orders := schema.FindTable("orders")
	if len(orders.Indexes) != 2 {
		t.Fatalf("expected two indexes, got %d", len(orders.Indexes))
	}

	var partial, expr *schemamodel.Index
	for i := range orders.Indexes {
		switch orders.Indexes[i].Name {
		case "idx_orders_user_id":
			partial = &orders.Indexes[i]
		case "idx_orders_lower_email":
			expr = &orders.Indexes[i]
		}
	}
	if partial == nil || partial.Predicate == "" {
		t.Fatalf("expected a partial predicate on idx_orders_user_id, got %+v", partial)
	}
	if expr == nil || expr.Expression == "" || len(expr.Columns) != 0 {
		t.Fatalf("expected idx_orders_lower_email to be an expression index, got %+v", expr)
	}
	if !expr.Unique {
		t.Error("expected idx_orders_lower_email to be unique")
	}
}

func TestParseEnum(t *testing.T) {
	schema, err := ddl.Parse(`CREATE TYPE order_status AS ENUM ('pending', 'shipped', 'cancelled');`, logging.Noop{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(schema.Enums) != 1 || schema.Enums[0].Name != "order_status" {
		t.Fatalf("unexpected enums: %+v", schema.Enums)
	}
	if !schemamodel.EqualStringSlices(schema.Enums[0].Values, []string{"pending", "shipped", "cancelled"}) {
		t.Fatalf("unexpected enum values: %+v", schema.Enums[0].Values)
	}
}

func TestParseRejectsAlterTable(t *testing.T) {
	_, err := ddl.Parse(`
		CREATE TABLE users (id SERIAL PRIMARY KEY);
		ALTER TABLE users ADD COLUMN age INTEGER;
	`, logging.Noop{})
	if !errors.Is(err, schemamodel.ErrUnsupportedStatement) {
		t.Fatalf("expected ErrUnsupportedStatement, got %v", err)
	}
}

func TestParseRejectsDropTable(t *testing.T) {
	_, err := ddl.Parse(`DROP TABLE users;`, logging.Noop{})
	if !errors.Is(err, schemamodel.ErrUnsupportedStatement) {
		t.Fatalf("expected ErrUnsupportedStatement, got %v", err)
	}
}

func TestParseRejectsEmptyEnum(t *testing.T) {
	_, err := ddl.Parse(`CREATE TYPE status AS ENUM ();`, logging.Noop{})
	if err == nil {
		t.Fatal("expected an error for an empty enum")
	}
	if !errors.Is(err, schemamodel.ErrEmptyEnum) && !strings.Contains(err.Error(), "parse SQL") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParseInvalidSQLReturnsError(t *testing.T) {
	_, err := ddl.Parse(`CREATE TABLE (((`, logging.Noop{})
	if err == nil {
		t.Fatal("expected a parse error for malformed SQL")
	}
}

func TestParseEnableRowLevelSecurity(t *testing.T) {
	schema, err := ddl.Parse(`
		CREATE TABLE documents (id SERIAL PRIMARY KEY);
		ALTER TABLE documents ENABLE ROW LEVEL SECURITY;
	`, logging.Noop{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	table := schema.FindTable("documents")
	if table == nil || !table.RLSEnabled {
		t.Fatalf("expected documents.RLSEnabled = true, got %+v", table)
	}
}

func TestParseRejectsOtherAlterTableSubcommands(t *testing.T) {
	_, err := ddl.Parse(`
		CREATE TABLE documents (id SERIAL PRIMARY KEY);
		ALTER TABLE documents ADD COLUMN title TEXT;
	`, logging.Noop{})
	if !errors.Is(err, schemamodel.ErrUnsupportedStatement) {
		t.Fatalf("expected ErrUnsupportedStatement, got %v", err)
	}
}
