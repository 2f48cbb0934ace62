package differ

import (
	"strings"
	"testing"

	"github.com/pgschemaplan/pgschemaplan/internal/schemamodel"
)

func strPtr(s string) *string { return &s }

func TestPlanNoChangesWhenSchemasEqual(t *testing.T) {
	schema := &schemamodel.Schema{
		Tables: []schemamodel.Table{
			{
				Name: "users",
				Columns: []schemamodel.Column{
					{Name: "id", Type: "INTEGER", Nullable: false},
					{Name: "email", Type: "VARCHAR(255)", Nullable: false},
				},
				PrimaryKey: &schemamodel.PrimaryKeyConstraint{Name: "pk_users", Columns: []string{"id"}},
			},
		},
	}

	plan, err := Plan(schema, schema, DefaultOptions(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.HasChanges {
		t.Errorf("expected no changes, got transactional=%v concurrent=%v", plan.Transactional, plan.Concurrent)
	}
}

func TestPlanNewTableEmitsCreateAndIndexes(t *testing.T) {
	current := &schemamodel.Schema{}
	desired := &schemamodel.Schema{
		Tables: []schemamodel.Table{
			{
				Name: "users",
				Columns: []schemamodel.Column{
					{Name: "id", Type: "SERIAL", Nullable: false},
					{Name: "email", Type: "VARCHAR(255)", Nullable: false},
				},
				PrimaryKey: &schemamodel.PrimaryKeyConstraint{Columns: []string{"id"}},
				Indexes: []schemamodel.Index{
					{Name: "idx_users_email", TableName: "users", Columns: []string{"email"}},
				},
			},
		},
	}

	plan, err := Plan(desired, current, DefaultOptions(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !plan.HasChanges {
		t.Fatal("expected changes")
	}

	joined := strings.Join(plan.Transactional, "\n")
	if !strings.Contains(joined, "CREATE TABLE users") {
		t.Errorf("expected CREATE TABLE users, got: %s", joined)
	}

	concurrentJoined := strings.Join(plan.Concurrent, "\n")
	if !strings.Contains(concurrentJoined, "CREATE UNIQUE INDEX") && !strings.Contains(concurrentJoined, "CREATE INDEX") {
		t.Errorf("expected an index creation in concurrent batch, got: %s", concurrentJoined)
	}
}

func TestPlanDroppedTableUsesCascade(t *testing.T) {
	current := &schemamodel.Schema{
		Tables: []schemamodel.Table{{Name: "legacy"}},
	}
	desired := &schemamodel.Schema{}

	plan, err := Plan(desired, current, DefaultOptions(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	joined := strings.Join(plan.Transactional, "\n")
	if !strings.Contains(joined, "DROP TABLE legacy CASCADE;") {
		t.Errorf("expected DROP TABLE legacy CASCADE;, got: %s", joined)
	}
}

func TestColumnsAreDifferentSerialException(t *testing.T) {
	current := schemamodel.Column{Name: "id", Type: "integer", Nullable: false, Default: strPtr("nextval('users_id_seq'::regclass)")}
	desired := schemamodel.Column{Name: "id", Type: "SERIAL", Nullable: false}

	typeChanged, defaultChanged, nullChanged := columnsAreDifferent(current, desired)
	if typeChanged || defaultChanged || nullChanged {
		t.Errorf("expected no difference for SERIAL exception, got type=%v default=%v null=%v", typeChanged, defaultChanged, nullChanged)
	}
}

func TestColumnsAreDifferentStrippingSerialIsADifference(t *testing.T) {
	current := schemamodel.Column{Name: "id", Type: "integer", Nullable: false, Default: strPtr("nextval('users_id_seq'::regclass)")}
	desired := schemamodel.Column{Name: "id", Type: "INTEGER", Nullable: false}

	_, defaultChanged, _ := columnsAreDifferent(current, desired)
	if !defaultChanged {
		t.Error("expected stripping SERIAL to register as a default difference")
	}
}

func TestModifyColumnStatementsTypeAndDefaultOrdering(t *testing.T) {
	mod := columnModification{
		Name:           "price",
		Current:        schemamodel.Column{Name: "price", Type: "VARCHAR(20)", Default: strPtr("'0'")},
		Desired:        schemamodel.Column{Name: "price", Type: "DECIMAL(10,2)", Default: strPtr("0.00")},
		TypeChanged:    true,
		DefaultChanged: true,
	}

	statements := modifyColumnStatements("products", mod)
	if len(statements) != 3 {
		t.Fatalf("expected 3 statements (drop default, type, set default), got %d: %v", len(statements), statements)
	}
	if !strings.Contains(statements[0], "DROP DEFAULT") {
		t.Errorf("expected first statement to drop default, got %q", statements[0])
	}
	if !strings.Contains(statements[1], "TYPE DECIMAL(10,2) USING price::DECIMAL(10,2)") {
		t.Errorf("expected USING clause for text->decimal conversion, got %q", statements[1])
	}
	if !strings.Contains(statements[2], "SET DEFAULT 0.00") {
		t.Errorf("expected final statement to set new default, got %q", statements[2])
	}
}

func TestDiffPrimaryKeyPlanCompositionOnly(t *testing.T) {
	current := &schemamodel.PrimaryKeyConstraint{Name: "users_pkey", Columns: []string{"id"}}
	desired := &schemamodel.PrimaryKeyConstraint{Name: "pk_users", Columns: []string{"id"}}

	dropNeeded, addNeeded := diffPrimaryKeyPlan(current, desired)
	if dropNeeded || addNeeded {
		t.Error("expected no-op when composition matches despite differing names")
	}
}

func TestDiffIndexesDropAndRecreateOnMismatch(t *testing.T) {
	current := []schemamodel.Index{
		{Name: "idx_users_email", TableName: "users", Columns: []string{"email"}, Method: schemamodel.IndexMethodBTree},
	}
	desired := []schemamodel.Index{
		{Name: "idx_users_email", TableName: "users", Columns: []string{"email"}, Method: schemamodel.IndexMethodHash},
	}

	statements := diffIndexes("users", current, desired, DefaultOptions())
	if len(statements) != 2 {
		t.Fatalf("expected drop + create, got %v", statements)
	}
	if !strings.Contains(statements[0], "DROP INDEX") {
		t.Errorf("expected drop first, got %q", statements[0])
	}
	if !strings.Contains(statements[1], "CREATE INDEX") {
		t.Errorf("expected create second, got %q", statements[1])
	}
}

func TestDiffForeignKeysSkipsDropWhenColumnDropped(t *testing.T) {
	current := []schemamodel.ForeignKeyConstraint{
		{Name: "fk_orders_user", Columns: []string{"user_id"}, ReferencedTable: "users", ReferencedColumns: []string{"id"}},
	}
	var desired []schemamodel.ForeignKeyConstraint
	dropped := map[string]bool{"user_id": true}

	statements := diffForeignKeys("orders", current, desired, dropped)
	if len(statements) != 0 {
		t.Errorf("expected no explicit FK drop when its column is being dropped, got %v", statements)
	}
}

func TestPlanEmitsEnableRowLevelSecurityOnChange(t *testing.T) {
	current := &schemamodel.Schema{Tables: []schemamodel.Table{
		{Name: "documents", Columns: []schemamodel.Column{{Name: "id", Type: "INTEGER", Nullable: false}}, RLSEnabled: false},
	}}
	desired := &schemamodel.Schema{Tables: []schemamodel.Table{
		{Name: "documents", Columns: []schemamodel.Column{{Name: "id", Type: "INTEGER", Nullable: false}}, RLSEnabled: true},
	}}

	plan, err := Plan(desired, current, DefaultOptions(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	found := false
	for _, stmt := range plan.Transactional {
		if strings.Contains(stmt, "ENABLE ROW LEVEL SECURITY") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an ENABLE ROW LEVEL SECURITY statement, got %v", plan.Transactional)
	}
}

func TestPlanNewTableWithRLSEmitsEnableStatement(t *testing.T) {
	current := &schemamodel.Schema{}
	desired := &schemamodel.Schema{Tables: []schemamodel.Table{
		{Name: "documents", Columns: []schemamodel.Column{{Name: "id", Type: "INTEGER", Nullable: false}}, RLSEnabled: true},
	}}

	plan, err := Plan(desired, current, DefaultOptions(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	found := false
	for _, stmt := range plan.Transactional {
		if strings.Contains(stmt, "ENABLE ROW LEVEL SECURITY") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an ENABLE ROW LEVEL SECURITY statement for a new table, got %v", plan.Transactional)
	}
}
