package depgraph

import (
	"errors"
	"testing"

	"github.com/pgschemaplan/pgschemaplan/internal/schemamodel"
)

func tableWithFK(name, refTable string) schemamodel.Table {
	t := schemamodel.Table{Name: name}
	if refTable != "" {
		t.ForeignKeys = []schemamodel.ForeignKeyConstraint{
			{Name: "fk_" + name, Columns: []string{refTable + "_id"}, ReferencedTable: refTable, ReferencedColumns: []string{"id"}},
		}
	}
	return t
}

func TestCreationOrderRespectsForeignKeys(t *testing.T) {
	schema := &schemamodel.Schema{
		Tables: []schemamodel.Table{
			tableWithFK("orders", "users"),
			tableWithFK("users", ""),
			tableWithFK("order_items", "orders"),
		},
	}

	order, err := Build(schema).CreationOrder()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pos := indexOf(order)
	if pos["users"] > pos["orders"] {
		t.Errorf("expected users before orders, got %v", order)
	}
	if pos["orders"] > pos["order_items"] {
		t.Errorf("expected orders before order_items, got %v", order)
	}
}

func TestDeletionOrderIsReversed(t *testing.T) {
	schema := &schemamodel.Schema{
		Tables: []schemamodel.Table{
			tableWithFK("orders", "users"),
			tableWithFK("users", ""),
		},
	}

	order, err := Build(schema).DeletionOrder()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pos := indexOf(order)
	if pos["orders"] > pos["users"] {
		t.Errorf("expected orders before users in deletion order, got %v", order)
	}
}

func TestDeterministicTieBreak(t *testing.T) {
	schema := &schemamodel.Schema{
		Tables: []schemamodel.Table{
			{Name: "zebra"},
			{Name: "apple"},
			{Name: "mango"},
		},
	}

	order, err := Build(schema).CreationOrder()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"apple", "mango", "zebra"}
	if !equal(order, want) {
		t.Errorf("got %v, want %v", order, want)
	}
}

func TestSelfReferenceIgnored(t *testing.T) {
	schema := &schemamodel.Schema{
		Tables: []schemamodel.Table{
			tableWithFK("categories", "categories"),
		},
	}

	order, err := Build(schema).CreationOrder()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !equal(order, []string{"categories"}) {
		t.Errorf("got %v", order)
	}
}

func TestCyclicDependencyReturnsCycleError(t *testing.T) {
	schema := &schemamodel.Schema{
		Tables: []schemamodel.Table{
			tableWithFK("a", "b"),
			tableWithFK("b", "a"),
		},
	}

	_, err := Build(schema).CreationOrder()
	if err == nil {
		t.Fatal("expected a cycle error, got nil")
	}
	var cycleErr *schemamodel.CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected *schemamodel.CycleError, got %T: %v", err, err)
	}
	if len(cycleErr.Cycles) == 0 {
		t.Error("expected at least one enumerated cycle")
	}
}

func indexOf(order []string) map[string]int {
	m := make(map[string]int, len(order))
	for i, name := range order {
		m[name] = i
	}
	return m
}

func equal(a, b []string) bool {
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
