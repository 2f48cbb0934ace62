// Package schemamodel holds the in-memory, normalized representation of a
// PostgreSQL schema: tables, columns, constraints, indexes, and enum types.
//
// Values are produced by the ddl parser or the introspect package and are
// immutable once returned — nothing in this package mutates a Schema after
// construction. The differ package consumes two Schema values and produces
// a fresh migration plan without aliasing either input.
package schemamodel

// Schema is an ordered collection of tables plus the enum types they may
// reference.
type Schema struct {
	Tables []Table
	Enums  []EnumType
}

// Table describes one base table.
type Table struct {
	Name        string
	Columns     []Column
	PrimaryKey  *PrimaryKeyConstraint
	ForeignKeys []ForeignKeyConstraint
	Checks      []CheckConstraint
	Uniques     []UniqueConstraint
	Indexes     []Index
	RLSEnabled  bool
}

// Column is a single table column.
type Column struct {
	Name     string
	Type     string // e.g. "VARCHAR(255)", "DECIMAL(10,2)"
	Nullable bool
	Default  *string // literal SQL text of the default expression, if any
}

// PrimaryKeyConstraint is a table's primary key. Equality between two
// primary keys ignores Name and compares Columns only (spec: the database
// often auto-generates names, so composition is what matters).
type PrimaryKeyConstraint struct {
	Name    string // optional, may be ""
	Columns []string
}

// ReferentialAction is an ON DELETE / ON UPDATE action.
type ReferentialAction string

const (
	ActionCascade    ReferentialAction = "CASCADE"
	ActionRestrict   ReferentialAction = "RESTRICT"
	ActionSetNull    ReferentialAction = "SET NULL"
	ActionSetDefault ReferentialAction = "SET DEFAULT"
)

// ForeignKeyConstraint is a foreign key from this table to another.
type ForeignKeyConstraint struct {
	Name               string // optional
	Columns            []string
	ReferencedTable    string
	ReferencedColumns  []string
	OnDelete           *ReferentialAction
	OnUpdate           *ReferentialAction
	Deferrable         bool
	InitiallyDeferred  bool
}

// CheckConstraint is a CHECK (expr) constraint.
type CheckConstraint struct {
	Name       string // optional
	Expression string // canonical SQL text
}

// UniqueConstraint is a table-level or column-level UNIQUE constraint.
type UniqueConstraint struct {
	Name              string // optional
	Columns           []string
	Deferrable        bool
	InitiallyDeferred bool
}

// IndexMethod names a PostgreSQL index access method.
type IndexMethod string

const (
	IndexMethodBTree  IndexMethod = "btree"
	IndexMethodHash   IndexMethod = "hash"
	IndexMethodGiST   IndexMethod = "gist"
	IndexMethodSPGiST IndexMethod = "spgist"
	IndexMethodGIN    IndexMethod = "gin"
	IndexMethodBRIN   IndexMethod = "brin"
)

// Index is a CREATE INDEX definition. Either Columns is non-empty or
// Expression is non-empty, never both (Invariant 2).
type Index struct {
	Name       string
	TableName  string
	Columns    []string
	Method     IndexMethod // defaults to IndexMethodBTree when empty
	Unique     bool
	Concurrent bool
	Predicate  string // partial-index WHERE clause, SQL text
	Expression string // expression-index body, SQL text
	Storage    map[string]string
	Tablespace string
}

// EnumType is a CREATE TYPE ... AS ENUM definition.
type EnumType struct {
	Name   string
	Values []string // must be non-empty
}

// EffectiveMethod returns the index's access method, defaulting to btree.
func (i Index) EffectiveMethod() IndexMethod {
	if i.Method == "" {
		return IndexMethodBTree
	}
	return i.Method
}

// FindTable returns a pointer to the named table, or nil.
func (s *Schema) FindTable(name string) *Table {
	for i := range s.Tables {
		if s.Tables[i].Name == name {
			return &s.Tables[i]
		}
	}
	return nil
}

// FindColumn returns a pointer to the named column, or nil.
func (t *Table) FindColumn(name string) *Column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}
