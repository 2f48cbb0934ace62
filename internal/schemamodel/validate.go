package schemamodel

import "fmt"

// Validate checks the invariants listed in spec §3 against a fully
// constructed Schema. Parser and introspector both call this before
// returning a Schema to the caller.
func (s *Schema) Validate() error {
	tableNames := make(map[string]bool, len(s.Tables))
	for _, t := range s.Tables {
		tableNames[t.Name] = true
	}

	for _, t := range s.Tables {
		if err := t.validate(); err != nil {
			return err
		}
	}

	// Invariant 1: every index's tableName references an existing table.
	// Invariant 2: columns XOR expression.
	for _, t := range s.Tables {
		for _, idx := range t.Indexes {
			if !tableNames[idx.TableName] {
				return &InvariantError{
					Table:  idx.TableName,
					Reason: fmt.Sprintf("index %q references nonexistent table %q", idx.Name, idx.TableName),
				}
			}
			if err := validateIndex(idx); err != nil {
				return err
			}
		}
	}

	// Invariant 3: enum types have at least one value.
	for _, e := range s.Enums {
		if len(e.Values) == 0 {
			return ErrEmptyEnum
		}
	}

	return nil
}

func (t *Table) validate() error {
	// Invariant 4a: column names unique within a table.
	seenCols := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		if seenCols[c.Name] {
			return &InvariantError{Table: t.Name, Reason: fmt.Sprintf("duplicate column %q", c.Name)}
		}
		seenCols[c.Name] = true
	}

	// Invariant 4b: constraint names unique across all constraint kinds.
	seenConstraints := make(map[string]bool)
	checkName := func(name, kind string) error {
		if name == "" {
			return nil
		}
		if seenConstraints[name] {
			return &InvariantError{Table: t.Name, Reason: fmt.Sprintf("duplicate constraint name %q (%s)", name, kind)}
		}
		seenConstraints[name] = true
		return nil
	}

	if t.PrimaryKey != nil {
		if err := checkName(t.PrimaryKey.Name, "primary key"); err != nil {
			return err
		}
	}
	for _, fk := range t.ForeignKeys {
		if err := checkName(fk.Name, "foreign key"); err != nil {
			return err
		}
		// Invariant 6: FK column counts equal referenced-column counts.
		if len(fk.Columns) != len(fk.ReferencedColumns) {
			return &InvariantError{
				Table: t.Name,
				Reason: fmt.Sprintf("foreign key %q has %d local column(s) but %d referenced column(s)",
					fk.Name, len(fk.Columns), len(fk.ReferencedColumns)),
			}
		}
	}
	for _, c := range t.Checks {
		if err := checkName(c.Name, "check"); err != nil {
			return err
		}
	}
	for _, u := range t.Uniques {
		if err := checkName(u.Name, "unique"); err != nil {
			return err
		}
	}

	// Invariant 5: at most one primary key — structurally guaranteed by the
	// *PrimaryKeyConstraint field (nil or one), nothing further to check.

	return nil
}

// validateIndex enforces invariant 2: an index has exactly one of columns
// or an expression, never both and never neither.
func validateIndex(idx Index) error {
	hasColumns := len(idx.Columns) > 0
	hasExpression := idx.Expression != ""
	if hasColumns == hasExpression {
		return &InvariantError{
			Table:  idx.TableName,
			Reason: fmt.Sprintf("index %q must have either columns or an expression, not both or neither", idx.Name),
		}
	}
	return nil
}
