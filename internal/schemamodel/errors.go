package schemamodel

import (
	"errors"
	"fmt"
)

// Sentinel errors for the taxonomy described in spec §7. Callers match
// against these with errors.Is/errors.As rather than string-matching
// messages.
var (
	// ErrUnsupportedStatement is returned when the DDL parser encounters an
	// imperative statement (ALTER TABLE, DROP TABLE, DROP INDEX). The system
	// is declarative: users describe the desired end state, never how to
	// get there.
	ErrUnsupportedStatement = errors.New("not supported in declarative schema")

	// ErrEmptyEnum is returned when a CREATE TYPE ... AS ENUM has no values.
	ErrEmptyEnum = errors.New("ENUM types must have at least one value")

	// ErrInvariantViolation covers duplicate primary keys, an index
	// referencing a nonexistent table, and FK column-count mismatches.
	ErrInvariantViolation = errors.New("schema invariant violation")

	// ErrCyclicDependency is returned by the dependency resolver when the
	// foreign-key graph contains a cycle.
	ErrCyclicDependency = errors.New("circular foreign key dependency")
)

// CycleError carries the concrete cycle(s) found by the dependency
// resolver's diagnostic routine.
type CycleError struct {
	Cycles [][]string // each inner slice is a table-name cycle, in order
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%v: %d cycle(s) found, e.g. %v", ErrCyclicDependency, len(e.Cycles), firstOrNil(e.Cycles))
}

func (e *CycleError) Unwrap() error {
	return ErrCyclicDependency
}

func firstOrNil(cycles [][]string) []string {
	if len(cycles) == 0 {
		return nil
	}
	return cycles[0]
}

// InvariantError names which invariant was violated and why.
type InvariantError struct {
	Table   string
	Reason  string
}

func (e *InvariantError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("%v: table %q: %s", ErrInvariantViolation, e.Table, e.Reason)
	}
	return fmt.Sprintf("%v: %s", ErrInvariantViolation, e.Reason)
}

func (e *InvariantError) Unwrap() error {
	return ErrInvariantViolation
}
