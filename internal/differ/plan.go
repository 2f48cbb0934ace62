// Package differ compares a desired and a current schemamodel.Schema and
// synthesizes the SQL statements that transform the latter into the former
// (spec §4.4).
package differ

import (
	"fmt"

	"github.com/pgschemaplan/pgschemaplan/internal/depgraph"
	"github.com/pgschemaplan/pgschemaplan/internal/logging"
	"github.com/pgschemaplan/pgschemaplan/internal/schemamodel"
	"github.com/pgschemaplan/pgschemaplan/internal/sqlgen"
)

// MigrationPlan is the differ's output: the ordered statements needed to
// reconcile current into desired, split by whether they can run inside a
// transaction (spec §6).
type MigrationPlan struct {
	Transactional []string
	Concurrent    []string
	HasChanges    bool
}

// Options are the planner knobs enumerated in spec §6.
type Options struct {
	// UseConcurrentIndexes emits CONCURRENTLY for index creations unless an
	// individual index overrides it. Default true.
	UseConcurrentIndexes bool
	// UseConcurrentDrops emits DROP INDEX CONCURRENTLY for index drops.
	// Default true.
	UseConcurrentDrops bool
}

// DefaultOptions returns the planner's documented defaults: both
// concurrency options on.
func DefaultOptions() Options {
	return Options{UseConcurrentIndexes: true, UseConcurrentDrops: true}
}

// Plan computes the migration plan transforming current into desired. It
// never mutates either input schema.
func Plan(desired, current *schemamodel.Schema, opts Options, log logging.Logger) (*MigrationPlan, error) {
	if log == nil {
		log = logging.Noop{}
	}

	desiredByName := indexTables(desired)
	currentByName := indexTables(current)

	order, err := depgraph.Build(desired).CreationOrder()
	if err != nil {
		return nil, fmt.Errorf("resolve table dependency order: %w", err)
	}

	var statements []string

	// 1. Existing tables, in dependency order of the desired schema.
	for _, name := range order {
		if _, ok := currentByName[name]; !ok {
			continue
		}
		stmts, err := diffTable(currentByName[name], desiredByName[name], opts, log)
		if err != nil {
			return nil, fmt.Errorf("diff table %q: %w", name, err)
		}
		statements = append(statements, stmts...)
	}

	// 2. New tables, in dependency order of the desired schema.
	for _, name := range order {
		if _, ok := currentByName[name]; ok {
			continue
		}
		statements = append(statements, createTableStatements(desiredByName[name], opts)...)
	}

	// 3. Dropped tables, in deletion order of the current schema.
	delOrder, err := depgraph.Build(current).DeletionOrder()
	if err != nil {
		return nil, fmt.Errorf("resolve table deletion order: %w", err)
	}
	for _, name := range delOrder {
		if _, ok := desiredByName[name]; ok {
			continue
		}
		statements = append(statements, fmt.Sprintf("DROP TABLE %s CASCADE;", sqlgen.QuoteIdent(name)))
	}

	plan := partition(statements)
	return plan, nil
}

func indexTables(s *schemamodel.Schema) map[string]schemamodel.Table {
	m := make(map[string]schemamodel.Table, len(s.Tables))
	for _, t := range s.Tables {
		m[t.Name] = t
	}
	return m
}

// partition splits statements into concurrent (containing the token
// CONCURRENTLY) and transactional (everything else), per spec §4.4.
func partition(statements []string) *MigrationPlan {
	plan := &MigrationPlan{}
	for _, stmt := range statements {
		if containsToken(stmt, "CONCURRENTLY") {
			plan.Concurrent = append(plan.Concurrent, stmt)
		} else {
			plan.Transactional = append(plan.Transactional, stmt)
		}
	}
	plan.HasChanges = len(plan.Transactional) > 0 || len(plan.Concurrent) > 0
	return plan
}

func containsToken(s, token string) bool {
	for i := 0; i+len(token) <= len(s); i++ {
		if s[i:i+len(token)] == token {
			return true
		}
	}
	return false
}

// createTableStatements emits a full CREATE TABLE (inline PK/check/unique),
// followed by foreign keys as separate ADD CONSTRAINT statements and then
// index-creation statements, per spec §4.4 step 2.
func createTableStatements(t schemamodel.Table, opts Options) []string {
	var statements []string

	statements = append(statements, renderCreateTable(t))

	for _, fk := range t.ForeignKeys {
		statements = append(statements, addForeignKeyStatement(t.Name, fk))
	}

	for _, idx := range t.Indexes {
		concurrent := idx.Concurrent || opts.UseConcurrentIndexes
		statements = append(statements, sqlgen.FormatCreateIndex(idx, concurrent))
	}

	if t.RLSEnabled {
		statements = append(statements, diffRLS(t.Name, false, true)...)
	}

	return statements
}

func renderCreateTable(t schemamodel.Table) string {
	var clauses []string
	for _, c := range t.Columns {
		clauses = append(clauses, sqlgen.FormatColumn(c))
	}
	if t.PrimaryKey != nil {
		// Name synthesis (spec §6) is for ALTER TABLE ADD CONSTRAINT
		// statements, which need a name to reference later. The inline
		// CREATE TABLE form has no such need, so an unnamed desired PK stays
		// unnamed here, matching PostgreSQL's own auto-naming behavior.
		clauses = append(clauses, sqlgen.FormatPrimaryKeyClause(*t.PrimaryKey))
	}
	for _, c := range t.Checks {
		clauses = append(clauses, sqlgen.FormatCheckClause(c))
	}
	for _, u := range t.Uniques {
		clauses = append(clauses, sqlgen.FormatUniqueClause(u))
	}

	body := ""
	for i, clause := range clauses {
		if i > 0 {
			body += ",\n  "
		}
		body += clause
	}

	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n);", sqlgen.QuoteIdent(t.Name), body)
}

func addForeignKeyStatement(tableName string, fk schemamodel.ForeignKeyConstraint) string {
	if fk.Name == "" {
		fk.Name = synthesizeFKName(tableName, fk)
	}
	return fmt.Sprintf("ALTER TABLE %s ADD %s;", sqlgen.QuoteIdent(tableName), sqlgen.FormatForeignKeyClause(fk))
}
