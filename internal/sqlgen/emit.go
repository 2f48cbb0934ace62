package sqlgen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pgschemaplan/pgschemaplan/internal/schemamodel"
)

// QuoteIdent renders an identifier. The system assumes unreserved lowercase
// names and emits them verbatim (spec §4.5) rather than force-quoting.
func QuoteIdent(name string) string {
	return name
}

// FormatColumn renders a column definition as used inside CREATE TABLE and
// ADD COLUMN: "name type [NOT NULL] [DEFAULT expr]".
func FormatColumn(c schemamodel.Column) string {
	var sb strings.Builder
	sb.WriteString(QuoteIdent(c.Name))
	sb.WriteByte(' ')
	sb.WriteString(c.Type)
	if !c.Nullable {
		sb.WriteString(" NOT NULL")
	}
	if c.Default != nil {
		sb.WriteString(" DEFAULT ")
		sb.WriteString(*c.Default)
	}
	return sb.String()
}

// FormatPrimaryKeyClause renders the inline "PRIMARY KEY (cols)" or
// "CONSTRAINT name PRIMARY KEY (cols)" clause used inside CREATE TABLE.
func FormatPrimaryKeyClause(pk schemamodel.PrimaryKeyConstraint) string {
	cols := strings.Join(quoteAll(pk.Columns), ", ")
	if pk.Name != "" {
		return fmt.Sprintf("CONSTRAINT %s PRIMARY KEY (%s)", QuoteIdent(pk.Name), cols)
	}
	return fmt.Sprintf("PRIMARY KEY (%s)", cols)
}

// FormatCheckClause renders an inline CHECK constraint clause.
func FormatCheckClause(c schemamodel.CheckConstraint) string {
	if c.Name != "" {
		return fmt.Sprintf("CONSTRAINT %s CHECK (%s)", QuoteIdent(c.Name), c.Expression)
	}
	return fmt.Sprintf("CHECK (%s)", c.Expression)
}

// FormatUniqueClause renders an inline UNIQUE constraint clause.
func FormatUniqueClause(u schemamodel.UniqueConstraint) string {
	cols := strings.Join(quoteAll(u.Columns), ", ")
	var sb strings.Builder
	if u.Name != "" {
		sb.WriteString(fmt.Sprintf("CONSTRAINT %s ", QuoteIdent(u.Name)))
	}
	sb.WriteString(fmt.Sprintf("UNIQUE (%s)", cols))
	if u.Deferrable {
		sb.WriteString(" DEFERRABLE")
		if u.InitiallyDeferred {
			sb.WriteString(" INITIALLY DEFERRED")
		}
	}
	return sb.String()
}

// FormatForeignKeyClause renders a foreign key as an ADD CONSTRAINT body
// (without the leading "ALTER TABLE t"). Its only use is the differ's
// separate ADD CONSTRAINT statement; CREATE TABLE never renders FKs inline.
func FormatForeignKeyClause(fk schemamodel.ForeignKeyConstraint) string {
	name := fk.Name
	var sb strings.Builder
	sb.WriteString("CONSTRAINT ")
	sb.WriteString(QuoteIdent(name))
	sb.WriteString(" FOREIGN KEY (")
	sb.WriteString(strings.Join(quoteAll(fk.Columns), ", "))
	sb.WriteString(") REFERENCES ")
	sb.WriteString(QuoteIdent(fk.ReferencedTable))
	sb.WriteString(" (")
	sb.WriteString(strings.Join(quoteAll(fk.ReferencedColumns), ", "))
	sb.WriteString(")")
	if fk.OnDelete != nil {
		sb.WriteString(" ON DELETE " + actionClause(*fk.OnDelete))
	}
	if fk.OnUpdate != nil {
		sb.WriteString(" ON UPDATE " + actionClause(*fk.OnUpdate))
	}
	if fk.Deferrable {
		sb.WriteString(" DEFERRABLE")
		if fk.InitiallyDeferred {
			sb.WriteString(" INITIALLY DEFERRED")
		}
	}
	return sb.String()
}

func actionClause(a schemamodel.ReferentialAction) string {
	switch a {
	case schemamodel.ActionCascade:
		return "CASCADE"
	case schemamodel.ActionRestrict:
		return "RESTRICT"
	case schemamodel.ActionSetNull:
		return "SET NULL"
	case schemamodel.ActionSetDefault:
		return "SET DEFAULT"
	}
	return ""
}

// FormatCreateIndex renders a full CREATE INDEX statement per spec §4.5:
// CREATE [UNIQUE] INDEX [CONCURRENTLY] name ON table [USING METHOD]
// (columns|expression) [WHERE ...] [WITH (k=v, ...)] [TABLESPACE ...];
func FormatCreateIndex(idx schemamodel.Index, concurrent bool) string {
	var sb strings.Builder
	sb.WriteString("CREATE ")
	if idx.Unique {
		sb.WriteString("UNIQUE ")
	}
	sb.WriteString("INDEX ")
	if concurrent {
		sb.WriteString("CONCURRENTLY ")
	}
	sb.WriteString(QuoteIdent(idx.Name))
	sb.WriteString(" ON ")
	sb.WriteString(QuoteIdent(idx.TableName))
	if method := idx.EffectiveMethod(); method != schemamodel.IndexMethodBTree {
		sb.WriteString(" USING ")
		sb.WriteString(string(method))
	}
	sb.WriteString(" (")
	if idx.Expression != "" {
		sb.WriteString(idx.Expression)
	} else {
		sb.WriteString(strings.Join(quoteAll(idx.Columns), ", "))
	}
	sb.WriteString(")")
	if idx.Predicate != "" {
		sb.WriteString(" WHERE " + idx.Predicate)
	}
	if len(idx.Storage) > 0 {
		sb.WriteString(" WITH (" + formatStorageParams(idx.Storage) + ")")
	}
	if idx.Tablespace != "" {
		sb.WriteString(" TABLESPACE " + idx.Tablespace)
	}
	sb.WriteString(";")
	return sb.String()
}

// FormatDropIndex renders a DROP INDEX statement, optionally CONCURRENTLY.
func FormatDropIndex(name string, concurrent bool) string {
	if concurrent {
		return fmt.Sprintf("DROP INDEX CONCURRENTLY %s;", QuoteIdent(name))
	}
	return fmt.Sprintf("DROP INDEX %s;", QuoteIdent(name))
}

func formatStorageParams(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, m[k]))
	}
	return strings.Join(parts, ", ")
}

func quoteAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = QuoteIdent(n)
	}
	return out
}
