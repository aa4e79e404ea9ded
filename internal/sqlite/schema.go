// Package sqlite implements the lattice stores over SQLite: the statement
// builder, the table registry, the single and cascade engines, and the
// connection lifecycle.
package sqlite

import (
	"strings"

	"github.com/mesh-intelligence/lattice/pkg/schema"
	"github.com/mesh-intelligence/lattice/pkg/types"
)

// listTablesSQL reads the known table names at open.
const listTablesSQL = `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'`

// quote renders an SQL identifier.
func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// createTableSQL returns the DDL of an entity table. No foreign keys: every
// relation lives in a junction table.
func createTableSQL(t *schema.EntityTable) string {
	var sb strings.Builder
	sb.WriteString("CREATE TABLE IF NOT EXISTS ")
	sb.WriteString(quote(t.Name))
	sb.WriteString(" (")
	sb.WriteString(quote(t.Key.Column))
	switch {
	case t.Key.Kind == schema.KeyInt && t.Key.Assign == types.AssignAutoIncrement:
		sb.WriteString(" INTEGER PRIMARY KEY AUTOINCREMENT")
	case t.Key.Kind == schema.KeyInt:
		sb.WriteString(" INTEGER PRIMARY KEY")
	default:
		sb.WriteString(" TEXT PRIMARY KEY NOT NULL")
	}
	for _, c := range t.Columns {
		sb.WriteString(", ")
		sb.WriteString(quote(c.Name))
		sb.WriteString(" ")
		sb.WriteString(c.SQLType)
	}
	sb.WriteString(")")
	return sb.String()
}

// createJunctionSQL returns the DDL of a junction table.
func createJunctionSQL(j schema.Junction) string {
	l, r := quote(j.LeftColumn), quote(j.RightColumn)
	return "CREATE TABLE IF NOT EXISTS " + quote(j.Name) +
		" (" + l + " TEXT NOT NULL, " + r + " TEXT NOT NULL, UNIQUE(" + l + ", " + r + "))"
}
