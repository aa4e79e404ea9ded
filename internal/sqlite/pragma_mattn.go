//go:build mattn

package sqlite

import (
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

const driverName = "sqlite3"

// buildDSN constructs a DSN for github.com/mattn/go-sqlite3.
// mattn uses the syntax: file:path?_journal_mode=WAL&_busy_timeout=5000
func buildDSN(path string, pragmas []pragma) string {
	var sb strings.Builder
	base := dsnPath(path)
	sb.WriteString(base)
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	for _, p := range pragmas {
		sb.WriteString(sep)
		sep = "&"
		fmt.Fprintf(&sb, "_%s=%s", p.name, p.value)
	}
	return sb.String()
}
