//go:build ncruces && !mattn

package sqlite

import (
	"fmt"
	"strings"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

const driverName = "sqlite3"

// buildDSN constructs a DSN for github.com/ncruces/go-sqlite3.
// ncruces shares modernc's syntax: file:path?_pragma=name(value)
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
		fmt.Fprintf(&sb, "_pragma=%s(%s)", p.name, p.value)
	}
	return sb.String()
}
