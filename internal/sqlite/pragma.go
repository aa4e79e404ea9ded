package sqlite

import (
	"strconv"
	"strings"
	"time"

	"github.com/mesh-intelligence/lattice/pkg/types"
)

// pragma represents a SQLite pragma setting.
type pragma struct {
	name  string
	value string
}

// pragmasFor returns the connection pragmas for cfg. In-memory databases
// trade durability for speed; file databases use WAL.
func pragmasFor(cfg types.Config) []pragma {
	busy := pragma{name: "busy_timeout", value: strconv.FormatInt(int64(cfg.BusyTimeout/time.Millisecond), 10)}
	if cfg.IsMemory() {
		return []pragma{
			busy,
			{name: "journal_mode", value: "MEMORY"},
			{name: "synchronous", value: "OFF"},
			{name: "temp_store", value: "MEMORY"},
		}
	}
	return []pragma{
		busy,
		{name: "journal_mode", value: "WAL"},
		{name: "synchronous", value: "NORMAL"},
	}
}

// dsnPath renders the path part of a DSN. Memory databases stay private to
// the single pooled connection.
func dsnPath(path string) string {
	if path == types.MemoryPath {
		return "file::memory:"
	}
	if strings.HasPrefix(path, "file:") {
		return path
	}
	return "file:" + path
}

// DriverName is the database/sql driver selected by build tags.
func DriverName() string { return driverName }
