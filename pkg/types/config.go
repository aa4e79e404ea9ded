package types

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// DefaultBatchLimit is SQLite's historical maximum number of bound
// parameters per statement.
const DefaultBatchLimit = 999

// UpgradeFunc migrates the schema from version old to version new. It runs
// inside the transaction that stamps the new version.
type UpgradeFunc func(ctx context.Context, tx *sql.Tx, old, new int) error

// Config holds the parameters for opening a database.
type Config struct {
	// Path to the database file, or ":memory:".
	Path string `json:"path" yaml:"path" mapstructure:"path"`

	// BatchLimit caps the bound parameters of one IN lookup or one
	// multi-row junction insert. Default: 999.
	BatchLimit int `json:"batch_limit" yaml:"batch_limit" mapstructure:"batch_limit"`

	// Version is stamped into PRAGMA user_version. Zero leaves the stored
	// version untouched.
	Version int `json:"version" yaml:"version" mapstructure:"version"`

	// OnUpgrade runs when the stored version is lower than Version.
	OnUpgrade UpgradeFunc `json:"-" yaml:"-" mapstructure:"-"`

	// Debug logs every executed statement at debug level.
	Debug bool `json:"debug" yaml:"debug" mapstructure:"debug"`

	// BusyTimeout bounds how long a locked database is retried.
	// Default: 5s.
	BusyTimeout time.Duration `json:"busy_timeout" yaml:"busy_timeout" mapstructure:"busy_timeout"`

	// Logger for operational logging. Uses slog.Default() if nil.
	Logger *slog.Logger `json:"-" yaml:"-" mapstructure:"-"`
}

// Validate checks that the Config is well-formed.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Path) == "" {
		return fmt.Errorf("%w: path must not be empty", ErrInvalidConfig)
	}
	if c.BatchLimit < 0 {
		return fmt.Errorf("%w: batch limit must not be negative", ErrInvalidConfig)
	}
	if c.BatchLimit == 1 {
		// a junction row binds two parameters
		return fmt.Errorf("%w: batch limit must be at least 2", ErrInvalidConfig)
	}
	if c.Version < 0 {
		return fmt.Errorf("%w: version must not be negative", ErrInvalidConfig)
	}
	if c.BusyTimeout < 0 {
		return fmt.Errorf("%w: busy timeout must not be negative", ErrInvalidConfig)
	}
	return nil
}

// WithDefaults returns a copy of c with default values applied.
func (c Config) WithDefaults() Config {
	if c.BatchLimit == 0 {
		c.BatchLimit = DefaultBatchLimit
	}
	if c.BusyTimeout == 0 {
		c.BusyTimeout = 5 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// IsMemory reports whether Path names an in-memory database.
func (c Config) IsMemory() bool {
	return c.Path == MemoryPath || strings.HasPrefix(c.Path, "file::memory:")
}
