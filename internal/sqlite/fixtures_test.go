package sqlite

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/lattice/pkg/schema"
	"github.com/mesh-intelligence/lattice/pkg/types"
)

type Person struct {
	ID      int64
	Name    string
	Age     int64
	Friends []*Person
	Address *Address
	Tags    []*Tag
}

type Address struct {
	ID     string
	Street string
	Owner  *Person
}

type Tag struct {
	Label string
}

var personTable = func() *schema.EntityTable {
	b := schema.Define[Person]("people").
		IntKey("id", func(p *Person) *int64 { return &p.ID }, types.AssignAutoIncrement).
		Text("name", func(p *Person) *string { return &p.Name }).
		Int("age", func(p *Person) *int64 { return &p.Age })
	schema.ToMany(b, "Friends", "people", func(p *Person) *[]*Person { return &p.Friends })
	schema.ToOne(b, "Address", "addresses", func(p *Person) **Address { return &p.Address })
	schema.ToMany(b, "Tags", "tags", func(p *Person) *[]*Tag { return &p.Tags })
	return b.MustBuild()
}()

var addressTable = func() *schema.EntityTable {
	b := schema.Define[Address]("addresses").
		TextKey("id", func(a *Address) *string { return &a.ID }, types.AssignUUID).
		Text("street", func(a *Address) *string { return &a.Street })
	schema.ToOne(b, "Owner", "people", func(a *Address) **Person { return &a.Owner })
	return b.MustBuild()
}()

var tagTable = schema.Define[Tag]("tags").
	TextKey("label", func(g *Tag) *string { return &g.Label }, types.AssignCustom).
	MustBuild()

func testRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	reg, err := schema.NewRegistry(personTable, addressTable, tagTable)
	require.NoError(t, err)
	return reg
}

// captureHandler records every log record so tests can count statements.
type captureHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *captureHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *captureHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r.Clone())
	return nil
}

func (h *captureHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *captureHandler) WithGroup(string) slog.Handler      { return h }

func (h *captureHandler) reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = nil
}

// queries returns the SQL of every traced statement.
func (h *captureHandler) queries() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []string
	for _, r := range h.records {
		if r.Message != "sql" {
			continue
		}
		r.Attrs(func(a slog.Attr) bool {
			if a.Key == "query" {
				out = append(out, a.Value.String())
				return false
			}
			return true
		})
	}
	return out
}

// count returns how many traced statements start with prefix.
func (h *captureHandler) count(prefix string) int {
	n := 0
	for _, q := range h.queries() {
		if strings.HasPrefix(q, prefix) {
			n++
		}
	}
	return n
}

func (h *captureHandler) messages(level slog.Level) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []string
	for _, r := range h.records {
		if r.Level == level {
			out = append(out, r.Message)
		}
	}
	return out
}

type testOption func(*types.Config)

func withBatchLimit(n int) testOption {
	return func(c *types.Config) { c.BatchLimit = n }
}

// openTestDB opens a file database in a temp dir with statement tracing.
func openTestDB(t *testing.T, opts ...testOption) (*DB, *captureHandler) {
	t.Helper()
	h := &captureHandler{}
	cfg := types.Config{
		Path:   filepath.Join(t.TempDir(), "lattice.db"),
		Debug:  true,
		Logger: slog.New(h),
	}
	for _, o := range opts {
		o(&cfg)
	}
	d, err := Open(context.Background(), cfg, testRegistry(t))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	h.reset()
	return d, h
}

// rawCount counts rows with a hand-written query.
func rawCount(t *testing.T, d *DB, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, d.h.db.QueryRowContext(context.Background(), query, args...).Scan(&n))
	return n
}

func rawExec(t *testing.T, d *DB, query string, args ...any) {
	t.Helper()
	_, err := d.h.db.ExecContext(context.Background(), query, args...)
	require.NoError(t, err)
}
