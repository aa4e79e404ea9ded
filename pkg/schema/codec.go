package schema

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// nullScanner scans into dst, storing the zero value for NULL.
type nullScanner[V any] struct {
	dst *V
}

func (s nullScanner[V]) Scan(src any) error {
	var n sql.Null[V]
	if err := n.Scan(src); err != nil {
		return err
	}
	*s.dst = n.V
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// timeScanner accepts the text written by formatTime, a driver-parsed
// time.Time, or unix seconds.
type timeScanner struct {
	dst *time.Time
}

func (s timeScanner) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*s.dst = time.Time{}
	case time.Time:
		*s.dst = v.UTC()
	case int64:
		*s.dst = time.Unix(v, 0).UTC()
	case string:
		return s.parse(v)
	case []byte:
		return s.parse(string(v))
	default:
		return fmt.Errorf("time column: unsupported source %T", src)
	}
	return nil
}

func (s timeScanner) parse(v string) error {
	if v == "" {
		*s.dst = time.Time{}
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return fmt.Errorf("time column: %w", err)
	}
	*s.dst = t
	return nil
}

func encodeValue[V any](v *V) (any, error) {
	b, err := msgpack.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("msgpack encode: %w", err)
	}
	return b, nil
}

// encodedScanner decodes a msgpack BLOB into dst.
type encodedScanner[V any] struct {
	dst *V
}

func (s encodedScanner[V]) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		var zero V
		*s.dst = zero
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("encoded column: unsupported source %T", src)
	}
	var out V
	if err := msgpack.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("msgpack decode: %w", err)
	}
	*s.dst = out
	return nil
}
