package types

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{
			name:    "empty path returns ErrInvalidConfig",
			config:  Config{Path: " "},
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "negative batch limit",
			config:  Config{Path: MemoryPath, BatchLimit: -1},
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "batch limit too small for a junction row",
			config:  Config{Path: MemoryPath, BatchLimit: 1},
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "negative version",
			config:  Config{Path: MemoryPath, Version: -3},
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "memory database",
			config:  Config{Path: MemoryPath},
			wantErr: nil,
		},
		{
			name:    "file database with explicit limits",
			config:  Config{Path: "/tmp/lattice.db", BatchLimit: 32766, Version: 2, BusyTimeout: time.Second},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected nil error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error %v, got nil", tt.wantErr)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestConfigWithDefaults(t *testing.T) {
	c := Config{Path: MemoryPath}.WithDefaults()
	assert.Equal(t, DefaultBatchLimit, c.BatchLimit)
	assert.Equal(t, 5*time.Second, c.BusyTimeout)
	assert.Same(t, slog.Default(), c.Logger)

	kept := Config{Path: "x.db", BatchLimit: 10, BusyTimeout: time.Minute}.WithDefaults()
	assert.Equal(t, 10, kept.BatchLimit)
	assert.Equal(t, time.Minute, kept.BusyTimeout)
}

func TestConfigIsMemory(t *testing.T) {
	assert.True(t, Config{Path: MemoryPath}.IsMemory())
	assert.True(t, Config{Path: "file::memory:?x=1"}.IsMemory())
	assert.False(t, Config{Path: "/data/app.db"}.IsMemory())
}
