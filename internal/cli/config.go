package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/lattice/internal/paths"
	"github.com/mesh-intelligence/lattice/pkg/schema"
	"github.com/mesh-intelligence/lattice/pkg/sqlite"
	"github.com/mesh-intelligence/lattice/pkg/types"
)

// settings is the content of config.yaml.
type settings struct {
	DataDir     string        `yaml:"data_dir,omitempty" mapstructure:"data_dir"`
	BatchLimit  int           `yaml:"batch_limit" mapstructure:"batch_limit"`
	BusyTimeout time.Duration `yaml:"busy_timeout" mapstructure:"busy_timeout"`
	Debug       bool          `yaml:"debug" mapstructure:"debug"`
}

func defaultSettings() settings {
	return settings{BatchLimit: types.DefaultBatchLimit, BusyTimeout: 5 * time.Second}
}

// loadEnvFiles loads .env from the config directory and the working
// directory. Variables already set win.
func loadEnvFiles(configDir string) error {
	for _, p := range []string{filepath.Join(configDir, paths.EnvFileName), paths.EnvFileName} {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// loadSettings reads config.yaml from configDir. LATTICE_BATCH_LIMIT,
// LATTICE_BUSY_TIMEOUT and LATTICE_DEBUG override the file. A missing file
// yields the defaults.
func loadSettings(configDir string) (settings, error) {
	if err := loadEnvFiles(configDir); err != nil {
		return settings{}, err
	}
	def := defaultSettings()
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.SetEnvPrefix("LATTICE")
	v.SetDefault("data_dir", "")
	v.SetDefault("batch_limit", def.BatchLimit)
	v.SetDefault("busy_timeout", def.BusyTimeout)
	v.SetDefault("debug", false)
	for _, key := range []string{"batch_limit", "busy_timeout", "debug"} {
		if err := v.BindEnv(key); err != nil {
			return settings{}, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return settings{}, fmt.Errorf("read config: %w", err)
		}
	}
	var s settings
	if err := v.Unmarshal(&s); err != nil {
		return settings{}, fmt.Errorf("decode config: %w", err)
	}
	return s, nil
}

// writeSettingsIfMissing creates config.yaml holding s. An existing file is
// left alone.
func writeSettingsIfMissing(path string, s settings) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	data, err := yaml.Marshal(&s)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	header := []byte("# lattice CLI configuration\n")
	return true, os.WriteFile(path, append(header, data...), 0o644)
}

// resolved is the outcome of flags, environment and config.yaml.
type resolved struct {
	configDir string
	settings  settings
	cfg       types.Config
}

func resolve(cmd *cobra.Command, f *rootFlags) (resolved, error) {
	configDir, err := paths.ResolveConfigDir(f.configDir)
	if err != nil {
		return resolved{}, sysError("resolve config dir: %w", err)
	}
	s, err := loadSettings(configDir)
	if err != nil {
		return resolved{}, err
	}

	dbPath := f.dbPath
	if dbPath == "" {
		dataDir, err := paths.ResolveDataDir(f.dataDir, s.DataDir)
		if err != nil {
			return resolved{}, sysError("resolve data dir: %w", err)
		}
		dbPath = paths.DatabasePath(dataDir)
	}

	debug := f.debug || s.Debug
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	return resolved{
		configDir: configDir,
		settings:  s,
		cfg: types.Config{
			Path:        dbPath,
			BatchLimit:  s.BatchLimit,
			BusyTimeout: s.BusyTimeout,
			Debug:       debug,
			Logger:      logger,
		},
	}, nil
}

// openDB opens the configured database without entity registrations.
func openDB(ctx context.Context, cfg types.Config) (*sqlite.DB, error) {
	reg, err := schema.NewRegistry()
	if err != nil {
		return nil, err
	}
	db, err := sqlite.Open(ctx, cfg, reg)
	if err != nil {
		return nil, sysError("open %s: %w", cfg.Path, err)
	}
	return db, nil
}
