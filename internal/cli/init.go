package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/lattice/internal/paths"
)

func newInitCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the configuration and the database",
		Long: "Create the configuration directory with a default config.yaml, then create\n" +
			"the database file. Running init again changes nothing.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := resolve(cmd, f)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(r.configDir, 0o755); err != nil {
				return sysError("create config directory: %w", err)
			}
			s := r.settings
			if f.dataDir != "" {
				s.DataDir = filepath.Dir(r.cfg.Path)
			}
			configPath := filepath.Join(r.configDir, paths.ConfigFileName)
			created, err := writeSettingsIfMissing(configPath, s)
			if err != nil {
				return sysError("write config: %w", err)
			}

			db, err := openDB(cmd.Context(), r.cfg)
			if err != nil {
				return err
			}
			if err := db.Close(); err != nil {
				return sysError("close database: %w", err)
			}

			out := cmd.OutOrStdout()
			if created {
				fmt.Fprintf(out, "wrote %s\n", configPath)
			}
			fmt.Fprintf(out, "%s %s\n", color.GreenString("database ready:"), r.cfg.Path)
			return nil
		},
	}
}
