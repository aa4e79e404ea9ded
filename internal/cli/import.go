package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newImportCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "import <dir>",
		Short: "Load <dir>/<table>.jsonl files into existing tables",
		Long: "Load the files written by export. Without the application's entity types\n" +
			"the tables must already exist; files for other tables are skipped.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := resolve(cmd, f)
			if err != nil {
				return err
			}
			db, err := openDB(cmd.Context(), r.cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			tables, err := db.Import(cmd.Context(), args[0])
			if err != nil {
				return sysError("import: %w", err)
			}
			out := cmd.OutOrStdout()
			for _, t := range tables {
				fmt.Fprintf(out, "%s %d rows\n", color.GreenString(t.Name), t.Rows)
			}
			return nil
		},
	}
}
