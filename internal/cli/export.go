package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newExportCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "export <dir>",
		Short: "Write every table to <dir>/<table>.jsonl",
		Args:  cobra.ExactArgs(1),
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

			tables, err := db.Export(cmd.Context(), args[0])
			if err != nil {
				return sysError("export: %w", err)
			}
			var rows int64
			for _, t := range tables {
				rows += t.Rows
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d rows from %d tables to %s\n", rows, len(tables), args[0])
			return nil
		},
	}
}
