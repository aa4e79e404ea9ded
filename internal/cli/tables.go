package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newTablesCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List entity and junction tables with row counts",
		Args:  cobra.NoArgs,
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

			tables, err := db.Tables(cmd.Context())
			if err != nil {
				return sysError("list tables: %w", err)
			}
			out := cmd.OutOrStdout()
			if f.jsonMode {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(tables)
			}
			if len(tables) == 0 {
				fmt.Fprintln(out, "no tables")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TABLE\tKIND\tROWS")
			for _, t := range tables {
				kind := "entity"
				if t.Junction {
					kind = color.CyanString("junction")
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\n", t.Name, kind, t.Rows)
			}
			return tw.Flush()
		},
	}
}
