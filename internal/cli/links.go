package cli

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newLinksCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "links <table> <peer-table> <key>",
		Short: "List the keys of peer-table linked to key",
		Example: "  lattice links people tags 42\n" +
			"  lattice links people people 42",
		Args: cobra.ExactArgs(3),
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

			links, err := db.Links(cmd.Context(), args[0], args[1], args[2])
			if err != nil {
				return sysError("list links: %w", err)
			}
			out := cmd.OutOrStdout()
			if f.jsonMode {
				return json.NewEncoder(out).Encode(links)
			}
			if len(links) == 0 {
				color.New(color.FgYellow).Fprintf(out, "no links from %s %s to %s\n", args[0], args[2], args[1])
				return nil
			}
			for _, l := range links {
				fmt.Fprintf(out, "%s %s -> %s %s\n", l.Left, l.From, l.Right, color.GreenString(l.To))
			}
			return nil
		},
	}
}
