package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPruneCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Delete junction rows that point at missing entities",
		Long: "Junction tables carry no foreign keys, so rows written to an entity table\n" +
			"outside lattice can leave dangling links. prune removes them.",
		Args: cobra.NoArgs,
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

			n, err := db.Prune(cmd.Context())
			if err != nil {
				return sysError("prune: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pruned %d links\n", n)
			return nil
		},
	}
}
