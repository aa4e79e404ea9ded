package cli

import (
	"fmt"

	"github.com/maloquacious/semver"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/lattice/pkg/sqlite"
)

const modulePath = "github.com/mesh-intelligence/lattice"

var version = semver.Version{
	Major: 0,
	Minor: 1,
	Patch: 0,
	Build: semver.Commit(),
}

// Version returns the version of the lattice tool.
func Version() semver.Version {
	return version
}

func newVersionCmd(_ *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the lattice version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "lattice %s\nmodule: %s\ndriver: %s\n", version.String(), modulePath, sqlite.Driver())
			return nil
		},
	}
}
