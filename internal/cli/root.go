// Package cli implements the lattice command-line interface, a maintenance
// tool for lattice databases. It reads the catalog directly, so it works
// without the Go types that wrote the data.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// exitError carries the process exit code of a failed command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func sysError(format string, args ...any) error {
	return &exitError{code: exitSysError, err: fmt.Errorf(format, args...)}
}

// rootFlags holds global flag values.
type rootFlags struct {
	configDir string
	dataDir   string
	dbPath    string
	jsonMode  bool
	debug     bool
	noColor   bool
}

// NewRootCmd creates the "lattice" command with every subcommand.
func NewRootCmd() *cobra.Command {
	f := &rootFlags{}
	root := &cobra.Command{
		Use:   "lattice",
		Short: "Inspect and maintain lattice databases",
		Long: "lattice lists the entity and junction tables of a database, follows links\n" +
			"between entities and prunes junction rows left pointing at deleted rows.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if f.noColor {
				color.NoColor = true
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&f.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	pf.StringVar(&f.dataDir, "data-dir", "", "data directory (default: ./.lattice-db)")
	pf.StringVar(&f.dbPath, "db", "", "database file, overrides the data directory")
	pf.BoolVar(&f.jsonMode, "json", false, "output in JSON format")
	pf.BoolVar(&f.debug, "debug", false, "log every SQL statement")
	pf.BoolVar(&f.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		newInitCmd(f),
		newTablesCmd(f),
		newLinksCmd(f),
		newPruneCmd(f),
		newExportCmd(f),
		newImportCmd(f),
		newVersionCmd(f),
	)
	return root
}

// Execute runs the root command and exits with the matching code.
func Execute() {
	os.Exit(run(NewRootCmd(), os.Args[1:], os.Stderr))
}

func run(root *cobra.Command, args []string, stderr io.Writer) int {
	root.SetArgs(args)
	err := root.Execute()
	if err == nil {
		return exitSuccess
	}
	color.New(color.FgRed).Fprintln(stderr, "error:", err)
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitUserError
}
