// Command lattice inspects and maintains lattice databases.
package main

import "github.com/mesh-intelligence/lattice/internal/cli"

func main() {
	cli.Execute()
}
