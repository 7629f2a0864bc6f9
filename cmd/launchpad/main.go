// Command launchpad packages submitted programs into executables and
// launches them.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/launchpad/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
