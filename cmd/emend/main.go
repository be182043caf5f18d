// Command emend reconciles a free-text source dataset against its persisted
// correction state and drives pending records through the correction backend.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/emend/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
