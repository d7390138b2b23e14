// Command lensctl inspects journals of record update lenses.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/reclens/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
