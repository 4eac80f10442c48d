// Command sluicewatch runs the river water telemetry pipeline.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/sluicewatch/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
