// flowgrid is the command-line front end of the flow engine: check parses
// and validates a flow document, run executes it and streams build events.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "flowgrid",
	Short: "Typed workflow graph engine",
	Long:  "Flowgrid parses declarative flow documents into typed component graphs\nand executes them with incremental result streaming.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
