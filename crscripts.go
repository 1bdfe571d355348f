// crscripts - generate cellranger multi library configs and cluster
// job-submission scripts from demultiplexing samplesheets

package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

const VERSION = "0.2.0"

// Define color functions
var (
	bold   = color.New(color.Bold).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
)

// Extracted for testability
var exitFunc = os.Exit

func main() {
	var version bool

	rootCmd := &cobra.Command{
		Use:           "crscripts",
		Short:         bold("Generate cellranger multi configs and job scripts from samplesheets"),
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			if version {
				fmt.Printf("crscripts %s\n", VERSION)
				return
			}
			helpFunc(cmd, args)
		},
	}

	// Set the help function
	rootCmd.SetHelpFunc(helpFunc)

	rootCmd.Flags().BoolVarP(&version, "version", "v", false, "Show version information")

	rootCmd.AddCommand(MultiConfigCommand())
	rootCmd.AddCommand(MultiJobCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, red(err.Error()))
		fmt.Fprintln(os.Stderr, red("Try 'crscripts --help' for more information"))
		exitFunc(1)
	}
}
