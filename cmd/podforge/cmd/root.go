package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"podforge/cmd/podforge/cmd/export"
	"podforge/cmd/podforge/cmd/process"
	"podforge/cmd/podforge/cmd/version"
	"podforge/cmd/podforge/cmd/worker"
)

var Verbose bool

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "podforge",
	Short: "Episode post-processing pipeline for podcast platforms",
	Long: `Episode post-processing pipeline for podcast platforms.
- Waits for ingested episode content, assembles the transcript
- Generates title, summary and a cover image through an AI provider
- Charges per-episode credits with compensating refunds on failure`,
	TraverseChildren: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(process.Cmd)
	rootCmd.AddCommand(worker.Cmd)
	rootCmd.AddCommand(export.Cmd)
	rootCmd.AddCommand(version.Cmd)

	rootCmd.PersistentFlags().BoolVarP(&Verbose, "verbose", "V", false, "verbose output")
}
