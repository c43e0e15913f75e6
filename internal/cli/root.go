// Package cli wires the stride commands: direct tool-calling runs and
// coordinated multi-task execution.
package cli

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// version can be overridden at build time via:
	// go build -ldflags "-X github.com/stride-agent/stride/internal/cli.version=1.2.3"
	version = "0.1.0"

	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "stride",
	Short: "Stride - autonomous task-execution engine",
	Long: color.CyanString("stride") + " drives a tool-calling agent through bounded reasoning steps,\n" +
		"and decomposes large requests into a durable checklist of delegated subtasks.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "stride.yaml", "path to the configuration file")
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(coordinateCmd)
}
