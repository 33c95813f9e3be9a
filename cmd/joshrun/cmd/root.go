package cmd

import (
	"github.com/spf13/cobra"
)

// Version is set by build flags, mirroring the teacher's
// cmd/dwscript/cmd/root.go version-variable pattern.
var Version = "0.1.0-dev"

var rootCmd = &cobra.Command{
	Use:     "joshrun",
	Short:   "Run a Josh spatial agent-based simulation",
	Version: Version,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose logging")
}
