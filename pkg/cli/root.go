package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Persistent flags available to all subcommands
	jsonOutput bool

	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "marketd",
	Short: "marketd is a mock marketplace listings API for agent testing",
	Long: `marketd serves a self-contained marketplace listings API with per-session
isolated state, a canonical seed dataset, and built-in validation flows for
grading agent behavior.

Every client gets its own copy of the marketplace: create a session, point
your agent at the listings API with the session id, then ask the validation
endpoints whether the agent did what the flow expected.

Configuration can be provided via flags, environment variables, or a
configuration file. By default, marketd looks for marketd.yaml in the
working directory.`,
	// No Run function here means 'marketd' with no args will print help text by default.
	SilenceUsage:  true,
	SilenceErrors: true, // We handle errors in Execute()
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Define persistent flags that apply globally to all marketd commands
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output command results in JSON format")
}
