package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"devcheck/internal/agent"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "devcheck",
	Short: "End-to-end checks for a project scaffolding generator",
	Long: `devcheck drives a project scaffolding generator through scripted scenarios
and validates what it produced: the project layout, the dev container
descriptor, the container image built from it and a live dev container.

Every scenario runs in its own temporary workspace, and every image it builds
is removed afterwards.`,
	// SilenceUsage is set to true to prevent printing usage message on errors
	// handled by us (e.g. failed scenarios)
	SilenceUsage: true,
}

const versionTemplate = `{{printf "devcheck version %s\n" .Version}}`

// SetVersion sets the version for the root command
func SetVersion(v string) {
	rootCmd.Version = v
	agent.Version = v
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SetVersionTemplate(versionTemplate)

	if err := rootCmd.Execute(); err != nil {
		// Cobra prints the error, we just exit non-zero
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newTestCmd())
}
