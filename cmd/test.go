package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"devcheck/internal/agent"
	"devcheck/internal/color"
	"devcheck/internal/config"
	"devcheck/internal/testing"
	"devcheck/pkg/logging"
)

// completeCategoryFlag provides shell completion for the category flag
func completeCategoryFlag(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return []string{
		string(testing.CategoryGeneration),
		string(testing.CategoryContainer),
		string(testing.CategoryDevContainer),
		string(testing.CategoryEdgeCase),
	}, cobra.ShellCompDirectiveNoFileComp
}

// completeGeneratorFlag provides shell completion for the generator flag
func completeGeneratorFlag(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return config.GeneratorChoices(), cobra.ShellCompDirectiveNoFileComp
}

// completeScenarioFlag provides shell completion for the scenario flag by loading available scenarios
func completeScenarioFlag(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	configPath, _ := cmd.Flags().GetString(config.KeyScenarioPath)

	scenarios, err := testing.NewTestScenarioLoader(false).LoadScenarios(configPath)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var names []string
	for _, sc := range scenarios {
		if strings.HasPrefix(sc.Name, toComplete) {
			names = append(names, sc.Name)
		}
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

func newTestCmd() *cobra.Command {
	v := config.New()
	var (
		mcpServer bool
		listOnly  bool
	)

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Run generation and validation scenarios against the scaffolding generator",
		Long: `The test command runs scenarios against the project scaffolding generator.

Each scenario gets a fresh temporary workspace. Steps invoke the generator
(once, or several times concurrently) and then check the result. A hard
failure ends the scenario as FAILED; advisory findings are reported as
warnings and never fail anything.

Test categories:
- generation:   project layout, git state and dev container descriptor
- container:    image build from the descriptor and toolchain probes
- devcontainer: a live dev container started with the devcontainer CLI
- edge-case:    how the generator treats invalid or conflicting input

Generators:
- shell-script (default): <project-root>/scripts/init-project.sh
- claude-binary: "claude init <name>"

Every flag can also be set through the environment with the DEVCHECK_
prefix, e.g. DEVCHECK_PROJECT_ROOT or DEVCHECK_GENERATOR.

Example usage:
  devcheck test                                  # Run all built-in scenarios
  devcheck test --category=generation            # No container engine needed
  devcheck test --scenario='concurrent-*'        # Scenario name pattern
  devcheck test --tag=python --verbose           # Tag filter, detailed output
  devcheck test --generator=claude-binary        # Use the binary backend
  devcheck test --config=./scenarios --report=./reports
  devcheck test --list                           # Show scenarios and exit
  devcheck test --mcp-server                     # Serve the runner over MCP (stdio)

The exit code is 1 when any scenario failed or errored.`,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return config.BindFlags(v, cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runTest(ctx, cmd, v, mcpServer, listOnly)
		},
	}

	defaults := testing.DefaultTestConfiguration()
	flags := cmd.Flags()

	// Test execution configuration
	flags.Duration(config.KeyTimeout, defaults.Timeout, "Overall test execution timeout")
	flags.Bool(config.KeyFailFast, false, "Stop test execution on first failure")

	// Output and debugging
	flags.Bool(config.KeyVerbose, false, "Enable verbose test output")
	flags.Bool(config.KeyDebug, false, "Enable debug logging and full failure output")
	flags.Bool(config.KeyQuiet, false, "Only print failures and the final summary")
	flags.Bool(config.KeyJSON, false, "Print the suite result as JSON")
	flags.String(config.KeyLogLevel, "warn", "Log level (debug, info, warn, error)")

	// Test selection and filtering
	flags.String(config.KeyCategory, "", "Run scenarios of one category (generation, container, devcontainer, edge-case)")
	flags.String(config.KeyScenario, "", "Run scenarios whose name matches this pattern")
	flags.StringSlice(config.KeyTags, nil, "Run scenarios carrying one of these tags (repeatable)")

	// Scenarios and reporting
	flags.String(config.KeyScenarioPath, "", "Scenario file or directory (default: built-in scenarios)")
	flags.String(config.KeyReportPath, "", "Directory for a detailed JSON report")

	// Generator and external tools
	flags.String(config.KeyGenerator, "", "Override the generator of every scenario (shell-script, claude-binary)")
	flags.String(config.KeyProjectRoot, "", "Scaffolding repository root (default: search upwards from the working directory)")
	flags.String(config.KeyGeneratorBinary, "", "Executable of the claude-binary generator (default: claude)")
	flags.String(config.KeyDocker, defaults.DockerBinary, "Container engine CLI")
	flags.String(config.KeyDevContainer, defaults.DevContainerBinary, "devcontainer CLI")
	flags.String(config.KeyWorkDir, "", "Directory for scenario workspaces (default: system temp dir)")
	flags.Duration(config.KeyUpTimeout, defaults.UpTimeout, "Timeout for starting a dev container")

	// Alternative modes
	flags.BoolVar(&mcpServer, "mcp-server", false, "Run as MCP server (stdio transport)")
	flags.BoolVar(&listOnly, "list", false, "List the selected scenarios and exit")

	_ = cmd.RegisterFlagCompletionFunc(config.KeyCategory, completeCategoryFlag)
	_ = cmd.RegisterFlagCompletionFunc(config.KeyGenerator, completeGeneratorFlag)
	_ = cmd.RegisterFlagCompletionFunc(config.KeyScenario, completeScenarioFlag)

	cmd.MarkFlagsMutuallyExclusive("mcp-server", config.KeyCategory)
	cmd.MarkFlagsMutuallyExclusive("mcp-server", config.KeyScenario)
	cmd.MarkFlagsMutuallyExclusive("mcp-server", "list")
	cmd.MarkFlagsMutuallyExclusive(config.KeyQuiet, config.KeyJSON)

	return cmd
}

func runTest(ctx context.Context, cmd *cobra.Command, v *viper.Viper, mcpServer, listOnly bool) error {
	settings, err := config.Load(v)
	if err != nil {
		return err
	}
	logging.InitForCLI(settings.LogLevel, cmd.ErrOrStderr())
	testConfig := settings.Test

	if mcpServer {
		server, err := agent.NewTestMCPServer(testConfig)
		if err != nil {
			return fmt.Errorf("failed to create test MCP server: %w", err)
		}
		logging.Info("MCP", "Starting devcheck test MCP server (stdio transport)")
		if err := server.Start(ctx); err != nil {
			return fmt.Errorf("test MCP server error: %w", err)
		}
		return nil
	}

	out := cmd.OutOrStdout()
	var reporter testing.TestReporter
	switch {
	case settings.JSON:
		reporter = testing.NewJSONReporterTo(out)
	case settings.Quiet:
		reporter = testing.NewQuietReporterTo(out)
	default:
		color.Initialize(lipgloss.HasDarkBackground())
		reporter = testing.NewTestReporterTo(out, testConfig.Verbose, testConfig.Debug, testConfig.ReportPath)
	}

	framework, err := testing.NewTestFramework(testConfig, reporter)
	if err != nil {
		return fmt.Errorf("failed to create test framework: %w", err)
	}

	scenarios, err := framework.Loader.LoadScenarios(testConfig.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load test scenarios: %w", err)
	}

	if listOnly {
		for _, sc := range framework.Loader.FilterScenarios(scenarios, testConfig) {
			fmt.Fprintf(out, "%-32s %-13s %s\n", sc.Name, sc.Category, sc.Description)
		}
		return nil
	}

	if len(framework.Loader.FilterScenarios(scenarios, testConfig)) == 0 {
		fmt.Fprintf(out, "⚠️  No test scenarios match the given filters\n")
		return nil
	}

	result, err := framework.Runner.Run(ctx, testConfig, scenarios)
	if err != nil {
		return fmt.Errorf("test execution failed: %w", err)
	}

	if !result.Succeeded() {
		return fmt.Errorf("%d of %d scenarios did not pass", result.FailedScenarios+result.ErrorScenarios, result.TotalScenarios)
	}
	return nil
}
