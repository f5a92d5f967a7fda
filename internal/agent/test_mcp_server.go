package agent

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"devcheck/internal/testing"
	"devcheck/pkg/logging"
)

const serverName = "devcheck-test"

// Version is reported in the MCP handshake. cmd overrides it at startup.
var Version = "dev"

// TestMCPServer serves the test runner over MCP.
type TestMCPServer struct {
	mcpServer  *server.MCPServer
	config     testing.TestConfiguration
	testLoader testing.TestScenarioLoader
	testRunner testing.TestRunner

	mu         sync.Mutex
	running    bool
	lastResult *testing.TestSuiteResult
}

// NewTestMCPServer wires a framework for config. Reporter output is discarded
// because stdout carries the protocol.
func NewTestMCPServer(config testing.TestConfiguration) (*TestMCPServer, error) {
	reporter := testing.NewTestReporterTo(io.Discard, false, false, config.ReportPath)
	tf, err := testing.NewTestFramework(config, reporter)
	if err != nil {
		return nil, fmt.Errorf("failed to create test framework: %w", err)
	}
	return newTestMCPServer(config, tf.Loader, tf.Runner), nil
}

func newTestMCPServer(config testing.TestConfiguration, loader testing.TestScenarioLoader, runner testing.TestRunner) *TestMCPServer {
	t := &TestMCPServer{
		config:     config,
		testLoader: loader,
		testRunner: runner,
	}
	t.mcpServer = server.NewMCPServer(serverName, Version, server.WithToolCapabilities(false))
	t.registerTools()
	return t
}

func (t *TestMCPServer) registerTools() {
	t.mcpServer.AddTool(mcp.NewTool("test_run_scenarios",
		mcp.WithDescription("Run devcheck scenarios and return the suite result as JSON"),
		mcp.WithString("category",
			mcp.Description("Only run scenarios of this category"),
			mcp.Enum(categoryNames()...),
		),
		mcp.WithString("scenario",
			mcp.Description("Scenario name or shell pattern, e.g. concurrent-*"),
		),
		mcp.WithString("tags",
			mcp.Description("Comma-separated tags; a scenario needs one of them"),
		),
		mcp.WithString("generator",
			mcp.Description("Override the generator backend (shell-script or claude-binary)"),
		),
		mcp.WithString("config_path",
			mcp.Description("Scenario file or directory; defaults to the built-in scenarios"),
		),
		mcp.WithString("timeout",
			mcp.Description("Overall timeout as a Go duration, e.g. 20m"),
		),
		mcp.WithBoolean("fail_fast",
			mcp.Description("Stop after the first failed scenario"),
		),
	), t.handleRunScenarios)

	t.mcpServer.AddTool(mcp.NewTool("test_list_scenarios",
		mcp.WithDescription("List the available scenarios"),
		mcp.WithString("category",
			mcp.Description("Only list scenarios of this category"),
			mcp.Enum(categoryNames()...),
		),
		mcp.WithString("config_path",
			mcp.Description("Scenario file or directory; defaults to the built-in scenarios"),
		),
	), t.handleListScenarios)

	t.mcpServer.AddTool(mcp.NewTool("test_validate_scenario",
		mcp.WithDescription("Load a scenario file or directory and report problems without running it"),
		mcp.WithString("scenario_path",
			mcp.Required(),
			mcp.Description("Scenario file or directory to validate"),
		),
	), t.handleValidateScenario)

	t.mcpServer.AddTool(mcp.NewTool("test_get_results",
		mcp.WithDescription("Return the result of the last test_run_scenarios call"),
	), t.handleGetResults)
}

// Start serves MCP on stdin/stdout until ctx is cancelled or the client disconnects.
func (t *TestMCPServer) Start(ctx context.Context) error {
	logging.Info("TestMCP", "Serving %d scenario tools over stdio", 4)
	stdio := server.NewStdioServer(t.mcpServer)
	if err := stdio.Listen(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func categoryNames() []string {
	return []string{
		string(testing.CategoryGeneration),
		string(testing.CategoryContainer),
		string(testing.CategoryDevContainer),
		string(testing.CategoryEdgeCase),
	}
}
