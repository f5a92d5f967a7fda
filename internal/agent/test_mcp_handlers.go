package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"devcheck/internal/testing"
)

// handleRunScenarios handles the test_run_scenarios MCP tool
func (t *TestMCPServer) handleRunScenarios(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	config := t.config
	config.Verbose = true

	if category, ok := args["category"].(string); ok && category != "" {
		c, err := parseCategory(category)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		config.Category = c
	}

	if scenario, ok := args["scenario"].(string); ok {
		config.Scenario = scenario
	}

	if tags, ok := args["tags"].(string); ok && tags != "" {
		config.Tags = nil
		for _, tag := range strings.Split(tags, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				config.Tags = append(config.Tags, tag)
			}
		}
	}

	if gen, ok := args["generator"].(string); ok && gen != "" {
		config.Generator = gen
	}

	if configPath, ok := args["config_path"].(string); ok && configPath != "" {
		config.ConfigPath = configPath
	}

	if timeout, ok := args["timeout"].(string); ok && timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid timeout '%s': %v", timeout, err)), nil
		}
		config.Timeout = d
	}

	if failFast, ok := args["fail_fast"].(bool); ok {
		config.FailFast = failFast
	}

	if err := testing.ValidateConfiguration(config); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid configuration: %v", err)), nil
	}

	scenarios, err := t.testLoader.LoadScenarios(config.ConfigPath)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to load test scenarios: %v", err)), nil
	}
	if len(t.testLoader.FilterScenarios(scenarios, config)) == 0 {
		return mcp.NewToolResultText("No test scenarios match the given filters"), nil
	}

	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		return mcp.NewToolResultError("A test run is already in progress"), nil
	}
	t.running = true
	t.mu.Unlock()

	result, err := t.testRunner.Run(ctx, config, scenarios)

	t.mu.Lock()
	t.running = false
	if result != nil {
		t.lastResult = result
	}
	t.mu.Unlock()

	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Test execution failed: %v", err)), nil
	}

	jsonData, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to format test results: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

// scenarioInfo is the listing shape of one scenario
type scenarioInfo struct {
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Description string   `json:"description,omitempty"`
	Generator   string   `json:"generator,omitempty"`
	StepCount   int      `json:"step_count"`
	Tags        []string `json:"tags,omitempty"`
	Timeout     string   `json:"timeout,omitempty"`
}

// handleListScenarios handles the test_list_scenarios MCP tool
func (t *TestMCPServer) handleListScenarios(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	configPath := t.config.ConfigPath
	if path, ok := args["config_path"].(string); ok && path != "" {
		configPath = path
	}

	var filter testing.TestConfiguration
	if category, ok := args["category"].(string); ok && category != "" {
		c, err := parseCategory(category)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		filter.Category = c
	}

	scenarios, err := t.testLoader.LoadScenarios(configPath)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to load scenarios: %v", err)), nil
	}

	filtered := t.testLoader.FilterScenarios(scenarios, filter)
	list := make([]scenarioInfo, len(filtered))
	for i, sc := range filtered {
		info := scenarioInfo{
			Name:        sc.Name,
			Category:    string(sc.Category),
			Description: sc.Description,
			Generator:   sc.Generator,
			StepCount:   len(sc.Steps),
			Tags:        sc.Tags,
		}
		if sc.Timeout > 0 {
			info.Timeout = sc.Timeout.String()
		}
		list[i] = info
	}

	jsonData, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to format scenarios: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

// handleValidateScenario handles the test_validate_scenario MCP tool
func (t *TestMCPServer) handleValidateScenario(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	scenarioPath, err := request.RequireString("scenario_path")
	if err != nil {
		return mcp.NewToolResultError("scenario_path parameter is required"), nil
	}

	scenarios, err := t.testLoader.LoadScenarios(scenarioPath)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Validation failed: %v", err)), nil
	}

	type scenarioValidation struct {
		Name      string   `json:"name"`
		StepCount int      `json:"step_count"`
		Warnings  []string `json:"warnings,omitempty"`
	}
	type validationResult struct {
		Valid         bool                 `json:"valid"`
		ScenarioCount int                  `json:"scenario_count"`
		Scenarios     []scenarioValidation `json:"scenarios"`
		Path          string               `json:"path"`
	}

	result := validationResult{
		Valid:         true,
		ScenarioCount: len(scenarios),
		Path:          scenarioPath,
		Scenarios:     make([]scenarioValidation, len(scenarios)),
	}

	for i, sc := range scenarios {
		v := scenarioValidation{Name: sc.Name, StepCount: len(sc.Steps)}
		if sc.Description == "" {
			v.Warnings = append(v.Warnings, "Missing description")
		}
		if needsImage(sc) && sc.Timeout == 0 {
			v.Warnings = append(v.Warnings, "Image builds can be slow; consider a scenario timeout")
		}
		result.Scenarios[i] = v
	}

	jsonData, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to format validation result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

// handleGetResults handles the test_get_results MCP tool
func (t *TestMCPServer) handleGetResults(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t.mu.Lock()
	last := t.lastResult
	t.mu.Unlock()

	if last == nil {
		return mcp.NewToolResultText("No test results available. Run test_run_scenarios first."), nil
	}

	jsonData, err := json.MarshalIndent(last, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to format test results: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

func parseCategory(s string) (testing.TestCategory, error) {
	for _, name := range categoryNames() {
		if s == name {
			return testing.TestCategory(s), nil
		}
	}
	return "", fmt.Errorf("invalid category '%s', must be one of: %s", s, strings.Join(categoryNames(), ", "))
}

func needsImage(sc testing.TestScenario) bool {
	for _, step := range sc.Steps {
		if step.Action == "build_image" || step.Action == "start_devcontainer" {
			return true
		}
	}
	return false
}
