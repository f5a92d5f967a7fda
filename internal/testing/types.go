package testing

import (
	"context"
	"time"

	"devcheck/internal/validation"
	"devcheck/internal/workspace"
)

// TestCategory groups scenarios by the collaborators they need
type TestCategory string

const (
	// CategoryGeneration needs only the generator and the filesystem
	CategoryGeneration TestCategory = "generation"
	// CategoryContainer additionally builds images with the container engine
	CategoryContainer TestCategory = "container"
	// CategoryDevContainer drives a live dev container through the devcontainer CLI
	CategoryDevContainer TestCategory = "devcontainer"
	// CategoryEdgeCase probes how the generator treats unusual input
	CategoryEdgeCase TestCategory = "edge-case"
)

// TestResult represents the result of test execution
type TestResult string

const (
	// ResultPassed indicates no hard failure was recorded
	ResultPassed TestResult = "PASSED"
	// ResultFailed indicates a check recorded a hard failure
	ResultFailed TestResult = "FAILED"
	// ResultSkipped indicates the scenario was not run
	ResultSkipped TestResult = "SKIPPED"
	// ResultError indicates the scenario could not be executed as written
	ResultError TestResult = "ERROR"
)

// TestConfiguration defines the overall test execution configuration
type TestConfiguration struct {
	// Timeout is the overall test execution timeout
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
	// Category filter for test execution
	Category TestCategory `yaml:"category,omitempty" json:"category,omitempty"`
	// Scenario filter for specific scenario execution
	Scenario string `yaml:"scenario,omitempty" json:"scenario,omitempty"`
	// Tags keeps only scenarios carrying at least one of these tags
	Tags []string `yaml:"tags,omitempty" json:"tags,omitempty"`
	// FailFast stops execution on first failure
	FailFast bool `yaml:"fail_fast" json:"fail_fast"`
	// Verbose enables detailed output
	Verbose bool `yaml:"verbose" json:"verbose"`
	// Debug enables debug logging
	Debug bool `yaml:"debug" json:"debug"`
	// ConfigPath is the path to test scenario definitions; empty uses the built-in scenarios
	ConfigPath string `yaml:"config_path,omitempty" json:"config_path,omitempty"`
	// ReportPath is the directory to save detailed test reports
	ReportPath string `yaml:"report_path,omitempty" json:"report_path,omitempty"`

	// Generator overrides the backend named by each scenario
	Generator string `yaml:"generator,omitempty" json:"generator,omitempty"`
	// ProjectRoot is the scaffolding repository holding scripts/init-project.sh
	ProjectRoot string `yaml:"project_root,omitempty" json:"project_root,omitempty"`
	// GeneratorBinary is the executable of the binary backend
	GeneratorBinary string `yaml:"generator_binary,omitempty" json:"generator_binary,omitempty"`
	// WorkDir is where scope directories are created; empty uses the OS temp dir
	WorkDir string `yaml:"work_dir,omitempty" json:"work_dir,omitempty"`
	// DockerBinary and DevContainerBinary name the external CLIs
	DockerBinary       string `yaml:"docker_binary,omitempty" json:"docker_binary,omitempty"`
	DevContainerBinary string `yaml:"devcontainer_binary,omitempty" json:"devcontainer_binary,omitempty"`
	// UpTimeout bounds `devcontainer up`
	UpTimeout time.Duration `yaml:"up_timeout,omitempty" json:"up_timeout,omitempty"`
}

// TestScenario defines a single test scenario
type TestScenario struct {
	// Name is the unique identifier for the scenario
	Name string `yaml:"name" json:"name"`
	// Category is the test category
	Category TestCategory `yaml:"category" json:"category"`
	// Description provides human-readable scenario description
	Description string `yaml:"description" json:"description,omitempty"`
	// Generator names the backend; empty means the default
	Generator string `yaml:"generator,omitempty" json:"generator,omitempty"`
	// Steps define the test execution steps
	Steps []TestStep `yaml:"steps" json:"steps"`
	// Timeout for this specific scenario
	Timeout time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	// Tags for additional categorization
	Tags []string `yaml:"tags,omitempty" json:"tags,omitempty"`
}

// TestStep defines a single step within a test scenario
type TestStep struct {
	// Name is the step identifier; defaults to the action
	Name string `yaml:"name,omitempty" json:"name"`
	// Description explains what the step does
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	// Action selects the step implementation
	Action string `yaml:"action" json:"action"`
	// Args are the action arguments
	Args map[string]string `yaml:"args,omitempty" json:"args,omitempty"`
	// Timeout for this specific step
	Timeout time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

// DisplayName returns Name, falling back to Action
func (s TestStep) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Action
}

// TestSuiteResult represents the overall result of test suite execution
type TestSuiteResult struct {
	// StartTime when test execution began
	StartTime time.Time `json:"start_time"`
	// EndTime when test execution completed
	EndTime time.Time `json:"end_time"`
	// Duration of test execution
	Duration time.Duration `json:"duration"`
	// TotalScenarios is the total number of scenarios executed
	TotalScenarios int `json:"total_scenarios"`
	// PassedScenarios is the number of scenarios that passed
	PassedScenarios int `json:"passed_scenarios"`
	// FailedScenarios is the number of scenarios that failed
	FailedScenarios int `json:"failed_scenarios"`
	// SkippedScenarios is the number of scenarios that were skipped
	SkippedScenarios int `json:"skipped_scenarios"`
	// ErrorScenarios is the number of scenarios that had errors
	ErrorScenarios int `json:"error_scenarios"`
	// WarningCount is the number of advisory verdicts across all scenarios
	WarningCount int `json:"warning_count"`
	// ScenarioResults contains individual scenario results
	ScenarioResults []TestScenarioResult `json:"scenario_results"`
	// Configuration used for this test run
	Configuration TestConfiguration `json:"configuration"`
}

// Succeeded reports whether no scenario failed or errored
func (r *TestSuiteResult) Succeeded() bool {
	return r.FailedScenarios == 0 && r.ErrorScenarios == 0
}

// TestScenarioResult represents the result of a single test scenario
type TestScenarioResult struct {
	// Scenario is the scenario that was executed
	Scenario TestScenario `json:"scenario"`
	// Result is the overall result of the scenario
	Result TestResult `json:"result"`
	// StartTime when scenario execution began
	StartTime time.Time `json:"start_time"`
	// EndTime when scenario execution completed
	EndTime time.Time `json:"end_time"`
	// Duration of scenario execution
	Duration time.Duration `json:"duration"`
	// StepResults contains individual step results
	StepResults []TestStepResult `json:"step_results"`
	// Verdicts is the full verdict ledger
	Verdicts []validation.Verdict `json:"verdicts,omitempty"`
	// Warnings are the advisory verdicts
	Warnings []validation.Verdict `json:"warnings,omitempty"`
	// Cleanup summarizes the scope release
	Cleanup workspace.CleanupReport `json:"cleanup"`
	// Error message if the scenario failed or had an error
	Error string `json:"error,omitempty"`
}

// TestStepResult represents the result of a single test step
type TestStepResult struct {
	// Step is the step that was executed
	Step TestStep `json:"step"`
	// Result is the result of the step
	Result TestResult `json:"result"`
	// StartTime when step execution began
	StartTime time.Time `json:"start_time"`
	// EndTime when step execution completed
	EndTime time.Time `json:"end_time"`
	// Duration of step execution
	Duration time.Duration `json:"duration"`
	// Verdicts recorded by this step
	Verdicts []validation.Verdict `json:"verdicts,omitempty"`
	// Error message if the step failed
	Error string `json:"error,omitempty"`
}

// TestRunner interface defines the test execution engine
type TestRunner interface {
	// Run executes test scenarios according to the configuration
	Run(ctx context.Context, config TestConfiguration, scenarios []TestScenario) (*TestSuiteResult, error)
}

// TestScenarioLoader interface defines how test scenarios are loaded
type TestScenarioLoader interface {
	// LoadScenarios loads test scenarios from the given path; empty loads the built-in set
	LoadScenarios(configPath string) ([]TestScenario, error)
	// FilterScenarios filters scenarios based on the configuration
	FilterScenarios(scenarios []TestScenario, config TestConfiguration) []TestScenario
}

// TestReporter interface defines how test results are reported
type TestReporter interface {
	// ReportStart is called when test execution begins
	ReportStart(config TestConfiguration)
	// ReportScenarioStart is called when a scenario begins
	ReportScenarioStart(scenario TestScenario)
	// ReportStepResult is called when a step completes
	ReportStepResult(stepResult TestStepResult)
	// ReportScenarioResult is called when a scenario completes
	ReportScenarioResult(scenarioResult TestScenarioResult)
	// ReportSuiteResult is called when all tests complete
	ReportSuiteResult(suiteResult TestSuiteResult)
}
