package testing

import (
	"fmt"
	"time"

	"devcheck/internal/cmdexec"
	"devcheck/internal/containerizer"
	"devcheck/internal/generator"
	"devcheck/internal/validation"
	"devcheck/internal/workspace"
)

// DefaultTestConfiguration returns a default test configuration
func DefaultTestConfiguration() TestConfiguration {
	return TestConfiguration{
		Timeout:            60 * time.Minute,
		FailFast:           false,
		Verbose:            false,
		Debug:              false,
		DockerBinary:       "docker",
		DevContainerBinary: "devcontainer",
		UpTimeout:          containerizer.DefaultUpTimeout,
	}
}

// TestFramework holds all components needed for testing
type TestFramework struct {
	Runner     TestRunner
	Loader     TestScenarioLoader
	Reporter   TestReporter
	Workspaces *workspace.Manager
	Checker    *validation.Checker
}

// NewTestFramework wires the framework against the real external tools named in config.
func NewTestFramework(config TestConfiguration, reporter TestReporter) (*TestFramework, error) {
	return NewTestFrameworkWithRunner(config, reporter, cmdexec.NewExecRunner())
}

// NewTestFrameworkWithRunner is NewTestFramework with an explicit process runner.
func NewTestFrameworkWithRunner(config TestConfiguration, reporter TestReporter, runner cmdexec.Runner) (*TestFramework, error) {
	if err := ValidateConfiguration(config); err != nil {
		return nil, err
	}
	if reporter == nil {
		reporter = NewTestReporter(config.Verbose, config.Debug, config.ReportPath)
	}

	docker := containerizer.NewDockerRuntime(config.DockerBinary, runner)
	devcontainer := containerizer.NewDevContainer(config.DevContainerBinary, config.UpTimeout, runner)
	checker := validation.NewChecker(docker, devcontainer)
	workspaces := workspace.NewManager(config.WorkDir, docker)

	genConfig := generator.Config{
		ProjectRoot: config.ProjectRoot,
		Program:     config.GeneratorBinary,
		Runner:      runner,
	}
	newGenerator := func(id string) generator.Generator {
		return generator.New(id, genConfig)
	}

	loader := NewTestScenarioLoader(config.Debug)

	return &TestFramework{
		Runner:     NewTestRunner(loader, reporter, workspaces, checker, newGenerator, config.Debug),
		Loader:     loader,
		Reporter:   reporter,
		Workspaces: workspaces,
		Checker:    checker,
	}, nil
}

// ValidateConfiguration validates a test configuration
func ValidateConfiguration(config TestConfiguration) error {
	if config.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}

	if config.UpTimeout < 0 {
		return fmt.Errorf("devcontainer up timeout must not be negative")
	}

	if config.Generator != "" {
		if _, ok := generator.ParseBackend(config.Generator); !ok {
			return fmt.Errorf("unknown generator %q (want %s or %s)", config.Generator, generator.BackendShellScript, generator.BackendBinary)
		}
	}

	if config.Category != "" && !knownCategory(config.Category) {
		return fmt.Errorf("unknown category %q", config.Category)
	}

	return nil
}

func knownCategory(c TestCategory) bool {
	switch c {
	case CategoryGeneration, CategoryContainer, CategoryDevContainer, CategoryEdgeCase:
		return true
	}
	return false
}
