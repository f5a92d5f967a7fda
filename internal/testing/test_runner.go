package testing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"devcheck/internal/generator"
	"devcheck/internal/scenario"
	"devcheck/internal/validation"
	"devcheck/internal/workspace"
	"devcheck/pkg/logging"
)

// cleanupTimeout bounds scope release once a scenario has finished or was cancelled.
const cleanupTimeout = 2 * time.Minute

// GeneratorFactory returns the generator for a backend identifier.
type GeneratorFactory func(id string) generator.Generator

// testRunner implements the TestRunner interface
type testRunner struct {
	loader       TestScenarioLoader
	reporter     TestReporter
	workspaces   *workspace.Manager
	checker      *validation.Checker
	newGenerator GeneratorFactory
	debug        bool
}

// NewTestRunner creates a new test runner
func NewTestRunner(loader TestScenarioLoader, reporter TestReporter, workspaces *workspace.Manager, checker *validation.Checker, newGenerator GeneratorFactory, debug bool) TestRunner {
	return &testRunner{
		loader:       loader,
		reporter:     reporter,
		workspaces:   workspaces,
		checker:      checker,
		newGenerator: newGenerator,
		debug:        debug,
	}
}

// Run executes test scenarios one after another. A scenario, including the
// release of its scope, completes before the next one starts.
func (r *testRunner) Run(ctx context.Context, config TestConfiguration, scenarios []TestScenario) (*TestSuiteResult, error) {
	if config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.Timeout)
		defer cancel()
	}

	result := &TestSuiteResult{
		StartTime:       time.Now(),
		TotalScenarios:  len(scenarios),
		ScenarioResults: make([]TestScenarioResult, 0, len(scenarios)),
		Configuration:   config,
	}

	r.reporter.ReportStart(config)

	filteredScenarios := r.loader.FilterScenarios(scenarios, config)
	result.TotalScenarios = len(filteredScenarios)

	for i, sc := range filteredScenarios {
		if err := ctx.Err(); err != nil {
			for _, skipped := range filteredScenarios[i:] {
				skippedResult := TestScenarioResult{Scenario: skipped, Result: ResultSkipped, Error: "test run cancelled"}
				result.ScenarioResults = append(result.ScenarioResults, skippedResult)
				r.updateCounters(result, skippedResult)
			}
			break
		}

		scenarioResult := r.runScenario(ctx, sc, config)
		result.ScenarioResults = append(result.ScenarioResults, scenarioResult)
		r.updateCounters(result, scenarioResult)
		r.reporter.ReportScenarioResult(scenarioResult)

		if config.FailFast && (scenarioResult.Result == ResultFailed || scenarioResult.Result == ResultError) {
			logging.Info("TestRunner", "Fail-fast: stopping after %s", sc.Name)
			break
		}
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)

	r.reporter.ReportSuiteResult(*result)

	return result, nil
}

// runScenario executes a single test scenario inside its own workspace scope
func (r *testRunner) runScenario(ctx context.Context, ts TestScenario, config TestConfiguration) (result TestScenarioResult) {
	result = TestScenarioResult{
		Scenario:    ts,
		StartTime:   time.Now(),
		StepResults: make([]TestStepResult, 0, len(ts.Steps)),
		Result:      ResultPassed,
	}

	r.reporter.ReportScenarioStart(ts)

	scenarioCtx := ctx
	if ts.Timeout > 0 {
		var cancel context.CancelFunc
		scenarioCtx, cancel = context.WithTimeout(ctx, ts.Timeout)
		defer cancel()
	}

	scope, err := r.workspaces.Acquire(scenarioCtx)
	if err != nil {
		result.Result = ResultError
		result.Error = fmt.Sprintf("failed to acquire workspace: %v", err)
		result.EndTime = time.Now()
		result.Duration = result.EndTime.Sub(result.StartTime)
		return result
	}

	genID := ts.Generator
	if config.Generator != "" {
		genID = config.Generator
	}
	sc := scenario.New(scope, r.newGenerator(genID))
	env := &stepEnv{sc: sc, checker: r.checker, generator: r.newGenerator}

	// Teardown runs on a detached context so a cancelled run still cleans up.
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
		defer cancel()

		if sc.EnvironmentUp && r.checker != nil && r.checker.DevContainer != nil {
			if v := r.checker.StopEnvironment(cleanupCtx, sc.ProjectRoot()); v.IsHardFail() {
				logging.Debug("TestRunner", "Stopping dev container during teardown: %s", v.Reason)
			}
		}
		result.Cleanup = r.workspaces.Release(cleanupCtx, scope)
		logging.Debug("TestRunner", "Released scope %s for %s", scope.ID, ts.Name)
	}()

	for _, step := range ts.Steps {
		stepResult := r.runStep(scenarioCtx, env, step)
		result.StepResults = append(result.StepResults, stepResult)

		r.reporter.ReportStepResult(stepResult)

		if stepResult.Result == ResultFailed || stepResult.Result == ResultError {
			result.Result = stepResult.Result
			result.Error = stepResult.Error
			break
		}
	}

	result.Verdicts = sc.Verdicts()
	result.Warnings = sc.Warnings()
	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)

	return result
}

// runStep executes a single test step and records its verdicts
func (r *testRunner) runStep(ctx context.Context, env *stepEnv, step TestStep) TestStepResult {
	result := TestStepResult{
		Step:      step,
		StartTime: time.Now(),
		Result:    ResultPassed,
	}
	finish := func() TestStepResult {
		result.EndTime = time.Now()
		result.Duration = result.EndTime.Sub(result.StartTime)
		return result
	}

	fn, ok := lookupStep(step.Action)
	if !ok {
		result.Result = ResultError
		result.Error = fmt.Sprintf("unknown action %q", step.Action)
		return finish()
	}

	stepCtx := ctx
	if step.Timeout > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(ctx, step.Timeout)
		defer cancel()
	}

	if r.debug {
		logging.Debug("TestRunner", "Step %s (%s) args=%v", step.DisplayName(), step.Action, step.Args)
	}

	verdicts, err := fn(stepCtx, env, stepArgs(step.Args))
	if err != nil {
		result.Result = ResultError
		result.Error = fmt.Sprintf("step %s: %v", step.DisplayName(), err)
		return finish()
	}

	recErr := env.sc.Record(verdicts...)
	result.Verdicts = recorded(verdicts)

	var hf *validation.HardFailError
	switch {
	case errors.As(recErr, &hf):
		result.Result = ResultFailed
		result.Error = hf.Error()
	case stepCtx.Err() != nil:
		result.Result = ResultError
		result.Error = fmt.Sprintf("step %s: %v", step.DisplayName(), stepCtx.Err())
	}

	return finish()
}

// recorded trims verdicts after the first HardFail, mirroring scenario.Context.Record.
func recorded(verdicts []validation.Verdict) []validation.Verdict {
	for i, v := range verdicts {
		if v.IsHardFail() {
			return verdicts[:i+1]
		}
	}
	return verdicts
}

// updateCounters updates the result counters based on a scenario result
func (r *testRunner) updateCounters(suiteResult *TestSuiteResult, scenarioResult TestScenarioResult) {
	suiteResult.WarningCount += len(scenarioResult.Warnings)
	switch scenarioResult.Result {
	case ResultPassed:
		suiteResult.PassedScenarios++
	case ResultFailed:
		suiteResult.FailedScenarios++
	case ResultSkipped:
		suiteResult.SkippedScenarios++
	case ResultError:
		suiteResult.ErrorScenarios++
	}
}
