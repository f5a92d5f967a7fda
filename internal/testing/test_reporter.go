package testing

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"devcheck/internal/color"
	"devcheck/internal/validation"
)

// maxErrorWidth bounds single-line error excerpts in the console output.
const maxErrorWidth = 160

// testReporter implements the TestReporter interface
type testReporter struct {
	out        io.Writer
	verbose    bool
	debug      bool
	reportPath string
}

// NewTestReporter creates a new console reporter writing to stdout
func NewTestReporter(verbose, debug bool, reportPath string) TestReporter {
	return NewTestReporterTo(os.Stdout, verbose, debug, reportPath)
}

// NewTestReporterTo creates a console reporter writing to out
func NewTestReporterTo(out io.Writer, verbose, debug bool, reportPath string) TestReporter {
	return &testReporter{
		out:        out,
		verbose:    verbose,
		debug:      debug,
		reportPath: reportPath,
	}
}

func (r *testReporter) printf(format string, args ...interface{}) {
	fmt.Fprintf(r.out, format, args...)
}

// ReportStart is called when test execution begins
func (r *testReporter) ReportStart(config TestConfiguration) {
	r.printf("%s\n", color.TitleStyle.Render("🧪 devcheck generation and validation suite"))
	r.printf("🛠  Generator: %s\n", r.stringOrDefault(config.Generator, "per scenario"))

	if r.verbose {
		r.printf("⚙️  Configuration:\n")
		r.printf("   • Category: %s\n", r.stringOrDefault(string(config.Category), "all"))
		r.printf("   • Scenario: %s\n", r.stringOrDefault(config.Scenario, "all"))
		if len(config.Tags) > 0 {
			r.printf("   • Tags: %s\n", strings.Join(config.Tags, ", "))
		}
		r.printf("   • Fail fast: %t\n", config.FailFast)
		r.printf("   • Debug mode: %t\n", config.Debug)
		r.printf("   • Timeout: %v\n", config.Timeout)
		r.printf("   • Project root: %s\n", r.stringOrDefault(config.ProjectRoot, "auto-detect"))
		if config.ConfigPath != "" {
			r.printf("   • Scenario path: %s\n", config.ConfigPath)
		}
		if config.ReportPath != "" {
			r.printf("   • Report path: %s\n", config.ReportPath)
		}
		r.printf("\n")
	}
}

// ReportScenarioStart is called when a scenario begins
func (r *testReporter) ReportScenarioStart(scenario TestScenario) {
	if r.verbose {
		r.printf("🎯 Starting scenario: %s (%s)\n", scenario.Name, scenario.Category)
		if scenario.Description != "" {
			r.printf("   📝 %s\n", scenario.Description)
		}
		if len(scenario.Tags) > 0 {
			r.printf("   🏷️  Tags: %s\n", strings.Join(scenario.Tags, ", "))
		}
		r.printf("   📋 Steps: %d\n", len(scenario.Steps))
		if scenario.Timeout > 0 {
			r.printf("   ⏱️  Timeout: %v\n", scenario.Timeout)
		}
		r.printf("\n")
	} else {
		r.printf("🎯 %s... ", scenario.Name)
	}
}

// ReportStepResult is called when a step completes
func (r *testReporter) ReportStepResult(stepResult TestStepResult) {
	if !r.verbose {
		return
	}
	symbol := r.getResultSymbol(stepResult.Result)
	r.printf("   %s Step: %s (%v)\n", symbol, stepResult.Step.DisplayName(), stepResult.Duration.Round(time.Millisecond))

	if stepResult.Error != "" {
		r.printf("     %s %s\n", color.ErrorStyle.Render("Error:"), r.excerpt(stepResult.Error))
	}

	for _, v := range stepResult.Verdicts {
		switch {
		case v.IsHardFail():
			r.printf("     %s\n", color.ErrorStyle.Render(r.excerpt(v.String())))
		case v.IsAdvisory():
			r.printf("     %s\n", color.WarningStyle.Render(r.excerpt(v.String())))
		case r.debug:
			r.printf("     %s\n", color.MutedStyle.Render(v.String()))
		}
	}
}

// ReportScenarioResult is called when a scenario completes
func (r *testReporter) ReportScenarioResult(scenarioResult TestScenarioResult) {
	symbol := r.getResultSymbol(scenarioResult.Result)

	if !r.verbose {
		r.printf("%s (%v)", symbol, scenarioResult.Duration.Round(time.Millisecond))
		if n := len(scenarioResult.Warnings); n > 0 {
			r.printf(" %s", color.WarningStyle.Render(fmt.Sprintf("%d warning(s)", n)))
		}
		r.printf("\n")
		if scenarioResult.Error != "" {
			r.printf("   %s\n", color.ErrorStyle.Render(r.excerpt(scenarioResult.Error)))
		}
		return
	}

	r.printf("%s Scenario completed: %s (%v)\n", symbol, scenarioResult.Scenario.Name, scenarioResult.Duration.Round(time.Millisecond))
	if scenarioResult.Error != "" {
		r.printf("   ❌ Error: %s\n", r.excerpt(scenarioResult.Error))
	}

	passed, failed, errored := 0, 0, 0
	for _, stepResult := range scenarioResult.StepResults {
		switch stepResult.Result {
		case ResultPassed:
			passed++
		case ResultFailed:
			failed++
		case ResultError:
			errored++
		}
	}
	r.printf("   📊 Steps: %d passed", passed)
	if failed > 0 {
		r.printf(", %d failed", failed)
	}
	if errored > 0 {
		r.printf(", %d errors", errored)
	}
	r.printf("\n")

	if len(scenarioResult.Warnings) > 0 {
		r.printf("   ⚠️  Warnings:\n")
		r.printWarnings(scenarioResult.Warnings, "      ")
	}

	c := scenarioResult.Cleanup
	r.printf("   🧹 Cleanup: %d image(s), %d prefix sweep(s), root removed %t\n", c.ImagesRemoved, c.PrefixRemovals, c.RootRemoved)
	for _, e := range c.Errors {
		r.printf("      %s\n", color.MutedStyle.Render(r.excerpt(e)))
	}
	r.printf("\n")
}

// ReportSuiteResult is called when all tests complete
func (r *testReporter) ReportSuiteResult(suiteResult TestSuiteResult) {
	r.printf("\n🏁 Test Suite Complete\n")
	r.printf("⏱️  Duration: %v\n", suiteResult.Duration.Round(time.Millisecond))
	r.printf("📊 Results:\n")
	r.printf("   ✅ Passed: %d\n", suiteResult.PassedScenarios)

	if suiteResult.FailedScenarios > 0 {
		r.printf("   ❌ Failed: %d\n", suiteResult.FailedScenarios)
	}
	if suiteResult.ErrorScenarios > 0 {
		r.printf("   💥 Errors: %d\n", suiteResult.ErrorScenarios)
	}
	if suiteResult.SkippedScenarios > 0 {
		r.printf("   ⏭️  Skipped: %d\n", suiteResult.SkippedScenarios)
	}
	if suiteResult.WarningCount > 0 {
		r.printf("   ⚠️  Warnings: %d\n", suiteResult.WarningCount)
	}
	r.printf("   📈 Total: %d\n", suiteResult.TotalScenarios)

	successRate := 0.0
	if suiteResult.TotalScenarios > 0 {
		successRate = float64(suiteResult.PassedScenarios) / float64(suiteResult.TotalScenarios) * 100
	}
	r.printf("   📏 Success Rate: %.1f%%\n", successRate)

	if suiteResult.Succeeded() {
		r.printf("\n%s\n", color.SuccessStyle.Render("🎉 All tests passed!"))
	} else {
		r.printf("\n%s\n", color.ErrorStyle.Render("💔 Some tests failed"))
	}

	if r.reportPath != "" {
		path, err := saveDetailedReport(r.reportPath, suiteResult, time.Now())
		if err != nil {
			r.printf("⚠️  Failed to save detailed report: %v\n", err)
		} else {
			r.printf("📄 Detailed report saved to: %s\n", path)
		}
	}
}

func (r *testReporter) printWarnings(warnings []validation.Verdict, indent string) {
	for _, w := range warnings {
		r.printf("%s%s\n", indent, color.WarningStyle.Render(r.excerpt(w.String())))
	}
}

// excerpt keeps the first line of msg and truncates it to the console width budget.
func (r *testReporter) excerpt(msg string) string {
	if r.debug {
		return msg
	}
	line, _, more := strings.Cut(msg, "\n")
	if runewidth.StringWidth(line) > maxErrorWidth {
		return runewidth.Truncate(line, maxErrorWidth, "…")
	}
	if more {
		return line + " …"
	}
	return line
}

// saveDetailedReport writes the suite result as JSON into dir and returns the file path.
func saveDetailedReport(dir string, suiteResult TestSuiteResult, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	filename := fmt.Sprintf("devcheck-test-report-%s.json", now.Format("20060102-150405"))
	fullPath := filepath.Join(dir, filename)

	jsonData, err := json.MarshalIndent(suiteResult, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report to JSON: %w", err)
	}
	if err := os.WriteFile(fullPath, jsonData, 0644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}
	return fullPath, nil
}

// getResultSymbol returns an appropriate symbol for the test result
func (r *testReporter) getResultSymbol(result TestResult) string {
	switch result {
	case ResultPassed:
		return color.SuccessStyle.Render("✅")
	case ResultFailed:
		return color.ErrorStyle.Render("❌")
	case ResultSkipped:
		return color.MutedStyle.Render("⏭️")
	case ResultError:
		return color.ErrorStyle.Render("💥")
	default:
		return "❓"
	}
}

func (r *testReporter) stringOrDefault(s, defaultValue string) string {
	if s == "" {
		return defaultValue
	}
	return s
}

// NewQuietReporter creates a reporter that only outputs essential information
func NewQuietReporter() TestReporter {
	return NewQuietReporterTo(os.Stdout)
}

// NewQuietReporterTo creates a quiet reporter writing to out
func NewQuietReporterTo(out io.Writer) TestReporter {
	return &quietReporter{out: out}
}

// quietReporter implements minimal output for CI/CD integration
type quietReporter struct {
	out io.Writer
}

func (r *quietReporter) ReportStart(config TestConfiguration) {}

func (r *quietReporter) ReportScenarioStart(scenario TestScenario) {}

func (r *quietReporter) ReportStepResult(stepResult TestStepResult) {}

func (r *quietReporter) ReportScenarioResult(scenarioResult TestScenarioResult) {
	// Only report failures
	if scenarioResult.Result == ResultFailed || scenarioResult.Result == ResultError {
		symbol := "❌"
		if scenarioResult.Result == ResultError {
			symbol = "💥"
		}
		fmt.Fprintf(r.out, "%s %s: %s\n", symbol, scenarioResult.Scenario.Name, scenarioResult.Error)
	}
}

func (r *quietReporter) ReportSuiteResult(suiteResult TestSuiteResult) {
	if suiteResult.Succeeded() {
		fmt.Fprintf(r.out, "✅ All %d tests passed (%d warnings)\n", suiteResult.PassedScenarios, suiteResult.WarningCount)
	} else {
		fmt.Fprintf(r.out, "❌ %d/%d tests failed\n",
			suiteResult.FailedScenarios+suiteResult.ErrorScenarios,
			suiteResult.TotalScenarios)
	}
}

// NewJSONReporter creates a reporter that outputs JSON for CI/CD integration
func NewJSONReporter() TestReporter {
	return NewJSONReporterTo(os.Stdout)
}

// NewJSONReporterTo creates a JSON reporter writing to out
func NewJSONReporterTo(out io.Writer) TestReporter {
	return &jsonReporter{out: out}
}

// jsonReporter implements JSON output for machine consumption
type jsonReporter struct {
	out io.Writer
}

func (r *jsonReporter) ReportStart(config TestConfiguration) {}

func (r *jsonReporter) ReportScenarioStart(scenario TestScenario) {}

func (r *jsonReporter) ReportStepResult(stepResult TestStepResult) {}

func (r *jsonReporter) ReportScenarioResult(scenarioResult TestScenarioResult) {}

func (r *jsonReporter) ReportSuiteResult(suiteResult TestSuiteResult) {
	jsonData, err := json.MarshalIndent(suiteResult, "", "  ")
	if err != nil {
		fmt.Fprintf(r.out, `{"error": "Failed to marshal results: %v"}`+"\n", err)
		return
	}
	fmt.Fprintln(r.out, string(jsonData))
}
