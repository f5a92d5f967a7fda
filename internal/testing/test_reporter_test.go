package testing

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devcheck/internal/validation"
	"devcheck/internal/workspace"
)

func sampleSuite() TestSuiteResult {
	warn := validation.Advisory(validation.StageDescriptor, "proxy setting", "not configured")
	return TestSuiteResult{
		Duration:        3 * time.Second,
		TotalScenarios:  2,
		PassedScenarios: 1,
		FailedScenarios: 1,
		WarningCount:    1,
		ScenarioResults: []TestScenarioResult{
			{
				Scenario: TestScenario{Name: "ok"},
				Result:   ResultPassed,
				Warnings: []validation.Verdict{warn},
				Cleanup:  workspace.CleanupReport{RootRemoved: true},
			},
			{
				Scenario: TestScenario{Name: "bad"},
				Result:   ResultFailed,
				Error:    "generator exited with code 1",
			},
		},
	}
}

func TestConsoleReporterCompact(t *testing.T) {
	var buf bytes.Buffer
	r := NewTestReporterTo(&buf, false, false, "")

	r.ReportStart(TestConfiguration{Generator: "shell-script"})
	r.ReportScenarioStart(TestScenario{Name: "ok"})
	r.ReportScenarioResult(sampleSuite().ScenarioResults[0])
	r.ReportSuiteResult(sampleSuite())

	out := buf.String()
	assert.Contains(t, out, "shell-script")
	assert.Contains(t, out, "ok...")
	assert.Contains(t, out, "1 warning(s)")
	assert.Contains(t, out, "Failed: 1")
	assert.Contains(t, out, "Warnings: 1")
	assert.Contains(t, out, "Some tests failed")
}

func TestConsoleReporterVerbose(t *testing.T) {
	var buf bytes.Buffer
	r := NewTestReporterTo(&buf, true, false, "")

	r.ReportStepResult(TestStepResult{
		Step:   TestStep{Action: "expect_setting"},
		Result: ResultPassed,
		Verdicts: []validation.Verdict{
			validation.Advisory(validation.StageDescriptor, "proxy setting", "not configured"),
		},
	})
	r.ReportScenarioResult(sampleSuite().ScenarioResults[0])

	out := buf.String()
	assert.Contains(t, out, "Step: expect_setting")
	assert.Contains(t, out, "proxy setting")
	assert.Contains(t, out, "Cleanup: 0 image(s), 0 prefix sweep(s), root removed true")
}

func TestExcerptTruncates(t *testing.T) {
	r := &testReporter{}

	long := strings.Repeat("x", maxErrorWidth*2)
	assert.LessOrEqual(t, len([]rune(r.excerpt(long))), maxErrorWidth)
	assert.Equal(t, "first line …", r.excerpt("first line\nsecond line"))

	r.debug = true
	assert.Equal(t, "first line\nsecond line", r.excerpt("first line\nsecond line"))
}

func TestSaveDetailedReport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	now := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)

	path, err := saveDetailedReport(dir, sampleSuite(), now)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "devcheck-test-report-20250601-123000.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded TestSuiteResult
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 1, decoded.WarningCount)
	assert.Len(t, decoded.ScenarioResults, 2)
}

func TestQuietReporter(t *testing.T) {
	var buf bytes.Buffer
	r := &quietReporter{out: &buf}

	suite := sampleSuite()
	for _, sr := range suite.ScenarioResults {
		r.ReportScenarioResult(sr)
	}
	r.ReportSuiteResult(suite)

	out := buf.String()
	assert.NotContains(t, out, "ok:")
	assert.Contains(t, out, "bad: generator exited with code 1")
	assert.Contains(t, out, "1/2 tests failed")
}

func TestJSONReporter(t *testing.T) {
	var buf bytes.Buffer
	r := &jsonReporter{out: &buf}
	r.ReportSuiteResult(sampleSuite())

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.EqualValues(t, 2, decoded["total_scenarios"])
}
