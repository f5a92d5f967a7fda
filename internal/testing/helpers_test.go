package testing

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-git/go-git/v5"

	"devcheck/internal/generator"
	"devcheck/internal/workspace"
)

const testDescriptor = `{
  // generated
  "name": "demo",
  "image": "mcr.microsoft.com/devcontainers/base",
  "features": {"ghcr.io/devcontainers/features/node:1": {}},
  "customizations": {"vscode": {"extensions": ["ms-python.python"]}},
}`

// fakeGenerator lays out a minimal project under opts.Workspace unless the
// name is listed in failFor.
type fakeGenerator struct {
	mu      sync.Mutex
	backend generator.Backend
	failFor map[string]string
	calls   []string
}

func (g *fakeGenerator) Backend() generator.Backend {
	if g.backend == "" {
		return generator.BackendShellScript
	}
	return g.backend
}

func (g *fakeGenerator) Generate(_ context.Context, name string, opts generator.Options) generator.Result {
	g.mu.Lock()
	g.calls = append(g.calls, name)
	g.mu.Unlock()

	if msg, ok := g.failFor[name]; ok {
		return generator.Result{ExitCode: 1, Output: msg}
	}
	if name == "" || opts.Workspace == "" {
		return generator.Result{ExitCode: 2, Output: "project name required"}
	}

	root := filepath.Join(opts.Workspace, name)
	for _, dir := range []string{".devcontainer", "project"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return generator.Result{ExitCode: 1, Output: err.Error()}
		}
	}
	if _, err := git.PlainInit(root, false); err != nil {
		return generator.Result{ExitCode: 1, Output: err.Error()}
	}
	if err := os.WriteFile(filepath.Join(root, ".devcontainer", "devcontainer.json"), []byte(testDescriptor), 0o644); err != nil {
		return generator.Result{ExitCode: 1, Output: err.Error()}
	}
	return generator.Result{Output: "created " + name + " from " + opts.Template}
}

func (g *fakeGenerator) Calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.calls...)
}

// recordingReporter keeps every callback for assertions.
type recordingReporter struct {
	started   bool
	scenarios []string
	steps     []TestStepResult
	results   []TestScenarioResult
	suite     *TestSuiteResult
}

func (r *recordingReporter) ReportStart(TestConfiguration) { r.started = true }
func (r *recordingReporter) ReportScenarioStart(s TestScenario) {
	r.scenarios = append(r.scenarios, s.Name)
}
func (r *recordingReporter) ReportStepResult(s TestStepResult) { r.steps = append(r.steps, s) }
func (r *recordingReporter) ReportScenarioResult(s TestScenarioResult) {
	r.results = append(r.results, s)
}
func (r *recordingReporter) ReportSuiteResult(s TestSuiteResult) { r.suite = &s }

// countingRemover records image removals requested by scope release.
type countingRemover struct {
	mu       sync.Mutex
	removed  []string
	prefixes []string
}

func (c *countingRemover) RemoveImage(_ context.Context, ref string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removed = append(c.removed, ref)
	return nil
}

func (c *countingRemover) RemoveImagesWithPrefix(_ context.Context, prefix string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prefixes = append(c.prefixes, prefix)
	return 0, nil
}

var _ workspace.ImageRemover = (*countingRemover)(nil)

func scopeDirs(base string) []string {
	entries, _ := os.ReadDir(base)
	var out []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), workspace.TempPrefix) {
			out = append(out, e.Name())
		}
	}
	return out
}
