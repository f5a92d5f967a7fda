// Package scenario holds the mutable state of one running scenario.
package scenario

import (
	"devcheck/internal/descriptor"
	"devcheck/internal/generator"
	"devcheck/internal/orchestrator"
	"devcheck/internal/validation"
	"devcheck/internal/workspace"
	"devcheck/pkg/logging"
)

// Context is created when a scenario starts and discarded after its scope is
// released. It is only touched by the goroutine running the scenario.
type Context struct {
	Scope     *workspace.Scope
	Generator generator.Generator

	// Current project under test.
	ProjectName string
	Options     generator.Options
	Last        *generator.Result

	Batch *orchestrator.Batch

	ImageTag      string
	Descriptor    *descriptor.Descriptor
	EnvironmentUp bool

	verdicts []validation.Verdict
}

// New creates a context bound to scope, using gen for invocations.
func New(scope *workspace.Scope, gen generator.Generator) *Context {
	return &Context{Scope: scope, Generator: gen}
}

// ProjectRoot returns the artifact tree root of the current project.
func (c *Context) ProjectRoot() string {
	return c.Scope.ProjectPath(c.ProjectName)
}

// Record appends verdicts to the ledger. It returns a *validation.HardFailError
// for the first HardFail so the caller can stop the scenario.
func (c *Context) Record(verdicts ...validation.Verdict) error {
	for _, v := range verdicts {
		c.verdicts = append(c.verdicts, v)
		switch v.Kind {
		case validation.KindHardFail:
			logging.Debug("Scenario", "Hard failure: %s", v)
			return &validation.HardFailError{Verdict: v}
		case validation.KindAdvisory:
			logging.Warn("Scenario", "%s", v)
		}
	}
	return nil
}

// Verdicts returns a copy of the recorded verdicts.
func (c *Context) Verdicts() []validation.Verdict {
	return append([]validation.Verdict(nil), c.verdicts...)
}

// Warnings returns the Advisory verdicts recorded so far.
func (c *Context) Warnings() []validation.Verdict {
	return validation.Advisories(c.verdicts)
}

// Passed reports whether no HardFail has been recorded.
func (c *Context) Passed() bool {
	return validation.Passed(c.verdicts)
}
