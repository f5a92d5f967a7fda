// Package generator drives the project-scaffolding tool under test.
//
// Two backends are supported: the shell-script entry point checked into the
// scaffolding repository and the standalone binary. Callers select one through
// New and never see which variant they got.
package generator

import (
	"context"
	"strings"

	"devcheck/internal/cmdexec"
	"devcheck/pkg/logging"
)

// Backend identifies a generator implementation.
type Backend string

const (
	BackendShellScript Backend = "shell-script"
	BackendBinary      Backend = "claude-binary"
)

// DefaultBackend is used when no backend, or an unknown one, is requested.
const DefaultBackend = BackendShellScript

// Generator invokes the scaffolding tool once per call.
//
// Generate never returns an error for a failed invocation; the exit status and
// combined output travel in Result.
type Generator interface {
	Generate(ctx context.Context, name string, opts Options) Result
	Backend() Backend
}

// Options carries the recognized invocation settings. Zero values are treated as absent.
type Options struct {
	Workspace   string
	Template    string
	LangVersion string
	Preset      string
	Provider    string
	HTTPProxy   string
}

// OptionsFromMap builds Options from loosely typed key/value pairs. Unrecognized keys are ignored.
func OptionsFromMap(m map[string]string) Options {
	var o Options
	for k, v := range m {
		switch strings.ReplaceAll(strings.ToLower(k), "-", "_") {
		case "workspace":
			o.Workspace = v
		case "template":
			o.Template = v
		case "lang_version":
			o.LangVersion = v
		case "preset":
			o.Preset = v
		case "provider":
			o.Provider = v
		case "http_proxy":
			o.HTTPProxy = v
		}
	}
	return o
}

// Result is the outcome of one invocation.
type Result struct {
	ExitCode int    `json:"exitCode"`
	Output   string `json:"output"`
}

// Succeeded reports whether the generator exited zero.
func (r Result) Succeeded() bool {
	return r.ExitCode == 0
}

func resultFrom(res cmdexec.Result) Result {
	return Result{ExitCode: res.ExitCode, Output: res.Combined}
}

// Config holds what the factory needs to build either backend.
type Config struct {
	// ProjectRoot is the scaffolding repository root. Empty means discover it from the working directory.
	ProjectRoot string
	// Program is the binary backend's executable. Empty means "claude".
	Program string
	Runner  cmdexec.Runner
}

// ParseBackend maps an identifier to a Backend, falling back to DefaultBackend.
func ParseBackend(id string) (Backend, bool) {
	switch Backend(strings.TrimSpace(id)) {
	case BackendShellScript:
		return BackendShellScript, true
	case BackendBinary:
		return BackendBinary, true
	default:
		return DefaultBackend, false
	}
}

// New returns the generator registered under id. Unknown identifiers yield the shell-script generator.
func New(id string, cfg Config) Generator {
	if cfg.Runner == nil {
		cfg.Runner = cmdexec.NewExecRunner()
	}

	backend, ok := ParseBackend(id)
	if !ok && id != "" {
		logging.Debug("Generator", "Unknown generator %q, falling back to %s", id, backend)
	}

	switch backend {
	case BackendBinary:
		return NewBinaryGenerator(cfg.Program, cfg.Runner)
	default:
		return NewShellGenerator(cfg.ProjectRoot, cfg.Runner)
	}
}
