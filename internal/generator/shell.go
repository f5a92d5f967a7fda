package generator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"devcheck/internal/cmdexec"
	"devcheck/pkg/logging"
)

// ScriptPath is the generator entry point relative to the scaffolding repository root.
const ScriptPath = "scripts/init-project.sh"

// PromptCount is the number of interactive prompts the shell generator asks.
// Each one is answered with an empty line so the default is accepted. If the
// script grows a prompt, this constant has to follow.
const PromptCount = 10

// DefaultResponses is the stdin fed to the shell generator.
func DefaultResponses() string {
	return strings.Repeat("\n", PromptCount)
}

// ErrProjectRootNotFound is returned when no ancestor directory contains ScriptPath.
var ErrProjectRootNotFound = errors.New("scaffolding project root not found")

// osGetwd can be replaced in tests.
var osGetwd = os.Getwd

// ShellGenerator runs the scaffolding shell script.
type ShellGenerator struct {
	projectRoot string
	runner      cmdexec.Runner
}

// NewShellGenerator creates a shell-script generator rooted at projectRoot.
// An empty projectRoot is resolved lazily with FindProjectRoot.
func NewShellGenerator(projectRoot string, runner cmdexec.Runner) *ShellGenerator {
	if runner == nil {
		runner = cmdexec.NewExecRunner()
	}
	return &ShellGenerator{projectRoot: projectRoot, runner: runner}
}

func (g *ShellGenerator) Backend() Backend { return BackendShellScript }

// Generate runs `<root>/scripts/init-project.sh <name> [flags]`.
func (g *ShellGenerator) Generate(ctx context.Context, name string, opts Options) Result {
	root, err := g.root()
	if err != nil {
		logging.Error("Generator", err, "Cannot locate %s", ScriptPath)
		return Result{ExitCode: cmdexec.ExitStartFailure, Output: err.Error()}
	}

	cmd := g.Command(root, name, opts)
	logging.Debug("Generator", "Running %s in %s", cmd.String(), cmd.Dir)

	res := resultFrom(g.runner.Run(ctx, cmd))
	if !res.Succeeded() {
		logging.Debug("Generator", "Generator exited %d for %q", res.ExitCode, name)
	}
	return res
}

// Command builds the process invocation for name without running it.
func (g *ShellGenerator) Command(root, name string, opts Options) cmdexec.Command {
	// An empty name is omitted so the script sees no positional argument at all.
	var args []string
	if name != "" {
		args = append(args, name)
	}
	args = append(args, Flags(opts)...)

	dir := opts.Workspace
	if dir == "" {
		dir = root
	}

	return cmdexec.Command{
		Name:  filepath.Join(root, ScriptPath),
		Args:  args,
		Dir:   dir,
		Stdin: DefaultResponses(),
	}
}

// Flags translates the present options into generator flags. Workspace is not a flag.
func Flags(opts Options) []string {
	var flags []string
	add := func(flag, value string) {
		if value != "" {
			flags = append(flags, fmt.Sprintf("--%s=%s", flag, value))
		}
	}
	add("template", opts.Template)
	add("lang-version", opts.LangVersion)
	add("preset", opts.Preset)
	add("provider", opts.Provider)
	add("http-proxy", opts.HTTPProxy)
	return flags
}

func (g *ShellGenerator) root() (string, error) {
	if g.projectRoot != "" {
		return g.projectRoot, nil
	}
	wd, err := osGetwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	root, err := FindProjectRoot(wd)
	if err != nil {
		return "", err
	}
	g.projectRoot = root
	return root, nil
}

// FindProjectRoot walks up from start until it finds a directory containing ScriptPath.
func FindProjectRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", start, err)
	}
	for {
		if info, err := os.Stat(filepath.Join(dir, ScriptPath)); err == nil && !info.IsDir() {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w: searched upward from %s", ErrProjectRootNotFound, start)
		}
		dir = parent
	}
}
