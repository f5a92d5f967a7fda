package generator

import (
	"context"

	"devcheck/internal/cmdexec"
	"devcheck/pkg/logging"
)

const defaultProgram = "claude"

// BinaryGenerator runs `<program> init <name>`.
//
// The binary does not accept template, language version, preset, provider or
// proxy options yet, so only the name is forwarded.
type BinaryGenerator struct {
	program string
	runner  cmdexec.Runner
}

func NewBinaryGenerator(program string, runner cmdexec.Runner) *BinaryGenerator {
	if program == "" {
		program = defaultProgram
	}
	if runner == nil {
		runner = cmdexec.NewExecRunner()
	}
	return &BinaryGenerator{program: program, runner: runner}
}

func (g *BinaryGenerator) Backend() Backend { return BackendBinary }

func (g *BinaryGenerator) Generate(ctx context.Context, name string, opts Options) Result {
	cmd := cmdexec.Command{
		Name: g.program,
		Args: []string{"init", name},
		Dir:  opts.Workspace,
	}
	if opts.Template != "" || opts.LangVersion != "" || opts.Preset != "" {
		logging.Debug("Generator", "%s ignores template/lang-version/preset for %q", g.program, name)
	}
	return resultFrom(g.runner.Run(ctx, cmd))
}
