package containerizer

import (
	"context"
	"time"

	"devcheck/internal/cmdexec"
	"devcheck/pkg/logging"
)

// DefaultUpTimeout bounds `devcontainer up`, which pulls and builds on first use.
const DefaultUpTimeout = 300 * time.Second

// DevContainer implements DevContainerCLI with the devcontainer reference CLI.
type DevContainer struct {
	binary    string
	upTimeout time.Duration
	runner    cmdexec.Runner
}

func NewDevContainer(binary string, upTimeout time.Duration, runner cmdexec.Runner) *DevContainer {
	if binary == "" {
		binary = "devcontainer"
	}
	if upTimeout <= 0 {
		upTimeout = DefaultUpTimeout
	}
	if runner == nil {
		runner = cmdexec.NewExecRunner()
	}
	return &DevContainer{binary: binary, upTimeout: upTimeout, runner: runner}
}

func (d *DevContainer) Up(ctx context.Context, workspaceFolder string) cmdexec.Result {
	logging.Info("DevContainer", "Starting dev container for %s (timeout %s)", workspaceFolder, d.upTimeout)
	return d.runner.Run(ctx, cmdexec.Command{
		Name:    d.binary,
		Args:    []string{"up", "--workspace-folder", workspaceFolder},
		Timeout: d.upTimeout,
	})
}

func (d *DevContainer) Exec(ctx context.Context, workspaceFolder string, command ...string) cmdexec.Result {
	args := append([]string{"exec", "--workspace-folder", workspaceFolder, "--"}, command...)
	return d.runner.Run(ctx, cmdexec.Command{Name: d.binary, Args: args})
}

func (d *DevContainer) Stop(ctx context.Context, workspaceFolder string) cmdexec.Result {
	logging.Info("DevContainer", "Stopping dev container for %s", workspaceFolder)
	return d.runner.Run(ctx, cmdexec.Command{
		Name: d.binary,
		Args: []string{"stop", "--workspace-folder", workspaceFolder},
	})
}
