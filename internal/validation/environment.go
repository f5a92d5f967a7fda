package validation

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// StartEnvironment brings up the live dev container. A timeout is a HardFail.
func (c *Checker) StartEnvironment(ctx context.Context, root string) Verdict {
	const check = "dev container starts"
	res := c.DevContainer.Up(ctx, root)
	if res.TimedOut {
		return HardFail(StageEnvironment, check, "%s", withOutput("devcontainer up timed out", res.Combined))
	}
	if !res.Success() {
		return HardFail(StageEnvironment, check, "%s", withOutput(
			fmt.Sprintf("devcontainer up failed (exit %d)", res.ExitCode), res.Combined))
	}
	return Pass(StageEnvironment, check)
}

// CheckExec runs command inside the live container. When contains is set, the
// output must include it.
func (c *Checker) CheckExec(ctx context.Context, root, contains string, command ...string) Verdict {
	check := "exec " + strings.Join(command, " ")
	if len(command) == 0 {
		return HardFail(StageEnvironment, "exec", "no command given")
	}
	res := c.DevContainer.Exec(ctx, root, command...)
	if !res.Success() {
		return HardFail(StageEnvironment, check, "%s", withOutput(
			fmt.Sprintf("exited %d", res.ExitCode), res.Combined))
	}
	if contains != "" && !strings.Contains(res.Combined, contains) {
		return HardFail(StageEnvironment, check, "%s", withOutput(
			fmt.Sprintf("output does not contain %q", contains), res.Combined))
	}
	return Pass(StageEnvironment, check)
}

// CheckPostCreate verifies that postCreateCommand ran: it initializes the payload repository.
func CheckPostCreate(root string) Verdict {
	const check = "postCreateCommand executed"
	gitDir := filepath.Join(root, PayloadDir, ".git")
	if !isDir(gitDir) {
		return HardFail(StageEnvironment, check, "%s missing; postCreateCommand may not have run", gitDir)
	}
	return Pass(StageEnvironment, check)
}

// StopEnvironment stops the live dev container.
func (c *Checker) StopEnvironment(ctx context.Context, root string) Verdict {
	const check = "dev container stops"
	res := c.DevContainer.Stop(ctx, root)
	if !res.Success() {
		return HardFail(StageEnvironment, check, "%s", withOutput(
			fmt.Sprintf("devcontainer stop failed (exit %d)", res.ExitCode), res.Combined))
	}
	return Pass(StageEnvironment, check)
}
