// Package cmdexec runs external processes with fully buffered output.
//
// Every collaborator devcheck drives (the scaffolding generator, docker, the
// devcontainer CLI) is invoked through a Runner so tests can substitute a fake.
package cmdexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"
)

// ExitStartFailure is reported when the process could not be started at all.
const ExitStartFailure = -1

// waitDelay bounds how long Run waits for output pipes after the process group was killed.
const waitDelay = 2 * time.Second

// Command describes a single process invocation.
type Command struct {
	Name string
	Args []string
	// Dir is the working directory. Empty means the current directory.
	Dir string
	// Env is appended to the parent environment as KEY=VALUE entries.
	Env map[string]string
	// Stdin is written to the process in full before it reads its first prompt.
	Stdin string
	// Timeout bounds the run. Zero means no bound beyond the context.
	Timeout time.Duration
}

// String renders the command line for logs and failure messages.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Result is the buffered outcome of a finished process.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	// Combined interleaves stdout and stderr in write order.
	Combined string
	TimedOut bool
	Duration time.Duration
}

// Success reports whether the process exited zero.
func (r Result) Success() bool {
	return r.ExitCode == 0 && !r.TimedOut
}

// Runner executes commands. A non-zero exit is reported in Result, never as a panic or error.
type Runner interface {
	Run(ctx context.Context, cmd Command) Result
}

// ExecRunner is the os/exec backed Runner.
type ExecRunner struct{}

// NewExecRunner returns the default process runner.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Run starts the command and waits for it to exit.
func (r *ExecRunner) Run(ctx context.Context, c Command) Result {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	// Children (docker, git, node) share the group so a timeout takes them down too.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL); err != nil {
			return cmd.Process.Kill()
		}
		return nil
	}
	cmd.WaitDelay = waitDelay
	if len(c.Env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range c.Env {
			cmd.Env = append(cmd.Env, k+"="+v)
		}
	}
	if c.Stdin != "" {
		cmd.Stdin = strings.NewReader(c.Stdin)
	}

	var stdout, stderr bytes.Buffer
	combined := &lockedBuffer{}
	cmd.Stdout = io.MultiWriter(&stdout, combined)
	cmd.Stderr = io.MultiWriter(&stderr, combined)

	start := time.Now()
	err := cmd.Run()
	res := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Combined: combined.String(),
		Duration: time.Since(start),
	}

	if err == nil {
		return res
	}

	if ctx.Err() != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		res.TimedOut = true
	}

	// The process exited but a leftover child kept the output pipes open.
	if errors.Is(err, exec.ErrWaitDelay) && cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
		return res
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// ExitCode is -1 when the process was killed by a signal.
		res.ExitCode = exitErr.ExitCode()
		return res
	}

	res.ExitCode = ExitStartFailure
	res.Combined += fmt.Sprintf("failed to run %s: %v\n", c.Name, err)
	return res
}
