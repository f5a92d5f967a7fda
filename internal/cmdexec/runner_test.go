package cmdexec

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecRunner_Run(t *testing.T) {
	r := NewExecRunner()

	tests := []struct {
		name         string
		cmd          Command
		wantExit     int
		wantStdout   string
		wantCombined []string
	}{
		{
			name:       "zero exit",
			cmd:        Command{Name: "sh", Args: []string{"-c", "echo hello"}},
			wantExit:   0,
			wantStdout: "hello\n",
		},
		{
			name:         "non-zero exit is not an error",
			cmd:          Command{Name: "sh", Args: []string{"-c", "echo out; echo err >&2; exit 3"}},
			wantExit:     3,
			wantStdout:   "out\n",
			wantCombined: []string{"out", "err"},
		},
		{
			name:       "stdin is delivered",
			cmd:        Command{Name: "sh", Args: []string{"-c", "wc -l | tr -d ' '"}, Stdin: strings.Repeat("\n", 4)},
			wantExit:   0,
			wantStdout: "4\n",
		},
		{
			name:       "env is appended",
			cmd:        Command{Name: "sh", Args: []string{"-c", "echo $DEVCHECK_PROBE"}, Env: map[string]string{"DEVCHECK_PROBE": "yes"}},
			wantExit:   0,
			wantStdout: "yes\n",
		},
		{
			name:         "missing binary",
			cmd:          Command{Name: "devcheck-definitely-missing-binary"},
			wantExit:     ExitStartFailure,
			wantCombined: []string{"failed to run devcheck-definitely-missing-binary"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := r.Run(context.Background(), tt.cmd)
			assert.Equal(t, tt.wantExit, res.ExitCode)
			if tt.wantStdout != "" {
				assert.Equal(t, tt.wantStdout, res.Stdout)
			}
			for _, s := range tt.wantCombined {
				assert.Contains(t, res.Combined, s)
			}
		})
	}
}

func TestExecRunner_WorkingDir(t *testing.T) {
	dir := t.TempDir()
	res := NewExecRunner().Run(context.Background(), Command{Name: "pwd", Dir: dir})
	require.True(t, res.Success())
	assert.Contains(t, res.Stdout, dir[strings.LastIndex(dir, "/")+1:])
}

func TestExecRunner_Timeout(t *testing.T) {
	res := NewExecRunner().Run(context.Background(), Command{
		Name:    "sleep",
		Args:    []string{"5"},
		Timeout: 100 * time.Millisecond,
	})
	assert.True(t, res.TimedOut)
	assert.False(t, res.Success())
	assert.Less(t, res.Duration, 5*time.Second)
}

func TestExecRunner_TimeoutKillsChildren(t *testing.T) {
	res := NewExecRunner().Run(context.Background(), Command{
		Name:    "sh",
		Args:    []string{"-c", "sleep 4 & wait"},
		Timeout: 200 * time.Millisecond,
	})
	assert.True(t, res.TimedOut)
	assert.False(t, res.Success())
	assert.Less(t, res.Duration, 3*time.Second, "background child must not hold the run open")
}

func TestExecRunner_LeftoverChildDoesNotBlock(t *testing.T) {
	res := NewExecRunner().Run(context.Background(), Command{
		Name: "sh",
		Args: []string{"-c", "sleep 5 & echo started"},
	})
	assert.Equal(t, 0, res.ExitCode)
	assert.Contains(t, res.Stdout, "started")
	assert.Less(t, res.Duration, 4*time.Second)
}

func TestCommandString(t *testing.T) {
	assert.Equal(t, "docker", Command{Name: "docker"}.String())
	assert.Equal(t, "docker rmi -f x", Command{Name: "docker", Args: []string{"rmi", "-f", "x"}}.String())
}
