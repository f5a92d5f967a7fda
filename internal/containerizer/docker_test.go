package containerizer

import (
	"context"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devcheck/internal/cmdexec"
)

// Helper to check if Docker is available
func dockerAvailable() bool {
	cmd := exec.Command("docker", "info")
	err := cmd.Run()
	return err == nil
}

// Helper to skip test if Docker is not available
func skipIfNoDocker(t *testing.T) {
	if !dockerAvailable() {
		t.Skip("Docker not available, skipping test")
	}
}

// scriptedRunner answers commands by their first argument.
type scriptedRunner struct {
	responses map[string]cmdexec.Result
	calls     []cmdexec.Command
}

func (r *scriptedRunner) Run(_ context.Context, cmd cmdexec.Command) cmdexec.Result {
	r.calls = append(r.calls, cmd)
	if len(cmd.Args) == 0 {
		return cmdexec.Result{ExitCode: 1}
	}
	if res, ok := r.responses[cmd.Args[0]]; ok {
		return res
	}
	return cmdexec.Result{}
}

func (r *scriptedRunner) argsOf(sub string) [][]string {
	var out [][]string
	for _, c := range r.calls {
		if len(c.Args) > 0 && c.Args[0] == sub {
			out = append(out, c.Args)
		}
	}
	return out
}

func TestDockerRuntime_BuildImage(t *testing.T) {
	tests := []struct {
		name       string
		dockerfile string
		want       []string
	}{
		{
			name: "default dockerfile",
			want: []string{"build", "-t", "e2e-p-1", "/ws/p"},
		},
		{
			name:       "explicit dockerfile",
			dockerfile: "/ws/p/.devcontainer/Dockerfile",
			want:       []string{"build", "-t", "e2e-p-1", "-f", "/ws/p/.devcontainer/Dockerfile", "/ws/p"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &scriptedRunner{}
			d := NewDockerRuntime("", r)
			d.BuildImage(context.Background(), "e2e-p-1", "/ws/p", tt.dockerfile)
			require.Len(t, r.calls, 1)
			assert.Equal(t, "docker", r.calls[0].Name)
			assert.Equal(t, tt.want, r.calls[0].Args)
		})
	}
}

func TestDockerRuntime_RunOnce(t *testing.T) {
	r := &scriptedRunner{responses: map[string]cmdexec.Result{"run": {Stdout: "Python 3.12.1\n"}}}
	res := NewDockerRuntime("", r).RunOnce(context.Background(), "img", "python3", "--version")
	assert.Equal(t, "Python 3.12.1\n", res.Stdout)
	assert.Equal(t, []string{"run", "--rm", "img", "python3", "--version"}, r.calls[0].Args)
}

func TestDockerRuntime_RemoveImagesWithPrefix(t *testing.T) {
	r := &scriptedRunner{responses: map[string]cmdexec.Result{
		"images": {Stdout: strings.Join([]string{
			"e2e-proj-a-1a2b3c4d:latest",
			"e2e-proj-ab-99:latest",
			"e2e-proj-b-5e6f:latest",
			"registry.local:5000/e2e-proj-a:latest",
			"<none>:<none>",
			"python:3.12",
		}, "\n")},
	}}
	d := NewDockerRuntime("", r)

	removed, err := d.RemoveImagesWithPrefix(context.Background(), "e2e-proj-a")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	rmis := r.argsOf("rmi")
	require.Len(t, rmis, 2)
	assert.Equal(t, []string{"rmi", "-f", "e2e-proj-a-1a2b3c4d:latest"}, rmis[0])
	assert.Equal(t, []string{"rmi", "-f", "e2e-proj-ab-99:latest"}, rmis[1])
}

func TestDockerRuntime_RemoveImagesWithPrefix_EmptyPrefix(t *testing.T) {
	r := &scriptedRunner{}
	_, err := NewDockerRuntime("", r).RemoveImagesWithPrefix(context.Background(), "")
	assert.Error(t, err)
	assert.Empty(t, r.calls)
}

func TestDockerRuntime_RemoveImage_Failure(t *testing.T) {
	r := &scriptedRunner{responses: map[string]cmdexec.Result{"rmi": {ExitCode: 1, Combined: "No such image"}}}
	err := NewDockerRuntime("", r).RemoveImage(context.Background(), "ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No such image")
}

func TestMatchPrefix(t *testing.T) {
	refs := []string{"e2e-x:latest", "e2e-xy:1", "other:latest", "host:5000/e2e-x:latest"}
	assert.Equal(t, []string{"e2e-x:latest", "e2e-xy:1"}, MatchPrefix(refs, "e2e-x"))
	assert.Empty(t, MatchPrefix(refs, "nothing"))
}

func TestDevContainer_Commands(t *testing.T) {
	r := &scriptedRunner{}
	dc := NewDevContainer("", 0, r)
	ctx := context.Background()

	dc.Up(ctx, "/ws/p")
	dc.Exec(ctx, "/ws/p", "node", "--version")
	dc.Stop(ctx, "/ws/p")

	require.Len(t, r.calls, 3)
	assert.Equal(t, []string{"up", "--workspace-folder", "/ws/p"}, r.calls[0].Args)
	assert.Equal(t, DefaultUpTimeout, r.calls[0].Timeout)
	assert.Equal(t, []string{"exec", "--workspace-folder", "/ws/p", "--", "node", "--version"}, r.calls[1].Args)
	assert.Zero(t, r.calls[1].Timeout)
	assert.Equal(t, []string{"stop", "--workspace-folder", "/ws/p"}, r.calls[2].Args)
}

func TestDevContainer_CustomTimeout(t *testing.T) {
	r := &scriptedRunner{}
	NewDevContainer("devcontainer", time.Minute, r).Up(context.Background(), "/ws")
	assert.Equal(t, time.Minute, r.calls[0].Timeout)
}

func TestDockerRuntime_ListImages_Live(t *testing.T) {
	skipIfNoDocker(t)

	_, err := NewDockerRuntime("", nil).ListImages(context.Background())
	assert.NoError(t, err)
}
