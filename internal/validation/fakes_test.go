package validation

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"devcheck/internal/cmdexec"
	"devcheck/internal/descriptor"
	"devcheck/internal/workspace"
)

type fakeRuntime struct {
	builds   []string
	buildRes cmdexec.Result
	// runs maps the joined probe command to its result; missing entries succeed with empty output.
	runs  map[string]cmdexec.Result
	calls []string
}

func (f *fakeRuntime) BuildImage(_ context.Context, tag, contextDir, _ string) cmdexec.Result {
	f.builds = append(f.builds, tag+"@"+contextDir)
	return f.buildRes
}

func (f *fakeRuntime) RunOnce(_ context.Context, image string, command ...string) cmdexec.Result {
	key := strings.Join(command, " ")
	f.calls = append(f.calls, key)
	if res, ok := f.runs[key]; ok {
		return res
	}
	return cmdexec.Result{}
}

func (f *fakeRuntime) RemoveImage(context.Context, string) error   { return nil }
func (f *fakeRuntime) ListImages(context.Context) ([]string, error) { return nil, nil }
func (f *fakeRuntime) RemoveImagesWithPrefix(context.Context, string) (int, error) {
	return 0, nil
}

type fakeDevContainer struct {
	up, exec, stop cmdexec.Result
	execCalls      [][]string
}

func (f *fakeDevContainer) Up(context.Context, string) cmdexec.Result { return f.up }
func (f *fakeDevContainer) Exec(_ context.Context, _ string, command ...string) cmdexec.Result {
	f.execCalls = append(f.execCalls, command)
	return f.exec
}
func (f *fakeDevContainer) Stop(context.Context, string) cmdexec.Result { return f.stop }

func newTestScope(t *testing.T) *workspace.Scope {
	t.Helper()
	scope, err := workspace.NewManager(t.TempDir(), nil).Acquire(context.Background())
	require.NoError(t, err)
	return scope
}

// writeProject lays out a minimal artifact tree with the given descriptor content.
func writeProject(t *testing.T, root, descriptorContent string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(root, descriptor.Dir), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, PayloadDir), 0o755))
	require.NoError(t, os.WriteFile(descriptor.PathFor(root), []byte(descriptorContent), 0o644))
}
