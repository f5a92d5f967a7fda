package containerizer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"devcheck/internal/cmdexec"
	"devcheck/pkg/logging"
)

// DockerRuntime implements ContainerRuntime on top of the docker CLI.
type DockerRuntime struct {
	binary string
	runner cmdexec.Runner
}

// NewDockerRuntime creates a runtime invoking binary ("docker" when empty).
func NewDockerRuntime(binary string, runner cmdexec.Runner) *DockerRuntime {
	if binary == "" {
		binary = "docker"
	}
	if runner == nil {
		runner = cmdexec.NewExecRunner()
	}
	return &DockerRuntime{binary: binary, runner: runner}
}

func (d *DockerRuntime) command(args ...string) cmdexec.Command {
	return cmdexec.Command{Name: d.binary, Args: args}
}

func (d *DockerRuntime) BuildImage(ctx context.Context, tag, contextDir, dockerfile string) cmdexec.Result {
	args := []string{"build", "-t", tag}
	if dockerfile != "" {
		args = append(args, "-f", dockerfile)
	}
	args = append(args, contextDir)

	logging.Info("Docker", "Building image %s from %s", tag, contextDir)
	res := d.runner.Run(ctx, d.command(args...))
	if !res.Success() {
		logging.Debug("Docker", "Build of %s exited %d", tag, res.ExitCode)
	}
	return res
}

func (d *DockerRuntime) RunOnce(ctx context.Context, image string, command ...string) cmdexec.Result {
	args := append([]string{"run", "--rm", image}, command...)
	logging.Debug("Docker", "Running %v in %s", command, image)
	return d.runner.Run(ctx, d.command(args...))
}

func (d *DockerRuntime) RemoveImage(ctx context.Context, ref string) error {
	res := d.runner.Run(ctx, d.command("rmi", "-f", ref))
	if !res.Success() {
		return fmt.Errorf("failed to remove image %s: %s", ref, strings.TrimSpace(res.Combined))
	}
	return nil
}

func (d *DockerRuntime) ListImages(ctx context.Context) ([]string, error) {
	res := d.runner.Run(ctx, d.command("images", "--format", "{{.Repository}}:{{.Tag}}"))
	if !res.Success() {
		return nil, fmt.Errorf("failed to list images: %s", strings.TrimSpace(res.Combined))
	}

	var refs []string
	for _, line := range strings.Split(res.Stdout, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "<none>") {
			continue
		}
		refs = append(refs, line)
	}
	return refs, nil
}

// RemoveImagesWithPrefix enumerates local images and removes the matching ones
// one by one. The first removal error is returned after all removals were attempted.
func (d *DockerRuntime) RemoveImagesWithPrefix(ctx context.Context, prefix string) (int, error) {
	if prefix == "" {
		return 0, errors.New("refusing to remove images with an empty prefix")
	}

	refs, err := d.ListImages(ctx)
	if err != nil {
		return 0, err
	}

	removed := 0
	var firstErr error
	for _, ref := range MatchPrefix(refs, prefix) {
		if err := d.RemoveImage(ctx, ref); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		removed++
	}
	return removed, firstErr
}

// MatchPrefix returns the refs whose repository part starts with prefix.
func MatchPrefix(refs []string, prefix string) []string {
	var out []string
	for _, ref := range refs {
		repo := ref
		if i := strings.LastIndex(ref, ":"); i > strings.LastIndex(ref, "/") {
			repo = ref[:i]
		}
		if strings.HasPrefix(repo, prefix) {
			out = append(out, ref)
		}
	}
	return out
}
