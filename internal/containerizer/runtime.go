// Package containerizer wraps the container engine and devcontainer CLIs.
package containerizer

import (
	"context"

	"devcheck/internal/cmdexec"
)

// ContainerRuntime is the subset of a container engine devcheck needs.
type ContainerRuntime interface {
	// BuildImage builds contextDir into tag. dockerfile may be empty to use the engine default.
	BuildImage(ctx context.Context, tag, contextDir, dockerfile string) cmdexec.Result
	// RunOnce runs command in a throwaway container created from image.
	RunOnce(ctx context.Context, image string, command ...string) cmdexec.Result
	RemoveImage(ctx context.Context, ref string) error
	// ListImages returns repository:tag references for every local image.
	ListImages(ctx context.Context) ([]string, error)
	// RemoveImagesWithPrefix removes every image whose repository starts with prefix.
	RemoveImagesWithPrefix(ctx context.Context, prefix string) (int, error)
}

// DevContainerCLI drives a live development container for a workspace folder.
type DevContainerCLI interface {
	Up(ctx context.Context, workspaceFolder string) cmdexec.Result
	Exec(ctx context.Context, workspaceFolder string, command ...string) cmdexec.Result
	Stop(ctx context.Context, workspaceFolder string) cmdexec.Result
}
