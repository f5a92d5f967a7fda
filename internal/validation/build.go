package validation

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"devcheck/internal/descriptor"
	"devcheck/internal/workspace"
)

// BuildImage builds the project's descriptor directory into a fresh image tag.
//
// The descriptor is parsed first; when it is malformed no build is attempted.
// On success the tag is tracked by scope and returned.
func (c *Checker) BuildImage(ctx context.Context, scope *workspace.Scope, name string) (string, []Verdict) {
	const check = "image builds"
	root := scope.ProjectPath(name)

	_, dv := CheckDescriptor(root)
	verdicts := []Verdict{dv}
	if dv.IsHardFail() {
		return "", verdicts
	}

	tag := workspace.ImageTag(name)
	contextDir := filepath.Join(root, descriptor.Dir)
	res := c.Runtime.BuildImage(ctx, tag, contextDir, dockerfileFor(contextDir))
	if !res.Success() {
		return "", append(verdicts, HardFail(StageImageBuild, check, "%s", withOutput(
			fmt.Sprintf("build of %s failed (exit %d)", tag, res.ExitCode), res.Combined)))
	}

	scope.TrackImage(tag)
	return tag, append(verdicts, Pass(StageImageBuild, check))
}

// dockerfileFor returns an explicit Dockerfile path when the context only has a
// lowercase or alternate name the engine would not pick up.
func dockerfileFor(contextDir string) string {
	if _, err := os.Stat(filepath.Join(contextDir, "Dockerfile")); err == nil {
		return ""
	}
	for _, alt := range []string{"dockerfile", "Containerfile"} {
		p := filepath.Join(contextDir, alt)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
