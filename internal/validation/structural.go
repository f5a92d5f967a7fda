package validation

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-git/go-git/v5"

	"devcheck/internal/descriptor"
	"devcheck/internal/generator"
	"devcheck/internal/workspace"
)

// PayloadDir is the project payload directory inside an artifact tree.
const PayloadDir = "project"

// StructureOptions selects the structural guarantees a template makes.
type StructureOptions struct {
	// RequireGit expects the project root to be its own git repository.
	RequireGit bool
	// DualRepo expects .devcontainer/ and project/ to be independent git repositories.
	DualRepo bool
}

// CheckCreated verifies the generator exited zero and left the project root behind.
func CheckCreated(scope *workspace.Scope, name string, res generator.Result) Verdict {
	const check = "project created"
	if !res.Succeeded() {
		return HardFail(StageGeneration, check, "%s", withOutput(
			"generator exited with code "+strconv.Itoa(res.ExitCode)+" for "+name, res.Output))
	}
	root := scope.ProjectPath(name)
	if !isDir(root) {
		return HardFail(StageGeneration, check, "%s", withOutput(
			"generator succeeded but "+root+" does not exist", res.Output))
	}
	return Pass(StageGeneration, check)
}

// CheckStructure verifies the artifact tree layout, stopping at the first failure.
func CheckStructure(root string, opts StructureOptions) []Verdict {
	var verdicts []Verdict
	step := func(v Verdict) bool {
		verdicts = append(verdicts, v)
		return !v.IsHardFail()
	}

	if !step(dirVerdict("project root exists", root)) {
		return verdicts
	}
	if !step(dirVerdict("descriptor directory exists", filepath.Join(root, descriptor.Dir))) {
		return verdicts
	}
	if !step(fileVerdict("descriptor file exists", descriptor.PathFor(root))) {
		return verdicts
	}
	if opts.RequireGit && !opts.DualRepo {
		if !step(gitRootVerdict("project is a git repository", root)) {
			return verdicts
		}
	}
	if opts.DualRepo {
		if !step(gitRootVerdict("descriptor directory is a git repository", filepath.Join(root, descriptor.Dir))) {
			return verdicts
		}
		if !step(gitRootVerdict("payload directory is a git repository", filepath.Join(root, PayloadDir))) {
			return verdicts
		}
	}
	return verdicts
}

// CheckDisjoint verifies that no project root lies inside another one and that
// no path inside a project tree resolves into a sibling project's tree.
// Symlinks are resolved without being followed during the walk.
func CheckDisjoint(scope *workspace.Scope, names []string) Verdict {
	const check = "project trees are disjoint"
	roots := make(map[string]string, len(names))
	for _, name := range names {
		roots[name] = resolve(scope.ProjectPath(name))
	}
	for a, ra := range roots {
		for b, rb := range roots {
			if a == b {
				continue
			}
			if within(ra, rb) {
				return HardFail(StageStructural, check, "project %s (%s) overlaps project %s (%s)", a, ra, b, rb)
			}
		}
	}

	for _, a := range names {
		var crossing, owner string
		_ = filepath.WalkDir(roots[a], func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() && d.Name() == ".git" {
				return filepath.SkipDir
			}
			if d.Type()&fs.ModeSymlink == 0 {
				return nil
			}
			target := resolve(path)
			for b, rb := range roots {
				if b != a && within(target, rb) {
					crossing, owner = path, b
					return filepath.SkipAll
				}
			}
			return nil
		})
		if crossing != "" {
			return HardFail(StageStructural, check, "%s in project %s resolves into project %s", crossing, a, owner)
		}
	}
	return Pass(StageStructural, check)
}

func resolve(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}
	return filepath.Clean(path)
}

// within reports whether path is root or lies below it.
func within(path, root string) bool {
	return path == root || strings.HasPrefix(path, root+string(filepath.Separator))
}

func dirVerdict(check, path string) Verdict {
	if !isDir(path) {
		return HardFail(StageStructural, check, "directory %s not found", path)
	}
	return Pass(StageStructural, check)
}

func fileVerdict(check, path string) Verdict {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return HardFail(StageStructural, check, "file %s not found", path)
	}
	return Pass(StageStructural, check)
}

// gitRootVerdict requires path itself to hold repository state; a repository in a
// parent directory does not count.
func gitRootVerdict(check, path string) Verdict {
	_, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: false})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return HardFail(StageStructural, check, "%s has no git repository", path)
		}
		return HardFail(StageStructural, check, "cannot open git repository at %s: %v", path, err)
	}
	return Pass(StageStructural, check)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
