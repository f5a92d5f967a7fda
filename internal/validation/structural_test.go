package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devcheck/internal/descriptor"
	"devcheck/internal/generator"
)

func TestCheckCreated(t *testing.T) {
	scope := newTestScope(t)
	require.NoError(t, os.MkdirAll(scope.ProjectPath("ok"), 0o755))

	v := CheckCreated(scope, "ok", generator.Result{ExitCode: 0})
	assert.Equal(t, KindPass, v.Kind)

	v = CheckCreated(scope, "missing", generator.Result{ExitCode: 0, Output: "done"})
	assert.True(t, v.IsHardFail())
	assert.Contains(t, v.Reason, "does not exist")

	v = CheckCreated(scope, "ok", generator.Result{ExitCode: 3, Output: "Invalid template: cobol"})
	assert.True(t, v.IsHardFail())
	assert.Contains(t, v.Reason, "code 3")
	assert.Contains(t, v.Reason, "Invalid template: cobol")
}

func TestCheckStructure(t *testing.T) {
	t.Run("missing descriptor dir stops early", func(t *testing.T) {
		root := t.TempDir()
		verdicts := CheckStructure(root, StructureOptions{RequireGit: true})
		require.Len(t, verdicts, 2)
		assert.True(t, verdicts[1].IsHardFail())
		assert.False(t, Passed(verdicts))
	})

	t.Run("single repo", func(t *testing.T) {
		root := t.TempDir()
		writeProject(t, root, `{"image":"x"}`)
		_, err := git.PlainInit(root, false)
		require.NoError(t, err)

		verdicts := CheckStructure(root, StructureOptions{RequireGit: true})
		assert.True(t, Passed(verdicts))
		assert.Len(t, verdicts, 4)
	})

	t.Run("parent repo does not count", func(t *testing.T) {
		parent := t.TempDir()
		_, err := git.PlainInit(parent, false)
		require.NoError(t, err)
		root := filepath.Join(parent, "proj")
		writeProject(t, root, `{"image":"x"}`)

		verdicts := CheckStructure(root, StructureOptions{RequireGit: true})
		assert.False(t, Passed(verdicts))
		assert.Contains(t, FirstHardFail(verdicts).Reason, "no git repository")
	})

	t.Run("dual repo", func(t *testing.T) {
		root := t.TempDir()
		writeProject(t, root, `{"image":"x"}`)
		_, err := git.PlainInit(filepath.Join(root, descriptor.Dir), false)
		require.NoError(t, err)

		verdicts := CheckStructure(root, StructureOptions{DualRepo: true})
		assert.False(t, Passed(verdicts), "payload repository missing")

		_, err = git.PlainInit(filepath.Join(root, PayloadDir), false)
		require.NoError(t, err)
		assert.True(t, Passed(CheckStructure(root, StructureOptions{DualRepo: true})))
	})
}

func TestCheckDisjoint(t *testing.T) {
	scope := newTestScope(t)
	for _, n := range []string{"a", "b"} {
		require.NoError(t, os.MkdirAll(scope.ProjectPath(n), 0o755))
	}
	assert.Equal(t, KindPass, CheckDisjoint(scope, []string{"a", "b"}).Kind)

	require.NoError(t, os.Symlink(scope.ProjectPath("a"), scope.ProjectPath("c")))
	assert.True(t, CheckDisjoint(scope, []string{"a", "c"}).IsHardFail())
}

func TestCheckDisjoint_LinksInsideTrees(t *testing.T) {
	scope := newTestScope(t)
	for _, n := range []string{"a", "b"} {
		require.NoError(t, os.MkdirAll(filepath.Join(scope.ProjectPath(n), "src"), 0o755))
	}
	require.NoError(t, os.WriteFile(filepath.Join(scope.ProjectPath("b"), "src", "main.py"), []byte("print()\n"), 0o644))

	outside := t.TempDir()
	require.NoError(t, os.Symlink(outside, filepath.Join(scope.ProjectPath("a"), "src", "shared")))
	require.NoError(t, os.Symlink("missing", filepath.Join(scope.ProjectPath("a"), "dangling")))
	assert.Equal(t, KindPass, CheckDisjoint(scope, []string{"a", "b"}).Kind)

	require.NoError(t, os.Symlink(
		filepath.Join(scope.ProjectPath("b"), "src", "main.py"),
		filepath.Join(scope.ProjectPath("a"), "src", "main.py"),
	))
	v := CheckDisjoint(scope, []string{"a", "b"})
	assert.True(t, v.IsHardFail())
	assert.Contains(t, v.Reason, "resolves into project b")
}

func TestVerdictHelpers(t *testing.T) {
	verdicts := []Verdict{
		Pass(StageStructural, "one"),
		Advisory(StageDescriptor, "two", "maybe %s", "later"),
		HardFail(StageRuntime, "three", "broken"),
	}
	assert.False(t, Passed(verdicts))
	assert.Equal(t, "three", FirstHardFail(verdicts).Check)
	assert.Len(t, Advisories(verdicts), 1)
	assert.Equal(t, "maybe later", verdicts[1].Reason)
	assert.True(t, Passed(verdicts[:2]))

	err := &HardFailError{Verdict: verdicts[2]}
	assert.Contains(t, err.Error(), "[runtime] three")
}
