package validation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devcheck/internal/cmdexec"
)

func TestMatchVersion(t *testing.T) {
	tests := []struct {
		want, probed string
		actual       string
		ok           bool
	}{
		{"3.12", "Python 3.12.1", "3.12", true},
		{"3.12", "Python 3.11.9", "3.11", false},
		{"20", "v20.11.0", "20", true},
		{"20", "v18.19.0", "18", false},
		{"1.22", "go version go1.22.3 linux/amd64", "1.22", true},
		{"1.75", "rustc 1.75.0 (82e1608df 2023-12-21)", "1.75", true},
		{"3.12.4", "Python 3.12.1", "3.12", true},
	}

	for _, tt := range tests {
		t.Run(tt.want+"/"+tt.probed, func(t *testing.T) {
			actual, ok, err := MatchVersion(tt.want, tt.probed)
			require.NoError(t, err)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.actual, actual)
		})
	}

	_, _, err := MatchVersion("latest", "Python 3.12.1")
	assert.Error(t, err)
	_, _, err = MatchVersion("3.12", "command not found")
	assert.Error(t, err)
}

func TestCheckToolchain(t *testing.T) {
	ctx := context.Background()

	t.Run("required tool present with matching version", func(t *testing.T) {
		rt := &fakeRuntime{runs: map[string]cmdexec.Result{"python3 --version": {Stdout: "Python 3.12.1\n"}}}
		verdicts := NewChecker(rt, nil).CheckToolchain(ctx, "img", "python", "3.12")
		require.Len(t, verdicts, 2)
		assert.True(t, Passed(verdicts))
		assert.Empty(t, Advisories(verdicts))
	})

	t.Run("version mismatch is advisory", func(t *testing.T) {
		rt := &fakeRuntime{runs: map[string]cmdexec.Result{"node --version": {Stdout: "v18.19.0\n"}}}
		verdicts := NewChecker(rt, nil).CheckToolchain(ctx, "img", "Node", "20")
		assert.True(t, Passed(verdicts))
		require.Len(t, Advisories(verdicts), 1)
		assert.Contains(t, Advisories(verdicts)[0].Reason, "expected 20, got 18")
	})

	t.Run("required tool missing", func(t *testing.T) {
		rt := &fakeRuntime{runs: map[string]cmdexec.Result{"cargo --version": {ExitCode: 127, Combined: "cargo: not found"}}}
		verdicts := NewChecker(rt, nil).CheckToolchain(ctx, "img", "cargo", "")
		require.Len(t, verdicts, 1)
		assert.True(t, verdicts[0].IsHardFail())
		assert.Contains(t, verdicts[0].Reason, "cargo: not found")
	})

	t.Run("deferred tool never probes", func(t *testing.T) {
		rt := &fakeRuntime{}
		verdicts := NewChecker(rt, nil).CheckToolchain(ctx, "img", "uv", "")
		require.Len(t, verdicts, 1)
		assert.True(t, verdicts[0].IsAdvisory())
		assert.Contains(t, verdicts[0].Reason, "postCreateCommand")
		assert.Empty(t, rt.calls)
	})

	t.Run("best effort component missing", func(t *testing.T) {
		rt := &fakeRuntime{runs: map[string]cmdexec.Result{
			"sh -c rustup component list | grep clippy": {ExitCode: 1},
		}}
		verdicts := NewChecker(rt, nil).CheckToolchain(ctx, "img", "clippy", "")
		require.Len(t, verdicts, 1)
		assert.True(t, verdicts[0].IsAdvisory())
		assert.Equal(t, []string{"rustup --version", "sh -c rustup component list | grep clippy"}, rt.calls)
	})

	t.Run("best effort without rustup", func(t *testing.T) {
		rt := &fakeRuntime{runs: map[string]cmdexec.Result{"rustup --version": {ExitCode: 127}}}
		verdicts := NewChecker(rt, nil).CheckToolchain(ctx, "img", "rustfmt", "")
		assert.True(t, verdicts[0].IsAdvisory())
		assert.Len(t, rt.calls, 1)
	})

	t.Run("unknown tool", func(t *testing.T) {
		verdicts := NewChecker(&fakeRuntime{}, nil).CheckToolchain(ctx, "img", "cobol", "")
		assert.True(t, verdicts[0].IsHardFail())
	})

	t.Run("no image", func(t *testing.T) {
		verdicts := NewChecker(&fakeRuntime{}, nil).CheckToolchain(ctx, "", "python", "")
		assert.True(t, verdicts[0].IsHardFail())
	})
}

func TestDefaultCatalogModes(t *testing.T) {
	c := DefaultCatalog()
	for _, name := range []string{"uv", "pytest", "jupyter", "numpy", "pandas", "typescript", "vitest", "golangci-lint", "claude"} {
		tc, ok := c.Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, Deferred, tc.Mode, name)
	}
	for _, name := range c.Names() {
		tc := c[name]
		if tc.Mode != Deferred {
			assert.NotEmpty(t, tc.Probe, name)
		}
	}
}
