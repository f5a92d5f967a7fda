package scenario

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devcheck/internal/validation"
	"devcheck/internal/workspace"
)

func TestRecord(t *testing.T) {
	c := New(&workspace.Scope{Root: "/tmp/e2e-1"}, nil)
	c.ProjectName = "proj"
	assert.Equal(t, filepath.Join("/tmp/e2e-1", "proj"), c.ProjectRoot())

	require.NoError(t, c.Record(
		validation.Pass(validation.StageStructural, "root"),
		validation.Advisory(validation.StageDescriptor, "proxy configured", "absent"),
	))
	assert.True(t, c.Passed())
	assert.Len(t, c.Warnings(), 1)

	err := c.Record(
		validation.HardFail(validation.StageImageBuild, "image builds", "exit 1"),
		validation.Pass(validation.StageRuntime, "never recorded"),
	)
	var hf *validation.HardFailError
	require.True(t, errors.As(err, &hf))
	assert.Equal(t, "image builds", hf.Verdict.Check)
	assert.False(t, c.Passed())
	assert.Len(t, c.Verdicts(), 3, "recording stops at the first hard failure")
}
