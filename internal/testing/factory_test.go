package testing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devcheck/internal/cmdexec"
	"devcheck/internal/containerizer"
)

func TestDefaultTestConfiguration(t *testing.T) {
	config := DefaultTestConfiguration()

	assert.Equal(t, 60*time.Minute, config.Timeout)
	assert.Equal(t, containerizer.DefaultUpTimeout, config.UpTimeout)
	assert.Equal(t, "docker", config.DockerBinary)
	assert.NoError(t, ValidateConfiguration(config))
}

func TestValidateConfiguration(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*TestConfiguration)
		wantErr string
	}{
		{"valid", func(*TestConfiguration) {}, ""},
		{"zero timeout", func(c *TestConfiguration) { c.Timeout = 0 }, "timeout must be positive"},
		{"negative up timeout", func(c *TestConfiguration) { c.UpTimeout = -time.Second }, "must not be negative"},
		{"unknown generator", func(c *TestConfiguration) { c.Generator = "cookiecutter" }, "unknown generator"},
		{"known generator", func(c *TestConfiguration) { c.Generator = "claude-binary" }, ""},
		{"unknown category", func(c *TestConfiguration) { c.Category = "perf" }, "unknown category"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultTestConfiguration()
			tt.mutate(&config)

			err := ValidateConfiguration(config)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

type nopRunner struct{ commands []cmdexec.Command }

func (r *nopRunner) Run(_ context.Context, cmd cmdexec.Command) cmdexec.Result {
	r.commands = append(r.commands, cmd)
	return cmdexec.Result{ExitCode: 1, Combined: "not available in tests"}
}

func TestNewTestFrameworkWiring(t *testing.T) {
	config := DefaultTestConfiguration()
	config.WorkDir = t.TempDir()
	config.ProjectRoot = t.TempDir()

	runner := &nopRunner{}
	reporter := &recordingReporter{}
	tf, err := NewTestFrameworkWithRunner(config, reporter, runner)
	require.NoError(t, err)
	require.NotNil(t, tf.Checker)
	require.NotNil(t, tf.Workspaces)

	scenarios := []TestScenario{{
		Name:  "shell",
		Steps: []TestStep{step("create", "name", "demo", "template", "python"), step("expect_created")},
	}}
	result, err := tf.Runner.Run(context.Background(), config, scenarios)
	require.NoError(t, err)

	assert.Equal(t, ResultFailed, result.ScenarioResults[0].Result)
	require.NotEmpty(t, runner.commands)
	assert.Contains(t, runner.commands[0].Name, "scripts/init-project.sh")
	assert.Equal(t, []string{"demo", "--template=python"}, runner.commands[0].Args)
}

func TestNewTestFrameworkRejectsInvalidConfiguration(t *testing.T) {
	config := DefaultTestConfiguration()
	config.Timeout = 0
	_, err := NewTestFrameworkWithRunner(config, nil, &nopRunner{})
	assert.Error(t, err)
}
