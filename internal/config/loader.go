package config

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"devcheck/internal/testing"
	"devcheck/pkg/logging"
)

// Settings is everything the test command needs after resolution.
type Settings struct {
	Test     testing.TestConfiguration
	Quiet    bool
	JSON     bool
	LogLevel logging.LogLevel
}

// New returns a viper instance with defaults and environment lookup configured.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// BindFlags makes the flags of cmd the highest-priority layer.
func BindFlags(v *viper.Viper, cmd *cobra.Command) error {
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}
	return nil
}

// Load resolves and validates the settings held by v.
func Load(v *viper.Viper) (Settings, error) {
	level, ok := logging.ParseLevel(v.GetString(KeyLogLevel))
	if !ok {
		return Settings{}, fmt.Errorf("invalid log level %q", v.GetString(KeyLogLevel))
	}

	tc := testing.TestConfiguration{
		Timeout:            v.GetDuration(KeyTimeout),
		Category:           testing.TestCategory(v.GetString(KeyCategory)),
		Scenario:           v.GetString(KeyScenario),
		Tags:               splitList(v.GetStringSlice(KeyTags)),
		FailFast:           v.GetBool(KeyFailFast),
		Verbose:            v.GetBool(KeyVerbose),
		Debug:              v.GetBool(KeyDebug),
		ConfigPath:         v.GetString(KeyScenarioPath),
		ReportPath:         v.GetString(KeyReportPath),
		Generator:          v.GetString(KeyGenerator),
		ProjectRoot:        v.GetString(KeyProjectRoot),
		GeneratorBinary:    v.GetString(KeyGeneratorBinary),
		WorkDir:            v.GetString(KeyWorkDir),
		DockerBinary:       v.GetString(KeyDocker),
		DevContainerBinary: v.GetString(KeyDevContainer),
		UpTimeout:          v.GetDuration(KeyUpTimeout),
	}
	if tc.Debug {
		level = logging.LevelDebug
	}

	s := Settings{
		Test:     tc,
		Quiet:    v.GetBool(KeyQuiet),
		JSON:     v.GetBool(KeyJSON),
		LogLevel: level,
	}
	if s.Quiet && s.JSON {
		return Settings{}, fmt.Errorf("--%s and --%s are mutually exclusive", KeyQuiet, KeyJSON)
	}
	if err := testing.ValidateConfiguration(tc); err != nil {
		return Settings{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return s, nil
}

// splitList accepts both repeated values and comma-separated ones, which is
// how list settings arrive from the environment.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
