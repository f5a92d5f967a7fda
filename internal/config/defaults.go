package config

import (
	"github.com/spf13/viper"

	"devcheck/internal/generator"
	"devcheck/internal/testing"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "DEVCHECK"

// Setting keys. They double as flag names.
const (
	KeyGenerator       = "generator"
	KeyProjectRoot     = "project-root"
	KeyGeneratorBinary = "generator-binary"
	KeyDocker          = "docker"
	KeyDevContainer    = "devcontainer"
	KeyWorkDir         = "workdir"
	KeyUpTimeout       = "up-timeout"
	KeyCategory        = "category"
	KeyScenario        = "scenario"
	KeyTags            = "tag"
	KeyScenarioPath    = "config"
	KeyReportPath      = "report"
	KeyFailFast        = "fail-fast"
	KeyVerbose         = "verbose"
	KeyDebug           = "debug"
	KeyTimeout         = "timeout"
	KeyQuiet           = "quiet"
	KeyJSON            = "json"
	KeyLogLevel        = "log-level"
)

const defaultLogLevel = "warn"

func setDefaults(v *viper.Viper) {
	d := testing.DefaultTestConfiguration()

	v.SetDefault(KeyDocker, d.DockerBinary)
	v.SetDefault(KeyDevContainer, d.DevContainerBinary)
	v.SetDefault(KeyUpTimeout, d.UpTimeout)
	v.SetDefault(KeyTimeout, d.Timeout)
	v.SetDefault(KeyFailFast, d.FailFast)
	v.SetDefault(KeyVerbose, d.Verbose)
	v.SetDefault(KeyDebug, d.Debug)
	v.SetDefault(KeyLogLevel, defaultLogLevel)
}

// GeneratorChoices lists the accepted values of the generator setting.
func GeneratorChoices() []string {
	return []string{string(generator.BackendShellScript), string(generator.BackendBinary)}
}
