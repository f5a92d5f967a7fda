// Package config resolves devcheck's runtime settings.
//
// Settings are layered, later layers overriding earlier ones:
//
//  1. Defaults (testing.DefaultTestConfiguration)
//  2. Environment variables with the DEVCHECK_ prefix, e.g. DEVCHECK_PROJECT_ROOT
//  3. Command line flags that were set explicitly
//
// There is no configuration file. Keys match the flag names; dashes become
// underscores in environment variable names.
package config
