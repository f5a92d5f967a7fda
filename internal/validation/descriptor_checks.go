package validation

import (
	"errors"
	"strings"

	"devcheck/internal/descriptor"
)

// CheckDescriptor parses the project's descriptor. A missing or malformed file is a HardFail.
func CheckDescriptor(root string) (*descriptor.Descriptor, Verdict) {
	const check = "descriptor is valid JSON"
	d, err := descriptor.Load(root)
	if err != nil {
		if errors.Is(err, descriptor.ErrNotFound) {
			return nil, HardFail(StageDescriptor, check, "no descriptor: %v", err)
		}
		return nil, HardFail(StageDescriptor, check, "%v", err)
	}
	return d, Pass(StageDescriptor, check)
}

// CheckField requires a top-level descriptor field. `image` is satisfied by `build`.
func CheckField(d *descriptor.Descriptor, field string) Verdict {
	check := "descriptor has " + field
	if !d.Has(field) {
		return HardFail(StageDescriptor, check, "field %q missing from %s (present: %s)",
			field, d.Path, strings.Join(d.Fields(), ", "))
	}
	return Pass(StageDescriptor, check)
}

// CheckExtensions requires at least one editor extension.
func CheckExtensions(d *descriptor.Descriptor) Verdict {
	const check = "descriptor lists editor extensions"
	if len(d.Extensions()) == 0 {
		return HardFail(StageDescriptor, check, "customizations.vscode.extensions is empty or missing")
	}
	return Pass(StageDescriptor, check)
}

// AgentFeature is the feature that installs the coding agent into the container.
const AgentFeature = "./features/claude-code"

// SettingProbe describes the alternative ways a setting may be expressed in a descriptor.
type SettingProbe struct {
	Name string
	// EnvKeys are exact containerEnv keys.
	EnvKeys []string
	// Keyword matches case-insensitively inside containerEnv keys and feature
	// argument keys. When Feature is empty it also matches feature identifiers.
	Keyword string
	// Feature restricts the feature part of the keyword search to one feature's arguments.
	Feature string
}

var (
	ProxySetting = SettingProbe{
		Name:    "proxy",
		EnvKeys: []string{"HTTP_PROXY", "HTTPS_PROXY", "http_proxy", "https_proxy"},
		Keyword: "proxy",
	}
	ProviderSetting = SettingProbe{
		Name:    "provider",
		EnvKeys: []string{"CLAUDE_PROVIDER"},
		Keyword: "provider",
	}
	AgentVersionSetting = SettingProbe{
		Name:    "agent_version",
		EnvKeys: []string{"CLAUDE_VERSION", "CLAUDE_CODE_VERSION"},
		Keyword: "version",
		Feature: AgentFeature,
	}
)

// SettingProbes indexes the known probes by name.
var SettingProbes = map[string]SettingProbe{
	ProxySetting.Name:        ProxySetting,
	ProviderSetting.Name:     ProviderSetting,
	AgentVersionSetting.Name: AgentVersionSetting,
}

// Locate returns where the setting was found, or "" when it is absent everywhere.
func (p SettingProbe) Locate(d *descriptor.Descriptor) string {
	env := d.ContainerEnv()
	for _, k := range p.EnvKeys {
		if _, ok := env[k]; ok {
			return "containerEnv." + k
		}
	}

	kw := strings.ToLower(p.Keyword)
	if kw == "" {
		return ""
	}

	for k := range env {
		if strings.Contains(strings.ToLower(k), kw) {
			return "containerEnv." + k
		}
	}

	if p.Feature != "" {
		for arg := range d.FeatureArgs(p.Feature) {
			if strings.Contains(strings.ToLower(arg), kw) {
				return "features." + p.Feature + "." + arg
			}
		}
		return ""
	}

	for feature := range d.Features() {
		if strings.Contains(strings.ToLower(feature), kw) {
			return "features." + feature
		}
		for arg := range d.FeatureArgs(feature) {
			if strings.Contains(strings.ToLower(arg), kw) {
				return "features." + feature + "." + arg
			}
		}
	}
	return ""
}

// CheckSetting reports an Advisory when the setting is not represented anywhere.
// Generators are allowed to leave these to the user, so absence never fails.
func CheckSetting(d *descriptor.Descriptor, p SettingProbe) Verdict {
	check := p.Name + " configured"
	if where := p.Locate(d); where == "" {
		return Advisory(StageDescriptor, check, "no %s setting found in containerEnv or features", p.Name)
	}
	return Pass(StageDescriptor, check)
}
