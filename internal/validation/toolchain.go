package validation

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"

	"devcheck/pkg/logging"
)

// ProbeMode decides how a probe failure is judged.
type ProbeMode int

const (
	// Required tools are baked into the image; a failed probe is a HardFail.
	Required ProbeMode = iota
	// Deferred tools are installed by postCreateCommand, which a plain image
	// build never runs. They are reported as skipped without probing.
	Deferred
	// BestEffort tools are probed, but a failure is only an Advisory.
	BestEffort
)

func (m ProbeMode) String() string {
	switch m {
	case Required:
		return "required"
	case Deferred:
		return "deferred"
	case BestEffort:
		return "best-effort"
	default:
		return "unknown"
	}
}

// Toolchain is one entry of the runtime probe catalog.
type Toolchain struct {
	Name  string
	Probe []string
	Mode  ProbeMode
	// Prerequisite is probed first for BestEffort tools; its failure is reported instead.
	Prerequisite []string
}

// Catalog maps toolchain names to their probes.
type Catalog map[string]Toolchain

// Names returns the catalog keys in lexical order.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c))
	for n := range c {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Lookup finds a toolchain case-insensitively.
func (c Catalog) Lookup(name string) (Toolchain, bool) {
	tc, ok := c[strings.ToLower(strings.TrimSpace(name))]
	return tc, ok
}

// DefaultCatalog returns the probes for the toolchains the templates install.
func DefaultCatalog() Catalog {
	tools := []Toolchain{
		{Name: "python", Probe: []string{"python3", "--version"}},
		{Name: "node", Probe: []string{"node", "--version"}},
		{Name: "npm", Probe: []string{"npm", "--version"}},
		{Name: "rust", Probe: []string{"rustc", "--version"}},
		{Name: "cargo", Probe: []string{"cargo", "--version"}},
		{Name: "go", Probe: []string{"go", "version"}},
		{Name: "flask", Probe: []string{"python", "-c", "import flask; print(flask.__version__)"}},
		{Name: "ruff", Probe: []string{"ruff", "--version"}},
		{Name: "eslint", Probe: []string{"npx", "eslint", "--version"}},
		{Name: "prettier", Probe: []string{"npx", "prettier", "--version"}},
		{
			Name:         "clippy",
			Probe:        []string{"sh", "-c", "rustup component list | grep clippy"},
			Mode:         BestEffort,
			Prerequisite: []string{"rustup", "--version"},
		},
		{
			Name:         "rustfmt",
			Probe:        []string{"sh", "-c", "rustup component list | grep rustfmt"},
			Mode:         BestEffort,
			Prerequisite: []string{"rustup", "--version"},
		},
		{Name: "uv", Mode: Deferred},
		{Name: "pytest", Mode: Deferred},
		{Name: "jupyter", Mode: Deferred},
		{Name: "numpy", Mode: Deferred},
		{Name: "pandas", Mode: Deferred},
		{Name: "typescript", Mode: Deferred},
		{Name: "vitest", Mode: Deferred},
		{Name: "golangci-lint", Mode: Deferred},
		{Name: "claude", Mode: Deferred},
	}

	c := make(Catalog, len(tools))
	for _, tc := range tools {
		c[tc.Name] = tc
	}
	return c
}

// CheckToolchain probes image for tool. wantVersion is optional; a version
// mismatch is an Advisory.
func (c *Checker) CheckToolchain(ctx context.Context, image, tool, wantVersion string) []Verdict {
	check := tool + " installed"
	tc, ok := c.Catalog.Lookup(tool)
	if !ok {
		return []Verdict{HardFail(StageRuntime, check, "unknown toolchain %q (known: %s)",
			tool, strings.Join(c.Catalog.Names(), ", "))}
	}
	if image == "" {
		return []Verdict{HardFail(StageRuntime, check, "no image has been built for this scenario")}
	}

	switch tc.Mode {
	case Deferred:
		return []Verdict{Advisory(StageRuntime, check, "skipped: %s is installed by postCreateCommand, which an image build does not run", tc.Name)}
	case BestEffort:
		if len(tc.Prerequisite) > 0 {
			if res := c.Runtime.RunOnce(ctx, image, tc.Prerequisite...); !res.Success() {
				return []Verdict{Advisory(StageRuntime, check, "%s not found; %s verification skipped", tc.Prerequisite[0], tc.Name)}
			}
		}
		if res := c.Runtime.RunOnce(ctx, image, tc.Probe...); !res.Success() {
			return []Verdict{Advisory(StageRuntime, check, "%s component not present; expected to be added by postCreateCommand", tc.Name)}
		}
		return []Verdict{Pass(StageRuntime, check)}
	}

	res := c.Runtime.RunOnce(ctx, image, tc.Probe...)
	if !res.Success() {
		return []Verdict{HardFail(StageRuntime, check, "%s", withOutput(
			fmt.Sprintf("%s not found in %s (exit %d)", tc.Name, image, res.ExitCode), res.Combined))}
	}
	verdicts := []Verdict{Pass(StageRuntime, check)}

	if wantVersion != "" {
		verdicts = append(verdicts, versionVerdict(tc.Name, wantVersion, res.Stdout+res.Stderr))
	}
	return verdicts
}

func versionVerdict(tool, want, probed string) Verdict {
	check := tool + " version matches " + want
	actual, ok, err := MatchVersion(want, probed)
	if err != nil {
		logging.Debug("Validation", "Version check for %s: %v", tool, err)
		return Advisory(StageRuntime, check, "could not compare versions: %v", err)
	}
	if !ok {
		return Advisory(StageRuntime, check, "%s version differs: expected %s, got %s", tool, want, actual)
	}
	return Pass(StageRuntime, check)
}

var versionPattern = regexp.MustCompile(`v?(\d+)(\.\d+)?(\.\d+)?`)

// MatchVersion compares want against the first version found in probed output.
// Comparison is truncated to major.minor, or to major only when want has no
// minor component. It returns the version it found.
func MatchVersion(want, probed string) (string, bool, error) {
	wantVer, err := semver.NewVersion(strings.TrimSpace(want))
	if err != nil {
		return "", false, fmt.Errorf("invalid expected version %q: %w", want, err)
	}

	found := versionPattern.FindString(probed)
	if found == "" {
		return "", false, fmt.Errorf("no version in output %q", strings.TrimSpace(probed))
	}
	actual, err := semver.NewVersion(found)
	if err != nil {
		return found, false, fmt.Errorf("invalid probed version %q: %w", found, err)
	}

	minorGiven := strings.Count(strings.TrimPrefix(strings.TrimSpace(want), "v"), ".") >= 1
	if actual.Major() != wantVer.Major() {
		return truncated(actual, minorGiven), false, nil
	}
	if minorGiven && actual.Minor() != wantVer.Minor() {
		return truncated(actual, minorGiven), false, nil
	}
	return truncated(actual, minorGiven), true, nil
}

func truncated(v *semver.Version, withMinor bool) string {
	if withMinor {
		return fmt.Sprintf("%d.%d", v.Major(), v.Minor())
	}
	return fmt.Sprintf("%d", v.Major())
}
