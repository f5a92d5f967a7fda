package testing

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"devcheck/pkg/logging"
)

//go:embed scenarios/*.yaml
var builtinScenarios embed.FS

// testScenarioLoader loads scenarios from YAML files
type testScenarioLoader struct {
	debug bool
}

// NewTestScenarioLoader creates a new scenario loader
func NewTestScenarioLoader(debug bool) TestScenarioLoader {
	return &testScenarioLoader{debug: debug}
}

// LoadScenarios loads scenarios from a file or a directory of *.yaml files.
// An empty configPath loads the scenarios compiled into the binary.
func (l *testScenarioLoader) LoadScenarios(configPath string) ([]TestScenario, error) {
	var scenarios []TestScenario

	if configPath == "" {
		err := fs.WalkDir(builtinScenarios, "scenarios", func(p string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			data, err := builtinScenarios.ReadFile(p)
			if err != nil {
				return err
			}
			loaded, err := ParseScenarios(data)
			if err != nil {
				return fmt.Errorf("%s: %w", p, err)
			}
			scenarios = append(scenarios, loaded...)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to load built-in scenarios: %w", err)
		}
		return scenarios, validateScenarioSet(scenarios)
	}

	files, err := scenarioFiles(configPath)
	if err != nil {
		return nil, err
	}
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read scenario file %s: %w", file, err)
		}
		loaded, err := ParseScenarios(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		if l.debug {
			logging.Debug("TestRunner", "Loaded %d scenarios from %s", len(loaded), file)
		}
		scenarios = append(scenarios, loaded...)
	}
	return scenarios, validateScenarioSet(scenarios)
}

func scenarioFiles(configPath string) ([]string, error) {
	info, err := os.Stat(configPath)
	if err != nil {
		return nil, fmt.Errorf("scenario path %s: %w", configPath, err)
	}
	if !info.IsDir() {
		return []string{configPath}, nil
	}

	var files []string
	err = filepath.WalkDir(configPath, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if ext := filepath.Ext(p); ext == ".yaml" || ext == ".yml" {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", configPath, err)
	}
	sort.Strings(files)
	return files, nil
}

// ParseScenarios decodes one or more YAML documents. Each document holds a
// single scenario or a list of scenarios.
func ParseScenarios(data []byte) ([]TestScenario, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var scenarios []TestScenario

	for {
		var node yaml.Node
		if err := dec.Decode(&node); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("invalid YAML: %w", err)
		}
		if len(node.Content) == 0 {
			continue
		}

		switch node.Content[0].Kind {
		case yaml.SequenceNode:
			var list []TestScenario
			if err := node.Decode(&list); err != nil {
				return nil, fmt.Errorf("invalid scenario list: %w", err)
			}
			scenarios = append(scenarios, list...)
		case yaml.MappingNode:
			var one TestScenario
			if err := node.Decode(&one); err != nil {
				return nil, fmt.Errorf("invalid scenario: %w", err)
			}
			scenarios = append(scenarios, one)
		default:
			return nil, fmt.Errorf("scenario document must be a mapping or a list")
		}
	}

	for i := range scenarios {
		if scenarios[i].Category == "" {
			scenarios[i].Category = CategoryGeneration
		}
	}
	return scenarios, nil
}

// validateScenarioSet rejects unnamed, duplicate, empty and unknown-action scenarios.
func validateScenarioSet(scenarios []TestScenario) error {
	var problems []string
	seen := map[string]bool{}

	for _, sc := range scenarios {
		if sc.Name == "" {
			problems = append(problems, "scenario without a name")
			continue
		}
		if seen[sc.Name] {
			problems = append(problems, fmt.Sprintf("duplicate scenario %q", sc.Name))
		}
		seen[sc.Name] = true
		if len(sc.Steps) == 0 {
			problems = append(problems, fmt.Sprintf("scenario %q has no steps", sc.Name))
		}
		for i, step := range sc.Steps {
			if _, ok := lookupStep(step.Action); !ok {
				problems = append(problems, fmt.Sprintf("scenario %q step %d: unknown action %q", sc.Name, i+1, step.Action))
			}
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid scenarios:\n  %s", strings.Join(problems, "\n  "))
	}
	return nil
}

// FilterScenarios filters scenarios based on the configuration. The scenario
// filter accepts shell-style patterns such as "concurrent-*".
func (l *testScenarioLoader) FilterScenarios(scenarios []TestScenario, config TestConfiguration) []TestScenario {
	var filtered []TestScenario
	for _, sc := range scenarios {
		if config.Category != "" && sc.Category != config.Category {
			continue
		}
		if config.Scenario != "" {
			if ok, _ := path.Match(config.Scenario, sc.Name); !ok {
				continue
			}
		}
		if len(config.Tags) > 0 && !hasAnyTag(sc.Tags, config.Tags) {
			continue
		}
		filtered = append(filtered, sc)
	}
	return filtered
}

func hasAnyTag(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if strings.EqualFold(h, w) {
				return true
			}
		}
	}
	return false
}
