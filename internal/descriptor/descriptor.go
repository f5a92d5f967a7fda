// Package descriptor reads the generated .devcontainer/devcontainer.json.
//
// Only key lookups are supported; devcheck never renders or rewrites descriptors.
package descriptor

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tailscale/hujson"
)

const (
	Dir      = ".devcontainer"
	FileName = "devcontainer.json"
)

var (
	ErrNotFound  = errors.New("descriptor not found")
	ErrMalformed = errors.New("descriptor is malformed")
)

// fieldAliases lists fields that satisfy a presence check for another field.
var fieldAliases = map[string][]string{
	"image": {"build", "dockerFile", "dockerComposeFile"},
}

// Descriptor is a parsed devcontainer.json.
type Descriptor struct {
	Path string
	raw  map[string]any
}

// PathFor returns the descriptor location inside a project artifact tree.
func PathFor(projectRoot string) string {
	return filepath.Join(projectRoot, Dir, FileName)
}

// Load reads and parses the descriptor of the project at projectRoot.
func Load(projectRoot string) (*Descriptor, error) {
	path := PathFor(projectRoot)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	d, err := Parse(data)
	if err != nil {
		return nil, err
	}
	d.Path = path
	return d, nil
}

// Parse decodes descriptor content. Comments and trailing commas are accepted
// since the devcontainer tooling accepts them.
func Parse(data []byte) (*Descriptor, error) {
	std, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var raw map[string]any
	if err := json.Unmarshal(std, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: top level must be an object", ErrMalformed)
	}
	return &Descriptor{raw: raw}, nil
}

// Has reports whether field is present at the top level, honoring aliases
// such as `build` standing in for `image`.
func (d *Descriptor) Has(field string) bool {
	if _, ok := d.raw[field]; ok {
		return true
	}
	for _, alias := range fieldAliases[field] {
		if _, ok := d.raw[alias]; ok {
			return true
		}
	}
	return false
}

// Fields returns the top-level keys in lexical order.
func (d *Descriptor) Fields() []string {
	keys := make([]string, 0, len(d.raw))
	for k := range d.raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Name returns the descriptor's display name, if any.
func (d *Descriptor) Name() string {
	s, _ := d.raw["name"].(string)
	return s
}

// ContainerEnv returns the containerEnv mapping. Non-string values are formatted with %v.
func (d *Descriptor) ContainerEnv() map[string]string {
	env := map[string]string{}
	m, _ := d.raw["containerEnv"].(map[string]any)
	for k, v := range m {
		if s, ok := v.(string); ok {
			env[k] = s
		} else {
			env[k] = fmt.Sprintf("%v", v)
		}
	}
	return env
}

// Features returns feature identifiers mapped to their option objects.
func (d *Descriptor) Features() map[string]map[string]any {
	out := map[string]map[string]any{}
	m, _ := d.raw["features"].(map[string]any)
	for k, v := range m {
		opts, _ := v.(map[string]any)
		if opts == nil {
			opts = map[string]any{}
		}
		out[k] = opts
	}
	return out
}

// FeatureArgs returns the arguments of feature. A nested "args" object is
// preferred; otherwise the option object itself is the argument set.
func (d *Descriptor) FeatureArgs(feature string) map[string]string {
	opts, ok := d.Features()[feature]
	if !ok {
		return nil
	}
	src := opts
	if nested, ok := opts["args"].(map[string]any); ok {
		src = nested
	}
	args := map[string]string{}
	for k, v := range src {
		if _, isMap := v.(map[string]any); isMap {
			continue
		}
		args[k] = fmt.Sprintf("%v", v)
	}
	return args
}

// Extensions returns customizations.vscode.extensions.
func (d *Descriptor) Extensions() []string {
	custom, _ := d.raw["customizations"].(map[string]any)
	vscode, _ := custom["vscode"].(map[string]any)
	list, _ := vscode["extensions"].([]any)

	var exts []string
	for _, e := range list {
		if s, ok := e.(string); ok && strings.TrimSpace(s) != "" {
			exts = append(exts, s)
		}
	}
	return exts
}

// PostCreateCommand returns the postCreateCommand as a display string.
func (d *Descriptor) PostCreateCommand() string {
	switch v := d.raw["postCreateCommand"].(type) {
	case string:
		return v
	case []any:
		parts := make([]string, 0, len(v))
		for _, p := range v {
			parts = append(parts, fmt.Sprintf("%v", p))
		}
		return strings.Join(parts, " ")
	case nil:
		return ""
	default:
		b, _ := json.Marshal(v)
		return string(b)
	}
}
