// Package workspace owns the per-scenario temporary directory and the container
// images created while a scenario runs.
package workspace

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// TempPrefix is the name prefix for scope directories and images.
const TempPrefix = "e2e-"

// Scope is one scenario's exclusive workspace.
//
// A Scope is mutated only by the goroutine running its scenario. Concurrent
// generator invocations write into Root but never touch the tracking sets.
type Scope struct {
	ID   string
	Root string

	images   []string
	prefixes []string
	released bool
}

// ProjectPath returns the artifact tree root for a project generated into this scope.
func (s *Scope) ProjectPath(name string) string {
	return filepath.Join(s.Root, name)
}

// TrackImage registers an image tag for removal on release. Duplicates are ignored.
func (s *Scope) TrackImage(tag string) {
	if tag == "" || contains(s.images, tag) {
		return
	}
	s.images = append(s.images, tag)
}

// TrackPrefix registers an image-name prefix. Every image whose repository starts
// with it is removed on release.
func (s *Scope) TrackPrefix(prefix string) {
	if prefix == "" || contains(s.prefixes, prefix) {
		return
	}
	s.prefixes = append(s.prefixes, prefix)
}

// Images returns a copy of the tracked image tags.
func (s *Scope) Images() []string {
	return append([]string(nil), s.images...)
}

// Prefixes returns a copy of the tracked image prefixes.
func (s *Scope) Prefixes() []string {
	return append([]string(nil), s.prefixes...)
}

// Released reports whether Release already ran for this scope.
func (s *Scope) Released() bool {
	return s.released
}

// ImageTag returns a fresh image tag for a project: e2e-<name>-<8 hex chars>.
func ImageTag(project string) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s%s-%s", TempPrefix, sanitizeImageName(project), id)
}

// ImagePrefix is the prefix every image tag of project starts with.
func ImagePrefix(project string) string {
	return TempPrefix + sanitizeImageName(project)
}

// sanitizeImageName lowercases and replaces characters docker rejects in repository names.
func sanitizeImageName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return b.String()
}

// ValidateName rejects project names that would escape the scope directory.
func ValidateName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("project name is empty")
	}
	if trimmed == "." || trimmed == ".." {
		return fmt.Errorf("project name %q is not allowed", name)
	}
	if strings.ContainsAny(trimmed, `/\`) {
		return fmt.Errorf("project name %q must not contain path separators", name)
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
