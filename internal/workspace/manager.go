package workspace

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"

	"devcheck/pkg/logging"
)

// ImageRemover deletes container images. containerizer.DockerRuntime satisfies it.
type ImageRemover interface {
	RemoveImage(ctx context.Context, ref string) error
	RemoveImagesWithPrefix(ctx context.Context, prefix string) (int, error)
}

// CleanupReport summarizes what Release did. Failures are counted, never returned.
type CleanupReport struct {
	ImagesRemoved  int      `json:"imagesRemoved"`
	PrefixRemovals int      `json:"prefixRemovals"`
	RootRemoved    bool     `json:"rootRemoved"`
	Errors         []string `json:"errors,omitempty"`
}

// Manager acquires and releases scopes.
type Manager struct {
	baseDir string
	images  ImageRemover
}

// osMkdirTemp and osRemoveAll can be replaced in tests.
var (
	osMkdirTemp = os.MkdirTemp
	osRemoveAll = os.RemoveAll
)

// NewManager creates a Manager placing scopes under baseDir (the OS temp dir when empty).
// images may be nil when no container engine is in use.
func NewManager(baseDir string, images ImageRemover) *Manager {
	return &Manager{baseDir: baseDir, images: images}
}

// Acquire creates a fresh, empty scope directory.
func (m *Manager) Acquire(ctx context.Context) (*Scope, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.baseDir != "" {
		if err := os.MkdirAll(m.baseDir, 0o755); err != nil {
			return nil, fmt.Errorf("create workspace base directory: %w", err)
		}
	}

	root, err := osMkdirTemp(m.baseDir, TempPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("create workspace scope: %w", err)
	}

	scope := &Scope{ID: uuid.NewString(), Root: root}
	logging.Debug("Workspace", "Acquired scope %s at %s", scope.ID, root)
	return scope, nil
}

// Release removes every tracked image, every image matching a tracked prefix and
// the scope directory. It never fails; a second call on the same scope does nothing.
func (m *Manager) Release(ctx context.Context, scope *Scope) CleanupReport {
	var report CleanupReport
	if scope == nil || scope.released {
		return report
	}
	scope.released = true

	fail := func(err error) {
		logging.Debug("Workspace", "Cleanup of scope %s: %v", scope.ID, err)
		report.Errors = append(report.Errors, err.Error())
	}

	if m.images != nil {
		for _, tag := range scope.images {
			if err := m.images.RemoveImage(ctx, tag); err != nil {
				fail(err)
				continue
			}
			report.ImagesRemoved++
		}
		for _, prefix := range scope.prefixes {
			n, err := m.images.RemoveImagesWithPrefix(ctx, prefix)
			report.PrefixRemovals += n
			if err != nil {
				fail(fmt.Errorf("prefix %s: %w", prefix, err))
			}
		}
	}

	if scope.Root != "" {
		if err := osRemoveAll(scope.Root); err != nil {
			fail(fmt.Errorf("remove %s: %w", scope.Root, err))
		} else {
			report.RootRemoved = true
		}
	}

	logging.Debug("Workspace", "Released scope %s (%d images, %d by prefix, %d errors)",
		scope.ID, report.ImagesRemoved, report.PrefixRemovals, len(report.Errors))
	return report
}
