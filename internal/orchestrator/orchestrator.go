// Package orchestrator runs several generator invocations at once inside one
// workspace scope and joins them before anything inspects the results.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"devcheck/internal/generator"
	"devcheck/internal/workspace"
	"devcheck/pkg/logging"
)

var (
	ErrNoRequests    = errors.New("no invocation requests")
	ErrDuplicateName = errors.New("duplicate project name")
	ErrInvalidName   = errors.New("invalid project name")
)

// Request is one concurrent generator invocation.
type Request struct {
	Name     string
	Template string
}

// Batch holds the joined results of one concurrent run.
type Batch struct {
	// Names preserves request order.
	Names    []string
	Results  map[string]generator.Result
	Duration time.Duration
}

// Failed returns the names whose invocation exited non-zero, in request order.
func (b *Batch) Failed() []string {
	var failed []string
	for _, name := range b.Names {
		if res, ok := b.Results[name]; !ok || !res.Succeeded() {
			failed = append(failed, name)
		}
	}
	return failed
}

// Complete reports whether every requested name has a result.
func (b *Batch) Complete() bool {
	for _, name := range b.Names {
		if _, ok := b.Results[name]; !ok {
			return false
		}
	}
	return len(b.Results) == len(b.Names)
}

// CreateAll runs one invocation per name, all with the same template.
func CreateAll(ctx context.Context, gen generator.Generator, scope *workspace.Scope, names []string, template string) (*Batch, error) {
	reqs := make([]Request, 0, len(names))
	for _, name := range names {
		reqs = append(reqs, Request{Name: name, Template: template})
	}
	return Run(ctx, gen, scope, reqs)
}

// CreatePair runs two invocations with independent templates.
func CreatePair(ctx context.Context, gen generator.Generator, scope *workspace.Scope, a, b Request) (*Batch, error) {
	return Run(ctx, gen, scope, []Request{a, b})
}

// Run launches one goroutine per request, waits for all of them and returns the
// collected results. Only after the join does it register image prefixes on
// the scope, so the scope is never touched from a worker.
func Run(ctx context.Context, gen generator.Generator, scope *workspace.Scope, reqs []Request) (*Batch, error) {
	if err := validate(reqs); err != nil {
		return nil, err
	}

	batch := &Batch{
		Names:   make([]string, 0, len(reqs)),
		Results: make(map[string]generator.Result, len(reqs)),
	}
	for _, r := range reqs {
		batch.Names = append(batch.Names, r.Name)
	}

	logging.Info("Orchestrator", "Generating %d projects concurrently with %s", len(reqs), gen.Backend())

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	start := time.Now()

	for _, req := range reqs {
		g.Go(func() error {
			res := gen.Generate(gctx, req.Name, generator.Options{
				Workspace: scope.Root,
				Template:  req.Template,
			})

			mu.Lock()
			batch.Results[req.Name] = res
			mu.Unlock()

			logging.Debug("Orchestrator", "Project %s finished with exit code %d", req.Name, res.ExitCode)
			return nil
		})
	}

	// Workers never return errors; a failed invocation is a result, not a reason to cancel siblings.
	_ = g.Wait()
	batch.Duration = time.Since(start)

	for _, name := range batch.Names {
		scope.TrackPrefix(workspace.ImagePrefix(name))
	}

	if err := ctx.Err(); err != nil {
		return batch, fmt.Errorf("concurrent generation interrupted: %w", err)
	}
	return batch, nil
}

func validate(reqs []Request) error {
	if len(reqs) == 0 {
		return ErrNoRequests
	}
	seen := make(map[string]struct{}, len(reqs))
	for _, r := range reqs {
		if err := workspace.ValidateName(r.Name); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidName, err)
		}
		if _, dup := seen[r.Name]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateName, r.Name)
		}
		seen[r.Name] = struct{}{}
	}
	return nil
}

// SortedNames returns the result keys in lexical order.
func (b *Batch) SortedNames() []string {
	names := make([]string, 0, len(b.Results))
	for name := range b.Results {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
