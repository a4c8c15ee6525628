// Package tools owns the data-tool registry, relevance scoring, and the
// concurrent executor with per-tool timeouts and fallback chains.
package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/gobapps/emma-core/internal/agent/model"
)

// Runner is one tool implementation. Execute must respect ctx cancellation
// and be side-effect-free from the caller's perspective.
type Runner interface {
	Execute(ctx context.Context, params map[string]string) (map[string]any, error)
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, params map[string]string) (map[string]any, error)

func (f RunnerFunc) Execute(ctx context.Context, params map[string]string) (map[string]any, error) {
	return f(ctx, params)
}

// Registry maps tool ids to descriptors and typed implementations. It is
// populated once at startup and read-only afterwards.
type Registry struct {
	order          []string
	descriptors    map[string]model.ToolDescriptor
	runners        map[string]Runner
	maxConcurrent  int
	defaultTimeout time.Duration
}

// NewRegistry creates an empty registry from configuration.
func NewRegistry(cfg model.ToolsConfig) (*Registry, error) {
	timeout, err := time.ParseDuration(cfg.DefaultTimeout)
	if err != nil {
		return nil, fmt.Errorf("parse default tool timeout: %w", err)
	}
	if cfg.MaxConcurrent < 1 {
		return nil, fmt.Errorf("max concurrent tools must be positive, got %d", cfg.MaxConcurrent)
	}
	return &Registry{
		descriptors:    map[string]model.ToolDescriptor{},
		runners:        map[string]Runner{},
		maxConcurrent:  cfg.MaxConcurrent,
		defaultTimeout: timeout,
	}, nil
}

// Register adds one tool. Duplicate ids and nil runners are configuration
// bugs, reported immediately.
func (r *Registry) Register(d model.ToolDescriptor, run Runner) error {
	if d.ID == "" {
		return fmt.Errorf("tool descriptor missing id")
	}
	if _, dup := r.descriptors[d.ID]; dup {
		return fmt.Errorf("tool %q registered twice", d.ID)
	}
	if run == nil {
		return fmt.Errorf("tool %q has no runner", d.ID)
	}
	if d.Timeout <= 0 {
		d.Timeout = r.defaultTimeout
	}
	r.order = append(r.order, d.ID)
	r.descriptors[d.ID] = d
	r.runners[d.ID] = run
	return nil
}

// Descriptor returns the descriptor for an id.
func (r *Registry) Descriptor(id string) (model.ToolDescriptor, bool) {
	d, ok := r.descriptors[id]
	return d, ok
}

// Runner returns the implementation for an id.
func (r *Registry) Runner(id string) (Runner, bool) {
	run, ok := r.runners[id]
	return run, ok
}

// Enabled returns all enabled descriptors in registration order.
func (r *Registry) Enabled() []model.ToolDescriptor {
	out := make([]model.ToolDescriptor, 0, len(r.order))
	for _, id := range r.order {
		if d := r.descriptors[id]; d.Enabled {
			out = append(out, d)
		}
	}
	return out
}

// MaxConcurrent is the selection cap applied by the scorer.
func (r *Registry) MaxConcurrent() int { return r.maxConcurrent }
