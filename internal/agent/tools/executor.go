package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gobapps/emma-core/internal/agent/model"
	logx "github.com/gobapps/emma-core/pkg/logger"
)

const errNoValidParameters = "no valid parameters"

// ExecutionContext carries the request-scoped inputs tools derive their
// parameters from.
type ExecutionContext struct {
	Message    string
	Entities   []string
	Parameters map[string]string
}

// Executor runs selected tools concurrently with per-tool timeouts and a
// single-fallback policy. It never returns an error: every outcome lands in
// its slot of the result slice.
type Executor struct {
	reg   *Registry
	stats *StatsTracker
}

// NewExecutor builds an executor over a registry and stats tracker.
func NewExecutor(reg *Registry, stats *StatsTracker) *Executor {
	return &Executor{reg: reg, stats: stats}
}

// ExecuteAll runs every selected tool and settles all outcomes. The result
// slice always has one entry per selected tool, in selection order,
// regardless of failures.
func (e *Executor) ExecuteAll(ctx context.Context, selected []model.ToolDescriptor, exec ExecutionContext) []model.ToolExecutionResult {
	results := make([]model.ToolExecutionResult, len(selected))
	if len(selected) == 0 {
		return results
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, d := range selected {
		g.Go(func() error {
			results[i] = e.executeOne(gctx, d, exec)
			// Settle semantics: a tool failure is data, not an error.
			return nil
		})
	}
	// All closures return nil; Wait only joins the fan-out.
	_ = g.Wait()
	return results
}

// executeOne runs a single tool, then at most one fallback.
func (e *Executor) executeOne(ctx context.Context, d model.ToolDescriptor, exec ExecutionContext) model.ToolExecutionResult {
	params, ok := resolveParameters(d, exec)
	if !ok {
		return model.ToolExecutionResult{
			ToolID:  d.ID,
			Success: false,
			Error:   errNoValidParameters,
			Skipped: true,
		}
	}

	start := time.Now()
	data, err := e.runWithTimeout(ctx, d, params)
	elapsed := time.Since(start)

	if err == nil {
		e.stats.Record(d.ID, true, elapsed, "")
		return model.ToolExecutionResult{
			ToolID:     d.ID,
			Success:    true,
			Data:       data,
			Duration:   elapsed,
			IsReliable: true,
		}
	}
	e.stats.Record(d.ID, false, elapsed, err.Error())
	logx.Warn().Err(err).Str("tool", d.ID).Msg("tool execution failed")

	res := model.ToolExecutionResult{
		ToolID:   d.ID,
		Success:  false,
		Error:    err.Error(),
		Duration: elapsed,
	}

	fb, fbParams, found := e.firstViableFallback(d, exec)
	if !found {
		return res
	}

	fbStart := time.Now()
	fbData, fbErr := e.runWithTimeout(ctx, fb, fbParams)
	fbElapsed := time.Since(fbStart)
	res.Duration += fbElapsed
	res.FallbackUsed = fb.ID

	if fbErr == nil {
		e.stats.Record(fb.ID, true, fbElapsed, "")
		res.Success = true
		res.Data = fbData
		res.Error = ""
		res.IsReliable = true
		return res
	}
	e.stats.Record(fb.ID, false, fbElapsed, fbErr.Error())
	res.Error = fmt.Sprintf("%s; fallback %s: %s", err.Error(), fb.ID, fbErr.Error())
	res.IsReliable = false
	return res
}

// runWithTimeout races the runner against the tool's timeout. A hung runner
// is abandoned: its goroutine may linger until it notices cancellation, but
// the caller proceeds.
func (e *Executor) runWithTimeout(ctx context.Context, d model.ToolDescriptor, params map[string]string) (map[string]any, error) {
	run, ok := e.reg.Runner(d.ID)
	if !ok {
		return nil, fmt.Errorf("tool %s has no runner", d.ID)
	}

	tctx, cancel := context.WithTimeout(ctx, d.Timeout)
	defer cancel()

	type outcome struct {
		data map[string]any
		err  error
	}
	ch := make(chan outcome, 1)
	go func() {
		data, err := run.Execute(tctx, params)
		ch <- outcome{data: data, err: err}
	}()

	select {
	case out := <-ch:
		return out.data, out.err
	case <-tctx.Done():
		return nil, fmt.Errorf("tool %s: %w", d.ID, tctx.Err())
	}
}

// firstViableFallback returns the first entry of the fallback list that is
// enabled, registered, and can resolve its parameters. Only that one entry
// is ever attempted.
func (e *Executor) firstViableFallback(d model.ToolDescriptor, exec ExecutionContext) (model.ToolDescriptor, map[string]string, bool) {
	for _, id := range d.FallbackTools {
		fb, ok := e.reg.Descriptor(id)
		if !ok || !fb.Enabled {
			continue
		}
		if _, ok := e.reg.Runner(id); !ok {
			continue
		}
		if params, ok := resolveParameters(fb, exec); ok {
			return fb, params, true
		}
	}
	return model.ToolDescriptor{}, nil, false
}

// resolveParameters derives the tool's required parameters from the request.
// Unresolvable parameters abort the invocation before any network call.
func resolveParameters(d model.ToolDescriptor, exec ExecutionContext) (map[string]string, bool) {
	params := map[string]string{}
	for _, name := range d.RequiredParameters {
		switch name {
		case "ticker":
			if len(exec.Entities) == 0 {
				return nil, false
			}
			params["ticker"] = exec.Entities[0]
		case "tickers":
			if len(exec.Entities) == 0 {
				return nil, false
			}
			params["tickers"] = strings.Join(exec.Entities, ",")
		case "date":
			params["date"] = time.Now().UTC().Format("2006-01-02")
		default:
			v, ok := exec.Parameters[name]
			if !ok || v == "" {
				return nil, false
			}
			params[name] = v
		}
	}
	// Optional extras ride along when present.
	for k, v := range exec.Parameters {
		if _, taken := params[k]; !taken {
			params[k] = v
		}
	}
	return params, true
}
