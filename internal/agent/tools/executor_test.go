package tools

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gobapps/emma-core/internal/agent/model"
)

func registerTool(t *testing.T, reg *Registry, d model.ToolDescriptor, run Runner) {
	t.Helper()
	d.Enabled = true
	require.NoError(t, reg.Register(d, run))
}

func okRunner(data map[string]any) Runner {
	return RunnerFunc(func(_ context.Context, _ map[string]string) (map[string]any, error) {
		return data, nil
	})
}

func failRunner(msg string) Runner {
	return RunnerFunc(func(_ context.Context, _ map[string]string) (map[string]any, error) {
		return nil, errors.New(msg)
	})
}

func hangRunner() Runner {
	return RunnerFunc(func(ctx context.Context, _ map[string]string) (map[string]any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
}

func execCtx() ExecutionContext {
	return ExecutionContext{Message: "analyse AAPL", Entities: []string{"AAPL"}}
}

func TestExecuteAllEmptySelection(t *testing.T) {
	reg, err := NewRegistry(testToolsConfig())
	require.NoError(t, err)
	e := NewExecutor(reg, NewStatsTracker(nil))

	got := e.ExecuteAll(context.Background(), nil, execCtx())
	assert.Empty(t, got)
}

func TestExecuteAllOneResultPerToolInOrder(t *testing.T) {
	reg, err := NewRegistry(testToolsConfig())
	require.NoError(t, err)
	registerTool(t, reg, model.ToolDescriptor{ID: "alpha"}, okRunner(map[string]any{"a": 1}))
	registerTool(t, reg, model.ToolDescriptor{ID: "beta"}, failRunner("down"))
	registerTool(t, reg, model.ToolDescriptor{ID: "gamma"}, okRunner(map[string]any{"c": 3}))
	e := NewExecutor(reg, NewStatsTracker(nil))

	selected := []model.ToolDescriptor{}
	for _, id := range []string{"alpha", "beta", "gamma"} {
		d, ok := reg.Descriptor(id)
		require.True(t, ok)
		selected = append(selected, d)
	}

	got := e.ExecuteAll(context.Background(), selected, execCtx())
	require.Len(t, got, 3)

	assert.Equal(t, "alpha", got[0].ToolID)
	assert.True(t, got[0].Success)
	assert.True(t, got[0].IsReliable)

	// one failing tool does not disturb its siblings
	assert.Equal(t, "beta", got[1].ToolID)
	assert.False(t, got[1].Success)
	assert.Contains(t, got[1].Error, "down")

	assert.Equal(t, "gamma", got[2].ToolID)
	assert.True(t, got[2].Success)
}

func TestExecuteTimeoutSettlesWithoutFailingSiblings(t *testing.T) {
	reg, err := NewRegistry(testToolsConfig())
	require.NoError(t, err)
	registerTool(t, reg, model.ToolDescriptor{ID: "slow", Timeout: 30 * time.Millisecond}, hangRunner())
	registerTool(t, reg, model.ToolDescriptor{ID: "fast"}, okRunner(map[string]any{"ok": true}))
	e := NewExecutor(reg, NewStatsTracker(nil))

	slow, _ := reg.Descriptor("slow")
	fast, _ := reg.Descriptor("fast")

	got := e.ExecuteAll(context.Background(), []model.ToolDescriptor{slow, fast}, execCtx())
	require.Len(t, got, 2)

	assert.False(t, got[0].Success)
	assert.NotEmpty(t, got[0].Error)
	assert.True(t, got[1].Success)
}

func TestExecuteFallbackSuccess(t *testing.T) {
	reg, err := NewRegistry(testToolsConfig())
	require.NoError(t, err)
	registerTool(t, reg, model.ToolDescriptor{ID: "primary", FallbackTools: []string{"backup"}}, failRunner("primary down"))
	registerTool(t, reg, model.ToolDescriptor{ID: "backup"}, okRunner(map[string]any{"ok": true}))
	e := NewExecutor(reg, NewStatsTracker(nil))

	primary, _ := reg.Descriptor("primary")
	got := e.ExecuteAll(context.Background(), []model.ToolDescriptor{primary}, execCtx())
	require.Len(t, got, 1)

	assert.True(t, got[0].Success)
	assert.Equal(t, "primary", got[0].ToolID)
	assert.Equal(t, "backup", got[0].FallbackUsed)
	assert.True(t, got[0].IsReliable)
}

func TestExecuteFallbackFailureMarksUnreliable(t *testing.T) {
	reg, err := NewRegistry(testToolsConfig())
	require.NoError(t, err)
	registerTool(t, reg, model.ToolDescriptor{ID: "primary", FallbackTools: []string{"backup", "tertiary"}}, failRunner("primary down"))
	registerTool(t, reg, model.ToolDescriptor{ID: "backup"}, failRunner("backup down"))
	registerTool(t, reg, model.ToolDescriptor{ID: "tertiary"}, okRunner(map[string]any{"ok": true}))
	e := NewExecutor(reg, NewStatsTracker(nil))

	primary, _ := reg.Descriptor("primary")
	got := e.ExecuteAll(context.Background(), []model.ToolDescriptor{primary}, execCtx())
	require.Len(t, got, 1)

	// only the first viable fallback is ever tried
	assert.False(t, got[0].Success)
	assert.Equal(t, "backup", got[0].FallbackUsed)
	assert.False(t, got[0].IsReliable)
	assert.Contains(t, got[0].Error, "primary down")
	assert.Contains(t, got[0].Error, "backup down")
}

func TestExecuteSkipsWhenParametersMissing(t *testing.T) {
	reg, err := NewRegistry(testToolsConfig())
	require.NoError(t, err)
	stats := NewStatsTracker(nil)
	registerTool(t, reg, model.ToolDescriptor{ID: "needs_ticker", RequiredParameters: []string{"ticker"}}, okRunner(nil))
	e := NewExecutor(reg, stats)

	d, _ := reg.Descriptor("needs_ticker")
	got := e.ExecuteAll(context.Background(), []model.ToolDescriptor{d}, ExecutionContext{Message: "hello"})
	require.Len(t, got, 1)

	assert.False(t, got[0].Success)
	assert.True(t, got[0].Skipped)
	// skipped runs never count against the tool's record
	assert.Zero(t, stats.Get("needs_ticker").TotalCalls)
}

func TestResolveParametersDerivation(t *testing.T) {
	d := model.ToolDescriptor{ID: "x", RequiredParameters: []string{"ticker", "tickers", "date"}}
	params, ok := resolveParameters(d, ExecutionContext{Entities: []string{"AAPL", "MSFT"}})
	require.True(t, ok)

	assert.Equal(t, "AAPL", params["ticker"])
	assert.Equal(t, "AAPL,MSFT", params["tickers"])
	assert.NotEmpty(t, params["date"])
}

func TestStatsTrackerRecords(t *testing.T) {
	stats := NewStatsTracker(nil)

	stats.Record("x", true, 100*time.Millisecond, "")
	stats.Record("x", false, 300*time.Millisecond, "boom")

	s := stats.Get("x")
	assert.Equal(t, 2, s.TotalCalls)
	assert.Equal(t, 1, s.SuccessfulCalls)
	assert.Equal(t, 1, s.FailedCalls)
	assert.Equal(t, 0.5, s.SuccessRate())
	assert.Equal(t, 200*time.Millisecond, s.AvgLatency)
	assert.Equal(t, []string{"boom"}, s.ErrorHistory)
}

func TestSuccessRateNeutralWithoutHistory(t *testing.T) {
	stats := NewStatsTracker(nil)
	assert.Equal(t, float64(-1), stats.Get("never_used").SuccessRate())
}
