package tools

import (
	"context"
	"sync"
	"time"

	"github.com/gobapps/emma-core/internal/agent/model"
	logx "github.com/gobapps/emma-core/pkg/logger"
)

const maxErrorHistory = 10

// StatsStore persists usage statistics outside the process. Both methods
// are best-effort: callers swallow and log failures.
type StatsStore interface {
	Load(ctx context.Context) (map[string]model.UsageStats, error)
	Save(ctx context.Context, toolID string, stats model.UsageStats) error
}

// StatsTracker is the in-process source of truth for tool usage stats.
// Concurrent requests interleave updates; counters are soft scoring signals
// so lost updates under contention are acceptable, corruption is not.
type StatsTracker struct {
	mu    sync.Mutex
	stats map[string]model.UsageStats
	store StatsStore
}

// NewStatsTracker creates a tracker. store may be nil for ephemeral stats.
func NewStatsTracker(store StatsStore) *StatsTracker {
	return &StatsTracker{stats: map[string]model.UsageStats{}, store: store}
}

// LoadPersisted seeds the tracker from the store. Failures leave the
// tracker empty; scoring then treats every tool as history-less.
func (t *StatsTracker) LoadPersisted(ctx context.Context) {
	if t.store == nil {
		return
	}
	loaded, err := t.store.Load(ctx)
	if err != nil {
		logx.Warn().Err(err).Msg("loading tool stats failed, starting fresh")
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, s := range loaded {
		t.stats[id] = s
	}
}

// Record folds one execution outcome into the stats and kicks off a
// best-effort async save.
func (t *StatsTracker) Record(toolID string, success bool, latency time.Duration, errMsg string) {
	t.mu.Lock()
	s := t.stats[toolID]
	s.TotalCalls++
	if success {
		s.SuccessfulCalls++
		s.LastUsed = time.Now().UTC()
	} else {
		s.FailedCalls++
		if errMsg != "" {
			s.ErrorHistory = append(s.ErrorHistory, errMsg)
			if len(s.ErrorHistory) > maxErrorHistory {
				s.ErrorHistory = s.ErrorHistory[len(s.ErrorHistory)-maxErrorHistory:]
			}
		}
	}
	// Cumulative moving average keeps the update O(1).
	s.AvgLatency += (latency - s.AvgLatency) / time.Duration(s.TotalCalls)
	t.stats[toolID] = s
	snapshot := s
	t.mu.Unlock()

	if t.store == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := t.store.Save(ctx, toolID, snapshot); err != nil {
			logx.Warn().Err(err).Str("tool", toolID).Msg("saving tool stats failed")
		}
	}()
}

// Get returns the stats for one tool; the zero value means no history.
func (t *StatsTracker) Get(toolID string) model.UsageStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats[toolID]
}
