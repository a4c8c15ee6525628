package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/gobapps/emma-core/internal/agent/model"
	"github.com/gobapps/emma-core/internal/agent/tools"
	errx "github.com/gobapps/emma-core/internal/core/error"
	logx "github.com/gobapps/emma-core/pkg/logger"
)

const statsKey = "tools:usage_stats"

// RedisStatsStore persists per-tool usage statistics in a Redis hash keyed
// by tool ID. Stats are soft signals, so callers tolerate stale reads.
type RedisStatsStore struct {
	rdb redis.Cmdable
}

func NewRedisStatsStore(rdb redis.Cmdable) *RedisStatsStore {
	return &RedisStatsStore{rdb: rdb}
}

func (r *RedisStatsStore) Load(ctx context.Context) (map[string]model.UsageStats, error) {
	rows, err := r.rdb.HGetAll(ctx, statsKey).Result()
	if err != nil {
		if err == redis.Nil {
			return map[string]model.UsageStats{}, nil
		}
		logx.Error().Err(err).Str("key", statsKey).Msg("failed to load tool stats from redis")
		return nil, errx.WrapRedis(err)
	}

	out := make(map[string]model.UsageStats, len(rows))
	for toolID, raw := range rows {
		var s model.UsageStats
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			logx.Warn().Err(err).Str("toolID", toolID).Msg("skipping corrupt tool stats entry")
			continue
		}
		out[toolID] = s
	}
	return out, nil
}

func (r *RedisStatsStore) Save(ctx context.Context, toolID string, stats model.UsageStats) error {
	b, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal stats for %s: %w", toolID, err)
	}
	if err := r.rdb.HSet(ctx, statsKey, toolID, b).Err(); err != nil {
		logx.Error().Err(err).Str("toolID", toolID).Msg("failed to save tool stats to redis")
		return errx.WrapRedis(err)
	}
	return nil
}

var _ tools.StatsStore = (*RedisStatsStore)(nil)
