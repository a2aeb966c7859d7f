package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/careerbridge/careerbridge-backend/internal/pkg/logger"
	"github.com/careerbridge/careerbridge-backend/internal/types"
)

const progressKeyPrefix = "progress:"

// ProgressCache is a best-effort read-through cache for progress records.
// Misses and redis failures both fall through to the store; a failed cache
// write is logged and ignored.
type ProgressCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func NewProgressCache(log *logger.Logger) (*ProgressCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	ttl := 10 * time.Minute
	if raw := strings.TrimSpace(os.Getenv("PROGRESS_CACHE_TTL")); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("bad PROGRESS_CACHE_TTL: %w", err)
		}
		ttl = parsed
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &ProgressCache{
		log: log.With("service", "ProgressCache"),
		rdb: rdb,
		ttl: ttl,
	}, nil
}

func (c *ProgressCache) Get(ctx context.Context, userID uuid.UUID) (*types.ProgressRecord, bool) {
	raw, err := c.rdb.Get(ctx, progressKeyPrefix+userID.String()).Bytes()
	if err == goredis.Nil {
		return nil, false
	}
	if err != nil {
		c.log.Warn("Progress cache read failed", "userID", userID, "error", err)
		return nil, false
	}
	rec, err := types.DecodeProgress(raw)
	if err != nil {
		c.log.Warn("Dropping undecodable cached progress", "userID", userID, "error", err)
		return nil, false
	}
	return rec, true
}

func (c *ProgressCache) Set(ctx context.Context, userID uuid.UUID, rec *types.ProgressRecord) {
	raw, err := json.Marshal(rec)
	if err != nil {
		c.log.Warn("Failed to encode progress for cache", "userID", userID, "error", err)
		return
	}
	if err := c.rdb.Set(ctx, progressKeyPrefix+userID.String(), raw, c.ttl).Err(); err != nil {
		c.log.Warn("Progress cache write failed", "userID", userID, "error", err)
	}
}

func (c *ProgressCache) Invalidate(ctx context.Context, userID uuid.UUID) {
	if err := c.rdb.Del(ctx, progressKeyPrefix+userID.String()).Err(); err != nil {
		c.log.Warn("Progress cache invalidation failed", "userID", userID, "error", err)
	}
}

func (c *ProgressCache) Close() error {
	return c.rdb.Close()
}
