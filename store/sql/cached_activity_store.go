package sqlstore

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"

	repositorycache "github.com/goliatone/go-repository-cache/cache"

	"github.com/goliatone/go-autohub/core"
)

const activityCacheKeyPrefix = "go-autohub::activity::v1"

// CachedActivityStore serves recent-activity reads through a cache. Each
// write bumps a per-table generation stamped into the cache keys, so every
// limit-variant page goes stale at once; superseded entries age out by TTL.
type CachedActivityStore struct {
	base  *ActivityStore
	cache repositorycache.CacheService

	webhookGen atomic.Uint64
	actionGen  atomic.Uint64
}

func NewCachedActivityStore(base *ActivityStore, cacheService repositorycache.CacheService) (*CachedActivityStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base activity store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: activity cache service is required")
	}
	return &CachedActivityStore{base: base, cache: cacheService}, nil
}

func (s *CachedActivityStore) webhookEventsCacheKey(limit int) string {
	return activityCacheKeyPrefix + "::webhook_events::g" +
		strconv.FormatUint(s.webhookGen.Load(), 10) + "::" + strconv.Itoa(limit)
}

func (s *CachedActivityStore) actionRunsCacheKey(limit int) string {
	return activityCacheKeyPrefix + "::action_runs::g" +
		strconv.FormatUint(s.actionGen.Load(), 10) + "::" + strconv.Itoa(limit)
}

func (s *CachedActivityStore) RecordWebhookEvent(ctx context.Context, in core.WebhookEventActivity) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached activity store is not configured")
	}
	if err := s.base.RecordWebhookEvent(ctx, in); err != nil {
		return err
	}
	s.webhookGen.Add(1)
	return nil
}

func (s *CachedActivityStore) RecordActionRun(ctx context.Context, in core.ActionRunActivity) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached activity store is not configured")
	}
	if err := s.base.RecordActionRun(ctx, in); err != nil {
		return err
	}
	s.actionGen.Add(1)
	return nil
}

func (s *CachedActivityStore) RecentWebhookEvents(ctx context.Context, limit int) ([]core.WebhookEventActivity, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return nil, fmt.Errorf("sqlstore: cached activity store is not configured")
	}
	if limit <= 0 {
		limit = 25
	}
	return repositorycache.GetOrFetch(ctx, s.cache, s.webhookEventsCacheKey(limit), func(ctx context.Context) ([]core.WebhookEventActivity, error) {
		return s.base.RecentWebhookEvents(ctx, limit)
	})
}

func (s *CachedActivityStore) RecentActionRuns(ctx context.Context, limit int) ([]core.ActionRunActivity, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return nil, fmt.Errorf("sqlstore: cached activity store is not configured")
	}
	if limit <= 0 {
		limit = 25
	}
	return repositorycache.GetOrFetch(ctx, s.cache, s.actionRunsCacheKey(limit), func(ctx context.Context) ([]core.ActionRunActivity, error) {
		return s.base.RecentActionRuns(ctx, limit)
	})
}

var _ core.ActivityRecorder = (*CachedActivityStore)(nil)
