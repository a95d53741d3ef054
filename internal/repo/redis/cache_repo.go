package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	goredis "github.com/redis/go-redis/v9"

	"github.com/ivankudzin/kinmatch/internal/domain/model"
)

const discoveryKeyPrefix = "discovery:v1:"

type CacheRepo struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewCacheRepo(client *goredis.Client, ttl time.Duration) *CacheRepo {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CacheRepo{client: client, ttl: ttl}
}

// GetDiscovery reports found=false on a miss.
func (r *CacheRepo) GetDiscovery(ctx context.Context, userID int64) ([]model.CandidateSummary, bool, error) {
	if r.client == nil {
		return nil, false, nil
	}

	raw, err := r.client.Get(ctx, discoveryKey(userID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get discovery cache: %w", err)
	}

	var items []model.CandidateSummary
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false, fmt.Errorf("decode discovery cache: %w", err)
	}
	return items, true, nil
}

func (r *CacheRepo) SetDiscovery(ctx context.Context, userID int64, items []model.CandidateSummary) error {
	if r.client == nil {
		return nil
	}
	if items == nil {
		items = []model.CandidateSummary{}
	}

	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode discovery cache: %w", err)
	}
	if err := r.client.Set(ctx, discoveryKey(userID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("set discovery cache: %w", err)
	}
	return nil
}

func (r *CacheRepo) Invalidate(ctx context.Context, userIDs ...int64) error {
	if r.client == nil || len(userIDs) == 0 {
		return nil
	}

	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, discoveryKey(id))
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("invalidate discovery cache: %w", err)
	}
	return nil
}

func discoveryKey(userID int64) string {
	return discoveryKeyPrefix + strconv.FormatInt(userID, 10)
}
