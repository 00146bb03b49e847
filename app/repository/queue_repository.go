package repository

import (
	"context"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/CashFox/internal/pkg/cache"
)

const redisScanBatch = 500

// RedisKeyInfo describes one job queue or entitlement cache key.
type RedisKeyInfo struct {
	Key    string
	Type   string
	TTL    time.Duration
	Length int64
}

// queueRepository reads and prunes the Redis keys behind the reminder queue
// and the entitlement cache. A nil client means the process-wide one.
type queueRepository struct {
	client *redis.Client
}

func NewQueueRepository() QueueRepository {
	return &queueRepository{}
}

// NewQueueRepositoryWithClient binds the repository to a specific client.
func NewQueueRepositoryWithClient(client *redis.Client) QueueRepository {
	return &queueRepository{client: client}
}

func (r *queueRepository) rdb() *redis.Client {
	if r.client != nil {
		return r.client
	}
	return cache.GetClient()
}

// FindKeysByPatterns SCANs every pattern and returns the sorted union.
func (r *queueRepository) FindKeysByPatterns(ctx context.Context, patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}
		iter := r.rdb().Scan(ctx, 0, pattern, redisScanBatch).Iterator()
		for iter.Next(ctx) {
			seen[iter.Val()] = struct{}{}
		}
		if err := iter.Err(); err != nil {
			return nil, err
		}
	}

	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// Describe fetches type and TTL of all keys in one pipeline and list lengths
// in a second one. Keys that vanished in between are skipped.
func (r *queueRepository) Describe(ctx context.Context, keys []string) ([]RedisKeyInfo, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	pipe := r.rdb().Pipeline()
	types := make([]*redis.StatusCmd, len(keys))
	ttls := make([]*redis.DurationCmd, len(keys))
	for i, key := range keys {
		types[i] = pipe.Type(ctx, key)
		ttls[i] = pipe.TTL(ctx, key)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	infos := make([]RedisKeyInfo, 0, len(keys))
	lengths := make(map[int]*redis.IntCmd)
	lenPipe := r.rdb().Pipeline()
	for i, key := range keys {
		kind := types[i].Val()
		if kind == "none" {
			continue
		}
		info := RedisKeyInfo{Key: key, Type: kind, TTL: ttls[i].Val()}
		if kind == "list" {
			lengths[len(infos)] = lenPipe.LLen(ctx, key)
		}
		infos = append(infos, info)
	}
	if len(lengths) > 0 {
		if _, err := lenPipe.Exec(ctx); err != nil {
			return nil, err
		}
		for idx, cmd := range lengths {
			infos[idx].Length = cmd.Val()
		}
	}
	return infos, nil
}

// DeleteKeys removes keys in batches and returns how many existed.
func (r *queueRepository) DeleteKeys(ctx context.Context, keys []string) (int64, error) {
	var deleted int64
	for start := 0; start < len(keys); start += redisScanBatch {
		end := min(start+redisScanBatch, len(keys))
		n, err := r.rdb().Del(ctx, keys[start:end]...).Result()
		deleted += n
		if err != nil {
			return deleted, err
		}
	}
	return deleted, nil
}
