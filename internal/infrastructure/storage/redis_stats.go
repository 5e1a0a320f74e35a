package storage

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/redis/go-redis/v9"

	"Factulist/internal/domain"
	"Factulist/internal/ports"
)

const defaultRedisPrefix = "factulist"

// RedisStatsRepository keeps one hash of label counts per domain plus a set of known domains.
type RedisStatsRepository struct {
	client redis.Cmdable
	prefix string
}

var _ ports.SourceStatsRepository = (*RedisStatsRepository)(nil)

// NewRedisStatsRepository namespaces keys under prefix.
func NewRedisStatsRepository(client redis.Cmdable, prefix string) *RedisStatsRepository {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStatsRepository{client: client, prefix: prefix}
}

// Increment relies on HINCRBY being atomic; the domain set update shares the MULTI block.
func (r *RedisStatsRepository) Increment(ctx context.Context, d, label string) (domain.SourceStats, error) {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, r.domainKey(d), label, 1)
		pipe.SAdd(ctx, r.domainsKey(), d)
		return nil
	})
	if err != nil {
		return domain.SourceStats{}, fmt.Errorf("increment %s/%s: %w", d, label, err)
	}

	stats, _, err := r.Get(ctx, d)
	return stats, err
}

// Get reads the hash for one domain.
func (r *RedisStatsRepository) Get(ctx context.Context, d string) (domain.SourceStats, bool, error) {
	raw, err := r.client.HGetAll(ctx, r.domainKey(d)).Result()
	if err != nil {
		return domain.SourceStats{}, false, fmt.Errorf("read stats %s: %w", d, err)
	}
	if len(raw) == 0 {
		return domain.SourceStats{}, false, nil
	}

	counts := make(map[string]int, len(raw))
	for label, value := range raw {
		n, err := strconv.Atoi(value)
		if err != nil {
			return domain.SourceStats{}, false, fmt.Errorf("stats %s/%s: %w", d, label, err)
		}
		counts[label] = n
	}
	return domain.SourceStats{Domain: d, Counts: counts}, true, nil
}

// All returns every known domain ordered by name.
func (r *RedisStatsRepository) All(ctx context.Context) ([]domain.SourceStats, error) {
	domains, err := r.client.SMembers(ctx, r.domainsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list domains: %w", err)
	}
	sort.Strings(domains)

	out := make([]domain.SourceStats, 0, len(domains))
	for _, d := range domains {
		stats, ok, err := r.Get(ctx, d)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, stats)
		}
	}
	return out, nil
}

func (r *RedisStatsRepository) domainKey(d string) string {
	return r.prefix + ":source:" + d
}

func (r *RedisStatsRepository) domainsKey() string {
	return r.prefix + ":sources"
}
