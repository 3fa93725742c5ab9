// Package cache provides a read-through cache for feature sets and
// decision log entries, backed by Redis or an in-memory map for tests
// and offline runs.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/sawpanic/tradingcore/internal/domain/core"
)

// Manager is the cache surface the orchestrator's infrastructure
// layer reads/writes feature sets and decision logs through.
type Manager interface {
	GetFeatures(ctx context.Context, symbol string, ts time.Time) (core.FeatureSet, bool, error)
	SetFeatures(ctx context.Context, fs core.FeatureSet, ttl time.Duration) error
	GetDecisionLog(ctx context.Context, symbol string, ts time.Time) (core.DecisionLog, bool, error)
	SetDecisionLog(ctx context.Context, entry core.DecisionLog, ttl time.Duration) error
	Stats() Stats
	Health(ctx context.Context) bool
	Close() error
}

// Stats is a flat cache-performance summary.
type Stats struct {
	Hits    int64
	Misses  int64
	Sets    int64
	Errors  int64
	HitRate float64
}

func featureKey(symbol string, ts time.Time) string {
	return fmt.Sprintf("features:%s:%d", symbol, ts.Unix())
}

func decisionKey(symbol string, ts time.Time) string {
	return fmt.Sprintf("decision:%s:%d", symbol, ts.Unix())
}

// RedisManager implements Manager against a Redis server.
type RedisManager struct {
	client *redis.Client
	stats  Stats
}

// NewRedisManager dials eagerly and returns an error if the server is
// unreachable, so config errors surface at startup rather than on the
// first cache miss.
func NewRedisManager(addr, password string, db int) (*RedisManager, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     10,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &RedisManager{client: client}, nil
}

func (r *RedisManager) get(ctx context.Context, key string, out interface{}) (bool, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			r.stats.Misses++
			r.updateHitRate()
			return false, nil
		}
		r.stats.Errors++
		return false, fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		r.stats.Errors++
		return false, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	r.stats.Hits++
	r.updateHitRate()
	return true, nil
}

func (r *RedisManager) set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		r.stats.Errors++
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	r.stats.Sets++
	return nil
}

// GetFeatures reads a previously cached feature set for symbol at ts.
func (r *RedisManager) GetFeatures(ctx context.Context, symbol string, ts time.Time) (core.FeatureSet, bool, error) {
	var fs core.FeatureSet
	found, err := r.get(ctx, featureKey(symbol, ts), &fs)
	return fs, found, err
}

// SetFeatures caches a feature set with ttl.
func (r *RedisManager) SetFeatures(ctx context.Context, fs core.FeatureSet, ttl time.Duration) error {
	return r.set(ctx, featureKey(fs.Symbol, fs.Timestamp), fs, ttl)
}

// GetDecisionLog reads a previously cached decision log entry.
func (r *RedisManager) GetDecisionLog(ctx context.Context, symbol string, ts time.Time) (core.DecisionLog, bool, error) {
	var entry core.DecisionLog
	found, err := r.get(ctx, decisionKey(symbol, ts), &entry)
	return entry, found, err
}

// SetDecisionLog caches a decision log entry with ttl.
func (r *RedisManager) SetDecisionLog(ctx context.Context, entry core.DecisionLog, ttl time.Duration) error {
	return r.set(ctx, decisionKey(entry.Symbol, entry.Timestamp), entry, ttl)
}

// Stats returns the running hit/miss/set/error counters.
func (r *RedisManager) Stats() Stats { return r.stats }

// Health pings the Redis server.
func (r *RedisManager) Health(ctx context.Context) bool {
	return r.client.Ping(ctx).Err() == nil
}

// Close closes the underlying Redis connection.
func (r *RedisManager) Close() error { return r.client.Close() }

func (r *RedisManager) updateHitRate() {
	total := r.stats.Hits + r.stats.Misses
	if total > 0 {
		r.stats.HitRate = float64(r.stats.Hits) / float64(total)
	}
}
