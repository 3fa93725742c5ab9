package cache

import (
	"context"
	"time"

	"github.com/sawpanic/tradingcore/internal/domain/core"
)

type memoryEntry struct {
	expiresAt time.Time
	features  core.FeatureSet
	decision  core.DecisionLog
}

// InMemoryManager is a map-backed Manager for tests and offline runs
// with no Redis dependency.
type InMemoryManager struct {
	features  map[string]memoryEntry
	decisions map[string]memoryEntry
	stats     Stats
}

// NewInMemoryManager constructs an empty in-memory cache.
func NewInMemoryManager() *InMemoryManager {
	return &InMemoryManager{
		features:  make(map[string]memoryEntry),
		decisions: make(map[string]memoryEntry),
	}
}

// GetFeatures reads a previously cached feature set for symbol at ts.
func (m *InMemoryManager) GetFeatures(ctx context.Context, symbol string, ts time.Time) (core.FeatureSet, bool, error) {
	entry, ok := m.features[featureKey(symbol, ts)]
	if !ok || time.Now().After(entry.expiresAt) {
		m.stats.Misses++
		m.updateHitRate()
		return core.FeatureSet{}, false, nil
	}
	m.stats.Hits++
	m.updateHitRate()
	return entry.features, true, nil
}

// SetFeatures caches a feature set with ttl.
func (m *InMemoryManager) SetFeatures(ctx context.Context, fs core.FeatureSet, ttl time.Duration) error {
	m.features[featureKey(fs.Symbol, fs.Timestamp)] = memoryEntry{
		expiresAt: time.Now().Add(ttl),
		features:  fs,
	}
	m.stats.Sets++
	return nil
}

// GetDecisionLog reads a previously cached decision log entry.
func (m *InMemoryManager) GetDecisionLog(ctx context.Context, symbol string, ts time.Time) (core.DecisionLog, bool, error) {
	entry, ok := m.decisions[decisionKey(symbol, ts)]
	if !ok || time.Now().After(entry.expiresAt) {
		m.stats.Misses++
		m.updateHitRate()
		return core.DecisionLog{}, false, nil
	}
	m.stats.Hits++
	m.updateHitRate()
	return entry.decision, true, nil
}

// SetDecisionLog caches a decision log entry with ttl.
func (m *InMemoryManager) SetDecisionLog(ctx context.Context, entry core.DecisionLog, ttl time.Duration) error {
	m.decisions[decisionKey(entry.Symbol, entry.Timestamp)] = memoryEntry{
		expiresAt: time.Now().Add(ttl),
		decision:  entry,
	}
	m.stats.Sets++
	return nil
}

// Stats returns the running hit/miss/set counters.
func (m *InMemoryManager) Stats() Stats { return m.stats }

// Health always returns true for the in-memory cache.
func (m *InMemoryManager) Health(ctx context.Context) bool { return true }

// Close is a no-op for the in-memory cache.
func (m *InMemoryManager) Close() error { return nil }

func (m *InMemoryManager) updateHitRate() {
	total := m.stats.Hits + m.stats.Misses
	if total > 0 {
		m.stats.HitRate = float64(m.stats.Hits) / float64(total)
	}
}
