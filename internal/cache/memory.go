package cache

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/hirewire/matchengine/internal/domain"
)

const (
	shardCount = 16
	// maxShardEntries bounds memory growth for jobs that stop being queried.
	// TTL already bounds relevance; this bounds size.
	maxShardEntries = 512
)

type entry struct {
	result     *domain.MatchResult
	computedAt time.Time
}

type shard struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// MemoryCache is a sharded in-process TTL cache. Shards keep requests for
// unrelated job ids from contending on one lock.
type MemoryCache struct {
	ttl    time.Duration
	shards [shardCount]*shard
	now    func() time.Time
}

// NewMemory creates a MemoryCache with the given TTL. A non-positive TTL
// falls back to DefaultTTL.
func NewMemory(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &MemoryCache{ttl: ttl, now: time.Now}
	for i := range c.shards {
		c.shards[i] = &shard{entries: make(map[string]entry)}
	}
	return c
}

func (c *MemoryCache) shardFor(jobID string) *shard {
	h := fnv.New32a()
	h.Write([]byte(jobID))
	return c.shards[h.Sum32()%shardCount]
}

func (c *MemoryCache) Get(_ context.Context, jobID string) (*domain.MatchResult, bool) {
	s := c.shardFor(jobID)
	s.mu.RLock()
	e, ok := s.entries[jobID]
	s.mu.RUnlock()

	if !ok || c.now().Sub(e.computedAt) >= c.ttl {
		return nil, false
	}
	return e.result, true
}

func (c *MemoryCache) Put(_ context.Context, jobID string, result *domain.MatchResult) {
	s := c.shardFor(jobID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.entries) >= maxShardEntries {
		c.evictLocked(s)
	}
	s.entries[jobID] = entry{result: result, computedAt: c.now()}
}

func (c *MemoryCache) Invalidate(_ context.Context, jobID string) {
	s := c.shardFor(jobID)
	s.mu.Lock()
	delete(s.entries, jobID)
	s.mu.Unlock()
}

// evictLocked drops expired entries first, then the oldest live one if the
// shard is still full. Caller holds the shard write lock.
func (c *MemoryCache) evictLocked(s *shard) {
	now := c.now()
	oldestKey := ""
	var oldestAt time.Time

	for key, e := range s.entries {
		if now.Sub(e.computedAt) >= c.ttl {
			delete(s.entries, key)
			continue
		}
		if oldestKey == "" || e.computedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = e.computedAt
		}
	}

	if len(s.entries) >= maxShardEntries && oldestKey != "" {
		delete(s.entries, oldestKey)
	}
}
