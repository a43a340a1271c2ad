// Package cache provides the per-job result cache that shields the generative
// matching strategy from recomputation inside a TTL window.
package cache

import (
	"context"
	"time"

	"github.com/hirewire/matchengine/internal/domain"
)

// DefaultTTL is the freshness window applied when no TTL is configured.
const DefaultTTL = 30 * time.Minute

// Cache stores match results per job id. Implementations must be safe for
// concurrent use; requests for different job ids must not serialize on a
// single lock. Entries are always replaced whole, so last-write-wins on a
// concurrent Put for the same key is acceptable.
type Cache interface {
	// Get returns the cached result for jobID, or false when the entry is
	// absent or older than the TTL.
	Get(ctx context.Context, jobID string) (*domain.MatchResult, bool)
	// Put unconditionally overwrites the entry for jobID.
	Put(ctx context.Context, jobID string, result *domain.MatchResult)
	// Invalidate drops the entry for jobID, forcing the next Get to miss.
	Invalidate(ctx context.Context, jobID string)
}
