package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/rishtahub/match-engine/internal/cache"
	"github.com/rishtahub/match-engine/internal/db"
	"github.com/rishtahub/match-engine/internal/repository"
)

const (
	// Daily working-set quotas by tier.
	FreeSelectionSize    = 20
	PremiumSelectionSize = 40

	// PremiumBoost is added to each selected candidate's raw score when
	// that candidate's own account is premium at materialization time.
	// The raw score may already carry the premium criterion weight; the
	// double count is intentional tiering, so it stays.
	PremiumBoost = 20

	// CacheTTL is how long a materialized entry serves reads before it is
	// treated as absent.
	CacheTTL = 24 * time.Hour
)

// Materializer turns a scored candidate list into the user's ranked cache
// entry: shuffle, cut to the tier quota, apply the premium boost, replace
// the entry wholesale with a fresh TTL.
type Materializer struct {
	users *repository.UserRepository
	cache *cache.RedisCache
	log   *slog.Logger
}

// NewMaterializer wires the materializer against the profile store (for the
// premium re-read) and the ranked cache.
func NewMaterializer(users *repository.UserRepository, matchCache *cache.RedisCache, log *slog.Logger) *Materializer {
	return &Materializer{users: users, cache: matchCache, log: log}
}

// Materialize overwrites the user's ranked cache entry with a freshly
// selected working set. Idempotent per invocation: the previous entry is
// replaced wholesale, never merged.
//
// An empty candidate list is a successful no-op that leaves no entry behind.
// The shuffle breaks score-tie ordering so near-equal candidates rotate
// across refreshes.
func (m *Materializer) Materialize(ctx context.Context, user db.User, candidates []repository.CandidateScore) error {
	if len(candidates) == 0 {
		m.log.Debug("no eligible candidates, skipping cache write", "user_id", user.ID)
		return nil
	}

	pool := make([]repository.CandidateScore, len(candidates))
	copy(pool, candidates)
	rand.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})

	quota := FreeSelectionSize
	if user.Premium {
		quota = PremiumSelectionSize
	}
	if len(pool) > quota {
		pool = pool[:quota]
	}

	ids := make([]uint64, len(pool))
	for i, c := range pool {
		ids[i] = c.CandidateID
	}
	// Second read, deliberately: the boost reflects each candidate's
	// premium flag as of now, not as of scoring time.
	premium, err := m.users.PremiumUserIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("%w: premium lookup for user %d: %v", ErrCacheWriteFailed, user.ID, err)
	}

	entries := make([]cache.ScoredEntry, len(pool))
	for i, c := range pool {
		final := float64(c.RawScore)
		if premium[c.CandidateID] {
			final += PremiumBoost
		}
		entries[i] = cache.ScoredEntry{CandidateID: c.CandidateID, Score: final}
	}

	if err := m.cache.ReplaceMatches(ctx, user.ID, entries, CacheTTL); err != nil {
		return fmt.Errorf("%w: user %d: %v", ErrCacheWriteFailed, user.ID, err)
	}

	m.log.Debug("materialized match cache", "user_id", user.ID, "entries", len(entries), "premium", user.Premium)
	return nil
}
