package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rishtahub/match-engine/internal/cache"
	"github.com/rishtahub/match-engine/internal/repository"
)

// MatchSummary is one row of a match feed page: the candidate's display
// fields plus the final score it ranked under.
type MatchSummary struct {
	UserID   uint64
	FullName string
	Age      int
	City     string
	PhotoURL string
	Score    float64
}

// Reader serves paginated, descending-rank reads of a user's cached match
// set, joining display fields from the profile store.
type Reader struct {
	cache *cache.RedisCache
	users *repository.UserRepository
	log   *slog.Logger
}

// NewReader wires the reader against the ranked cache and the profile store.
func NewReader(matchCache *cache.RedisCache, users *repository.UserRepository, log *slog.Logger) *Reader {
	return &Reader{cache: matchCache, users: users, log: log}
}

// Read returns one page of the user's ranked matches, highest final score
// first, plus the current total cardinality of the entry regardless of the
// page requested.
//
// An absent or expired entry reads as ([], 0) with no error. Score ties
// break in store order, which is stable enough within one instance but not
// contractual. Candidate ids whose profile no longer resolves are skipped;
// the profile store may lag deletes.
func (r *Reader) Read(ctx context.Context, userID uint64, offset, limit int64) ([]MatchSummary, int64, error) {
	total, err := r.cache.MatchCount(ctx, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: counting matches for user %d: %v", ErrCacheUnavailable, userID, err)
	}
	if total == 0 {
		return nil, 0, nil
	}

	entries, err := r.cache.TopMatches(ctx, userID, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: reading matches for user %d: %v", ErrCacheUnavailable, userID, err)
	}
	if len(entries) == 0 {
		return nil, total, nil
	}

	ids := make([]uint64, len(entries))
	for i, e := range entries {
		ids[i] = e.CandidateID
	}
	profiles, err := r.users.DisplayProfiles(ctx, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("reading display profiles for user %d: %w", userID, err)
	}

	now := time.Now().UTC()
	summaries := make([]MatchSummary, 0, len(entries))
	for _, e := range entries {
		p, ok := profiles[e.CandidateID]
		if !ok {
			r.log.Warn("cached candidate has no profile, skipping", "user_id", userID, "candidate_id", e.CandidateID)
			continue
		}
		summaries = append(summaries, MatchSummary{
			UserID:   p.UserID,
			FullName: p.FullName,
			Age:      p.Age(now),
			City:     p.City,
			PhotoURL: p.PhotoURL,
			Score:    e.Score,
		})
	}
	return summaries, total, nil
}
