package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rishtahub/match-engine/internal/db"
	"github.com/rishtahub/match-engine/internal/repository"
)

// Age-range defaults applied when the requester's preference leaves the
// bounds unset.
const (
	DefaultMinAge = 18
	DefaultMaxAge = 70
)

// Scorer produces a requester's scored candidate list: it resolves the
// partner preference into a ScoreQuery and delegates ranking to the
// candidate query.
type Scorer struct {
	users      *repository.UserRepository
	candidates *repository.CandidateRepository
	log        *slog.Logger
}

// NewScorer wires the scorer against the profile store repositories.
func NewScorer(users *repository.UserRepository, candidates *repository.CandidateRepository, log *slog.Logger) *Scorer {
	return &Scorer{users: users, candidates: candidates, log: log}
}

// Score returns up to repository.MaxCandidates scored candidates for the
// user, descending by raw score. An empty slice means no eligible
// candidates, which is a normal outcome.
//
// Any store failure surfaces as ErrScoringUnavailable; the result is then
// nil, never partial.
func (s *Scorer) Score(ctx context.Context, user db.User) ([]repository.CandidateScore, error) {
	pref, found, err := s.users.GetPreference(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: loading preference for user %d: %v", ErrScoringUnavailable, user.ID, err)
	}

	q := buildScoreQuery(user, pref, found)

	scores, err := s.candidates.FindScoredCandidates(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%w: candidate query for user %d: %v", ErrScoringUnavailable, user.ID, err)
	}

	s.log.Debug("scored candidates", "user_id", user.ID, "count", len(scores))
	return scores, nil
}

// buildScoreQuery folds the preference row into query criteria, filling the
// gaps: 18-70 when the age bounds are unset, and the opposite of the
// requester's own gender when no preference row exists at all.
func buildScoreQuery(user db.User, pref db.PartnerPreference, found bool) repository.ScoreQuery {
	q := repository.ScoreQuery{
		RequesterID: user.ID,
		MinAge:      DefaultMinAge,
		MaxAge:      DefaultMaxAge,
	}
	if !found {
		q.PreferredGender = oppositeGender(user.Gender)
		return q
	}

	q.PreferredGender = pref.PreferredGender
	if q.PreferredGender == "" {
		q.PreferredGender = oppositeGender(user.Gender)
	}
	if pref.MinAge > 0 {
		q.MinAge = pref.MinAge
	}
	if pref.MaxAge > 0 {
		q.MaxAge = pref.MaxAge
	}
	q.Religion = pref.Religion
	q.EducationLevel = pref.EducationLevel
	q.MaritalStatus = pref.MaritalStatus
	q.City = pref.City
	q.CareerSector = pref.CareerSector
	return q
}

func oppositeGender(g string) string {
	if g == "male" {
		return "female"
	}
	return "male"
}
