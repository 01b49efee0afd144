package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/rishtahub/match-engine/internal/db"
)

// Criterion weights. Additive and independent; a candidate matching
// everything while premium scores 115.
const (
	weightReligion       = 30
	weightEducation      = 20
	weightMaritalStatus  = 15
	weightCity           = 15
	weightCareerSector   = 15
	weightPremiumAccount = 20
)

// MaxCandidates caps a single scoring pass.
const MaxCandidates = 100

// ScoreQuery carries one requester's eligibility filter and weighted
// criteria into the candidate query.
//
// String criteria set to "" or db.NoPreference are unconstrained for the
// fields that allow it (religion, marital status, career sector) and simply
// unmatched for the exact-equality fields (education, city).
type ScoreQuery struct {
	RequesterID     uint64
	PreferredGender string
	MinAge          int
	MaxAge          int
	Religion        string
	EducationLevel  string
	MaritalStatus   string
	City            string
	CareerSector    string
}

// CandidateScore is one scored row out of the candidate query.
type CandidateScore struct {
	CandidateID uint64 `gorm:"column:candidate_id"`
	RawScore    int    `gorm:"column:raw_score"`
}

// CandidateRepository runs the eligibility + weighted-scoring query against
// the profile store.
type CandidateRepository struct {
	db *gorm.DB
}

// NewCandidateRepository creates a new repository bound to the given DB connection.
func NewCandidateRepository(database *gorm.DB) *CandidateRepository {
	return &CandidateRepository{db: database}
}

// FindScoredCandidates returns up to MaxCandidates eligible candidates for
// the requester, each with its weighted raw score, descending by score.
//
// Eligibility (all mandatory, applied before scoring):
//   - candidate account active and not the requester
//   - candidate gender equals the requester's preferred gender
//   - candidate age within [MinAge, MaxAge]
//   - no connection request between the pair, in either direction
//   - not already viewed by the requester
//
// Scoring is a single CASE-expression sum so the store does the ranking
// and truncation; an empty result is a valid outcome, not an error.
func (r *CandidateRepository) FindScoredCandidates(ctx context.Context, q ScoreQuery) ([]CandidateScore, error) {
	religion := normalizePreference(q.Religion)
	marital := normalizePreference(q.MaritalStatus)
	career := normalizePreference(q.CareerSector)

	// Age bounds as date-of-birth bounds, computed here so the SQL stays
	// dialect-portable (no TIMESTAMPDIFF).
	now := time.Now().UTC()
	earliestDOB := now.AddDate(-q.MaxAge-1, 0, 0) // exclusive: older than MaxAge
	latestDOB := now.AddDate(-q.MinAge, 0, 0)     // inclusive: at least MinAge

	var scores []CandidateScore
	err := r.db.WithContext(ctx).
		Table("users u").
		Select(`u.id AS candidate_id, (
			CASE WHEN ? = '' OR p.religion = ? THEN ? ELSE 0 END +
			CASE WHEN p.education_level = ? THEN ? ELSE 0 END +
			CASE WHEN ? = '' OR p.marital_status = ? THEN ? ELSE 0 END +
			CASE WHEN p.city = ? THEN ? ELSE 0 END +
			CASE WHEN ? = '' OR p.career_sector = ? THEN ? ELSE 0 END +
			CASE WHEN u.premium THEN ? ELSE 0 END
		) AS raw_score`,
			religion, religion, weightReligion,
			q.EducationLevel, weightEducation,
			marital, marital, weightMaritalStatus,
			q.City, weightCity,
			career, career, weightCareerSector,
			weightPremiumAccount,
		).
		Joins("JOIN profiles p ON p.user_id = u.id").
		Where("u.active = ?", true).
		Where("u.id <> ?", q.RequesterID).
		Where("u.gender = ?", q.PreferredGender).
		Where("p.date_of_birth > ? AND p.date_of_birth <= ?", earliestDOB, latestDOB).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM connection_requests cr
				WHERE (cr.sender_id = ? AND cr.receiver_id = u.id)
				   OR (cr.sender_id = u.id AND cr.receiver_id = ?)
			)`, q.RequesterID, q.RequesterID).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM profile_views pv
				WHERE pv.viewer_id = ? AND pv.viewed_id = u.id
			)`, q.RequesterID).
		Order("raw_score DESC, u.id ASC").
		Limit(MaxCandidates).
		Find(&scores).Error
	if err != nil {
		return nil, err
	}
	return scores, nil
}

// normalizePreference collapses the "No Preference" sentinel to the empty
// string the SQL tests against.
func normalizePreference(v string) string {
	if v == db.NoPreference {
		return ""
	}
	return v
}
