package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/rishtahub/match-engine/internal/db"
)

// DisplayProfile is the minimal projection the match feed renders per
// candidate.
type DisplayProfile struct {
	UserID      uint64    `gorm:"column:user_id"`
	FullName    string    `gorm:"column:full_name"`
	DateOfBirth time.Time `gorm:"column:date_of_birth"`
	City        string    `gorm:"column:city"`
	PhotoURL    string    `gorm:"column:photo_url"`
}

// Age derives the candidate's age in whole years at the given instant.
func (p DisplayProfile) Age(at time.Time) int {
	years := at.Year() - p.DateOfBirth.Year()
	if at.YearDay() < p.DateOfBirth.YearDay() {
		years--
	}
	return years
}

// UserRepository provides the read-only account/profile lookups the engine
// needs: id-ordered paging for the batch run, preference and premium reads
// for scoring and materialization, display projections for the feed.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new repository bound to the given DB connection.
func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// GetUser loads a single user row.
func (r *UserRepository) GetUser(ctx context.Context, userID uint64) (db.User, error) {
	var u db.User
	err := r.db.WithContext(ctx).First(&u, "id = ?", userID).Error
	return u, err
}

// ListUsers returns one fixed-size page of users ordered by id. The caller
// pages by bumping offset until a short page comes back.
func (r *UserRepository) ListUsers(ctx context.Context, offset, limit int) ([]db.User, error) {
	var users []db.User
	err := r.db.WithContext(ctx).
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&users).Error
	return users, err
}

// GetPreference loads the requester's partner preference row.
// A missing row is reported as (zero value, false, nil), not an error.
func (r *UserRepository) GetPreference(ctx context.Context, userID uint64) (db.PartnerPreference, bool, error) {
	var pref db.PartnerPreference
	err := r.db.WithContext(ctx).First(&pref, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return db.PartnerPreference{}, false, nil
	}
	if err != nil {
		return db.PartnerPreference{}, false, err
	}
	return pref, true, nil
}

// PremiumUserIDs filters the given ids down to those whose account is
// currently flagged premium.
func (r *UserRepository) PremiumUserIDs(ctx context.Context, userIDs []uint64) (map[uint64]bool, error) {
	premium := make(map[uint64]bool, len(userIDs))
	if len(userIDs) == 0 {
		return premium, nil
	}

	var ids []uint64
	err := r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("id IN ? AND premium = ?", userIDs, true).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		premium[id] = true
	}
	return premium, nil
}

// DisplayProfiles loads the feed projection for the given candidate ids,
// keyed by user id. Ids with no profile row are simply absent from the map.
func (r *UserRepository) DisplayProfiles(ctx context.Context, userIDs []uint64) (map[uint64]DisplayProfile, error) {
	profiles := make(map[uint64]DisplayProfile, len(userIDs))
	if len(userIDs) == 0 {
		return profiles, nil
	}

	var rows []DisplayProfile
	err := r.db.WithContext(ctx).
		Table("profiles").
		Select("user_id, full_name, date_of_birth, city, photo_url").
		Where("user_id IN ?", userIDs).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, p := range rows {
		profiles[p.UserID] = p
	}
	return profiles, nil
}
