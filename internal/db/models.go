package db

import (
	"time"
)

// User table. Owned by the account subsystem; the match engine only ever
// reads it.
type User struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement"`
	Email        string `gorm:"uniqueIndex;size:128;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	Active       bool   `gorm:"default:true;index"`
	Premium      bool   `gorm:"default:false"`
	Gender       string `gorm:"size:16;not null"`
	LastLoginAt  time.Time
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// Profile holds the matrimonial attributes scoring runs against, plus the
// display fields the match feed renders.
//
// Religion, EducationLevel, MaritalStatus, City and CareerSector are free
// strings compared with exact equality against the requester's preferences.
type Profile struct {
	UserID         uint64    `gorm:"primaryKey"`
	FullName       string    `gorm:"size:128;not null"`
	DateOfBirth    time.Time `gorm:"not null;index"`
	Religion       string    `gorm:"size:64"`
	EducationLevel string    `gorm:"size:64"`
	MaritalStatus  string    `gorm:"size:32"`
	City           string    `gorm:"size:64;index"`
	CareerSector   string    `gorm:"size:64"`
	PhotoURL       string    `gorm:"size:255"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`
}

// NoPreference is the sentinel stored when a member explicitly opted out of
// a criterion. An empty string means the same thing.
const NoPreference = "No Preference"

// PartnerPreference is the requester-side search criteria. One row per user.
//
// MinAge/MaxAge of zero mean unset; the scorer substitutes its 18-70
// defaults. String criteria set to "" or NoPreference are unconstrained.
type PartnerPreference struct {
	UserID          uint64 `gorm:"primaryKey"`
	PreferredGender string `gorm:"size:16"`
	MinAge          int
	MaxAge          int
	Religion        string    `gorm:"size:64"`
	EducationLevel  string    `gorm:"size:64"`
	MaritalStatus   string    `gorm:"size:32"`
	City            string    `gorm:"size:64"`
	CareerSector    string    `gorm:"size:64"`
	CreatedAt       time.Time `gorm:"autoCreateTime"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`
}

// ConnectionRequest records one user reaching out to another.
//
// Composite PK: (SenderID, ReceiverID) — a single row per directed pair.
// The connection subsystem owns the lifecycle; the engine only consults the
// table to keep already-contacted pairs out of scoring, in either direction.
type ConnectionRequest struct {
	SenderID   uint64    `gorm:"primaryKey;index:idx_receiver_sender,priority:2"`
	ReceiverID uint64    `gorm:"primaryKey;index:idx_receiver_sender,priority:1"`
	Status     string    `gorm:"size:16;not null;default:pending"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

// ProfileView records that a viewer opened a candidate's full profile.
// Viewed candidates are excluded from that viewer's future scoring passes.
type ProfileView struct {
	ViewerID uint64    `gorm:"primaryKey"`
	ViewedID uint64    `gorm:"primaryKey"`
	ViewedAt time.Time `gorm:"autoCreateTime"`
}
