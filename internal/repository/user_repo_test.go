package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rishtahub/match-engine/internal/db"
	"github.com/rishtahub/match-engine/internal/repository"
)

func TestListUsers_PagesInIDOrder(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	repo := repository.NewUserRepository(gdb)

	for i := uint64(1); i <= 7; i++ {
		require.NoError(t, gdb.Create(&db.User{
			ID: i, Email: fmt.Sprintf("user%d@test.com", i), PasswordHash: "x", Gender: "male", Active: true,
		}).Error)
	}

	page1, err := repo.ListUsers(ctx, 0, 3)
	require.NoError(t, err)
	require.Len(t, page1, 3)
	assert.Equal(t, uint64(1), page1[0].ID)
	assert.Equal(t, uint64(3), page1[2].ID)

	page3, err := repo.ListUsers(ctx, 6, 3)
	require.NoError(t, err)
	require.Len(t, page3, 1)
	assert.Equal(t, uint64(7), page3[0].ID)

	empty, err := repo.ListUsers(ctx, 9, 3)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestGetPreference_MissingRowIsNotAnError(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	repo := repository.NewUserRepository(gdb)

	_, found, err := repo.GetPreference(ctx, 42)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, gdb.Create(&db.PartnerPreference{
		UserID: 42, PreferredGender: "female", MinAge: 21, MaxAge: 35, Religion: "Hindu",
	}).Error)

	pref, found, err := repo.GetPreference(ctx, 42)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Hindu", pref.Religion)
	assert.Equal(t, 21, pref.MinAge)
}

func TestPremiumUserIDs(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	repo := repository.NewUserRepository(gdb)

	seedCandidate(t, gdb, 1, "female", 25, true, true, db.Profile{})
	seedCandidate(t, gdb, 2, "female", 25, true, false, db.Profile{})
	seedCandidate(t, gdb, 3, "female", 25, true, true, db.Profile{})

	premium, err := repo.PremiumUserIDs(ctx, []uint64{1, 2, 3, 99})
	require.NoError(t, err)
	assert.True(t, premium[1])
	assert.False(t, premium[2])
	assert.True(t, premium[3])
	assert.False(t, premium[99])

	none, err := repo.PremiumUserIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDisplayProfiles_SkipsUnknownIDs(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	repo := repository.NewUserRepository(gdb)

	seedCandidate(t, gdb, 1, "female", 25, true, false, db.Profile{
		FullName: "Asha", City: "Mumbai", PhotoURL: "https://cdn.example/1.jpg",
	})

	profiles, err := repo.DisplayProfiles(ctx, []uint64{1, 404})
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, "Asha", profiles[1].FullName)
	assert.Equal(t, "Mumbai", profiles[1].City)
}

func TestDisplayProfile_Age(t *testing.T) {
	now := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	hadBirthday := repository.DisplayProfile{DateOfBirth: time.Date(1996, 2, 1, 0, 0, 0, 0, time.UTC)}
	assert.Equal(t, 30, hadBirthday.Age(now))

	notYet := repository.DisplayProfile{DateOfBirth: time.Date(1996, 11, 1, 0, 0, 0, 0, time.UTC)}
	assert.Equal(t, 29, notYet.Age(now))
}
