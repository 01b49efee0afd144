package engine_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rishtahub/match-engine/internal/cache"
	"github.com/rishtahub/match-engine/internal/config"
	"github.com/rishtahub/match-engine/internal/db"
	"github.com/rishtahub/match-engine/internal/engine"
	"github.com/rishtahub/match-engine/internal/repository"
)

// env bundles an isolated sqlite + miniredis engine stack per test.
type env struct {
	gdb          *gorm.DB
	mr           *miniredis.Miniredis
	cache        *cache.RedisCache
	users        *repository.UserRepository
	scorer       *engine.Scorer
	materializer *engine.Materializer
	reader       *engine.Reader
	pipeline     *engine.Pipeline
}

func setupEngine(t *testing.T) *env {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	// One connection: every goroutine in the orchestrator tests must see
	// the same in-memory database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, gdb.AutoMigrate(
		&db.User{}, &db.Profile{}, &db.PartnerPreference{},
		&db.ConnectionRequest{}, &db.ProfileView{},
	))

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()
	matchCache := cache.NewRedisCache(cfg)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	users := repository.NewUserRepository(gdb)
	candidates := repository.NewCandidateRepository(gdb)
	scorer := engine.NewScorer(users, candidates, log)
	materializer := engine.NewMaterializer(users, matchCache, log)

	return &env{
		gdb:          gdb,
		mr:           mr,
		cache:        matchCache,
		users:        users,
		scorer:       scorer,
		materializer: materializer,
		reader:       engine.NewReader(matchCache, users, log),
		pipeline:     engine.NewPipeline(scorer, materializer),
	}
}

// seedMember inserts a user, profile and preference in one go.
func (e *env) seedMember(t *testing.T, id uint64, gender string, age int, premium bool, profile db.Profile, pref *db.PartnerPreference) db.User {
	t.Helper()

	u := db.User{
		ID:           id,
		Email:        fmt.Sprintf("member%d@test.com", id),
		PasswordHash: "x",
		Active:       true,
		Premium:      premium,
		Gender:       gender,
	}
	require.NoError(t, e.gdb.Create(&u).Error)

	profile.UserID = id
	if profile.FullName == "" {
		profile.FullName = fmt.Sprintf("Member %d", id)
	}
	profile.DateOfBirth = time.Now().UTC().AddDate(-age, 0, -30)
	require.NoError(t, e.gdb.Create(&profile).Error)

	if pref != nil {
		pref.UserID = id
		require.NoError(t, e.gdb.Create(pref).Error)
	}
	return u
}

// seedCandidatePool creates n eligible female candidates for a male
// requester, ids starting at firstID.
func (e *env) seedCandidatePool(t *testing.T, firstID uint64, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		e.seedMember(t, firstID+uint64(i), "female", 25, false, db.Profile{City: "Pune"}, nil)
	}
}

func TestMaterialize_EmptyCandidatesLeavesNoEntry(t *testing.T) {
	ctx := context.Background()
	e := setupEngine(t)
	user := e.seedMember(t, 1, "male", 30, false, db.Profile{}, nil)

	require.NoError(t, e.materializer.Materialize(ctx, user, nil))

	summaries, total, err := e.reader.Read(ctx, user.ID, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, summaries)
	assert.Zero(t, total)
}

func TestMaterialize_QuotaByTier(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name       string
		premium    bool
		candidates int
		want       int64
	}{
		{"free user capped at 20", false, 50, 20},
		{"premium user capped at 40", true, 50, 40},
		{"free user with fewer than quota", false, 7, 7},
		{"premium user with fewer than quota", true, 25, 25},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := setupEngine(t)
			user := e.seedMember(t, 1, "male", 30, tc.premium, db.Profile{}, nil)

			pool := make([]repository.CandidateScore, tc.candidates)
			for i := range pool {
				pool[i] = repository.CandidateScore{CandidateID: uint64(100 + i), RawScore: 60}
			}

			require.NoError(t, e.materializer.Materialize(ctx, user, pool))

			total, err := e.cache.MatchCount(ctx, user.ID)
			require.NoError(t, err)
			assert.Equal(t, tc.want, total)
		})
	}
}

func TestMaterialize_PremiumBoostFromCurrentFlag(t *testing.T) {
	ctx := context.Background()
	e := setupEngine(t)

	user := e.seedMember(t, 1, "male", 30, false, db.Profile{}, nil)
	e.seedMember(t, 2, "female", 25, true, db.Profile{}, nil)  // premium candidate
	e.seedMember(t, 3, "female", 25, false, db.Profile{}, nil) // free candidate

	candidates := []repository.CandidateScore{
		{CandidateID: 2, RawScore: 115},
		{CandidateID: 3, RawScore: 60},
	}
	require.NoError(t, e.materializer.Materialize(ctx, user, candidates))

	top, err := e.cache.TopMatches(ctx, user.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, top, 2)

	// 115 raw + 20 materialization boost; the raw premium criterion weight
	// and the boost stack deliberately.
	assert.Equal(t, uint64(2), top[0].CandidateID)
	assert.Equal(t, float64(135), top[0].Score)
	assert.Equal(t, uint64(3), top[1].CandidateID)
	assert.Equal(t, float64(60), top[1].Score)
}

func TestMaterialize_ReplacesPreviousEntry(t *testing.T) {
	ctx := context.Background()
	e := setupEngine(t)
	user := e.seedMember(t, 1, "male", 30, false, db.Profile{}, nil)

	require.NoError(t, e.materializer.Materialize(ctx, user, []repository.CandidateScore{
		{CandidateID: 100, RawScore: 60},
		{CandidateID: 101, RawScore: 45},
	}))
	require.NoError(t, e.materializer.Materialize(ctx, user, []repository.CandidateScore{
		{CandidateID: 200, RawScore: 30},
	}))

	top, err := e.cache.TopMatches(ctx, user.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, uint64(200), top[0].CandidateID)
}

func TestMaterialize_CacheWriteFailure(t *testing.T) {
	ctx := context.Background()
	e := setupEngine(t)
	user := e.seedMember(t, 1, "male", 30, false, db.Profile{}, nil)

	e.mr.SetError("LOADING Redis is loading the dataset in memory")

	err := e.materializer.Materialize(ctx, user, []repository.CandidateScore{{CandidateID: 100, RawScore: 60}})
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrCacheWriteFailed)
}

func TestScorer_DefaultsAndScoring(t *testing.T) {
	ctx := context.Background()
	e := setupEngine(t)

	// Requester with no preference row: defaults to opposite gender, 18-70.
	user := e.seedMember(t, 1, "male", 30, false, db.Profile{}, nil)
	e.seedMember(t, 2, "female", 25, false, db.Profile{Religion: "Hindu"}, nil)
	e.seedMember(t, 3, "male", 25, false, db.Profile{}, nil) // wrong gender

	scores, err := e.scorer.Score(ctx, user)
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.Equal(t, uint64(2), scores[0].CandidateID)
}

func TestScorer_StoreFailureIsScoringUnavailable(t *testing.T) {
	ctx := context.Background()
	e := setupEngine(t)
	user := e.seedMember(t, 1, "male", 30, false, db.Profile{}, nil)

	require.NoError(t, e.gdb.Migrator().DropTable("profiles"))

	scores, err := e.scorer.Score(ctx, user)
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrScoringUnavailable)
	assert.Nil(t, scores)
}

func TestPipeline_RefreshThenRead(t *testing.T) {
	ctx := context.Background()
	e := setupEngine(t)

	user := e.seedMember(t, 1, "male", 30, false, db.Profile{}, &db.PartnerPreference{
		PreferredGender: "female", MinAge: 20, MaxAge: 35, City: "Pune",
	})
	e.seedCandidatePool(t, 100, 5)

	require.NoError(t, e.pipeline.RefreshUser(ctx, user))

	summaries, total, err := e.reader.Read(ctx, user.ID, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, summaries, 5)

	// Descending by final score, display fields joined.
	for i := 1; i < len(summaries); i++ {
		assert.GreaterOrEqual(t, summaries[i-1].Score, summaries[i].Score)
	}
	assert.Equal(t, "Pune", summaries[0].City)
	assert.NotEmpty(t, summaries[0].FullName)
	assert.Equal(t, 25, summaries[0].Age)
}

func TestRead_EmptyAfterTTLElapses(t *testing.T) {
	ctx := context.Background()
	e := setupEngine(t)

	user := e.seedMember(t, 1, "male", 30, false, db.Profile{}, &db.PartnerPreference{PreferredGender: "female"})
	e.seedCandidatePool(t, 100, 3)

	require.NoError(t, e.pipeline.RefreshUser(ctx, user))

	_, total, err := e.reader.Read(ctx, user.ID, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	e.mr.FastForward(engine.CacheTTL + time.Hour)

	summaries, total, err := e.reader.Read(ctx, user.ID, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, summaries)
	assert.Zero(t, total)
}

func TestRead_StableAcrossReads(t *testing.T) {
	ctx := context.Background()
	e := setupEngine(t)

	user := e.seedMember(t, 1, "male", 30, false, db.Profile{}, &db.PartnerPreference{PreferredGender: "female"})
	e.seedCandidatePool(t, 100, 10)
	require.NoError(t, e.pipeline.RefreshUser(ctx, user))

	first, totalFirst, err := e.reader.Read(ctx, user.ID, 0, 10)
	require.NoError(t, err)
	second, totalSecond, err := e.reader.Read(ctx, user.ID, 0, 10)
	require.NoError(t, err)

	assert.Equal(t, totalFirst, totalSecond)

	members := func(ms []engine.MatchSummary) map[uint64]bool {
		set := make(map[uint64]bool, len(ms))
		for _, m := range ms {
			set[m.UserID] = true
		}
		return set
	}
	assert.Equal(t, members(first), members(second))
}

func TestRead_SkipsCandidatesWithoutProfiles(t *testing.T) {
	ctx := context.Background()
	e := setupEngine(t)

	e.seedMember(t, 2, "female", 25, false, db.Profile{}, nil)
	require.NoError(t, e.cache.ReplaceMatches(ctx, 1, []cache.ScoredEntry{
		{CandidateID: 2, Score: 60},
		{CandidateID: 999, Score: 80}, // profile deleted upstream
	}, time.Hour))

	summaries, total, err := e.reader.Read(ctx, 1, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, summaries, 1)
	assert.Equal(t, uint64(2), summaries[0].UserID)
}

func TestRead_StoreOutageIsCacheUnavailable(t *testing.T) {
	ctx := context.Background()
	e := setupEngine(t)

	e.mr.SetError("READONLY You can't write against a read only replica")

	_, _, err := e.reader.Read(ctx, 1, 0, 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrCacheUnavailable)
}
