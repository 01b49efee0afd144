package app

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/rishtahub/match-engine/internal/cache"
)

// AppContext holds shared dependencies (DB, match cache, Logger, etc.)
type AppContext struct {
	DB         *gorm.DB
	MatchCache *cache.RedisCache
	Logger     *slog.Logger
}

// New creates a new AppContext
func New(db *gorm.DB, matchCache *cache.RedisCache, logger *slog.Logger) *AppContext {
	return &AppContext{
		DB:         db,
		MatchCache: matchCache,
		Logger:     logger,
	}
}
