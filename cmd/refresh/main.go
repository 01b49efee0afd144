// Command refresh runs one full daily match refresh and exits.
// An external scheduler (cron or similar) is expected to invoke it once a
// day; it is safe to re-run at any time since every user's cache entry is
// rebuilt wholesale.
package main

import (
	"context"
	"os"

	"github.com/rishtahub/match-engine/internal/cache"
	"github.com/rishtahub/match-engine/internal/config"
	"github.com/rishtahub/match-engine/internal/db"
	"github.com/rishtahub/match-engine/internal/engine"
	"github.com/rishtahub/match-engine/internal/logger"
	"github.com/rishtahub/match-engine/internal/repository"
)

func main() {
	cfg := config.New()

	cfg.Log.Component = "daily_refresh"
	logger.InitFromConfig(cfg)
	log := logger.L()

	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		os.Exit(1)
	}

	matchCache := cache.NewRedisCache(cfg)
	ctx := context.Background()
	if err := matchCache.Ping(ctx); err != nil {
		log.Error("failed to connect to redis", "err", err)
		os.Exit(1)
	}

	users := repository.NewUserRepository(database)
	candidates := repository.NewCandidateRepository(database)

	scorer := engine.NewScorer(users, candidates, log)
	materializer := engine.NewMaterializer(users, matchCache, log)
	pipeline := engine.NewPipeline(scorer, materializer)
	orchestrator := engine.NewOrchestrator(users, pipeline, cfg.Engine.PageSize, log)

	if err := orchestrator.RunDailyRefresh(ctx); err != nil {
		log.Error("daily refresh failed", "err", err)
		os.Exit(1)
	}
}
