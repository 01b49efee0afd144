package main

import (
	"context"

	"github.com/rishtahub/match-engine/internal/app"
	"github.com/rishtahub/match-engine/internal/cache"
	"github.com/rishtahub/match-engine/internal/config"
	"github.com/rishtahub/match-engine/internal/db"
	"github.com/rishtahub/match-engine/internal/logger"
	"github.com/rishtahub/match-engine/internal/server"
	"github.com/rishtahub/match-engine/internal/service/matches"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}

	// Init Redis
	matchCache := cache.NewRedisCache(cfg)
	if err := matchCache.Ping(context.Background()); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return
	}

	appCtx := app.New(database, matchCache, log)

	registrars := []server.Registrar{
		matches.NewRegistrar(appCtx),
	}

	if cfg.App.ENV == "development" {
		if err := db.SeedTestData(database); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	addr := cfg.GRPC.Host + ":" + cfg.GRPC.Port
	log.Info("starting gRPC server", "addr", addr)

	if err := server.StartGRPCServer(cfg, registrars...); err != nil {
		log.Error("failed to start gRPC server", "err", err)
	}
}
