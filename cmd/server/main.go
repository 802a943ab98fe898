// Package main is the entry point for the Pokearena API server.
// It serves cached Pokemon lookups backed by PokeAPI and simulates battles
// between two Pokemon, persisting the results for later search.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pokearena/pokearena/internal/battle"
	"github.com/pokearena/pokearena/internal/cache"
	"github.com/pokearena/pokearena/internal/config"
	"github.com/pokearena/pokearena/internal/database"
	"github.com/pokearena/pokearena/internal/pokeapi"
	"github.com/pokearena/pokearena/internal/pokedex"
	"github.com/pokearena/pokearena/internal/scheduler"
	"github.com/pokearena/pokearena/internal/server"
	"github.com/pokearena/pokearena/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting Pokearena")

	// Battles database is always SQLite; the cache backend is selected below.
	battlesDB, err := database.New(database.Config{
		Path:    cfg.BattlesDBPath(),
		Profile: database.ProfileStandard,
		Name:    "battles",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open battles database")
	}
	defer battlesDB.Close()

	if err := battlesDB.Migrate(battle.Schema); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate battles database")
	}

	sched := scheduler.New(log)

	var store cache.Store
	var cacheDB *database.DB
	switch cfg.CacheBackend {
	case config.BackendSQLite:
		cacheDB, err = database.New(database.Config{
			Path:    cfg.CacheDBPath(),
			Profile: database.ProfileCache,
			Name:    "cache",
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open cache database")
		}
		defer cacheDB.Close()

		if err := cacheDB.Migrate(cache.Schema); err != nil {
			log.Fatal().Err(err).Msg("Failed to migrate cache database")
		}

		sqliteStore := cache.NewSQLiteStore(cacheDB.Conn())
		store = sqliteStore

		// SQLite has no native TTLs, sweep expired rows daily.
		if err := sched.AddJob("@daily", cache.NewCleanupJob(sqliteStore, log)); err != nil {
			log.Fatal().Err(err).Msg("Failed to register cache cleanup job")
		}

	case config.BackendRedis:
		store, err = cache.NewRedisStore(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}

	case config.BackendMemory:
		store = cache.NewMemoryStore()
	}

	log.Info().Str("backend", string(cfg.CacheBackend)).Msg("Cache store initialized")

	pokeClient := pokeapi.NewClient(pokeapi.ClientConfig{
		BaseURL:   cfg.PokeAPIBaseURL,
		MirrorURL: cfg.PokeAPIMirrorURL,
	}, log)

	pokedexSvc := pokedex.NewService(store, pokeClient, log)
	simulator := battle.NewSimulator()
	battleRepo := battle.NewRepository(battlesDB.Conn())

	handlers := server.NewHandlers(pokedexSvc, pokeClient, simulator, battleRepo, cacheDB, battlesDB, log)
	srv := server.New(server.Config{
		Log:      log,
		Port:     cfg.Port,
		DevMode:  cfg.DevMode,
		Handlers: handlers,
	})

	sched.Start()
	defer sched.Stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatal().Err(err).Msg("Server failed")
		}
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Graceful shutdown failed")
		}
	}

	log.Info().Msg("Pokearena stopped")
}
