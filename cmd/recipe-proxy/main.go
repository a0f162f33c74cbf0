// Command recipe-proxy runs the recipe API proxy with its partitioned
// response cache, favorites store, and cache lifecycle endpoints.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/savorly/recipe-proxy/internal/config"
	"github.com/savorly/recipe-proxy/pkg/cache"
	"github.com/savorly/recipe-proxy/pkg/favorites"
	"github.com/savorly/recipe-proxy/pkg/lifecycle"
	"github.com/savorly/recipe-proxy/pkg/logging"
	"github.com/savorly/recipe-proxy/pkg/mealdb"
	"github.com/savorly/recipe-proxy/pkg/strategy"
)

func main() {
	_ = godotenv.Load()

	cfg := config.MustLoad()

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.LogLevel),
		Pretty: cfg.LogPretty,
		Output: os.Stderr,
	})

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		logger.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("Redis unavailable")
	}

	cacheConfig := cache.Config{Prefix: cfg.CachePrefix, Version: cfg.CacheVersion}
	manager := cache.NewManager(redisClient, cacheConfig)
	names := cacheConfig.Names()

	memo := mealdb.NewMemo(cfg.MemoTTL)
	upstream, err := mealdb.New(mealdb.Config{
		BaseURL:        cfg.UpstreamBaseURL,
		APIKey:         cfg.UpstreamAPIKey,
		UserAgent:      "recipe-proxy/1.0",
		Timeout:        cfg.UpstreamTimeout,
		MaxRetries:     3,
		InitialBackoff: 500 * time.Millisecond,
	}, memo)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create upstream client")
	}

	interceptor := strategy.New(manager, names, &upstreamFetcher{client: upstream}, strategy.Config{
		APIPrefix:   "/api",
		OfflinePath: cfg.OfflinePath,
	}, logging.NewLogger("strategy"))

	controller := lifecycle.New(manager, names, http.DefaultClient, lifecycle.Config{
		BaseURL: cfg.ShellBaseURL,
	}, logging.NewLogger("lifecycle"))

	// Precaching the shell needs the shell origin to be reachable. Failure
	// leaves the runtime cache fully functional, so the proxy starts anyway
	// and install is retried on the next boot.
	installCtx, cancelInstall := context.WithTimeout(context.Background(), 30*time.Second)
	if err := controller.Install(installCtx); err != nil {
		logger.Warn().Err(err).Msg("Shell precache failed, continuing without it")
	} else if err := controller.Activate(installCtx); err != nil {
		logger.Warn().Err(err).Msg("Activation failed")
	}
	cancelInstall()

	store := favorites.NewStore(cfg.FavoritesDBPath, logging.NewLogger("favorites"))
	defer store.Close()

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: newRouter(&server{
			interceptor: interceptor,
			lifecycle:   controller,
			favorites:   store,
			logger:      logger,
		}),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		logger.Info().
			Str("addr", srv.Addr).
			Str("cache_version", cfg.CacheVersion).
			Msg("Recipe proxy listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Shutdown incomplete")
	}

	// Let in-flight background revalidations finish their cache writes.
	interceptor.Drain()

	if err := redisClient.Close(); err != nil {
		logger.Error().Err(err).Msg("Failed to close Redis connection")
	}
}
