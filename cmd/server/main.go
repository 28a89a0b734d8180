package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/complaintdesk/backend/internal/config"
	httpapi "github.com/complaintdesk/backend/internal/http"
	"github.com/complaintdesk/backend/internal/kv"
	"github.com/complaintdesk/backend/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	logger := log.Level(level).With().Str("service", "complaintdesk-backend").Logger()

	ctx := context.Background()
	backend, err := openBackend(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.StorageDriver).Msg("failed to open storage")
	}
	defer backend.Close()
	logger.Info().Str("driver", cfg.StorageDriver).Msg("storage opened")

	st, err := store.Open(ctx, backend)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load collections")
	}

	router := httpapi.Router(cfg, st, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
	logger.Info().Msg("server stopped")
}

func openBackend(ctx context.Context, cfg config.Config) (kv.Store, error) {
	switch cfg.StorageDriver {
	case "postgres":
		return kv.NewPostgresStore(ctx, cfg.DatabaseURL)
	case "redis":
		return kv.NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	default:
		return kv.NewFileStore(cfg.DataDir)
	}
}
