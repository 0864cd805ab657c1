package main

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/Clark-Hu/tour-ratings/internal/auth"
	"github.com/Clark-Hu/tour-ratings/internal/authz"
	"github.com/Clark-Hu/tour-ratings/internal/config"
	"github.com/Clark-Hu/tour-ratings/internal/features"
	httpserver "github.com/Clark-Hu/tour-ratings/internal/http"
	"github.com/Clark-Hu/tour-ratings/internal/logging"
	"github.com/Clark-Hu/tour-ratings/internal/metrics"
	"github.com/Clark-Hu/tour-ratings/internal/ratings"
	"github.com/Clark-Hu/tour-ratings/internal/recommend"
	"github.com/Clark-Hu/tour-ratings/internal/repository"
	"github.com/Clark-Hu/tour-ratings/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bootLogger := logging.New(logging.Config{Level: "info"})

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		bootLogger.Fatal().Err(err).Msg("load .env")
	}

	cfg, err := config.Load()
	if err != nil {
		bootLogger.Fatal().Err(err).Msg("config error")
	}

	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	storeOpts := store.Options{
		MaxConns:               int32(cfg.DBMaxConns),
		MinConns:               int32(cfg.DBMinConns),
		MaxConnIdleTime:        time.Duration(cfg.DBMaxIdleSecs) * time.Second,
		MaxConnLifetime:        time.Duration(cfg.DBMaxLifeSecs) * time.Second,
		ConnTimeout:            time.Duration(cfg.DBConnTimeoutSecs) * time.Second,
		StatementCacheCapacity: cfg.DBStatementCache,
		Logger:                 logger,
	}

	st, err := store.New(dbCtx, cfg.DBURL, storeOpts)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := metrics.RegisterPoolStats(prometheus.DefaultRegisterer, st.Stats); err != nil {
		return err
	}

	authenticator, err := auth.NewAuthenticator(auth.UsersFromConfig(cfg))
	if err != nil {
		return err
	}
	enforcer, err := authz.NewEnforcer(authz.Config{
		ModelPath:  cfg.AuthzModelPath,
		PolicyPath: cfg.AuthzPolicyPath,
	})
	if err != nil {
		return err
	}

	repo := repository.New(st)
	flags := features.FromConfig(cfg)
	logger.Info().
		Bool(features.TourRatings, flags.IsEnabled(features.TourRatings)).
		Bool(features.Recommendations, flags.IsEnabled(features.Recommendations)).
		Msg("feature flags")

	server := httpserver.New(cfg, httpserver.Deps{
		Health:      st,
		Ratings:     ratings.NewService(repo.Tours, repo.Ratings),
		Recommender: recommend.NewEngine(repo.Ratings),
		Auth:        authenticator,
		Enforcer:    enforcer,
		Flags:       flags,
		Logger:      logger,
	})

	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			serverErrCh <- err
			return
		}
		serverErrCh <- nil
	}()

	var serveErr error
	select {
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr = err
		}
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("graceful shutdown error")
	}
	return serveErr
}
