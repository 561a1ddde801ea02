package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/careport/frontdesk/internal/api"
	"github.com/careport/frontdesk/internal/apptsvc"
	"github.com/careport/frontdesk/internal/config"
	"github.com/careport/frontdesk/internal/queue"
	redisclient "github.com/careport/frontdesk/internal/redis"
)

const version = "0.3.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.Must(zap.NewProduction()).Fatal("config load error", zap.Error(err))
	}

	logger := newLogger(cfg.Env)
	defer func() { _ = logger.Sync() }()

	logger.Info("frontdesk starting up",
		zap.String("env", cfg.Env),
		zap.String("http_port", cfg.HTTPPort),
		zap.String("campus", cfg.ActorCampus),
		zap.Duration("refresh_interval", cfg.RefreshInterval),
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		logger.Fatal("redis connection error", zap.Error(err))
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Warn("error closing redis", zap.Error(err))
		}
	}()
	logger.Info("connected to Redis")

	client := apptsvc.New(cfg.ApptServiceURL, apptsvc.Actor{
		Token:     cfg.ActorToken,
		Campus:    cfg.ActorCampus,
		Latitude:  cfg.ActorLatitude,
		Longitude: cfg.ActorLongitude,
	}, logger)

	cache := queue.NewRedisPreferenceCache(rdb, cfg.PreferenceTTL, logger)
	fetcher := queue.NewFetcher(client, logger)
	enricher := queue.NewEnricher(client, cache, cfg.EnrichLimit, logger)
	sched := queue.NewScheduler(fetcher, enricher, cfg.RefreshInterval, logger)
	svc := queue.NewService(client, sched, logger)

	go func() {
		if err := sched.Run(rootCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("scheduler stopped", zap.Error(err))
		}
	}()

	router := api.NewRouter(api.RouterConfig{
		Service:   svc,
		Scheduler: sched,
		Redis:     rdb,
		Logger:    logger,
		Env:       cfg.Env,
		Version:   version,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-rootCtx.Done()
	logger.Info("shutting down frontdesk")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown error", zap.Error(err))
	}
}

func newLogger(env string) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if env == "prod" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		os.Exit(1)
	}
	return logger
}
