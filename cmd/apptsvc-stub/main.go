package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/careport/frontdesk/internal/config"
	"github.com/careport/frontdesk/internal/db"
	"github.com/careport/frontdesk/internal/stubsvc"
)

func main() {
	cfg, err := config.LoadStub()
	if err != nil {
		zap.Must(zap.NewProduction()).Fatal("config load error", zap.Error(err))
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("apptsvc-stub starting up",
		zap.String("env", cfg.Env),
		zap.String("http_port", cfg.HTTPPort),
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		logger.Fatal("postgres connection error", zap.Error(err))
	}
	defer pool.Close()
	logger.Info("connected to Postgres")

	store := stubsvc.NewStore(pool)
	if err := store.Migrate(rootCtx); err != nil {
		logger.Fatal("migration error", zap.Error(err))
	}

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: stubsvc.NewHandler(store, logger).Router(),
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-rootCtx.Done()
	logger.Info("shutting down apptsvc-stub")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown error", zap.Error(err))
	}
}
