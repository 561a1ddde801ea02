package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/careport/frontdesk/internal/queue"
)

type RouterConfig struct {
	Service   *queue.Service
	Scheduler *queue.Scheduler
	Redis     *redis.Client
	Logger    *zap.Logger
	Env       string
	Version   string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	// Health endpoints
	health := NewHealthHandler(cfg.Redis, cfg.Scheduler, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// The one read plus the write operations of the queue core
	r.Get("/queue", getQueueHandler(cfg.Service))
	r.Post("/queue/refresh", refreshHandler(cfg.Service))
	r.Get("/doctors", listDoctorsHandler(cfg.Service))
	r.Post("/queue/assign", assignHandler(cfg.Service))
	r.Post("/queue/reject", rejectHandler(cfg.Service))
	r.Post("/queue/complete", completeHandler(cfg.Service))
	r.Post("/queue/divert", divertHandler(cfg.Service))
	r.Post("/queue/intake", intakeHandler(cfg.Service))

	return r
}
