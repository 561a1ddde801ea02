package api

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/careport/frontdesk/internal/queue"
)

type HealthHandler struct {
	redis   *redis.Client
	sched   *queue.Scheduler
	env     string
	version string
}

func NewHealthHandler(rdb *redis.Client, sched *queue.Scheduler, env, version string) *HealthHandler {
	return &HealthHandler{
		redis:   rdb,
		sched:   sched,
		env:     env,
		version: version,
	}
}

type LivenessResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Env     string `json:"env,omitempty"`
}

type ReadinessResponse struct {
	Status       string            `json:"status"`
	Version      string            `json:"version,omitempty"`
	Env          string            `json:"env,omitempty"`
	Dependencies map[string]string `json:"dependencies"`
}

func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	resp := LivenessResponse{
		Status:  "ok",
		Version: h.version,
		Env:     h.env,
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	deps := make(map[string]string)
	status := "ok"

	// Check Redis. The preference cache is advisory, so a Redis outage only
	// degrades readiness.
	redisCtx, redisCancel := context.WithTimeout(r.Context(), 1*time.Second)
	err := h.redis.Ping(redisCtx).Err()
	redisCancel()
	if err != nil {
		deps["redis"] = "down"
		status = "degraded"
	} else {
		deps["redis"] = "ok"
	}

	// A view that never refreshed, or stopped refreshing, means the
	// appointment service is out of reach.
	snap := h.sched.Snapshot()
	switch {
	case snap.FetchedAt.IsZero():
		deps["queue_view"] = "never refreshed"
		status = "error"
	case time.Since(snap.FetchedAt) > 5*time.Minute:
		deps["queue_view"] = "stale"
		status = "error"
	case len(snap.Warnings) > 0:
		deps["queue_view"] = "partial"
		if status == "ok" {
			status = "degraded"
		}
	default:
		deps["queue_view"] = "ok"
	}

	resp := ReadinessResponse{
		Status:       status,
		Version:      h.version,
		Env:          h.env,
		Dependencies: deps,
	}

	httpStatus := http.StatusOK
	if status == "error" {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, resp)
}
