package queue

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Snapshot is the published aggregated view. It is replaced wholesale by each
// refresh cycle; consumers read it by value and never mutate it.
type Snapshot struct {
	Queue     []Appointment   `json:"queue"`
	Warnings  []SourceWarning `json:"warnings,omitempty"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// Scheduler drives the fetch, enrich, aggregate pipeline on a fixed interval
// and on demand. All refreshes run on the single Run goroutine, so two
// pipelines can never interleave within one actor session. The trigger
// channel has capacity one: any number of refresh requests arriving while a
// cycle is in flight collapse into exactly one follow-up cycle.
type Scheduler struct {
	fetcher  *Fetcher
	enricher *Enricher
	interval time.Duration
	logger   *zap.Logger

	trigger chan struct{}

	mu       sync.RWMutex
	snapshot Snapshot
}

func NewScheduler(fetcher *Fetcher, enricher *Enricher, interval time.Duration, logger *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{
		fetcher:  fetcher,
		enricher: enricher,
		interval: interval,
		logger:   logger,
		trigger:  make(chan struct{}, 1),
	}
}

// Run refreshes once immediately, then loops until ctx is cancelled. A
// refresh in flight at cancellation is abandoned, not published.
func (s *Scheduler) Run(ctx context.Context) error {
	s.refresh(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.refresh(ctx)
		case <-s.trigger:
			s.refresh(ctx)
		}
	}
}

// RefreshNow requests an out-of-cycle refresh without blocking. Transitions
// call this after a successful write so every observer converges before the
// next tick.
func (s *Scheduler) RefreshNow() {
	select {
	case s.trigger <- struct{}{}:
	default:
		// A refresh is already queued; this request joins it.
	}
}

// Snapshot returns a copy of the latest published view.
func (s *Scheduler) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Queue = append([]Appointment(nil), s.snapshot.Queue...)
	snap.Warnings = append([]SourceWarning(nil), s.snapshot.Warnings...)
	return snap
}

func (s *Scheduler) refresh(ctx context.Context) {
	start := time.Now()

	res := s.fetcher.FetchAll(ctx)
	if ctx.Err() != nil {
		return
	}

	// Preference enrichment applies to pending and appointed records only;
	// for assigned ones the doctor choice is already made.
	s.enricher.Enrich(ctx, res.Pending)
	s.enricher.Enrich(ctx, res.Appointed)
	if ctx.Err() != nil {
		return
	}

	merged := Merge(res.Pending, res.Assigned, res.Appointed, s.logger)

	s.mu.Lock()
	s.snapshot = Snapshot{
		Queue:     merged,
		Warnings:  res.Warnings,
		FetchedAt: time.Now(),
	}
	s.mu.Unlock()

	s.logger.Info("queue view refreshed",
		zap.Int("records", len(merged)),
		zap.Int("degraded_sources", len(res.Warnings)),
		zap.Duration("took", time.Since(start)),
	)
}
