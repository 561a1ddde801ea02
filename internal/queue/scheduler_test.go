package queue_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/careport/frontdesk/internal/queue"
)

func newScheduler(client *fakeClient, interval time.Duration) *queue.Scheduler {
	logger := zap.NewNop()
	return queue.NewScheduler(
		queue.NewFetcher(client, logger),
		queue.NewEnricher(client, nil, 4, logger),
		interval,
		logger,
	)
}

func TestScheduler_PublishesSnapshotOnFirstRun(t *testing.T) {
	client := newFakeClient()
	client.pending = []queue.Appointment{pendingAt("a@b.edu", "A", t0)}

	sched := newScheduler(client, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = sched.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return len(sched.Snapshot().Queue) == 1
	}, 2*time.Second, 10*time.Millisecond)

	snap := sched.Snapshot()
	require.Equal(t, "a@b.edu", snap.Queue[0].Identity)
	require.False(t, snap.FetchedAt.IsZero())

	cancel()
	<-done
}

func TestScheduler_RefreshNowPicksUpNewRecords(t *testing.T) {
	client := newFakeClient()

	sched := newScheduler(client, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = sched.Run(ctx) }()

	require.Eventually(t, func() bool {
		return !sched.Snapshot().FetchedAt.IsZero()
	}, 2*time.Second, 10*time.Millisecond)
	require.Empty(t, sched.Snapshot().Queue)

	client.mu.Lock()
	client.pending = []queue.Appointment{pendingAt("late@x.edu", "late", t0)}
	client.mu.Unlock()

	sched.RefreshNow()

	require.Eventually(t, func() bool {
		return len(sched.Snapshot().Queue) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestScheduler_RefreshNowNeverBlocks(t *testing.T) {
	client := newFakeClient()
	sched := newScheduler(client, time.Hour)

	// Nothing is draining the trigger; repeated requests must coalesce
	// rather than block or panic.
	for i := 0; i < 10; i++ {
		sched.RefreshNow()
	}
}

func TestScheduler_SnapshotIsACopy(t *testing.T) {
	client := newFakeClient()
	client.pending = []queue.Appointment{pendingAt("a@b.edu", "A", t0)}

	sched := newScheduler(client, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = sched.Run(ctx) }()

	require.Eventually(t, func() bool {
		return len(sched.Snapshot().Queue) == 1
	}, 2*time.Second, 10*time.Millisecond)

	snap := sched.Snapshot()
	snap.Queue[0].DisplayName = "mutated by a consumer"

	require.Equal(t, "A", sched.Snapshot().Queue[0].DisplayName)
}

func TestScheduler_WarningsSurfaceInSnapshot(t *testing.T) {
	client := newFakeClient()
	client.pending = []queue.Appointment{pendingAt("a@b.edu", "A", t0)}
	client.appointedErr = context.DeadlineExceeded

	sched := newScheduler(client, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = sched.Run(ctx) }()

	require.Eventually(t, func() bool {
		snap := sched.Snapshot()
		return len(snap.Queue) == 1 && len(snap.Warnings) == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.Equal(t, queue.SourceAppointed, sched.Snapshot().Warnings[0].Source)
}
