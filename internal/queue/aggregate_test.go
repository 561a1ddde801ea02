package queue_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/careport/frontdesk/internal/queue"
)

var t0 = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func TestMerge_NoDuplicateIdentities(t *testing.T) {
	pending := []queue.Appointment{
		pendingAt("a@b.edu", "A", t0),
		pendingAt("c@d.edu", "C", t0.Add(time.Minute)),
	}
	assigned := []queue.Appointment{
		{Email: "A@B.edu", DisplayName: "A", Token: "Q-1"},
	}
	appointed := []queue.Appointment{
		{Email: "a@b.edu", DisplayName: "A", Token: "Q-1", CreatedAt: t0},
	}

	out := queue.Merge(pending, assigned, appointed, zap.NewNop())

	seen := map[string]int{}
	for _, a := range out {
		seen[a.Identity]++
	}
	require.Len(t, out, 2)
	require.Equal(t, 1, seen["a@b.edu"])
	require.Equal(t, 1, seen["c@d.edu"])
}

func TestMerge_PrecedenceAcrossAllThreeSources(t *testing.T) {
	pending := []queue.Appointment{pendingAt("a@b.edu", "A", t0)}
	assigned := []queue.Appointment{{Email: "a@b.edu", DisplayName: "A", Token: "Q-9"}}
	appointed := []queue.Appointment{{Email: "a@b.edu", DisplayName: "A", Token: "Q-9", CreatedAt: t0}}

	out := queue.Merge(pending, assigned, appointed, zap.NewNop())

	require.Len(t, out, 1)
	require.Equal(t, queue.StatusAppointed, out[0].Status)
}

func TestMerge_AssignedOutranksPending(t *testing.T) {
	pending := []queue.Appointment{pendingAt("a@b.edu", "A", t0)}
	assigned := []queue.Appointment{{Email: "a@b.edu", DisplayName: "A", Token: "Q-2"}}

	out := queue.Merge(pending, assigned, nil, zap.NewNop())

	require.Len(t, out, 1)
	require.Equal(t, queue.StatusAssigned, out[0].Status)
	require.Equal(t, "Q-2", out[0].Token)
}

func TestMerge_HandoffKeepsDisplacedCreatedAt(t *testing.T) {
	pending := []queue.Appointment{
		pendingAt("a@b.edu", "A", t0),
		pendingAt("waiting@x.edu", "waiting two hours", t0.Add(-2*time.Hour)),
	}
	// The assigned view carries no createdAt at all.
	assigned := []queue.Appointment{{Email: "a@b.edu", DisplayName: "A", Token: "Q-3"}}

	out := queue.Merge(pending, assigned, nil, zap.NewNop())

	require.Len(t, out, 2)
	require.Equal(t, "waiting@x.edu", out[0].Identity)
	require.Equal(t, "a@b.edu", out[1].Identity)
	require.Equal(t, queue.StatusAssigned, out[1].Status)
	require.False(t, out[1].CreatedAt.IsZero())
	require.True(t, out[1].CreatedAt.Equal(t0))
}

func TestMerge_SameRankNewestCreatedAtWins(t *testing.T) {
	older := pendingAt("a@b.edu", "stale booking", t0)
	newer := pendingAt("a@b.edu", "fresh booking", t0.Add(time.Hour))

	out := queue.Merge([]queue.Appointment{older, newer}, nil, nil, zap.NewNop())

	require.Len(t, out, 1)
	require.Equal(t, "fresh booking", out[0].DisplayName)
}

func TestMerge_FullTieKeepsFirstSeen(t *testing.T) {
	first := pendingAt("a@b.edu", "first", t0)
	second := pendingAt("a@b.edu", "second", t0)

	out := queue.Merge([]queue.Appointment{first, second}, nil, nil, zap.NewNop())

	require.Len(t, out, 1)
	require.Equal(t, "first", out[0].DisplayName)
}

func TestMerge_SortsByCreatedAtAscending(t *testing.T) {
	pending := []queue.Appointment{
		pendingAt("late@x.edu", "late", t0.Add(2*time.Hour)),
		pendingAt("early@x.edu", "early", t0),
		pendingAt("mid@x.edu", "mid", t0.Add(time.Hour)),
	}

	out := queue.Merge(pending, nil, nil, zap.NewNop())

	require.Len(t, out, 3)
	require.Equal(t, "early@x.edu", out[0].Identity)
	require.Equal(t, "mid@x.edu", out[1].Identity)
	require.Equal(t, "late@x.edu", out[2].Identity)
}

func TestMerge_IdentityFallsBackToQueueID(t *testing.T) {
	pending := []queue.Appointment{
		{QueueID: "42", DisplayName: "anon", CreatedAt: t0},
	}

	out := queue.Merge(pending, nil, nil, zap.NewNop())

	require.Len(t, out, 1)
	require.Equal(t, "42", out[0].Identity)
	require.Equal(t, queue.NoToken, out[0].Token)
}

func TestMerge_EmailCaseNormalized(t *testing.T) {
	pending := []queue.Appointment{pendingAt("Jane@X.EDU", "jane", t0)}
	assigned := []queue.Appointment{{Email: "jane@x.edu", DisplayName: "jane", Token: "Q-7"}}

	out := queue.Merge(pending, assigned, nil, zap.NewNop())

	require.Len(t, out, 1)
	require.Equal(t, "jane@x.edu", out[0].Identity)
	require.Equal(t, queue.StatusAssigned, out[0].Status)
}
