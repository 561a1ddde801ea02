package queue_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/careport/frontdesk/internal/queue"
)

func TestEnrich_AttachesPreference(t *testing.T) {
	client := newFakeClient()
	client.prefs["a@b.edu"] = queue.Preference{DoctorName: "Dr. Lin", Reason: "saw her last time"}

	records := []queue.Appointment{pendingAt("a@b.edu", "A", t0)}
	queue.NewEnricher(client, nil, 4, zap.NewNop()).Enrich(context.Background(), records)

	require.Equal(t, "Dr. Lin", records[0].PreferredDoctorName)
	require.Equal(t, "saw her last time", records[0].PreferenceReason)
}

func TestEnrich_NoRecordedPreferenceLeavesFieldsEmpty(t *testing.T) {
	client := newFakeClient()

	records := []queue.Appointment{pendingAt("a@b.edu", "A", t0)}
	queue.NewEnricher(client, nil, 4, zap.NewNop()).Enrich(context.Background(), records)

	require.Empty(t, records[0].PreferredDoctorName)
	require.Empty(t, records[0].PreferenceReason)
}

func TestEnrich_LookupFailureFallsBackToUnavailable(t *testing.T) {
	client := newFakeClient()
	client.prefErr = errors.New("preference service down")

	records := []queue.Appointment{
		pendingAt("a@b.edu", "A", t0),
		pendingAt("c@d.edu", "C", t0),
	}
	queue.NewEnricher(client, nil, 4, zap.NewNop()).Enrich(context.Background(), records)

	for _, r := range records {
		require.Equal(t, queue.PreferenceUnavailable, r.PreferredDoctorName)
		require.Equal(t, queue.PreferenceUnavailable, r.PreferenceReason)
	}
}

func TestEnrich_CacheSkipsSecondLookup(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	client := newFakeClient()
	client.prefs["a@b.edu"] = queue.Preference{DoctorName: "Dr. Osei", Reason: "referral"}

	cache := queue.NewRedisPreferenceCache(rdb, time.Minute, zap.NewNop())
	enricher := queue.NewEnricher(client, cache, 4, zap.NewNop())

	first := []queue.Appointment{pendingAt("a@b.edu", "A", t0)}
	enricher.Enrich(context.Background(), first)
	require.Equal(t, "Dr. Osei", first[0].PreferredDoctorName)
	require.Equal(t, 1, client.prefHits["a@b.edu"])

	second := []queue.Appointment{pendingAt("a@b.edu", "A", t0)}
	enricher.Enrich(context.Background(), second)
	require.Equal(t, "Dr. Osei", second[0].PreferredDoctorName)
	require.Equal(t, 1, client.prefHits["a@b.edu"], "second cycle should hit the cache")
}

func TestEnrich_CacheEntryExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	client := newFakeClient()
	client.prefs["a@b.edu"] = queue.Preference{DoctorName: "Dr. Osei"}

	cache := queue.NewRedisPreferenceCache(rdb, time.Minute, zap.NewNop())
	enricher := queue.NewEnricher(client, cache, 4, zap.NewNop())

	records := []queue.Appointment{pendingAt("a@b.edu", "A", t0)}
	enricher.Enrich(context.Background(), records)
	require.Equal(t, 1, client.prefHits["a@b.edu"])

	mr.FastForward(2 * time.Minute)

	enricher.Enrich(context.Background(), records)
	require.Equal(t, 2, client.prefHits["a@b.edu"])
}
