package apptsvc_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/careport/frontdesk/internal/apptsvc"
	"github.com/careport/frontdesk/internal/queue"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *apptsvc.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return apptsvc.New(srv.URL, apptsvc.Actor{
		Token:    "tok-123",
		Campus:   "main",
		Latitude: 41.5,
	}, zap.NewNop())
}

func TestListPending_MapsRowsAndSendsActorHeaders(t *testing.T) {
	created := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/queue/pending", r.URL.Path)
		require.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		require.Equal(t, "main", r.Header.Get("X-Campus"))
		require.Equal(t, "41.5", r.Header.Get("X-Latitude"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"id": "1", "email": "a@b.edu", "name": "A", "reason": "fever", "createdAt": created},
		})
	})

	rows, err := client.ListPending(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "a@b.edu", rows[0].Email)
	require.Equal(t, "A", rows[0].DisplayName)
	require.True(t, rows[0].CreatedAt.Equal(created))
}

func TestListAssigned_MapsDoctorAndToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/queue/assigned", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"token": "Q-7", "patientName": "A", "email": "a@b.edu", "reason": "fever", "doctorName": "Dr. Lin"},
		})
	})

	rows, err := client.ListAssigned(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "Q-7", rows[0].Token)
	require.Equal(t, "Dr. Lin", rows[0].AssignedDoctorName)
}

func TestList_Non2xxIsAnError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.ListAppointed(context.Background())
	require.Error(t, err)
}

func TestGetPreference_EncodesEmailInPath(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/patients/a.b@c,edu/preference", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"preferredDoctorName": "Dr. Osei",
			"preferenceReason":    "referral",
		})
	})

	p, err := client.GetPreference(context.Background(), "a.b@c.edu")
	require.NoError(t, err)
	require.NotNil(t, p)
	require.Equal(t, "Dr. Osei", p.DoctorName)
}

func TestGetPreference_404MeansNoPreference(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	p, err := client.GetPreference(context.Background(), "a@b.edu")
	require.NoError(t, err)
	require.Nil(t, p)
}

func TestReject_CampusDenialBecomesAuthorizationError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/queue/a@b,edu/reject", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error":   "campus_scope_denied",
			"details": "this appointment belongs to a different campus",
		})
	})

	err := client.Reject(context.Background(), "a@b.edu")

	var authErr *queue.AuthorizationError
	require.ErrorAs(t, err, &authErr)
	require.Contains(t, authErr.Msg, "different campus")
}

func TestCreateIntake_ConflictBecomesAlreadyQueued(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "already_queued"})
	})

	err := client.CreateIntake(context.Background(), queue.IntakeRequest{Email: "a@b.edu", Reason: "x"})
	require.ErrorIs(t, err, queue.ErrAlreadyQueued)
}

func TestAssign_WrongStatusConflictBecomesInvalidTransition(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "not_pending"})
	})

	err := client.Assign(context.Background(), "a@b.edu", "D1", queue.Vitals{WeightKg: 72, TemperatureF: 99.1})
	require.ErrorIs(t, err, queue.ErrInvalidTransition)
	require.NotErrorIs(t, err, queue.ErrAlreadyQueued)
}

func TestAssign_SendsWireFieldNames(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "a@b.edu", body["patientEmail"])
		require.Equal(t, "D1", body["doctorId"])
		require.InDelta(t, 72.0, body["weightKg"], 0.001)
		require.InDelta(t, 99.1, body["temperatureF"], 0.001)
		w.WriteHeader(http.StatusNoContent)
	})

	err := client.Assign(context.Background(), "a@b.edu", "D1", queue.Vitals{WeightKg: 72, TemperatureF: 99.1})
	require.NoError(t, err)
}

func TestWrite_ServerErrorBecomesTransportError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	err := client.Complete(context.Background(), "a@b.edu")

	var transErr *queue.TransportError
	require.ErrorAs(t, err, &transErr)
}
