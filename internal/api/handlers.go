package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/careport/frontdesk/internal/queue"
)

func getQueueHandler(svc *queue.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := svc.Queue()
		resp := QueueResponse{
			Queue:     snap.Queue,
			Warnings:  snap.Warnings,
			FetchedAt: snap.FetchedAt.Format(time.RFC3339),
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func refreshHandler(svc *queue.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.Refresh()
		w.WriteHeader(http.StatusAccepted)
	}
}

func listDoctorsHandler(svc *queue.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		docs, err := svc.Doctors(r.Context())
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, DoctorsResponse{Doctors: docs})
	}
}

func assignHandler(svc *queue.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AssignRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		v := queue.Vitals{WeightKg: req.WeightKg, TemperatureF: req.TemperatureF}
		if err := svc.Assign(r.Context(), req.PatientEmail, req.DoctorID, v); err != nil {
			handleServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func rejectHandler(svc *queue.Service) http.HandlerFunc {
	return patientAction(svc.Reject)
}

func completeHandler(svc *queue.Service) http.HandlerFunc {
	return patientAction(svc.Complete)
}

func divertHandler(svc *queue.Service) http.HandlerFunc {
	return patientAction(svc.Divert)
}

func patientAction(fn func(ctx context.Context, email string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PatientRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.PatientEmail == "" {
			writeError(w, http.StatusBadRequest, "missing_patient_email", "patient_email is required")
			return
		}

		if err := fn(r.Context(), req.PatientEmail); err != nil {
			handleServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func intakeHandler(svc *queue.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req IntakeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		err := svc.Intake(r.Context(), queue.IntakeRequest{
			Email:             req.Email,
			Reason:            req.Reason,
			PreferredDoctorID: req.PreferredDoctorID,
			PreferenceReason:  req.PreferenceReason,
		})
		if err != nil {
			handleServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}
}

func handleServiceError(w http.ResponseWriter, err error) {
	var (
		valErr   *queue.ValidationError
		authErr  *queue.AuthorizationError
		transErr *queue.TransportError
	)

	switch {
	case errors.As(err, &valErr):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation_failed",
			Field:   valErr.Field,
			Details: valErr.Msg,
		})
	case errors.As(err, &authErr):
		// Distinguishable from a generic failure: retrying would fail the
		// same way, so the UI should explain instead of offering a retry.
		writeJSON(w, http.StatusForbidden, ErrorResponse{
			Error:   "not_authorized",
			Details: authErr.Msg,
		})
	case errors.Is(err, queue.ErrAlreadyQueued):
		writeError(w, http.StatusConflict, "already_queued", err.Error())
	case errors.Is(err, queue.ErrNotQueued):
		writeError(w, http.StatusNotFound, "not_queued", err.Error())
	case errors.Is(err, queue.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	case errors.As(err, &transErr):
		writeJSON(w, http.StatusBadGateway, ErrorResponse{
			Error:     "appointment_service_unreachable",
			Details:   transErr.Error(),
			Retryable: true,
		})
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
