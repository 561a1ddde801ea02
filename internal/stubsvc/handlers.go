package stubsvc

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/careport/frontdesk/internal/queue"
)

type Handler struct {
	store  *Store
	logger *zap.Logger
}

func NewHandler(store *Store, logger *zap.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(h.requireActor)

		r.Get("/queue/pending", h.listPending)
		r.Get("/queue/assigned", h.listAssigned)
		r.Get("/queue/appointed", h.listAppointed)
		r.Get("/patients/{email}/preference", h.getPreference)
		r.Get("/doctors/available", h.listDoctors)

		r.Post("/queue/assign", h.assign)
		r.Post("/queue/{email}/reject", h.reject)
		r.Post("/queue/{email}/complete", h.complete)
		r.Post("/queue/{email}/open", h.open)
		r.Post("/queue/intake", h.intake)
		r.Post("/treatments/adhoc", h.adhoc)
	})

	return r
}

// requireActor checks the bearer token and campus header every request must
// carry. The stub accepts any non-empty token.
func (h *Handler) requireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") == "" {
			h.writeError(w, http.StatusUnauthorized, "missing_token", "a bearer token is required")
			return
		}
		if r.Header.Get("X-Campus") == "" {
			h.writeError(w, http.StatusBadRequest, "missing_campus", "the X-Campus header is required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func actorCampus(r *http.Request) string {
	return r.Header.Get("X-Campus")
}

// pathEmail decodes the sentinel-encoded email path component.
func pathEmail(r *http.Request) string {
	return queue.DecodeIdentity(chi.URLParam(r, "email"))
}

type pendingItem struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Reason    string    `json:"reason"`
	Token     string    `json:"token,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type assignedItem struct {
	Token       string `json:"token"`
	PatientName string `json:"patientName"`
	Email       string `json:"email"`
	Reason      string `json:"reason"`
	DoctorName  string `json:"doctorName"`
}

type appointedItem struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Reason     string    `json:"reason"`
	DoctorName string    `json:"doctorName"`
	Token      string    `json:"token"`
	CreatedAt  time.Time `json:"createdAt"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (h *Handler) listPending(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.ListPending(r.Context(), actorCampus(r))
	if err != nil {
		h.internalError(w, "list pending", err)
		return
	}

	items := make([]pendingItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, pendingItem{
			ID:        row.ID.String(),
			Email:     row.Email,
			Name:      row.Name,
			Reason:    row.Reason,
			Token:     deref(row.Token),
			CreatedAt: row.CreatedAt,
		})
	}
	h.writeJSON(w, http.StatusOK, items)
}

func (h *Handler) listAssigned(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.ListAssigned(r.Context(), actorCampus(r))
	if err != nil {
		h.internalError(w, "list assigned", err)
		return
	}

	items := make([]assignedItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, assignedItem{
			Token:       deref(row.Token),
			PatientName: row.Name,
			Email:       row.Email,
			Reason:      row.Reason,
			DoctorName:  deref(row.DoctorName),
		})
	}
	h.writeJSON(w, http.StatusOK, items)
}

func (h *Handler) listAppointed(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.ListAppointed(r.Context(), actorCampus(r))
	if err != nil {
		h.internalError(w, "list appointed", err)
		return
	}

	items := make([]appointedItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, appointedItem{
			ID:         row.ID.String(),
			Email:      row.Email,
			Name:       row.Name,
			Reason:     row.Reason,
			DoctorName: deref(row.DoctorName),
			Token:      deref(row.Token),
			CreatedAt:  row.CreatedAt,
		})
	}
	h.writeJSON(w, http.StatusOK, items)
}

func (h *Handler) getPreference(w http.ResponseWriter, r *http.Request) {
	doctorName, reason, err := h.store.GetPreference(r.Context(), pathEmail(r))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "no_preference", "no preference recorded")
			return
		}
		h.internalError(w, "get preference", err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"preferredDoctorName": doctorName,
		"preferenceReason":    reason,
	})
}

func (h *Handler) listDoctors(w http.ResponseWriter, r *http.Request) {
	docs, err := h.store.ListAvailableDoctors(r.Context())
	if err != nil {
		h.internalError(w, "list doctors", err)
		return
	}

	items := make([]map[string]string, 0, len(docs))
	for _, d := range docs {
		items = append(items, map[string]string{"doctorId": d.ID, "name": d.Name})
	}
	h.writeJSON(w, http.StatusOK, items)
}

func (h *Handler) assign(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PatientEmail string  `json:"patientEmail"`
		DoctorID     string  `json:"doctorId"`
		WeightKg     float64 `json:"weightKg"`
		TemperatureF float64 `json:"temperatureF"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return
	}

	err := h.store.Assign(r.Context(), req.PatientEmail, req.DoctorID, req.WeightKg, req.TemperatureF)
	switch {
	case errors.Is(err, ErrNoDoctor):
		h.writeError(w, http.StatusBadRequest, "doctor_unavailable", err.Error())
	case errors.Is(err, ErrWrongStatus):
		h.writeError(w, http.StatusConflict, "not_pending", err.Error())
	case err != nil:
		h.internalError(w, "assign", err)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	err := h.store.Reject(r.Context(), pathEmail(r), actorCampus(r))
	switch {
	case errors.Is(err, ErrCampusScope):
		h.writeError(w, http.StatusForbidden, "campus_scope_denied",
			"this appointment belongs to a different campus")
	case errors.Is(err, ErrNotFound):
		h.writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case err != nil:
		h.internalError(w, "reject", err)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) complete(w http.ResponseWriter, r *http.Request) {
	err := h.store.Complete(r.Context(), pathEmail(r))
	switch {
	case errors.Is(err, ErrWrongStatus):
		h.writeError(w, http.StatusConflict, "not_appointed", err.Error())
	case err != nil:
		h.internalError(w, "complete", err)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) open(w http.ResponseWriter, r *http.Request) {
	err := h.store.Open(r.Context(), pathEmail(r))
	switch {
	case errors.Is(err, ErrWrongStatus):
		h.writeError(w, http.StatusConflict, "not_assigned", err.Error())
	case err != nil:
		h.internalError(w, "open", err)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) intake(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email             string `json:"email"`
		Name              string `json:"name"`
		Reason            string `json:"reason"`
		PreferredDoctorID string `json:"preferredDoctorId"`
		PreferenceReason  string `json:"preferenceReason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return
	}
	if req.Email == "" || req.Reason == "" {
		h.writeError(w, http.StatusBadRequest, "missing_fields", "email and reason are required")
		return
	}

	id, err := h.store.CreateIntake(r.Context(), IntakeParams{
		Email:             req.Email,
		Name:              req.Name,
		Reason:            req.Reason,
		Campus:            actorCampus(r),
		PreferredDoctorID: req.PreferredDoctorID,
		PreferenceReason:  req.PreferenceReason,
	})
	switch {
	case errors.Is(err, ErrDuplicate):
		h.writeError(w, http.StatusConflict, "already_queued", err.Error())
	case err != nil:
		h.internalError(w, "intake", err)
	default:
		h.writeJSON(w, http.StatusCreated, map[string]string{"id": id.String()})
	}
}

func (h *Handler) adhoc(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name   string `json:"name"`
		Email  string `json:"email"`
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return
	}

	id, err := h.store.RecordAdHoc(r.Context(), req.Name, req.Email, req.Reason)
	if err != nil {
		h.internalError(w, "record adhoc", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]string{"id": id.String()})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, details string) {
	h.writeJSON(w, status, map[string]string{"error": code, "details": details})
}

func (h *Handler) internalError(w http.ResponseWriter, op string, err error) {
	h.logger.Error("stub store operation failed", zap.String("op", op), zap.Error(err))
	h.writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
}
