// Package apptsvc is the HTTP client for the appointment service. Every
// request carries the actor's bearer token and current-location headers; the
// server uses them to scope queries and to enforce campus guards.
package apptsvc

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/careport/frontdesk/internal/queue"
)

// Actor identifies one signed-in front-desk session.
type Actor struct {
	Token     string
	Campus    string
	Latitude  float64
	Longitude float64
}

type Client struct {
	// Reads retry on transient failure; writes never do, because the
	// store's writes are not idempotent and a blind retry could double-apply.
	read   *resty.Client
	write  *resty.Client
	logger *zap.Logger
}

func New(baseURL string, actor Actor, logger *zap.Logger) *Client {
	newClient := func() *resty.Client {
		return resty.New().
			SetBaseURL(baseURL).
			SetTimeout(10 * time.Second).
			SetAuthToken(actor.Token).
			SetHeader("Content-Type", "application/json").
			SetHeader("Accept", "application/json").
			SetHeader("X-Campus", actor.Campus).
			SetHeader("X-Latitude", strconv.FormatFloat(actor.Latitude, 'f', -1, 64)).
			SetHeader("X-Longitude", strconv.FormatFloat(actor.Longitude, 'f', -1, 64))
	}

	read := newClient().
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second)

	return &Client{
		read:   read,
		write:  newClient(),
		logger: logger,
	}
}

// Wire shapes. The three list endpoints return differently shaped rows; each
// maps onto queue.Appointment with the status left for the aggregator to set
// per source.

type pendingRow struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Reason    string    `json:"reason"`
	Token     string    `json:"token,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type assignedRow struct {
	Token       string `json:"token"`
	PatientName string `json:"patientName"`
	Email       string `json:"email"`
	Reason      string `json:"reason"`
	DoctorName  string `json:"doctorName"`
}

type appointedRow struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Reason     string    `json:"reason"`
	DoctorName string    `json:"doctorName"`
	Token      string    `json:"token"`
	CreatedAt  time.Time `json:"createdAt"`
}

type doctorRow struct {
	DoctorID string `json:"doctorId"`
	Name     string `json:"name"`
}

type preferenceBody struct {
	PreferredDoctorName string `json:"preferredDoctorName"`
	PreferenceReason    string `json:"preferenceReason"`
}

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (c *Client) ListPending(ctx context.Context) ([]queue.Appointment, error) {
	var rows []pendingRow
	if err := c.list(ctx, "/api/v1/queue/pending", &rows); err != nil {
		return nil, err
	}

	out := make([]queue.Appointment, 0, len(rows))
	for _, r := range rows {
		out = append(out, queue.Appointment{
			QueueID:     r.ID,
			Email:       r.Email,
			DisplayName: r.Name,
			Reason:      r.Reason,
			Token:       r.Token,
			CreatedAt:   r.CreatedAt,
		})
	}
	return out, nil
}

func (c *Client) ListAssigned(ctx context.Context) ([]queue.Appointment, error) {
	var rows []assignedRow
	if err := c.list(ctx, "/api/v1/queue/assigned", &rows); err != nil {
		return nil, err
	}

	out := make([]queue.Appointment, 0, len(rows))
	for _, r := range rows {
		out = append(out, queue.Appointment{
			Email:              r.Email,
			DisplayName:        r.PatientName,
			Reason:             r.Reason,
			AssignedDoctorName: r.DoctorName,
			Token:              r.Token,
		})
	}
	return out, nil
}

func (c *Client) ListAppointed(ctx context.Context) ([]queue.Appointment, error) {
	var rows []appointedRow
	if err := c.list(ctx, "/api/v1/queue/appointed", &rows); err != nil {
		return nil, err
	}

	out := make([]queue.Appointment, 0, len(rows))
	for _, r := range rows {
		out = append(out, queue.Appointment{
			QueueID:            r.ID,
			Email:              r.Email,
			DisplayName:        r.Name,
			Reason:             r.Reason,
			AssignedDoctorName: r.DoctorName,
			Token:              r.Token,
			CreatedAt:          r.CreatedAt,
		})
	}
	return out, nil
}

func (c *Client) list(ctx context.Context, path string, dest any) error {
	resp, err := c.read.R().
		SetContext(ctx).
		SetResult(dest).
		Get(path)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	if resp.IsError() {
		return fmt.Errorf("GET %s: unexpected status %d", path, resp.StatusCode())
	}
	return nil
}

func (c *Client) GetPreference(ctx context.Context, email string) (*queue.Preference, error) {
	path := "/api/v1/patients/" + queue.EncodeIdentity(email) + "/preference"

	var body preferenceBody
	resp, err := c.read.R().
		SetContext(ctx).
		SetResult(&body).
		Get(path)
	if err != nil {
		return nil, fmt.Errorf("get preference: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, nil
	}
	if resp.IsError() {
		return nil, fmt.Errorf("get preference: unexpected status %d", resp.StatusCode())
	}

	return &queue.Preference{
		DoctorName: body.PreferredDoctorName,
		Reason:     body.PreferenceReason,
	}, nil
}

func (c *Client) ListDoctors(ctx context.Context) ([]queue.Doctor, error) {
	var rows []doctorRow
	if err := c.list(ctx, "/api/v1/doctors/available", &rows); err != nil {
		return nil, err
	}

	out := make([]queue.Doctor, 0, len(rows))
	for _, r := range rows {
		out = append(out, queue.Doctor{ID: r.DoctorID, Name: r.Name})
	}
	return out, nil
}

func (c *Client) Assign(ctx context.Context, email, doctorID string, v queue.Vitals) error {
	body := map[string]any{
		"patientEmail": email,
		"doctorId":     doctorID,
		"weightKg":     v.WeightKg,
		"temperatureF": v.TemperatureF,
	}
	return c.post(ctx, "assign appointment", "/api/v1/queue/assign", body)
}

func (c *Client) Reject(ctx context.Context, email string) error {
	path := "/api/v1/queue/" + queue.EncodeIdentity(email) + "/reject"
	return c.post(ctx, "reject appointment", path, nil)
}

func (c *Client) Complete(ctx context.Context, email string) error {
	path := "/api/v1/queue/" + queue.EncodeIdentity(email) + "/complete"
	return c.post(ctx, "complete appointment", path, nil)
}

func (c *Client) CreateIntake(ctx context.Context, req queue.IntakeRequest) error {
	body := map[string]any{
		"email":  req.Email,
		"reason": req.Reason,
	}
	if req.PreferredDoctorID != "" {
		body["preferredDoctorId"] = req.PreferredDoctorID
	}
	if req.PreferenceReason != "" {
		body["preferenceReason"] = req.PreferenceReason
	}
	return c.post(ctx, "create intake", "/api/v1/queue/intake", body)
}

func (c *Client) RecordAdHoc(ctx context.Context, name, email, reason string) error {
	body := map[string]any{
		"name":   name,
		"email":  email,
		"reason": reason,
	}
	return c.post(ctx, "record ad-hoc treatment", "/api/v1/treatments/adhoc", body)
}

func (c *Client) post(ctx context.Context, op, path string, body any) error {
	var errBody errorBody
	req := c.write.R().
		SetContext(ctx).
		SetError(&errBody)
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Post(path)
	if err != nil {
		return &queue.TransportError{Op: op, Err: err}
	}
	if !resp.IsError() {
		return nil
	}

	msg := errBody.Details
	if msg == "" {
		msg = errBody.Error
	}
	if msg == "" {
		msg = resp.Status()
	}

	c.logger.Warn("appointment service refused write",
		zap.String("op", op),
		zap.Int("status", resp.StatusCode()),
		zap.String("msg", msg),
	)

	switch resp.StatusCode() {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &queue.AuthorizationError{Msg: msg}
	case http.StatusConflict:
		// The store distinguishes "already active in the queue" from a
		// write racing a state the view had not caught up with yet.
		if errBody.Error == "already_queued" {
			return fmt.Errorf("%s: %s: %w", op, msg, queue.ErrAlreadyQueued)
		}
		return fmt.Errorf("%s: %s: %w", op, msg, queue.ErrInvalidTransition)
	case http.StatusNotFound:
		return fmt.Errorf("%s: %s: %w", op, msg, queue.ErrNotQueued)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return &queue.ValidationError{Field: errBody.Error, Msg: msg}
	default:
		return &queue.TransportError{Op: op, Err: fmt.Errorf("status %d: %s", resp.StatusCode(), msg)}
	}
}
