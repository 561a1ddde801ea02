package queue_test

import (
	"context"
	"sync"
	"time"

	"github.com/careport/frontdesk/internal/queue"
)

// fakeClient is an in-memory queue.Client with per-call recording, shared by
// the fetcher, enricher, scheduler and service tests.
type fakeClient struct {
	mu sync.Mutex

	pending   []queue.Appointment
	assigned  []queue.Appointment
	appointed []queue.Appointment

	pendingErr   error
	assignedErr  error
	appointedErr error

	prefs    map[string]queue.Preference
	prefErr  error
	prefHits map[string]int

	doctors []queue.Doctor

	assignErr   error
	rejectErr   error
	completeErr error
	intakeErr   error
	adhocErr    error

	assignCalls   []assignCall
	rejectCalls   []string
	completeCalls []string
	intakeCalls   []queue.IntakeRequest
	adhocCalls    []adhocCall
	listCalls     int
}

type assignCall struct {
	Email    string
	DoctorID string
	Vitals   queue.Vitals
}

type adhocCall struct {
	Name, Email, Reason string
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		prefs:    make(map[string]queue.Preference),
		prefHits: make(map[string]int),
	}
}

func (f *fakeClient) ListPending(ctx context.Context) ([]queue.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.pendingErr != nil {
		return nil, f.pendingErr
	}
	return append([]queue.Appointment(nil), f.pending...), nil
}

func (f *fakeClient) ListAssigned(ctx context.Context) ([]queue.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.assignedErr != nil {
		return nil, f.assignedErr
	}
	return append([]queue.Appointment(nil), f.assigned...), nil
}

func (f *fakeClient) ListAppointed(ctx context.Context) ([]queue.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appointedErr != nil {
		return nil, f.appointedErr
	}
	return append([]queue.Appointment(nil), f.appointed...), nil
}

func (f *fakeClient) GetPreference(ctx context.Context, email string) (*queue.Preference, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prefHits[email]++
	if f.prefErr != nil {
		return nil, f.prefErr
	}
	if p, ok := f.prefs[email]; ok {
		return &p, nil
	}
	return nil, nil
}

func (f *fakeClient) ListDoctors(ctx context.Context) ([]queue.Doctor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]queue.Doctor(nil), f.doctors...), nil
}

func (f *fakeClient) Assign(ctx context.Context, email, doctorID string, v queue.Vitals) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.assignErr != nil {
		return f.assignErr
	}
	f.assignCalls = append(f.assignCalls, assignCall{Email: email, DoctorID: doctorID, Vitals: v})
	return nil
}

func (f *fakeClient) Reject(ctx context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rejectErr != nil {
		return f.rejectErr
	}
	f.rejectCalls = append(f.rejectCalls, email)
	return nil
}

func (f *fakeClient) Complete(ctx context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.completeErr != nil {
		return f.completeErr
	}
	f.completeCalls = append(f.completeCalls, email)
	return nil
}

func (f *fakeClient) CreateIntake(ctx context.Context, req queue.IntakeRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.intakeErr != nil {
		return f.intakeErr
	}
	f.intakeCalls = append(f.intakeCalls, req)
	return nil
}

func (f *fakeClient) RecordAdHoc(ctx context.Context, name, email, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.adhocErr != nil {
		return f.adhocErr
	}
	f.adhocCalls = append(f.adhocCalls, adhocCall{Name: name, Email: email, Reason: reason})
	return nil
}

func pendingAt(email, name string, created time.Time) queue.Appointment {
	return queue.Appointment{
		Email:       email,
		DisplayName: name,
		Reason:      "fever",
		CreatedAt:   created,
	}
}
