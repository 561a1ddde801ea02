package queue

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Vitals validation ranges, checked locally before any network call.
const (
	MaxWeightKg     = 300.0
	MinTemperatureF = 90.0
	MaxTemperatureF = 110.0
)

// Service validates and executes the queue transitions. It never mutates the
// published view itself: every successful write asks the scheduler for an
// immediate refresh, and the next snapshot reflects the store's answer.
type Service struct {
	client Client
	sched  *Scheduler
	logger *zap.Logger
}

func NewService(client Client, sched *Scheduler, logger *zap.Logger) *Service {
	return &Service{client: client, sched: sched, logger: logger}
}

// Queue returns the current aggregated view.
func (s *Service) Queue() Snapshot {
	return s.sched.Snapshot()
}

// Refresh requests an out-of-cycle rebuild of the view.
func (s *Service) Refresh() {
	s.sched.RefreshNow()
}

func (s *Service) Doctors(ctx context.Context) ([]Doctor, error) {
	docs, err := s.client.ListDoctors(ctx)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	return docs, nil
}

// Assign moves a pending patient to a doctor's queue. Vitals and the doctor
// choice are validated locally; the store issues the token on success.
func (s *Service) Assign(ctx context.Context, email, doctorID string, v Vitals) error {
	if doctorID == "" {
		return &ValidationError{Field: "doctor_id", Msg: "a doctor must be selected"}
	}
	if v.WeightKg <= 0 || v.WeightKg > MaxWeightKg {
		return &ValidationError{
			Field: "weight_kg",
			Msg:   fmt.Sprintf("must be greater than 0 and at most %g", MaxWeightKg),
		}
	}
	if v.TemperatureF < MinTemperatureF || v.TemperatureF > MaxTemperatureF {
		return &ValidationError{
			Field: "temperature_f",
			Msg:   fmt.Sprintf("must be between %g and %g", MinTemperatureF, MaxTemperatureF),
		}
	}

	// No view consult here. The snapshot can lag the store, so the store
	// arbitrates the patient's actual state and answers with not-queued or
	// invalid-transition when the write does not apply.
	identity := IdentityOf(email, "")
	if err := s.client.Assign(ctx, identity, doctorID, v); err != nil {
		return err
	}

	s.logger.Info("patient assigned",
		zap.String("identity", identity),
		zap.String("doctor_id", doctorID),
	)
	s.sched.RefreshNow()
	return nil
}

// Reject terminates an appointment at any active stage. The store enforces
// the campus-scope guard; a denial comes back as an AuthorizationError.
func (s *Service) Reject(ctx context.Context, email string) error {
	identity := IdentityOf(email, "")
	if err := s.client.Reject(ctx, identity); err != nil {
		return err
	}

	s.logger.Info("patient rejected", zap.String("identity", identity))
	s.sched.RefreshNow()
	return nil
}

// Complete closes out a consultation the doctor has finished.
func (s *Service) Complete(ctx context.Context, email string) error {
	identity := IdentityOf(email, "")
	if err := s.client.Complete(ctx, identity); err != nil {
		return err
	}

	s.logger.Info("consultation completed", zap.String("identity", identity))
	s.sched.RefreshNow()
	return nil
}

// Divert hands a pending patient to the ad-hoc treatment flow. The original
// record keeps its status here; the receiving flow closes it out on its own.
// Unlike the other writes, the handoff payload (name, reason) only exists in
// the published view, so the record must be present and pending there.
func (s *Service) Divert(ctx context.Context, email string) error {
	identity := IdentityOf(email, "")
	a, ok := s.lookup(identity)
	if !ok {
		return fmt.Errorf("divert %s: %w", identity, ErrNotQueued)
	}
	if a.Status != StatusPending {
		return fmt.Errorf("divert %s from %s: %w", identity, a.Status, ErrInvalidTransition)
	}

	if err := s.client.RecordAdHoc(ctx, a.DisplayName, identity, a.Reason); err != nil {
		return err
	}

	s.logger.Info("patient diverted to ad-hoc flow", zap.String("identity", identity))
	s.sched.RefreshNow()
	return nil
}

// Intake queues a walk-in patient identified by email. The current view is
// consulted first: a patient already active in the queue is refused without
// contacting the store.
func (s *Service) Intake(ctx context.Context, req IntakeRequest) error {
	if req.Email == "" {
		return &ValidationError{Field: "email", Msg: "email is required"}
	}
	if req.Reason == "" {
		return &ValidationError{Field: "reason", Msg: "a consultation reason is required"}
	}

	identity := IdentityOf(req.Email, "")
	if _, ok := s.lookup(identity); ok {
		return fmt.Errorf("intake %s: %w", identity, ErrAlreadyQueued)
	}

	req.Email = identity
	if err := s.client.CreateIntake(ctx, req); err != nil {
		return err
	}

	s.logger.Info("walk-in patient queued", zap.String("identity", identity))
	s.sched.RefreshNow()
	return nil
}

// lookup finds identity in the published view. The view only ever holds
// active records, so presence alone means "non-terminal".
func (s *Service) lookup(identity string) (Appointment, bool) {
	for _, a := range s.sched.Snapshot().Queue {
		if a.Identity == identity {
			return a, true
		}
	}
	return Appointment{}, false
}
