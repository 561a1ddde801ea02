package queue

import "context"

// Client covers every appointment-service interaction the queue core needs.
// All calls are scoped by the actor session the client was built for.
type Client interface {
	ListPending(ctx context.Context) ([]Appointment, error)
	ListAssigned(ctx context.Context) ([]Appointment, error)
	ListAppointed(ctx context.Context) ([]Appointment, error)

	// GetPreference returns (nil, nil) when the patient has no recorded
	// preference.
	GetPreference(ctx context.Context, email string) (*Preference, error)

	ListDoctors(ctx context.Context) ([]Doctor, error)

	Assign(ctx context.Context, email, doctorID string, v Vitals) error
	Reject(ctx context.Context, email string) error
	Complete(ctx context.Context, email string) error
	CreateIntake(ctx context.Context, req IntakeRequest) error
	RecordAdHoc(ctx context.Context, name, email, reason string) error
}

// IntakeRequest creates a Pending record for a walk-in patient.
type IntakeRequest struct {
	Email             string `json:"email"`
	Reason            string `json:"reason"`
	PreferredDoctorID string `json:"preferred_doctor_id,omitempty"`
	PreferenceReason  string `json:"preference_reason,omitempty"`
}
