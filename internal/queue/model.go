package queue

import (
	"strings"
	"time"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusAssigned  Status = "assigned"
	StatusAppointed Status = "appointed"
	StatusCompleted Status = "completed"
	StatusRejected  Status = "rejected"
)

// Rank orders the three active lifecycle states for duplicate resolution.
// Completed and Rejected never enter the aggregated view, so they rank below
// everything.
func Rank(s Status) int {
	switch s {
	case StatusPending:
		return 0
	case StatusAssigned:
		return 1
	case StatusAppointed:
		return 2
	default:
		return -1
	}
}

// Terminal reports whether no further transition is possible from s.
func Terminal(s Status) bool {
	return s == StatusCompleted || s == StatusRejected
}

// NoToken is the placeholder shown before the store issues a token at assignment.
const NoToken = "-"

type Vitals struct {
	WeightKg     float64 `json:"weight_kg"`
	TemperatureF float64 `json:"temperature_f"`
}

// Appointment is one patient's consultation request as seen by the front desk.
// The same patient may surface in up to three source collections during the
// nurse-to-doctor handoff window; Identity is the deduplication key.
type Appointment struct {
	Identity            string    `json:"identity"`
	QueueID             string    `json:"queue_id,omitempty"`
	Email               string    `json:"email,omitempty"`
	DisplayName         string    `json:"display_name"`
	Reason              string    `json:"reason"`
	Status              Status    `json:"status"`
	AssignedDoctorID    string    `json:"assigned_doctor_id,omitempty"`
	AssignedDoctorName  string    `json:"assigned_doctor_name,omitempty"`
	PreferredDoctorName string    `json:"preferred_doctor_name,omitempty"`
	PreferenceReason    string    `json:"preference_reason,omitempty"`
	Token               string    `json:"token"`
	Vitals              *Vitals   `json:"vitals,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	Location            string    `json:"location,omitempty"`
}

type Doctor struct {
	ID   string `json:"doctor_id"`
	Name string `json:"name"`
}

// Preference is the advisory preferred-doctor metadata attached to a booking.
type Preference struct {
	DoctorName string `json:"preferred_doctor_name"`
	Reason     string `json:"preference_reason"`
}

// IdentityOf computes the deduplication key: the case-normalized email when
// present, otherwise the opaque queue id.
func IdentityOf(email, queueID string) string {
	e := strings.ToLower(strings.TrimSpace(email))
	if e != "" {
		return e
	}
	return queueID
}
