package api

import "github.com/careport/frontdesk/internal/queue"

type AssignRequest struct {
	PatientEmail string  `json:"patient_email"`
	DoctorID     string  `json:"doctor_id"`
	WeightKg     float64 `json:"weight_kg"`
	TemperatureF float64 `json:"temperature_f"`
}

type PatientRequest struct {
	PatientEmail string `json:"patient_email"`
}

type IntakeRequest struct {
	Email             string `json:"email"`
	Reason            string `json:"reason"`
	PreferredDoctorID string `json:"preferred_doctor_id,omitempty"`
	PreferenceReason  string `json:"preference_reason,omitempty"`
}

type QueueResponse struct {
	Queue     []queue.Appointment   `json:"queue"`
	Warnings  []queue.SourceWarning `json:"warnings,omitempty"`
	FetchedAt string                `json:"fetched_at"`
}

type DoctorsResponse struct {
	Doctors []queue.Doctor `json:"doctors"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	Field     string `json:"field,omitempty"`
	Details   string `json:"details,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}
