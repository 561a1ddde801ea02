// Package stubsvc is a Postgres-backed stand-in for the hospital appointment
// service, implementing the collaborator API the front desk consumes. It
// exists so the aggregator and its tooling can run end to end without the
// real backend.
package stubsvc

import (
	"context"
	"errors"
	"time"

	_ "embed"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

var (
	ErrNotFound    = errors.New("appointment not found")
	ErrDuplicate   = errors.New("patient already has an active appointment")
	ErrWrongStatus = errors.New("appointment is not in the required status")
	ErrCampusScope = errors.New("appointment belongs to a different campus")
	ErrNoDoctor    = errors.New("doctor not found or unavailable")
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Migrate applies schema.sql; every statement is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schemaSQL)
	return err
}

type Row struct {
	ID                  uuid.UUID
	Email               string
	Name                string
	Reason              string
	Status              string
	Campus              string
	DoctorID            *string
	DoctorName          *string
	Token               *string
	PreferredDoctorName *string
	PreferenceReason    *string
	CreatedAt           time.Time
}

const rowColumns = `
	id, email, name, reason, status, campus, doctor_id, doctor_name, token,
	preferred_doctor_name, preference_reason, created_at
`

func scanRow(r pgx.Row) (*Row, error) {
	var row Row
	err := r.Scan(
		&row.ID,
		&row.Email,
		&row.Name,
		&row.Reason,
		&row.Status,
		&row.Campus,
		&row.DoctorID,
		&row.DoctorName,
		&row.Token,
		&row.PreferredDoctorName,
		&row.PreferenceReason,
		&row.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &row, nil
}

func (s *Store) listByStatus(ctx context.Context, campus string, statuses ...string) ([]Row, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+rowColumns+`
		FROM appointments
		WHERE campus = $1 AND status = ANY($2)
		ORDER BY created_at
	`, campus, statuses)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Row
	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *r)
	}
	return result, rows.Err()
}

func (s *Store) ListPending(ctx context.Context, campus string) ([]Row, error) {
	return s.listByStatus(ctx, campus, "pending")
}

// ListAssigned includes appointed rows as well: a case stays visible in the
// doctor-queue view until the doctor completes it, which reproduces the
// handoff-window overlap the aggregator has to resolve.
func (s *Store) ListAssigned(ctx context.Context, campus string) ([]Row, error) {
	return s.listByStatus(ctx, campus, "assigned", "appointed")
}

func (s *Store) ListAppointed(ctx context.Context, campus string) ([]Row, error) {
	return s.listByStatus(ctx, campus, "appointed")
}

// GetPreference returns the preference recorded on the patient's most recent
// booking, or ErrNotFound when none carries one.
func (s *Store) GetPreference(ctx context.Context, email string) (doctorName, reason string, err error) {
	row := s.pool.QueryRow(ctx, `
		SELECT preferred_doctor_name, preference_reason
		FROM appointments
		WHERE email = $1 AND preferred_doctor_name IS NOT NULL
		ORDER BY created_at DESC
		LIMIT 1
	`, email)

	var name, why *string
	if err := row.Scan(&name, &why); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", "", ErrNotFound
		}
		return "", "", err
	}
	if name != nil {
		doctorName = *name
	}
	if why != nil {
		reason = *why
	}
	return doctorName, reason, nil
}

func (s *Store) ListAvailableDoctors(ctx context.Context) ([]Doctor, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name FROM doctors WHERE available ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Doctor
	for rows.Next() {
		var d Doctor
		if err := rows.Scan(&d.ID, &d.Name); err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

type Doctor struct {
	ID   string
	Name string
}

// Assign moves a pending appointment into the chosen doctor's queue and
// issues its token from the shared sequence. Tokens are never reused.
func (s *Store) Assign(ctx context.Context, email, doctorID string, weightKg, temperatureF float64) error {
	var doctorName string
	err := s.pool.QueryRow(ctx, `
		SELECT name FROM doctors WHERE id = $1 AND available
	`, doctorID).Scan(&doctorName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNoDoctor
		}
		return err
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE appointments
		SET status = 'assigned',
		    doctor_id = $2,
		    doctor_name = $3,
		    weight_kg = $4,
		    temperature_f = $5,
		    token = 'Q-' || nextval('queue_tokens')::text,
		    updated_at = now()
		WHERE email = $1 AND status = 'pending'
	`, email, doctorID, doctorName, weightKg, temperatureF)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrWrongStatus
	}
	return nil
}

// Open marks an assigned case as appointed, the doctor having picked it up.
func (s *Store) Open(ctx context.Context, email string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE appointments
		SET status = 'appointed', updated_at = now()
		WHERE email = $1 AND status = 'assigned'
	`, email)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrWrongStatus
	}
	return nil
}

// Reject terminates an active appointment. The actor may only reject within
// their own campus.
func (s *Store) Reject(ctx context.Context, email, actorCampus string) error {
	var campus string
	err := s.pool.QueryRow(ctx, `
		SELECT campus FROM appointments
		WHERE email = $1 AND status IN ('pending', 'assigned', 'appointed')
		ORDER BY created_at DESC
		LIMIT 1
	`, email).Scan(&campus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if campus != actorCampus {
		return ErrCampusScope
	}

	_, err = s.pool.Exec(ctx, `
		UPDATE appointments
		SET status = 'rejected', updated_at = now()
		WHERE email = $1 AND status IN ('pending', 'assigned', 'appointed')
	`, email)
	return err
}

func (s *Store) Complete(ctx context.Context, email string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE appointments
		SET status = 'completed', updated_at = now()
		WHERE email = $1 AND status = 'appointed'
	`, email)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrWrongStatus
	}
	return nil
}

type IntakeParams struct {
	Email             string
	Name              string
	Reason            string
	Campus            string
	PreferredDoctorID string
	PreferenceReason  string
}

// CreateIntake queues a walk-in. A second active appointment for the same
// email is refused.
func (s *Store) CreateIntake(ctx context.Context, p IntakeParams) (uuid.UUID, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE email = $1 AND status IN ('pending', 'assigned', 'appointed')
		)
	`, p.Email).Scan(&exists)
	if err != nil {
		return uuid.Nil, err
	}
	if exists {
		return uuid.Nil, ErrDuplicate
	}

	var preferredName *string
	if p.PreferredDoctorID != "" {
		var name string
		err := s.pool.QueryRow(ctx, `
			SELECT name FROM doctors WHERE id = $1
		`, p.PreferredDoctorID).Scan(&name)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, err
		}
		if err == nil {
			preferredName = &name
		}
	}

	id := uuid.New()
	displayName := p.Name
	if displayName == "" {
		displayName = p.Email
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO appointments
			(id, email, name, reason, status, campus,
			 preferred_doctor_id, preferred_doctor_name, preference_reason,
			 created_at, updated_at)
		VALUES ($1, $2, $3, $4, 'pending', $5, NULLIF($6, ''), $7, NULLIF($8, ''), now(), now())
	`, id, p.Email, displayName, p.Reason, p.Campus,
		p.PreferredDoctorID, preferredName, p.PreferenceReason)
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (s *Store) RecordAdHoc(ctx context.Context, name, email, reason string) (uuid.UUID, error) {
	id := uuid.New()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO adhoc_treatments (id, name, email, reason, created_at)
		VALUES ($1, $2, $3, $4, now())
	`, id, name, email, reason)
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}
