package queue

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// PreferenceUnavailable fills both preference fields when a lookup fails.
// Enrichment is advisory; a failed lookup never blocks the record.
const PreferenceUnavailable = "unavailable"

// PreferenceCache is an optional read-through cache in front of the
// per-patient preference lookups.
type PreferenceCache interface {
	Get(ctx context.Context, email string) (*Preference, bool)
	Set(ctx context.Context, email string, p Preference)
}

// Enricher attaches preferred-doctor metadata to pending and appointed
// records. Assigned records are skipped: the doctor choice is already made.
type Enricher struct {
	client Client
	cache  PreferenceCache // may be nil
	limit  int
	logger *zap.Logger
}

func NewEnricher(client Client, cache PreferenceCache, limit int, logger *zap.Logger) *Enricher {
	if limit <= 0 {
		limit = 8
	}
	return &Enricher{client: client, cache: cache, limit: limit, logger: logger}
}

// Enrich fills preference fields in place. Lookups are independent and fan
// out, capped at e.limit in flight so a long queue cannot flood the
// collaborator service.
func (e *Enricher) Enrich(ctx context.Context, records []Appointment) {
	var (
		wg  sync.WaitGroup
		sem = make(chan struct{}, e.limit)
	)

	for i := range records {
		if records[i].Email == "" {
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(a *Appointment) {
			defer wg.Done()
			defer func() { <-sem }()
			e.enrichOne(ctx, a)
		}(&records[i])
	}
	wg.Wait()
}

func (e *Enricher) enrichOne(ctx context.Context, a *Appointment) {
	email := IdentityOf(a.Email, "")

	if e.cache != nil {
		if p, ok := e.cache.Get(ctx, email); ok {
			a.PreferredDoctorName = p.DoctorName
			a.PreferenceReason = p.Reason
			return
		}
	}

	p, err := e.client.GetPreference(ctx, email)
	if err != nil {
		e.logger.Debug("preference lookup failed",
			zap.String("identity", email),
			zap.Error(err),
		)
		a.PreferredDoctorName = PreferenceUnavailable
		a.PreferenceReason = PreferenceUnavailable
		return
	}
	if p == nil {
		// No recorded preference, leave the fields empty.
		return
	}

	a.PreferredDoctorName = p.DoctorName
	a.PreferenceReason = p.Reason

	if e.cache != nil {
		e.cache.Set(ctx, email, *p)
	}
}
