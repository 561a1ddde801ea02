package queue

import (
	"sort"

	"go.uber.org/zap"
)

// Merge folds the three source collections into one record per identity.
//
// The three upstream queries are independently filtered snapshots of the same
// store, and during the nurse-to-doctor handoff the same patient can appear
// in two (conservatively: all three) of them at once. One pass over the
// concatenation resolves each collision by lifecycle rank, then by createdAt
// descending. The final tie (equal rank and equal createdAt) keeps the record
// seen first and logs it: two distinct same-rank rows for one identity means
// the source data broke its own invariant.
//
// Output is sorted by createdAt ascending, oldest waiter first.
func Merge(pending, assigned, appointed []Appointment, logger *zap.Logger) []Appointment {
	if logger == nil {
		logger = zap.NewNop()
	}

	byIdentity := make(map[string]Appointment, len(pending)+len(assigned)+len(appointed))

	consider := func(a Appointment, status Status) {
		a.Status = status
		a.Identity = IdentityOf(a.Email, a.QueueID)
		if a.Identity == "" {
			logger.Warn("dropping record with no identity", zap.String("name", a.DisplayName))
			return
		}
		if a.Token == "" {
			a.Token = NoToken
		}

		existing, ok := byIdentity[a.Identity]
		if !ok {
			byIdentity[a.Identity] = a
			return
		}
		if outranks(a, existing) {
			// The assigned wire shape carries no createdAt. Keep the
			// displaced record's timestamp so the time-waited basis and
			// the oldest-first ordering survive the handoff window.
			if a.CreatedAt.IsZero() {
				a.CreatedAt = existing.CreatedAt
			}
			byIdentity[a.Identity] = a
			return
		}
		if Rank(a.Status) == Rank(existing.Status) && a.CreatedAt.Equal(existing.CreatedAt) {
			logger.Warn("same-rank duplicate in source data, keeping first seen",
				zap.String("identity", a.Identity),
				zap.String("status", string(a.Status)),
			)
		}
	}

	for _, a := range pending {
		consider(a, StatusPending)
	}
	for _, a := range assigned {
		consider(a, StatusAssigned)
	}
	for _, a := range appointed {
		consider(a, StatusAppointed)
	}

	out := make([]Appointment, 0, len(byIdentity))
	for _, a := range byIdentity {
		out = append(out, a)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Identity < out[j].Identity
	})

	return out
}

// outranks reports whether a should replace b for the same identity.
func outranks(a, b Appointment) bool {
	ra, rb := Rank(a.Status), Rank(b.Status)
	if ra != rb {
		return ra > rb
	}
	return a.CreatedAt.After(b.CreatedAt)
}
