// Package recurrence decides when an approved assignment becomes workable
// again. Cooldown is never stored as a status: it is derived at read time
// from the approval timestamp, so no background job has to flip anything.
package recurrence

import (
	"time"

	"chorebank/internal/model"
)

// AvailableAt returns when a cooling-down assignment reopens. It returns nil
// for assignments that are not approved or whose chore does not recur.
func AvailableAt(a model.Assignment, def model.ChoreDefinition) *time.Time {
	if a.Status != model.StatusApproved || a.ApprovedAt == nil || !def.Recurring {
		return nil
	}
	t := a.ApprovedAt.Add(time.Duration(def.CooldownDays) * 24 * time.Hour)
	return &t
}

// Derive computes the caller-visible status of an assignment at a point in
// time. Stored status alone is not enough once recurrence is in play: an
// approved row may be done forever, cooling down, or already available again.
func Derive(a model.Assignment, def model.ChoreDefinition, now time.Time) model.DerivedStatus {
	switch a.Status {
	case model.StatusCompleted:
		return model.DerivedCompleted
	case model.StatusApproved:
		if !def.Recurring {
			return model.DerivedDone
		}
		at := AvailableAt(a, def)
		if at == nil {
			return model.DerivedDone
		}
		if now.Before(*at) {
			return model.DerivedCooldown
		}
		return model.DerivedAvailable
	default:
		return model.DerivedAvailable
	}
}

// IsAvailable reports whether the assignment can be completed right now.
func IsAvailable(a model.Assignment, def model.ChoreDefinition, now time.Time) bool {
	return Derive(a, def, now) == model.DerivedAvailable
}
