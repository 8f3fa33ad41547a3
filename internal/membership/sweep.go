package membership

import (
	"time"

	"gymbeta/internal/catalog"
)

// SweepPlan is the outcome of re-evaluating which entry should be active.
type SweepPlan struct {
	Expired  *LedgerEntry `json:"expired,omitempty"`
	Promoted *LedgerEntry `json:"promoted,omitempty"`
}

func (p SweepPlan) Changed() bool {
	return p.Expired != nil || p.Promoted != nil
}

// PlanSweep decides which entry to expire and which queued entry to promote.
// A promoted entry always ends after now, so applying the plan and planning
// again without advancing now yields an empty plan.
func PlanSweep(snapshot []LedgerEntry, now time.Time) (SweepPlan, error) {
	active, err := checkSingleActive(snapshot)
	if err != nil {
		return SweepPlan{}, err
	}

	now = now.UTC()
	var plan SweepPlan

	if len(active) == 1 {
		current := active[0]
		if current.EndDate == nil || current.EndDate.UTC().After(now) {
			return plan, nil
		}
		plan.Expired = current
	}

	for i := range snapshot {
		e := &snapshot[i]
		if !promotable(e, now) {
			continue
		}
		if plan.Promoted == nil ||
			e.StartDate.Before(*plan.Promoted.StartDate) ||
			(e.StartDate.Equal(*plan.Promoted.StartDate) && e.ID < plan.Promoted.ID) {
			plan.Promoted = e
		}
	}

	return plan, nil
}

func promotable(e *LedgerEntry, now time.Time) bool {
	if e.Active || e.StartDate == nil || e.EndDate == nil {
		return false
	}
	if e.StartDate.UTC().After(now) || !e.EndDate.UTC().After(now) {
		return false
	}
	switch e.PackageType {
	case catalog.TypeGym:
		return true
	case catalog.TypePT:
		return e.HasStatus(PTActive)
	default:
		return false
	}
}

// HasValidGym reports whether any GYM entry is active or still running.
func HasValidGym(entries []LedgerEntry, now time.Time) bool {
	for _, e := range entries {
		if e.PackageType != catalog.TypeGym {
			continue
		}
		if e.Active || (e.EndDate != nil && e.EndDate.After(now)) {
			return true
		}
	}
	return false
}
