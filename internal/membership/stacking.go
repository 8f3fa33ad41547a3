package membership

import (
	"errors"
	"fmt"
	"time"
)

// DaysPerMonth is fixed: package periods are counted in 30-day months, not
// calendar months, so a 12-month package lasts 360 days.
const DaysPerMonth = 30

var (
	ErrInvariantViolation = errors.New("ledger invariant violated")
	ErrInvalidDuration    = errors.New("package duration must be positive")
)

// Placement is the stacking decision for a newly purchased package.
type Placement struct {
	Start    time.Time
	End      time.Time
	Activate bool
	// Deactivate lists currently active entries that must be switched off
	// before the new entry is written.
	Deactivate []int
}

// PeriodEnd returns start plus months*30 days.
func PeriodEnd(start time.Time, months int) time.Time {
	return start.AddDate(0, 0, DaysPerMonth*months)
}

// Frontier returns the entry with the latest end date, lowest id first on
// ties. Entries without an end date (pending PT) never qualify.
func Frontier(snapshot []LedgerEntry) *LedgerEntry {
	var frontier *LedgerEntry
	for i := range snapshot {
		e := &snapshot[i]
		if e.EndDate == nil {
			continue
		}
		if frontier == nil {
			frontier = e
			continue
		}
		end, best := e.EndDate.UTC(), frontier.EndDate.UTC()
		if end.After(best) || (end.Equal(best) && e.ID < frontier.ID) {
			frontier = e
		}
	}
	return frontier
}

func activeEntries(snapshot []LedgerEntry) []*LedgerEntry {
	var active []*LedgerEntry
	for i := range snapshot {
		if snapshot[i].Active {
			active = append(active, &snapshot[i])
		}
	}
	return active
}

func checkSingleActive(snapshot []LedgerEntry) ([]*LedgerEntry, error) {
	active := activeEntries(snapshot)
	if len(active) > 1 {
		ids := make([]int, 0, len(active))
		for _, e := range active {
			ids = append(ids, e.ID)
		}
		return nil, fmt.Errorf("%w: %d active entries %v", ErrInvariantViolation, len(active), ids)
	}
	return active, nil
}

// Decide applies the stacking rules to one member's ledger for one package
// type. snapshot must hold every entry of that type for the member.
func Decide(snapshot []LedgerEntry, durationMonths int, ref time.Time) (Placement, error) {
	if durationMonths <= 0 {
		return Placement{}, ErrInvalidDuration
	}

	active, err := checkSingleActive(snapshot)
	if err != nil {
		return Placement{}, err
	}

	ref = ref.UTC()
	frontier := Frontier(snapshot)

	switch {
	case frontier == nil:
		return Placement{Start: ref, End: PeriodEnd(ref, durationMonths), Activate: true}, nil

	case frontier.EndDate.UTC().After(ref):
		start := frontier.EndDate.UTC()
		return Placement{Start: start, End: PeriodEnd(start, durationMonths), Activate: false}, nil

	default:
		p := Placement{Start: ref, End: PeriodEnd(ref, durationMonths), Activate: true}
		for _, e := range active {
			p.Deactivate = append(p.Deactivate, e.ID)
		}
		return p, nil
	}
}
