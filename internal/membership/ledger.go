package membership

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gymbeta/internal/catalog"
	"gymbeta/internal/logger"
	"gymbeta/internal/metrics"
)

// Place writes the ledger entry for a purchased package. The caller owns the
// transaction; Place takes the (member, type) lock before reading anything.
func Place(ctx context.Context, tx Tx, memberID int, pkg *catalog.Package, now time.Time) (*LedgerEntry, error) {
	ledger := tx.Ledger()
	if err := ledger.LockLedger(ctx, memberID, pkg.Type); err != nil {
		return nil, fmt.Errorf("lock ledger: %w", err)
	}

	entry := &LedgerEntry{
		MemberID:    memberID,
		PackageID:   pkg.ID,
		PackageType: pkg.Type,
	}

	switch pkg.Type {
	case catalog.TypePT:
		// dates are set when a trainer accepts
		entry.Status = statusPtr(PTPending)
		if err := ledger.CreateEntry(ctx, entry); err != nil {
			return nil, fmt.Errorf("create pt entry: %w", err)
		}
		metrics.RecordLedgerPlacement(string(pkg.Type), "pending")

	case catalog.TypeGym:
		snapshot, err := ledger.ListEntries(ctx, memberID, pkg.Type)
		if err != nil {
			return nil, fmt.Errorf("snapshot ledger: %w", err)
		}

		placement, err := Decide(snapshot, pkg.DurationMonths, now)
		if err != nil {
			reportInvariant(err, memberID, pkg.Type)
			return nil, err
		}

		for _, id := range placement.Deactivate {
			if err := ledger.SetActive(ctx, id, false); err != nil {
				return nil, fmt.Errorf("deactivate entry %d: %w", id, err)
			}
		}

		entry.StartDate = timePtr(placement.Start)
		entry.EndDate = timePtr(placement.End)
		entry.Active = placement.Activate
		if err := ledger.CreateEntry(ctx, entry); err != nil {
			return nil, fmt.Errorf("create gym entry: %w", err)
		}

		outcome := "queued"
		if placement.Activate {
			outcome = "activated"
		}
		metrics.RecordLedgerPlacement(string(pkg.Type), outcome)
		logger.Info("ledger entry placed",
			"member_id", memberID,
			"entry_id", entry.ID,
			"package_id", pkg.ID,
			"outcome", outcome,
			"start", placement.Start,
			"end", placement.End,
		)

	default:
		return nil, fmt.Errorf("%w: %q", catalog.ErrUnknownPackageType, pkg.Type)
	}

	return entry, nil
}

// Sweep expires the active entry of one ledger when it has lapsed and
// promotes the next queued entry whose period has begun.
func Sweep(ctx context.Context, tx Tx, memberID int, pt catalog.PackageType, now time.Time) (SweepPlan, error) {
	ledger := tx.Ledger()
	if err := ledger.LockLedger(ctx, memberID, pt); err != nil {
		return SweepPlan{}, fmt.Errorf("lock ledger: %w", err)
	}

	snapshot, err := ledger.ListEntries(ctx, memberID, pt)
	if err != nil {
		return SweepPlan{}, fmt.Errorf("snapshot ledger: %w", err)
	}

	plan, err := PlanSweep(snapshot, now)
	if err != nil {
		reportInvariant(err, memberID, pt)
		metrics.RecordSweep(string(pt), "error")
		return SweepPlan{}, err
	}

	// The partial unique index only admits the promotion after the
	// expired entry is switched off.
	if plan.Expired != nil {
		plan.Expired.Active = false
		if pt == catalog.TypePT {
			plan.Expired.Status = statusPtr(PTCompleted)
		}
		if err := ledger.UpdateEntry(ctx, plan.Expired); err != nil {
			return SweepPlan{}, fmt.Errorf("expire entry %d: %w", plan.Expired.ID, err)
		}
	}
	if plan.Promoted != nil {
		plan.Promoted.Active = true
		if err := ledger.UpdateEntry(ctx, plan.Promoted); err != nil {
			return SweepPlan{}, fmt.Errorf("promote entry %d: %w", plan.Promoted.ID, err)
		}
	}

	metrics.RecordSweep(string(pt), sweepResult(plan))
	if plan.Changed() {
		logger.Info("ledger swept",
			"member_id", memberID,
			"package_type", pt,
			"expired", entryID(plan.Expired),
			"promoted", entryID(plan.Promoted),
		)
	}
	return plan, nil
}

func sweepResult(plan SweepPlan) string {
	switch {
	case plan.Expired != nil && plan.Promoted != nil:
		return "rolled_over"
	case plan.Expired != nil:
		return "expired"
	case plan.Promoted != nil:
		return "promoted"
	default:
		return "noop"
	}
}

func entryID(e *LedgerEntry) int {
	if e == nil {
		return 0
	}
	return e.ID
}

func reportInvariant(err error, memberID int, pt catalog.PackageType) {
	if !errors.Is(err, ErrInvariantViolation) {
		return
	}
	metrics.RecordInvariantViolation(string(pt))
	logger.WithError(err).Error("ledger invariant violated",
		"member_id", memberID,
		"package_type", pt,
	)
}
