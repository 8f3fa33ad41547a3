package membership

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"gymbeta/internal/catalog"
	"gymbeta/internal/logger"
)

var (
	ErrMemberNotFound      = errors.New("member not found")
	ErrEntryNotFound       = errors.New("ledger entry not found")
	ErrNotPending          = errors.New("pt subscription is not pending")
	ErrPTCoverageActive    = errors.New("member already holds running pt coverage")
	ErrGymCoverageRequired = errors.New("pt packages require valid gym coverage")
)

type Service interface {
	Sweep(ctx context.Context, memberID int, pt catalog.PackageType, now time.Time) (SweepPlan, error)
	SweepAll(ctx context.Context, now time.Time) (SweepStats, error)
	Overview(ctx context.Context, memberID int, now time.Time) (*Overview, error)
	CheckEligibility(ctx context.Context, memberID int, pkg *catalog.Package, now time.Time) error
	ListPendingPT(ctx context.Context) ([]LedgerEntry, error)
	AcceptPT(ctx context.Context, trainerID, entryID int, now time.Time) (*LedgerEntry, error)
	RejectPT(ctx context.Context, trainerID, entryID int) (*LedgerEntry, error)
}

type service struct {
	store Store
}

func NewService(store Store) Service {
	return &service{
		store: store,
	}
}

func (s *service) Sweep(ctx context.Context, memberID int, pt catalog.PackageType, now time.Time) (SweepPlan, error) {
	var plan SweepPlan
	err := s.store.WithLedgerTx(ctx, func(tx Tx) error {
		var err error
		plan, err = Sweep(ctx, tx, memberID, pt, now)
		return err
	})
	return plan, err
}

func (s *service) SweepAll(ctx context.Context, now time.Time) (SweepStats, error) {
	var stats SweepStats

	ids, err := s.store.Ledger().ListMemberIDs(ctx)
	if err != nil {
		return stats, fmt.Errorf("list members: %w", err)
	}

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.Members++
		for _, pt := range catalog.AllTypes() {
			plan, err := s.Sweep(ctx, id, pt, now)
			if err != nil {
				stats.Failed++
				logger.WithError(err).Error("sweep failed", "member_id", id, "package_type", pt)
				continue
			}
			if plan.Expired != nil {
				stats.Expired++
			}
			if plan.Promoted != nil {
				stats.Promoted++
			}
		}
	}

	return stats, nil
}

// Overview sweeps both ledgers and returns the member's current coverage
// with full history, newest start first.
func (s *service) Overview(ctx context.Context, memberID int, now time.Time) (*Overview, error) {
	if err := s.ensureMember(ctx, memberID); err != nil {
		return nil, err
	}

	for _, pt := range catalog.AllTypes() {
		if _, err := s.Sweep(ctx, memberID, pt, now); err != nil {
			return nil, fmt.Errorf("sweep %s: %w", pt, err)
		}
	}

	entries, err := s.store.Ledger().ListMemberEntries(ctx, memberID)
	if err != nil {
		return nil, err
	}
	sortByStartDesc(entries)

	ov := &Overview{
		MemberID:    memberID,
		Entries:     entries,
		HasValidGym: HasValidGym(entries, now),
	}
	for i := range entries {
		if !entries[i].Active {
			continue
		}
		switch entries[i].PackageType {
		case catalog.TypeGym:
			ov.ActiveGym = &entries[i]
		case catalog.TypePT:
			ov.ActivePT = &entries[i]
		}
	}
	return ov, nil
}

func (s *service) CheckEligibility(ctx context.Context, memberID int, pkg *catalog.Package, now time.Time) error {
	if err := s.ensureMember(ctx, memberID); err != nil {
		return err
	}

	switch pkg.Type {
	case catalog.TypeGym:
		return nil
	case catalog.TypePT:
		if _, err := s.Sweep(ctx, memberID, catalog.TypeGym, now); err != nil {
			return err
		}
		gym, err := s.store.Ledger().ListEntries(ctx, memberID, catalog.TypeGym)
		if err != nil {
			return err
		}
		if !HasValidGym(gym, now) {
			return ErrGymCoverageRequired
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", catalog.ErrUnknownPackageType, pkg.Type)
	}
}

func (s *service) ListPendingPT(ctx context.Context) ([]LedgerEntry, error) {
	return s.store.Ledger().ListPendingPT(ctx)
}

// AcceptPT starts a pending PT subscription now. It refuses while the member
// still has running PT coverage, since the new period would overlap it.
func (s *service) AcceptPT(ctx context.Context, trainerID, entryID int, now time.Time) (*LedgerEntry, error) {
	var accepted *LedgerEntry

	err := s.withPendingPT(ctx, entryID, func(tx Tx, entry *LedgerEntry) error {
		pkg, err := tx.Packages().GetByID(ctx, entry.PackageID)
		if err != nil {
			return err
		}

		snapshot, err := tx.Ledger().ListEntries(ctx, entry.MemberID, catalog.TypePT)
		if err != nil {
			return err
		}

		placement, err := Decide(snapshot, pkg.DurationMonths, now)
		if err != nil {
			reportInvariant(err, entry.MemberID, catalog.TypePT)
			return err
		}
		if !placement.Activate {
			return ErrPTCoverageActive
		}

		for i := range snapshot {
			lapsed := &snapshot[i]
			if !lapsed.Active {
				continue
			}
			lapsed.Active = false
			lapsed.Status = statusPtr(PTCompleted)
			if err := tx.Ledger().UpdateEntry(ctx, lapsed); err != nil {
				return err
			}
		}

		entry.Status = statusPtr(PTActive)
		entry.TrainerID = &trainerID
		entry.StartDate = timePtr(placement.Start)
		entry.EndDate = timePtr(placement.End)
		entry.Active = true
		if err := tx.Ledger().UpdateEntry(ctx, entry); err != nil {
			return err
		}

		accepted = entry
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("pt subscription accepted", "entry_id", entryID, "trainer_id", trainerID, "member_id", accepted.MemberID)
	return accepted, nil
}

func (s *service) RejectPT(ctx context.Context, trainerID, entryID int) (*LedgerEntry, error) {
	var rejected *LedgerEntry

	err := s.withPendingPT(ctx, entryID, func(tx Tx, entry *LedgerEntry) error {
		entry.Status = statusPtr(PTCancelled)
		if err := tx.Ledger().UpdateEntry(ctx, entry); err != nil {
			return err
		}
		rejected = entry
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("pt subscription rejected", "entry_id", entryID, "trainer_id", trainerID)
	return rejected, nil
}

// withPendingPT locks the owning ledger and re-reads the entry so that a
// concurrent accept or reject is observed.
func (s *service) withPendingPT(ctx context.Context, entryID int, fn func(tx Tx, entry *LedgerEntry) error) error {
	probe, err := s.store.Ledger().GetEntry(ctx, entryID)
	if err != nil {
		return err
	}
	if probe.PackageType != catalog.TypePT {
		return ErrNotPending
	}

	return s.store.WithLedgerTx(ctx, func(tx Tx) error {
		if err := tx.Ledger().LockLedger(ctx, probe.MemberID, catalog.TypePT); err != nil {
			return err
		}
		entry, err := tx.Ledger().GetEntry(ctx, entryID)
		if err != nil {
			return err
		}
		if !entry.HasStatus(PTPending) {
			return ErrNotPending
		}
		return fn(tx, entry)
	})
}

func (s *service) ensureMember(ctx context.Context, memberID int) error {
	ok, err := s.store.Ledger().MemberExists(ctx, memberID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrMemberNotFound
	}
	return nil
}

// sortByStartDesc orders entries newest start first; undated pending PT
// entries come first, then ties by id descending.
func sortByStartDesc(entries []LedgerEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].StartDate, entries[j].StartDate
		switch {
		case a == nil && b == nil:
			return entries[i].ID > entries[j].ID
		case a == nil:
			return true
		case b == nil:
			return false
		case !a.Equal(*b):
			return a.After(*b)
		default:
			return entries[i].ID > entries[j].ID
		}
	})
}
