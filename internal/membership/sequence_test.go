package membership_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"gymbeta/internal/catalog"
	"gymbeta/internal/membership"

	"github.com/stretchr/testify/require"
)

func TestLedger_RandomSequencesKeepOneActiveEntry(t *testing.T) {
	const (
		seeds = 200
		steps = 40
	)

	for seed := int64(1); seed <= seeds; seed++ {
		rng := rand.New(rand.NewSource(seed))
		f := newFixture(t)
		ctx := context.Background()
		now := t0

		for step := 0; step < steps; step++ {
			now = now.Add(time.Duration(rng.Intn(20*24)) * time.Hour)

			switch rng.Intn(6) {
			case 0:
				f.place(t, f.gym1, now)
			case 1:
				f.place(t, f.gym3, now)
			case 2:
				f.place(t, f.pt1, now)
			case 3:
				if pending := pendingPT(f); len(pending) > 0 {
					id := pending[rng.Intn(len(pending))].ID
					_, err := f.svc.AcceptPT(ctx, f.trainer, id, now)
					if err != nil && !errors.Is(err, membership.ErrPTCoverageActive) {
						t.Fatalf("seed %d step %d: accept pt %d: %v", seed, step, id, err)
					}
				}
			case 4:
				if pending := pendingPT(f); len(pending) > 0 && rng.Intn(3) == 0 {
					_, err := f.svc.RejectPT(ctx, f.trainer, pending[0].ID)
					require.NoError(t, err, "seed %d step %d", seed, step)
				}
			case 5:
				ov, err := f.svc.Overview(ctx, f.member, now)
				require.NoError(t, err, "seed %d step %d", seed, step)
				for _, active := range []*membership.LedgerEntry{ov.ActiveGym, ov.ActivePT} {
					if active == nil {
						continue
					}
					require.False(t, active.StartDate.After(now), "seed %d step %d: active entry %d starts later", seed, step, active.ID)
					require.True(t, active.EndDate.After(now), "seed %d step %d: active entry %d already ended", seed, step, active.ID)
				}
			}

			for _, pt := range catalog.AllTypes() {
				n := activeCount(f.store.Entries(f.member, pt))
				require.LessOrEqual(t, n, 1, "seed %d step %d: %d active %s entries", seed, step, n, pt)
			}
		}
	}
}

func pendingPT(f *fixture) []membership.LedgerEntry {
	var out []membership.LedgerEntry
	for _, e := range f.store.Entries(f.member, catalog.TypePT) {
		if e.HasStatus(membership.PTPending) {
			out = append(out, e)
		}
	}
	return out
}
