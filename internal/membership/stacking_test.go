package membership

import (
	"testing"
	"time"

	"gymbeta/internal/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func days(n int) time.Duration { return time.Duration(n) * 24 * time.Hour }

func gymEntry(id int, start time.Time, months int, active bool) LedgerEntry {
	return LedgerEntry{
		ID:          id,
		MemberID:    1,
		PackageType: catalog.TypeGym,
		StartDate:   timePtr(start),
		EndDate:     timePtr(PeriodEnd(start, months)),
		Active:      active,
	}
}

func TestPeriodEnd_ThirtyDayMonths(t *testing.T) {
	assert.Equal(t, t0.Add(days(30)), PeriodEnd(t0, 1))
	assert.Equal(t, t0.Add(days(360)), PeriodEnd(t0, 12))
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name     string
		snapshot []LedgerEntry
		months   int
		ref      time.Time
		want     Placement
	}{
		{
			name:   "empty ledger activates immediately",
			months: 1,
			ref:    t0,
			want:   Placement{Start: t0, End: t0.Add(days(30)), Activate: true},
		},
		{
			name:     "running coverage queues behind frontier",
			snapshot: []LedgerEntry{gymEntry(1, t0, 1, true)},
			months:   3,
			ref:      t0.Add(days(10)),
			want:     Placement{Start: t0.Add(days(30)), End: t0.Add(days(120)), Activate: false},
		},
		{
			name: "frontier is latest end regardless of active flag",
			snapshot: []LedgerEntry{
				gymEntry(1, t0, 1, true),
				gymEntry(2, t0.Add(days(30)), 3, false),
			},
			months: 1,
			ref:    t0.Add(days(5)),
			want:   Placement{Start: t0.Add(days(120)), End: t0.Add(days(150)), Activate: false},
		},
		{
			name:     "lapsed coverage restarts at reference and deactivates",
			snapshot: []LedgerEntry{gymEntry(4, t0, 1, true)},
			months:   6,
			ref:      t0.Add(days(45)),
			want: Placement{
				Start:      t0.Add(days(45)),
				End:        t0.Add(days(45 + 180)),
				Activate:   true,
				Deactivate: []int{4},
			},
		},
		{
			name:     "frontier ending exactly at reference counts as lapsed",
			snapshot: []LedgerEntry{gymEntry(1, t0, 1, false)},
			months:   1,
			ref:      t0.Add(days(30)),
			want:     Placement{Start: t0.Add(days(30)), End: t0.Add(days(60)), Activate: true},
		},
		{
			name: "pending pt entries are ignored",
			snapshot: []LedgerEntry{
				{ID: 1, MemberID: 1, PackageType: catalog.TypePT, Status: statusPtr(PTPending)},
			},
			months: 1,
			ref:    t0,
			want:   Placement{Start: t0, End: t0.Add(days(30)), Activate: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decide(tt.snapshot, tt.months, tt.ref)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecide_NormalizesReferenceToUTC(t *testing.T) {
	loc := time.FixedZone("ICT", 7*3600)

	got, err := Decide(nil, 1, t0.In(loc))

	require.NoError(t, err)
	assert.Equal(t, time.UTC, got.Start.Location())
	assert.True(t, got.Start.Equal(t0))
}

func TestDecide_RejectsMultipleActive(t *testing.T) {
	snapshot := []LedgerEntry{
		gymEntry(1, t0, 1, true),
		gymEntry(2, t0.Add(days(30)), 1, true),
	}

	_, err := Decide(snapshot, 1, t0)

	assert.ErrorIs(t, err, ErrInvariantViolation)
}

func TestDecide_RejectsNonPositiveDuration(t *testing.T) {
	_, err := Decide(nil, 0, t0)
	assert.ErrorIs(t, err, ErrInvalidDuration)
}

func TestFrontier_TieBreaksOnLowestID(t *testing.T) {
	end := t0.Add(days(30))
	snapshot := []LedgerEntry{
		{ID: 9, EndDate: timePtr(end)},
		{ID: 3, EndDate: timePtr(end)},
		{ID: 5, EndDate: timePtr(t0)},
		{ID: 1},
	}

	f := Frontier(snapshot)

	require.NotNil(t, f)
	assert.Equal(t, 3, f.ID)
}

func TestFrontier_Empty(t *testing.T) {
	assert.Nil(t, Frontier(nil))
	assert.Nil(t, Frontier([]LedgerEntry{{ID: 1}}))
}
