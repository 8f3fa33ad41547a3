package training

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateDetails(t *testing.T) {
	detail := func(days ...string) DetailInput {
		return DetailInput{ExerciseID: 1, Sets: 3, Reps: 10, Days: days}
	}

	tests := []struct {
		name    string
		req     CreatePlanRequest
		maxDays int
		wantErr error
	}{
		{
			name:    "valid",
			req:     CreatePlanRequest{MemberID: 1, Details: []DetailInput{detail("Mon", "Wed"), detail("Wed", "Fri")}},
			maxDays: 3,
		},
		{
			name:    "distinct days over limit",
			req:     CreatePlanRequest{MemberID: 1, Details: []DetailInput{detail("Mon", "Tue"), detail("Wed", "Thu")}},
			maxDays: 3,
			wantErr: ErrTooManyDays,
		},
		{
			name:    "unknown weekday",
			req:     CreatePlanRequest{MemberID: 1, Details: []DetailInput{detail("Funday")}},
			maxDays: 6,
			wantErr: ErrInvalidPlan,
		},
		{
			name:    "repeated weekday in one detail",
			req:     CreatePlanRequest{MemberID: 1, Details: []DetailInput{detail("Mon", "Mon")}},
			maxDays: 6,
			wantErr: ErrInvalidPlan,
		},
		{
			name:    "no details",
			req:     CreatePlanRequest{MemberID: 1},
			maxDays: 6,
			wantErr: ErrInvalidPlan,
		},
		{
			name:    "zero sets",
			req:     CreatePlanRequest{MemberID: 1, Details: []DetailInput{{ExerciseID: 1, Reps: 10, Days: []string{"Mon"}}}},
			maxDays: 6,
			wantErr: ErrInvalidPlan,
		},
		{
			name:    "missing member",
			req:     CreatePlanRequest{Details: []DetailInput{detail("Mon")}},
			maxDays: 6,
			wantErr: ErrInvalidPlan,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateDetails(tt.req, tt.req.Details, tt.maxDays)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
