package training

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var (
	ErrInvalidPlan   = errors.New("invalid training plan")
	ErrTooManyDays   = errors.New("plan exceeds training days per week")
	validatePlanBody = validator.New()
)

// validateDetails checks field rules and that the plan spans at most
// maxDays distinct weekdays.
func validateDetails(req interface{}, details []DetailInput, maxDays int) error {
	if err := validatePlanBody.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s failed on %s", ErrInvalidPlan, verrs[0].Namespace(), verrs[0].Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalidPlan, err)
	}

	days := make(map[string]struct{})
	for _, d := range details {
		for _, day := range d.Days {
			days[day] = struct{}{}
		}
	}
	if maxDays > 0 && len(days) > maxDays {
		return fmt.Errorf("%w: %d days, limit %d", ErrTooManyDays, len(days), maxDays)
	}
	return nil
}
