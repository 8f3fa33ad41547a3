package email

import (
	"context"
	"fmt"
	"time"
)

const dateLayout = "Jan 2, 2006"

func (s *Service) SendWelcome(ctx context.Context, to, name string) error {
	body := fmt.Sprintf(`Hi %s,

Your GYM Beta account is ready. Show the QR code from your member page at the front desk to check in.

- GYM Beta Team`, name)

	return s.Send(ctx, "welcome", to, name, "Welcome to GYM Beta", body)
}

// SendRegistrationConfirmation confirms a purchased package. start and end
// are nil for PT packages still waiting for a trainer.
func (s *Service) SendRegistrationConfirmation(ctx context.Context, to, name, packageName string, start, end *time.Time, active bool) error {
	var period string
	switch {
	case start == nil || end == nil:
		period = "A trainer will confirm your start date shortly."
	case active:
		period = fmt.Sprintf("Active now until %s.", end.Format(dateLayout))
	default:
		period = fmt.Sprintf("Starts %s when your current package ends, valid until %s.",
			start.Format(dateLayout), end.Format(dateLayout))
	}

	body := fmt.Sprintf(`Hi %s,

Thank you for purchasing %s.

%s

- GYM Beta Team`, name, packageName, period)

	return s.Send(ctx, "registration_confirmation", to, name, "Package confirmed - "+packageName, body)
}
