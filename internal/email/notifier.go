package email

import (
	"context"
	"fmt"

	"gymbeta/internal/catalog"
	"gymbeta/internal/membership"
)

// ContactFinder resolves where to reach a member.
type ContactFinder interface {
	FindMemberContact(ctx context.Context, memberID int) (address, name string, err error)
}

// RegistrationNotifier queues a confirmation email for each new ledger entry.
type RegistrationNotifier struct {
	mailer   *Service
	contacts ContactFinder
}

func NewRegistrationNotifier(mailer *Service, contacts ContactFinder) *RegistrationNotifier {
	return &RegistrationNotifier{mailer: mailer, contacts: contacts}
}

func (n *RegistrationNotifier) NotifyRegistration(ctx context.Context, memberID int, entry *membership.LedgerEntry, pkg *catalog.Package) error {
	address, name, err := n.contacts.FindMemberContact(ctx, memberID)
	if err != nil {
		return fmt.Errorf("find contact for member %d: %w", memberID, err)
	}
	if address == "" {
		return nil
	}
	return n.mailer.SendRegistrationConfirmation(ctx, address, name, pkg.Name, entry.StartDate, entry.EndDate, entry.Active)
}
