package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gymbeta/internal/logger"
	"gymbeta/internal/membership"
	"gymbeta/internal/metrics"
)

// Checkout drives the hosted checkout flow around a Gateway.
type Checkout struct {
	store       Store
	memberships membership.Service
	gateway     Gateway
	reconciler  *Reconciler
	now         func() time.Time
}

func NewCheckout(store Store, memberships membership.Service, gateway Gateway, reconciler *Reconciler) *Checkout {
	return &Checkout{
		store:       store,
		memberships: memberships,
		gateway:     gateway,
		reconciler:  reconciler,
		now:         time.Now,
	}
}

// Start opens a checkout session and records it as a PENDING payment keyed
// by the session id.
func (c *Checkout) Start(ctx context.Context, memberID int, email string, packageID int) (*CheckoutSession, error) {
	pkg, err := c.store.Packages().GetByID(ctx, packageID)
	if err != nil {
		return nil, err
	}
	if err := c.memberships.CheckEligibility(ctx, memberID, pkg, c.now()); err != nil {
		return nil, err
	}

	sess, err := c.gateway.CreateCheckoutSession(ctx, SessionRequest{MemberID: memberID, Email: email, Package: pkg})
	if err != nil {
		return nil, err
	}

	pending := &Payment{
		MemberID:  memberID,
		PackageID: pkg.ID,
		Amount:    pkg.Price,
		Status:    StatusPending,
		TxnRef:    sess.SessionID,
		Method:    MethodStripe,
	}
	if err := c.store.Payments().CreatePending(ctx, pending); err != nil {
		return nil, fmt.Errorf("record pending payment: %w", err)
	}

	logger.Info("checkout started", "member_id", memberID, "package_id", pkg.ID, "session_id", sess.SessionID)
	return sess, nil
}

// Confirm reconciles a session the member returned from. Webhook delivery of
// the same session is deduplicated by txn_ref.
func (c *Checkout) Confirm(ctx context.Context, memberID int, sessionID string) (*Result, error) {
	ev, err := c.gateway.FetchCompleted(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if ev.MemberID != memberID {
		return nil, ErrForeignCheckout
	}
	return c.reconciler.Reconcile(ctx, *ev)
}

// HandleWebhook applies a gateway notification. Unknown event types are
// acknowledged without effect.
func (c *Checkout) HandleWebhook(ctx context.Context, payload []byte, signature string) (*Result, error) {
	ev, err := c.gateway.ParseWebhook(payload, signature)
	if err != nil {
		return nil, err
	}

	switch ev.Kind {
	case EventCompleted:
		return c.reconciler.Reconcile(ctx, *ev.Completed)

	case EventFailed:
		changed, err := c.store.Payments().MarkFailed(ctx, ev.TxnRef)
		if err != nil {
			return nil, fmt.Errorf("mark payment failed: %w", err)
		}
		if changed {
			metrics.RecordPaymentFailed(string(MethodStripe))
			logger.Info("checkout failed", "session_id", ev.TxnRef, "event", ev.Type)
		}
		return nil, nil

	default:
		logger.Debug("webhook event ignored", "event", ev.Type)
		return nil, nil
	}
}

// Payments lists a member's payments, newest first.
func (c *Checkout) Payments(ctx context.Context, memberID int) ([]Payment, error) {
	ok, err := c.store.Ledger().MemberExists(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, membership.ErrMemberNotFound
	}
	return c.store.Payments().ListByMember(ctx, memberID)
}

func isClientError(err error) bool {
	return errors.Is(err, ErrInvalidEvent) ||
		errors.Is(err, ErrInvalidSignature) ||
		errors.Is(err, ErrPackageMismatch) ||
		errors.Is(err, ErrCheckoutNotPaid)
}
