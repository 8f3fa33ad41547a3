package payment

import (
	"context"
	"errors"

	"gymbeta/internal/catalog"
)

var (
	ErrCheckoutNotPaid  = errors.New("checkout session is not paid")
	ErrForeignCheckout  = errors.New("checkout session belongs to another member")
	ErrGatewayDisabled  = errors.New("payment gateway not configured")
	ErrInvalidSignature = errors.New("webhook signature verification failed")
	ErrInvalidAmount    = errors.New("amount has more precision than the currency allows")
)

type EventKind int

const (
	EventIgnored EventKind = iota
	EventCompleted
	EventFailed
)

// GatewayEvent is a verified webhook notification.
type GatewayEvent struct {
	Kind      EventKind
	Type      string
	TxnRef    string
	Completed *CompletedEvent
}

type SessionRequest struct {
	MemberID int
	Email    string
	Package  *catalog.Package
}

// Gateway is the hosted checkout provider.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req SessionRequest) (*CheckoutSession, error)
	FetchCompleted(ctx context.Context, sessionID string) (*CompletedEvent, error)
	ParseWebhook(payload []byte, signature string) (*GatewayEvent, error)
}
