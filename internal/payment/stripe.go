package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gymbeta/internal/catalog"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/webhook"
)

const (
	metaMemberID    = "member_id"
	metaPackageID   = "package_id"
	metaPackageType = "package_type"
)

type StripeGateway struct {
	webhookSecret string
	currency      string
	successURL    string
	cancelURL     string
}

// NewStripeGateway sets the process-wide Stripe key.
func NewStripeGateway(secretKey, webhookSecret, currency, frontendURL string) *StripeGateway {
	stripe.Key = secretKey
	base := strings.TrimRight(frontendURL, "/")
	return &StripeGateway{
		webhookSecret: webhookSecret,
		currency:      strings.ToLower(currency),
		successURL:    base + "/payments/success?session_id={CHECKOUT_SESSION_ID}",
		cancelURL:     base + "/payments/cancel",
	}
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req SessionRequest) (*CheckoutSession, error) {
	if stripe.Key == "" {
		return nil, ErrGatewayDisabled
	}
	pkg := req.Package
	unitAmount, err := toMinorUnits(pkg.Price, g.currency)
	if err != nil {
		return nil, err
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(g.currency),
					UnitAmount: stripe.Int64(unitAmount),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(pkg.Name),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		ClientReferenceID: stripe.String(strconv.Itoa(req.MemberID)),
		SuccessURL:        stripe.String(g.successURL),
		CancelURL:         stripe.String(g.cancelURL),
	}
	if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}
	params.AddMetadata(metaMemberID, strconv.Itoa(req.MemberID))
	params.AddMetadata(metaPackageID, strconv.Itoa(pkg.ID))
	params.AddMetadata(metaPackageType, string(pkg.Type))
	params.Context = ctx

	sess, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	return &CheckoutSession{SessionID: sess.ID, URL: sess.URL}, nil
}

func (g *StripeGateway) FetchCompleted(ctx context.Context, sessionID string) (*CompletedEvent, error) {
	if stripe.Key == "" {
		return nil, ErrGatewayDisabled
	}

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	sess, err := session.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("fetch checkout session: %w", err)
	}

	return g.completedFromSession(sess, time.Time{})
}

func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (*GatewayEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	ge := &GatewayEvent{Type: string(event.Type)}

	switch event.Type {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
		}
		ge.TxnRef = sess.ID
		if sess.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
			// delayed methods complete later with async_payment_succeeded
			return ge, nil
		}
		completed, err := g.completedFromSession(&sess, time.Unix(event.Created, 0).UTC())
		if err != nil {
			return nil, err
		}
		ge.Kind = EventCompleted
		ge.Completed = completed

	case "checkout.session.expired", "checkout.session.async_payment_failed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
		}
		ge.Kind = EventFailed
		ge.TxnRef = sess.ID
	}

	return ge, nil
}

func (g *StripeGateway) completedFromSession(sess *stripe.CheckoutSession, paidAt time.Time) (*CompletedEvent, error) {
	if sess.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		return nil, ErrCheckoutNotPaid
	}
	if currency := strings.ToLower(string(sess.Currency)); currency != g.currency {
		return nil, fmt.Errorf("%w: session currency %q, expected %q", ErrInvalidEvent, currency, g.currency)
	}

	memberID, err := strconv.Atoi(sess.Metadata[metaMemberID])
	if err != nil {
		return nil, fmt.Errorf("%w: member_id metadata", ErrInvalidEvent)
	}
	packageID, err := strconv.Atoi(sess.Metadata[metaPackageID])
	if err != nil {
		return nil, fmt.Errorf("%w: package_id metadata", ErrInvalidEvent)
	}
	pt, err := catalog.ParsePackageType(sess.Metadata[metaPackageType])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}

	return &CompletedEvent{
		TxnRef:      sess.ID,
		MemberID:    memberID,
		PackageID:   packageID,
		PackageType: pt,
		Amount:      fromMinorUnits(sess.AmountTotal, g.currency),
		PaidAt:      paidAt,
		Method:      MethodStripe,
	}, nil
}

// Stripe amounts are integers in the currency's smallest unit.
var zeroDecimalCurrencies = map[string]bool{
	"bif": true, "clp": true, "djf": true, "gnf": true, "jpy": true, "kmf": true,
	"krw": true, "mga": true, "pyg": true, "rwf": true, "ugx": true, "vnd": true,
	"vuv": true, "xaf": true, "xof": true, "xpf": true,
}

var threeDecimalCurrencies = map[string]bool{
	"bhd": true, "jod": true, "kwd": true, "omr": true, "tnd": true,
}

func minorUnitExponent(currency string) int32 {
	switch {
	case zeroDecimalCurrencies[currency]:
		return 0
	case threeDecimalCurrencies[currency]:
		return 3
	default:
		return 2
	}
}

func toMinorUnits(amount decimal.Decimal, currency string) (int64, error) {
	minor := amount.Shift(minorUnitExponent(currency))
	if !minor.IsInteger() {
		return 0, fmt.Errorf("%w: %s is not representable in %s", ErrInvalidAmount, amount, currency)
	}
	return minor.IntPart(), nil
}

func fromMinorUnits(minor int64, currency string) decimal.Decimal {
	return decimal.New(minor, -minorUnitExponent(currency))
}
