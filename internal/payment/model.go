package payment

import (
	"time"

	"gymbeta/internal/catalog"
	"gymbeta/internal/membership"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending Status = "PENDING"
	StatusPaid    Status = "PAID"
	StatusFailed  Status = "FAILED"
)

type Method string

const (
	MethodCounter Method = "counter"
	MethodStripe  Method = "stripe"
)

type Payment struct {
	ID            int             `db:"id" json:"id"`
	MemberID      int             `db:"member_id" json:"member_id"`
	PackageID     int             `db:"package_id" json:"package_id"`
	LedgerEntryID *int            `db:"ledger_entry_id" json:"ledger_entry_id,omitempty"`
	Amount        decimal.Decimal `db:"amount" json:"amount" swaggertype:"string"`
	Status        Status          `db:"status" json:"status"`
	TxnRef        string          `db:"txn_ref" json:"txn_ref"`
	Method        Method          `db:"method" json:"method"`
	Note          string          `db:"note" json:"note"`
	PaidAt        *time.Time      `db:"paid_at" json:"paid_at,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}

// CompletedEvent reports money received for a package, from the counter or
// the payment gateway. TxnRef identifies it across retries.
type CompletedEvent struct {
	TxnRef      string
	MemberID    int
	PackageID   int
	PackageType catalog.PackageType
	Amount      decimal.Decimal
	PaidAt      time.Time
	Method      Method
	Note        string
}

type Result struct {
	Entry     *membership.LedgerEntry `json:"entry"`
	Payment   *Payment                `json:"payment"`
	Duplicate bool                    `json:"duplicate"`
}

type CounterPurchaseRequest struct {
	PackageID int    `json:"package_id" binding:"required"`
	Note      string `json:"note"`
}

type CheckoutRequest struct {
	PackageID int `json:"package_id" binding:"required"`
}

type CheckoutSession struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}
