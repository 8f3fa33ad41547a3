package membership

import (
	"time"

	"gymbeta/internal/catalog"
)

// PTStatus tracks a personal-training subscription. GYM entries carry no status.
type PTStatus string

const (
	PTPending   PTStatus = "pending"
	PTActive    PTStatus = "active"
	PTCompleted PTStatus = "completed"
	PTCancelled PTStatus = "cancelled"
)

// LedgerEntry is a Membership (GYM) or PTSubscription (PT) record.
type LedgerEntry struct {
	ID          int                 `db:"id" json:"id"`
	MemberID    int                 `db:"member_id" json:"member_id"`
	PackageID   int                 `db:"package_id" json:"package_id"`
	PackageType catalog.PackageType `db:"package_type" json:"package_type"`
	StartDate   *time.Time          `db:"start_date" json:"start_date"`
	EndDate     *time.Time          `db:"end_date" json:"end_date"`
	Active      bool                `db:"active" json:"active"`
	Status      *PTStatus           `db:"status" json:"status,omitempty"`
	TrainerID   *int                `db:"trainer_id" json:"trainer_id,omitempty"`
	CreatedAt   time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time           `db:"updated_at" json:"updated_at"`
}

func (e *LedgerEntry) HasStatus(s PTStatus) bool {
	return e.Status != nil && *e.Status == s
}

// Overview is what dashboards show after both ledgers were swept.
type Overview struct {
	MemberID    int           `json:"member_id"`
	ActiveGym   *LedgerEntry  `json:"active_gym"`
	ActivePT    *LedgerEntry  `json:"active_pt"`
	Entries     []LedgerEntry `json:"entries"`
	HasValidGym bool          `json:"has_valid_gym"`
}

type SweepStats struct {
	Members  int `json:"members"`
	Expired  int `json:"expired"`
	Promoted int `json:"promoted"`
	Failed   int `json:"failed"`
}

func statusPtr(s PTStatus) *PTStatus {
	return &s
}

func timePtr(t time.Time) *time.Time {
	return &t
}
