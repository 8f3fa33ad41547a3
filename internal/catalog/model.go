package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PackageType separates the two independent ledgers a member holds.
type PackageType string

const (
	TypeGym PackageType = "GYM"
	TypePT  PackageType = "PT"
)

func ParsePackageType(s string) (PackageType, error) {
	switch PackageType(strings.ToUpper(strings.TrimSpace(s))) {
	case TypeGym:
		return TypeGym, nil
	case TypePT:
		return TypePT, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPackageType, s)
	}
}

func (t PackageType) Valid() bool {
	return t == TypeGym || t == TypePT
}

// LockKey is the second half of the per-(member, package type) advisory lock.
func (t PackageType) LockKey() int {
	switch t {
	case TypeGym:
		return 1
	case TypePT:
		return 2
	default:
		return 0
	}
}

// AllTypes lists the ledgers in sweep order.
func AllTypes() []PackageType {
	return []PackageType{TypeGym, TypePT}
}

type Package struct {
	ID             int             `db:"id" json:"id"`
	Name           string          `db:"name" json:"name"`
	Type           PackageType     `db:"package_type" json:"package_type"`
	DurationMonths int             `db:"duration_months" json:"duration_months"`
	Price          decimal.Decimal `db:"price" json:"price"`
	Description    string          `db:"description" json:"description"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}

type CreatePackageRequest struct {
	Name           string          `json:"name" binding:"required"`
	Type           string          `json:"package_type" binding:"required"`
	DurationMonths int             `json:"duration_months" binding:"required,min=1"`
	Price          decimal.Decimal `json:"price" swaggertype:"string"`
	Description    string          `json:"description"`
}
