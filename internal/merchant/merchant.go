package merchant

import (
	"errors"
	"time"

	"github.com/aidbridge/aidbridge/internal/money"
)

var (
	ErrNotFound = errors.New("merchant not found")
	ErrInvalid  = errors.New("invalid merchant")
)

// Merchant is a registered spending partner. TotalOrders and TotalRevenue are
// mutated only through the settlement path; Verified flips true exactly once,
// by administrative approval.
type Merchant struct {
	ID            string
	Name          string
	Category      string
	WalletAddress string
	Email         string
	Phone         string
	Verified      bool
	TotalOrders   int64
	TotalRevenue  money.Amount
	CreatedAt     time.Time
	UpdatedAt     *time.Time
	VerifiedAt    *time.Time
}

// ListFilter narrows a merchant listing. Category matches exactly; Verified
// filters on the approval flag. Results are sorted by creation time descending.
type ListFilter struct {
	Category *string
	Verified *bool
	Limit    int64
	Skip     int64
}

// SettleResult is the outcome of an idempotent settlement credit.
type SettleResult string

const (
	SettleApplied        SettleResult = "applied"
	SettleAlreadyApplied SettleResult = "already_applied"
)
