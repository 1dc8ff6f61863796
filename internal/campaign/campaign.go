package campaign

import (
	"errors"
	"time"

	"github.com/aidbridge/aidbridge/internal/money"
)

var (
	ErrNotFound = errors.New("campaign not found")
	ErrInvalid  = errors.New("invalid campaign")
)

// Status represents the lifecycle state of a campaign. Campaigns are never
// deleted, only transitioned to closed or cancelled.
type Status string

const (
	StatusActive    Status = "active"
	StatusClosed    Status = "closed"
	StatusCancelled Status = "cancelled"
)

// Campaign is a fundraising campaign owned by an NGO. Raised and DonorCount
// are mutated only through the reconciler's credit path.
type Campaign struct {
	ID          string
	Title       string
	Description string
	Category    string
	Status      Status
	Target      money.Amount
	Raised      money.Amount
	DonorCount  int64
	NGOWallet   string
	Location    string
	StartDate   time.Time
	EndDate     time.Time
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

// ListFilter narrows a campaign listing. Category, Status and NGOWallet match
// exactly; Search is a case-insensitive substring match over title and
// description. Results are sorted by creation time descending.
type ListFilter struct {
	Category  *string
	Status    *Status
	Search    string
	NGOWallet string
	Limit     int64
	Skip      int64
}

// CreditResult is the outcome of an idempotent donation credit.
type CreditResult string

const (
	// CreditApplied means the counters were incremented by this call.
	CreditApplied CreditResult = "applied"

	// CreditAlreadyApplied means the reference was credited before; the
	// counters are unchanged. Not an error.
	CreditAlreadyApplied CreditResult = "already_applied"
)
