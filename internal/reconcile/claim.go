// Package reconcile keeps off-chain counters consistent with
// ledger-confirmed transfers. A claim ("I sent X to Y, reference R") is
// verified against the ledger and, if eligible, credited to its target
// exactly once per reference.
package reconcile

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/aidbridge/aidbridge/internal/money"
)

var ErrInvalidClaim = errors.New("invalid claim")

// TargetKind says what a claim credits: a campaign's raised counters or a
// merchant's settlement totals.
type TargetKind string

const (
	TargetCampaign TargetKind = "campaign"
	TargetMerchant TargetKind = "merchant"
)

// Claim is a candidate credit submitted by a caller. Claims are transient;
// only their reference is durably recorded, by the credit itself.
type Claim struct {
	ID          uuid.UUID
	Reference   string
	TargetKind  TargetKind
	TargetID    string
	Destination string
	Amount      money.Amount
	Donor       string
}

func (c Claim) validate() error {
	if c.Reference == "" {
		return fmt.Errorf("%w: missing reference", ErrInvalidClaim)
	}

	if c.TargetKind != TargetCampaign && c.TargetKind != TargetMerchant {
		return fmt.Errorf("%w: unknown target kind %q", ErrInvalidClaim, c.TargetKind)
	}

	if c.TargetID == "" {
		return fmt.Errorf("%w: missing target id", ErrInvalidClaim)
	}

	if c.Destination == "" {
		return fmt.Errorf("%w: missing destination address", ErrInvalidClaim)
	}

	if c.Amount.Units <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidClaim)
	}

	return nil
}

// State is a claim's position in the reconciliation state machine:
// Received -> Verifying -> Credited | Rejected | Pending.
type State string

const (
	StateReceived  State = "received"
	StateVerifying State = "verifying"
	StateCredited  State = "credited"
	StateRejected  State = "rejected"
	StatePending   State = "pending"
)

// Reason enumerates why a claim was rejected, so callers can branch on it.
type Reason string

const (
	ReasonAccountNotFound     Reason = "account_not_found"
	ReasonNoTrustline         Reason = "no_trustline"
	ReasonTransferNotFound    Reason = "transfer_not_found"
	ReasonTransferFailed      Reason = "transfer_failed"
	ReasonAssetMismatch       Reason = "asset_mismatch"
	ReasonAmountMismatch      Reason = "amount_mismatch"
	ReasonDestinationMismatch Reason = "destination_mismatch"
	ReasonUnconfirmed         Reason = "unconfirmed"
)

// Result is the terminal outcome of submitting a claim. Pending is not
// terminal: the same claim may be resubmitted later without side effects.
type Result struct {
	ClaimID uuid.UUID
	State   State
	Reason  Reason
}
