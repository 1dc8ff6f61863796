package reconcile

import "github.com/aidbridge/aidbridge/internal/ledger"

// Facts is everything the verification policy needs to know about the ledger
// at evaluation time. Gathered by the reconciler; the policy itself performs
// no I/O.
type Facts struct {
	AccountExists    bool
	HasTrustline     bool
	Transfer         *ledger.TransferRecord
	LatestLedger     int32
	MinConfirmations int32
}

// Evaluate decides whether a claim is eligible for crediting. Checks run in a
// fixed order and short-circuit on the first failure:
//
//  1. the destination account exists
//  2. the destination holds a trustline for the claimed asset (native assets
//     need none)
//  3. the ledger transfer record matches the claim exactly: asset, amount
//     and destination
//  4. the transfer is buried under the configured confirmation depth
func Evaluate(claim Claim, facts Facts) (Reason, bool) {
	if !facts.AccountExists {
		return ReasonAccountNotFound, false
	}

	if !claim.Amount.Asset.IsNative() && !facts.HasTrustline {
		return ReasonNoTrustline, false
	}

	transfer := facts.Transfer
	if transfer == nil {
		return ReasonTransferNotFound, false
	}

	if !transfer.Successful {
		return ReasonTransferFailed, false
	}

	if transfer.Amount.Asset != claim.Amount.Asset {
		return ReasonAssetMismatch, false
	}

	if transfer.Amount.Units != claim.Amount.Units {
		return ReasonAmountMismatch, false
	}

	if transfer.Destination != claim.Destination {
		return ReasonDestinationMismatch, false
	}

	if facts.MinConfirmations > 0 {
		depth := facts.LatestLedger - transfer.Ledger + 1
		if depth < facts.MinConfirmations {
			return ReasonUnconfirmed, false
		}
	}

	return "", true
}
