package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/aidbridge/aidbridge/internal/campaign"
	"github.com/aidbridge/aidbridge/internal/ledger"
	"github.com/aidbridge/aidbridge/internal/merchant"
	"github.com/aidbridge/aidbridge/internal/money"
)

// LedgerGateway is the read-only ledger surface the reconciler verifies
// claims against. Satisfied by *ledger.Client.
type LedgerGateway interface {
	AccountExists(ctx context.Context, address string) (bool, error)
	HasTrustline(ctx context.Context, address string, asset money.Asset) (bool, error)
	LookupTransfer(ctx context.Context, reference string) (*ledger.TransferRecord, error)
	LatestLedger(ctx context.Context) (int32, error)
}

// CampaignCrediter applies an idempotent donation credit.
// Satisfied by *campaign.Service.
type CampaignCrediter interface {
	Credit(ctx context.Context, id, reference string, amount money.Amount) (campaign.CreditResult, error)
}

// MerchantSettler applies an idempotent settlement credit.
// Satisfied by *merchant.Service.
type MerchantSettler interface {
	Settle(ctx context.Context, id, reference string, amount money.Amount) (merchant.SettleResult, error)
}

type Reconciler struct {
	gateway          LedgerGateway
	campaigns        CampaignCrediter
	merchants        MerchantSettler
	minConfirmations int32
}

func New(gateway LedgerGateway, campaigns CampaignCrediter, merchants MerchantSettler, minConfirmations int32) *Reconciler {
	return &Reconciler{
		gateway:          gateway,
		campaigns:        campaigns,
		merchants:        merchants,
		minConfirmations: minConfirmations,
	}
}

// Submit runs a claim through verification and, if eligible, crediting.
//
// Ledger unavailability resolves to Pending: nothing was mutated and the
// caller should retry later. Policy failures resolve to Rejected with the
// specific reason; resubmitting a rejected claim is pointless until external
// state changes. A claim whose reference was already credited resolves to
// Credited — resubmission is not an error.
func (r *Reconciler) Submit(ctx context.Context, claim Claim) (Result, error) {
	if err := claim.validate(); err != nil {
		return Result{}, err
	}

	if claim.ID == uuid.Nil {
		claim.ID = uuid.New()
	}

	result := Result{ClaimID: claim.ID}

	slog.Info("claim received",
		"claim", claim.ID,
		"reference", claim.Reference,
		"target_kind", claim.TargetKind,
		"target", claim.TargetID,
		"amount", claim.Amount.Display(),
	)

	facts, err := r.gatherFacts(ctx, claim)
	if err != nil {
		if errors.Is(err, ledger.ErrUnavailable) {
			slog.Warn("ledger unavailable, claim pending", "claim", claim.ID, "error", err)

			result.State = StatePending

			return result, nil
		}

		return Result{}, err
	}

	if reason, ok := Evaluate(claim, facts); !ok {
		slog.Info("claim rejected", "claim", claim.ID, "reference", claim.Reference, "reason", reason)

		result.State = StateRejected
		result.Reason = reason

		return result, nil
	}

	// The credit must run to completion once attempted, even if the caller
	// disconnects mid-flight.
	creditCtx := context.WithoutCancel(ctx)

	if err := r.credit(creditCtx, claim); err != nil {
		if errors.Is(err, campaign.ErrNotFound) || errors.Is(err, merchant.ErrNotFound) ||
			errors.Is(err, campaign.ErrInvalid) || errors.Is(err, merchant.ErrInvalid) ||
			errors.Is(err, money.ErrAssetMismatch) {
			return Result{}, err
		}

		// Transient store failure after internal retries: treat like ledger
		// unavailability so the caller retries the whole claim.
		slog.Warn("credit failed transiently, claim pending", "claim", claim.ID, "error", err)

		result.State = StatePending

		return result, nil
	}

	result.State = StateCredited

	return result, nil
}

// gatherFacts queries the ledger step by step, in the same order the policy
// evaluates, skipping queries that earlier answers make moot. No store lock
// is held during these calls.
func (r *Reconciler) gatherFacts(ctx context.Context, claim Claim) (Facts, error) {
	facts := Facts{MinConfirmations: r.minConfirmations}

	exists, err := r.gateway.AccountExists(ctx, claim.Destination)
	if err != nil {
		return Facts{}, fmt.Errorf("checking account: %w", err)
	}

	facts.AccountExists = exists
	if !exists {
		return facts, nil
	}

	trusted, err := r.gateway.HasTrustline(ctx, claim.Destination, claim.Amount.Asset)
	if err != nil {
		return Facts{}, fmt.Errorf("checking trustline: %w", err)
	}

	facts.HasTrustline = trusted
	if !trusted {
		return facts, nil
	}

	transfer, err := r.gateway.LookupTransfer(ctx, claim.Reference)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return facts, nil
		}

		return Facts{}, fmt.Errorf("looking up transfer: %w", err)
	}

	facts.Transfer = transfer

	if r.minConfirmations > 1 {
		latest, err := r.gateway.LatestLedger(ctx)
		if err != nil {
			return Facts{}, fmt.Errorf("reading latest ledger: %w", err)
		}

		facts.LatestLedger = latest
	} else {
		// Depth 1 is enough; the transfer's own ledger satisfies it.
		facts.LatestLedger = transfer.Ledger
	}

	return facts, nil
}

func (r *Reconciler) credit(ctx context.Context, claim Claim) error {
	switch claim.TargetKind {
	case TargetCampaign:
		res, err := r.campaigns.Credit(ctx, claim.TargetID, claim.Reference, claim.Amount)
		if err != nil {
			return err
		}

		slog.Info("donation credited",
			"claim", claim.ID,
			"reference", claim.Reference,
			"campaign", claim.TargetID,
			"result", res,
		)
	case TargetMerchant:
		res, err := r.merchants.Settle(ctx, claim.TargetID, claim.Reference, claim.Amount)
		if err != nil {
			return err
		}

		slog.Info("settlement credited",
			"claim", claim.ID,
			"reference", claim.Reference,
			"merchant", claim.TargetID,
			"result", res,
		)
	default:
		return fmt.Errorf("%w: unknown target kind %q", ErrInvalidClaim, claim.TargetKind)
	}

	return nil
}
