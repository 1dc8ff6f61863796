package reconcile_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidbridge/aidbridge/internal/campaign"
	"github.com/aidbridge/aidbridge/internal/ledger"
	"github.com/aidbridge/aidbridge/internal/merchant"
	"github.com/aidbridge/aidbridge/internal/money"
	"github.com/aidbridge/aidbridge/internal/reconcile"
)

// fakeGateway answers ledger queries from canned funcs.
type fakeGateway struct {
	accountExistsFunc  func(address string) (bool, error)
	hasTrustlineFunc   func(address string, asset money.Asset) (bool, error)
	lookupTransferFunc func(reference string) (*ledger.TransferRecord, error)
	latestLedgerFunc   func() (int32, error)
}

func (g *fakeGateway) AccountExists(_ context.Context, address string) (bool, error) {
	if g.accountExistsFunc != nil {
		return g.accountExistsFunc(address)
	}

	return true, nil
}

func (g *fakeGateway) HasTrustline(_ context.Context, address string, asset money.Asset) (bool, error) {
	if g.hasTrustlineFunc != nil {
		return g.hasTrustlineFunc(address, asset)
	}

	return true, nil
}

func (g *fakeGateway) LookupTransfer(_ context.Context, reference string) (*ledger.TransferRecord, error) {
	if g.lookupTransferFunc != nil {
		return g.lookupTransferFunc(reference)
	}

	return matchingTransfer(), nil
}

func (g *fakeGateway) LatestLedger(_ context.Context) (int32, error) {
	if g.latestLedgerFunc != nil {
		return g.latestLedgerFunc()
	}

	return 100, nil
}

// fakeCampaigns applies real per-reference idempotence so resubmission
// scenarios exercise the actual contract.
type fakeCampaigns struct {
	applied     map[string]struct{}
	raisedUnits int64
	donorCount  int64
	creditErr   error
}

func newFakeCampaigns() *fakeCampaigns {
	return &fakeCampaigns{applied: map[string]struct{}{}}
}

func (f *fakeCampaigns) Credit(_ context.Context, id, reference string, amount money.Amount) (campaign.CreditResult, error) {
	if f.creditErr != nil {
		return "", f.creditErr
	}

	if _, ok := f.applied[reference]; ok {
		return campaign.CreditAlreadyApplied, nil
	}

	f.applied[reference] = struct{}{}
	f.raisedUnits += amount.Units
	f.donorCount++

	return campaign.CreditApplied, nil
}

type fakeMerchants struct {
	settled map[string]struct{}
}

func (f *fakeMerchants) Settle(_ context.Context, id, reference string, amount money.Amount) (merchant.SettleResult, error) {
	if f.settled == nil {
		f.settled = map[string]struct{}{}
	}

	if _, ok := f.settled[reference]; ok {
		return merchant.SettleAlreadyApplied, nil
	}

	f.settled[reference] = struct{}{}

	return merchant.SettleApplied, nil
}

func TestReconciler_CreditsEligibleClaim(t *testing.T) {
	campaigns := newFakeCampaigns()
	r := reconcile.New(&fakeGateway{}, campaigns, &fakeMerchants{}, 1)

	result, err := r.Submit(context.Background(), eligibleClaim())

	require.NoError(t, err)
	assert.Equal(t, reconcile.StateCredited, result.State)
	assert.NotZero(t, result.ClaimID)
	assert.Equal(t, int64(500_000_000), campaigns.raisedUnits)
	assert.Equal(t, int64(1), campaigns.donorCount)
}

func TestReconciler_ResubmissionIsIdempotent(t *testing.T) {
	campaigns := newFakeCampaigns()
	r := reconcile.New(&fakeGateway{}, campaigns, &fakeMerchants{}, 1)

	first, err := r.Submit(context.Background(), eligibleClaim())
	require.NoError(t, err)
	require.Equal(t, reconcile.StateCredited, first.State)

	second, err := r.Submit(context.Background(), eligibleClaim())
	require.NoError(t, err)
	assert.Equal(t, reconcile.StateCredited, second.State)

	// Counters moved exactly once.
	assert.Equal(t, int64(500_000_000), campaigns.raisedUnits)
	assert.Equal(t, int64(1), campaigns.donorCount)
}

func TestReconciler_MissingAccountNeverCredits(t *testing.T) {
	campaigns := newFakeCampaigns()
	gateway := &fakeGateway{
		accountExistsFunc: func(string) (bool, error) { return false, nil },
	}
	r := reconcile.New(gateway, campaigns, &fakeMerchants{}, 1)

	result, err := r.Submit(context.Background(), eligibleClaim())

	require.NoError(t, err)
	assert.Equal(t, reconcile.StateRejected, result.State)
	assert.Equal(t, reconcile.ReasonAccountNotFound, result.Reason)
	assert.Zero(t, campaigns.raisedUnits)
	assert.Zero(t, campaigns.donorCount)
}

func TestReconciler_MissingTrustlineRejectsDespiteTransfer(t *testing.T) {
	campaigns := newFakeCampaigns()
	gateway := &fakeGateway{
		hasTrustlineFunc: func(string, money.Asset) (bool, error) { return false, nil },
	}
	r := reconcile.New(gateway, campaigns, &fakeMerchants{}, 1)

	result, err := r.Submit(context.Background(), eligibleClaim())

	require.NoError(t, err)
	assert.Equal(t, reconcile.StateRejected, result.State)
	assert.Equal(t, reconcile.ReasonNoTrustline, result.Reason)
	assert.Zero(t, campaigns.donorCount)
}

func TestReconciler_LedgerUnavailableResolvesPending(t *testing.T) {
	campaigns := newFakeCampaigns()
	gateway := &fakeGateway{
		accountExistsFunc: func(string) (bool, error) { return false, ledger.ErrUnavailable },
	}
	r := reconcile.New(gateway, campaigns, &fakeMerchants{}, 1)

	result, err := r.Submit(context.Background(), eligibleClaim())

	require.NoError(t, err)
	assert.Equal(t, reconcile.StatePending, result.State)
	assert.Zero(t, campaigns.raisedUnits)
	assert.Zero(t, campaigns.donorCount)
}

func TestReconciler_TransferNotFoundRejects(t *testing.T) {
	gateway := &fakeGateway{
		lookupTransferFunc: func(string) (*ledger.TransferRecord, error) {
			return nil, ledger.ErrNotFound
		},
	}
	r := reconcile.New(gateway, newFakeCampaigns(), &fakeMerchants{}, 1)

	result, err := r.Submit(context.Background(), eligibleClaim())

	require.NoError(t, err)
	assert.Equal(t, reconcile.StateRejected, result.State)
	assert.Equal(t, reconcile.ReasonTransferNotFound, result.Reason)
}

func TestReconciler_AmountMismatchRejects(t *testing.T) {
	gateway := &fakeGateway{
		lookupTransferFunc: func(string) (*ledger.TransferRecord, error) {
			rec := matchingTransfer()
			rec.Amount.Units = 1
			return rec, nil
		},
	}
	r := reconcile.New(gateway, newFakeCampaigns(), &fakeMerchants{}, 1)

	result, err := r.Submit(context.Background(), eligibleClaim())

	require.NoError(t, err)
	assert.Equal(t, reconcile.StateRejected, result.State)
	assert.Equal(t, reconcile.ReasonAmountMismatch, result.Reason)
}

func TestReconciler_UnconfirmedTransferRejects(t *testing.T) {
	gateway := &fakeGateway{
		latestLedgerFunc: func() (int32, error) { return 101, nil }, // depth 2 of 3
	}
	r := reconcile.New(gateway, newFakeCampaigns(), &fakeMerchants{}, 3)

	result, err := r.Submit(context.Background(), eligibleClaim())

	require.NoError(t, err)
	assert.Equal(t, reconcile.StateRejected, result.State)
	assert.Equal(t, reconcile.ReasonUnconfirmed, result.Reason)
}

func TestReconciler_SettlesMerchantClaims(t *testing.T) {
	merchants := &fakeMerchants{}
	r := reconcile.New(&fakeGateway{}, newFakeCampaigns(), merchants, 1)

	claim := eligibleClaim()
	claim.TargetKind = reconcile.TargetMerchant
	claim.TargetID = "m1"

	result, err := r.Submit(context.Background(), claim)

	require.NoError(t, err)
	assert.Equal(t, reconcile.StateCredited, result.State)
	assert.Contains(t, merchants.settled, "tx1")
}

func TestReconciler_TargetNotFoundSurfaces(t *testing.T) {
	campaigns := newFakeCampaigns()
	campaigns.creditErr = campaign.ErrNotFound
	r := reconcile.New(&fakeGateway{}, campaigns, &fakeMerchants{}, 1)

	_, err := r.Submit(context.Background(), eligibleClaim())

	assert.ErrorIs(t, err, campaign.ErrNotFound)
}

func TestReconciler_InvalidClaims(t *testing.T) {
	r := reconcile.New(&fakeGateway{}, newFakeCampaigns(), &fakeMerchants{}, 1)

	type testCase struct {
		name   string
		mutate func(c *reconcile.Claim)
	}

	tests := []testCase{
		{name: "NoReference", mutate: func(c *reconcile.Claim) { c.Reference = "" }},
		{name: "NoTarget", mutate: func(c *reconcile.Claim) { c.TargetID = "" }},
		{name: "BadKind", mutate: func(c *reconcile.Claim) { c.TargetKind = "ngo" }},
		{name: "NoDestination", mutate: func(c *reconcile.Claim) { c.Destination = "" }},
		{name: "ZeroAmount", mutate: func(c *reconcile.Claim) { c.Amount.Units = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claim := eligibleClaim()
			tt.mutate(&claim)

			_, err := r.Submit(context.Background(), claim)
			assert.ErrorIs(t, err, reconcile.ErrInvalidClaim)
		})
	}
}
