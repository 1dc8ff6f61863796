package merchant

import (
	"context"
	"fmt"

	"github.com/aidbridge/aidbridge/internal/money"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=merchant
type Repository interface {
	CreateMerchant(ctx context.Context, m *Merchant) error
	GetMerchant(ctx context.Context, id string) (*Merchant, error)
	ListMerchants(ctx context.Context, filter ListFilter) ([]*Merchant, int64, error)
	MarkVerified(ctx context.Context, id string) error

	// RecordSettlement atomically records the reference and increments the
	// merchant's totalRevenue and totalOrders, at most once per reference.
	RecordSettlement(ctx context.Context, id, reference string, amount money.Amount) (SettleResult, error)
}

type Service struct {
	repo  Repository
	asset money.Asset
}

// NewService builds a merchant service. All merchant revenue is denominated
// in the platform asset.
func NewService(repo Repository, asset money.Asset) *Service {
	return &Service{repo: repo, asset: asset}
}

type RegisterParams struct {
	Name          string
	Category      string
	WalletAddress string
	Email         string
	Phone         string
}

// Register creates a merchant in the unverified state.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*Merchant, error) {
	if params.Name == "" || params.Category == "" || params.WalletAddress == "" {
		return nil, fmt.Errorf("%w: missing required fields", ErrInvalid)
	}

	m := &Merchant{
		Name:          params.Name,
		Category:      params.Category,
		WalletAddress: params.WalletAddress,
		Email:         params.Email,
		Phone:         params.Phone,
		Verified:      false,
		TotalRevenue:  money.Zero(s.asset),
	}
	if err := s.repo.CreateMerchant(ctx, m); err != nil {
		return nil, err
	}

	return m, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Merchant, error) {
	return s.repo.GetMerchant(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Merchant, int64, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}

	return s.repo.ListMerchants(ctx, filter)
}

// Verify marks the merchant as administratively approved. Verification is
// one-way; verifying an already-verified merchant succeeds without effect.
func (s *Service) Verify(ctx context.Context, id string) error {
	return s.repo.MarkVerified(ctx, id)
}

// Settle applies a ledger-verified payment to the merchant's totals.
// Safe to call repeatedly with the same reference.
func (s *Service) Settle(ctx context.Context, id, reference string, amount money.Amount) (SettleResult, error) {
	if reference == "" {
		return "", fmt.Errorf("%w: empty reference", ErrInvalid)
	}

	if amount.Units <= 0 {
		return "", fmt.Errorf("%w: settlement amount must be positive", ErrInvalid)
	}

	if amount.Asset != s.asset {
		return "", fmt.Errorf("settling merchant %s: %w: expected %s, got %s",
			id, money.ErrAssetMismatch, s.asset, amount.Asset)
	}

	return s.repo.RecordSettlement(ctx, id, reference, amount)
}
