package campaign

import (
	"context"
	"fmt"
	"time"

	"github.com/aidbridge/aidbridge/internal/money"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=campaign
type Repository interface {
	CreateCampaign(ctx context.Context, c *Campaign) error
	GetCampaign(ctx context.Context, id string) (*Campaign, error)
	ListCampaigns(ctx context.Context, filter ListFilter) ([]*Campaign, int64, error)
	UpdateStatus(ctx context.Context, id string, status Status) error

	// CreditDonation atomically records the reference and increments the
	// campaign's raised amount and donor count. At most one credit is ever
	// applied per reference, backed by a storage-level unique constraint.
	CreditDonation(ctx context.Context, id, reference string, amount money.Amount) (CreditResult, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type CreateParams struct {
	Title       string
	Description string
	Category    string
	Target      money.Amount
	NGOWallet   string
	Location    string
	EndDate     time.Time
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*Campaign, error) {
	if params.Title == "" || params.Description == "" || params.Category == "" || params.NGOWallet == "" {
		return nil, fmt.Errorf("%w: missing required fields", ErrInvalid)
	}

	if params.Target.Units <= 0 {
		return nil, fmt.Errorf("%w: target amount must be positive", ErrInvalid)
	}

	start := time.Now().UTC()
	if !params.EndDate.After(start) {
		return nil, fmt.Errorf("%w: end date must be in the future", ErrInvalid)
	}

	c := &Campaign{
		Title:       params.Title,
		Description: params.Description,
		Category:    params.Category,
		Status:      StatusActive,
		Target:      params.Target,
		Raised:      money.Zero(params.Target.Asset),
		NGOWallet:   params.NGOWallet,
		Location:    params.Location,
		StartDate:   start,
		EndDate:     params.EndDate,
	}
	if err := s.repo.CreateCampaign(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Campaign, error) {
	return s.repo.GetCampaign(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Campaign, int64, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}

	return s.repo.ListCampaigns(ctx, filter)
}

// TransitionStatus applies an administrative status change. Only active
// campaigns may transition, and only to closed or cancelled.
func (s *Service) TransitionStatus(ctx context.Context, id string, to Status) error {
	if to != StatusClosed && to != StatusCancelled {
		return fmt.Errorf("%w: cannot transition to %q", ErrInvalid, to)
	}

	c, err := s.repo.GetCampaign(ctx, id)
	if err != nil {
		return err
	}

	if c.Status != StatusActive {
		return fmt.Errorf("%w: campaign is %s", ErrInvalid, c.Status)
	}

	return s.repo.UpdateStatus(ctx, id, to)
}

// Credit applies a ledger-verified donation to the campaign's counters.
// Safe to call repeatedly with the same reference.
func (s *Service) Credit(ctx context.Context, id, reference string, amount money.Amount) (CreditResult, error) {
	if reference == "" {
		return "", fmt.Errorf("%w: empty reference", ErrInvalid)
	}

	if amount.Units <= 0 {
		return "", fmt.Errorf("%w: credit amount must be positive", ErrInvalid)
	}

	c, err := s.repo.GetCampaign(ctx, id)
	if err != nil {
		return "", err
	}

	if c.Target.Asset != amount.Asset {
		return "", fmt.Errorf("crediting campaign %s: %w: campaign is denominated in %s, got %s",
			id, money.ErrAssetMismatch, c.Target.Asset, amount.Asset)
	}

	return s.repo.CreditDonation(ctx, id, reference, amount)
}
