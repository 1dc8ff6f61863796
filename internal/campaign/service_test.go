package campaign_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/aidbridge/aidbridge/internal/campaign"
	"github.com/aidbridge/aidbridge/internal/money"
)

var usdc = money.Asset{Code: "USDC", Issuer: "GBBD47IF6LWK7P7MDEVSCWR7DPUWV3NY3DTQEVFL4NAT4AQH3ZLLFLA5"}

func validParams() campaign.CreateParams {
	return campaign.CreateParams{
		Title:       "Clean Water for Kibera",
		Description: "Borehole construction",
		Category:    "water",
		Target:      money.Amount{Units: 10_000_0000000, Asset: usdc},
		NGOWallet:   "GNGOWALLET",
		Location:    "Nairobi",
		EndDate:     time.Now().Add(30 * 24 * time.Hour),
	}
}

func TestService_Create(t *testing.T) {
	type testCase struct {
		name      string
		mutate    func(p *campaign.CreateParams)
		setupMock func(m *campaign.MockRepository)
		wantErr   error
	}

	tests := []testCase{
		{
			name: "Success",
			setupMock: func(m *campaign.MockRepository) {
				m.EXPECT().
					CreateCampaign(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, c *campaign.Campaign) error {
						c.ID = "68b1f0a2e4b0a1c2d3e4f5a6"
						c.CreatedAt = time.Now()
						return nil
					})
			},
		},
		{
			name:    "MissingTitle",
			mutate:  func(p *campaign.CreateParams) { p.Title = "" },
			wantErr: campaign.ErrInvalid,
		},
		{
			name:    "ZeroTarget",
			mutate:  func(p *campaign.CreateParams) { p.Target.Units = 0 },
			wantErr: campaign.ErrInvalid,
		},
		{
			name:    "EndDateInPast",
			mutate:  func(p *campaign.CreateParams) { p.EndDate = time.Now().Add(-time.Hour) },
			wantErr: campaign.ErrInvalid,
		},
		{
			name: "RepoError",
			setupMock: func(m *campaign.MockRepository) {
				m.EXPECT().
					CreateCampaign(gomock.Any(), gomock.Any()).
					Return(errors.New("db error"))
			},
			wantErr: errors.New("db error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := campaign.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			params := validParams()
			if tt.mutate != nil {
				tt.mutate(&params)
			}

			svc := campaign.NewService(repo)
			got, err := svc.Create(context.Background(), params)

			if tt.wantErr != nil {
				assert.Error(t, err)
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			require.NotNil(t, got)
			assert.NotEmpty(t, got.ID)
			assert.Equal(t, campaign.StatusActive, got.Status)
			assert.True(t, got.Raised.IsZero())
			assert.Equal(t, usdc, got.Raised.Asset)
			assert.Zero(t, got.DonorCount)
		})
	}
}

func TestService_TransitionStatus(t *testing.T) {
	type testCase struct {
		name      string
		to        campaign.Status
		current   campaign.Status
		setupMock func(m *campaign.MockRepository, current campaign.Status)
		wantErr   bool
	}

	getReturning := func(m *campaign.MockRepository, current campaign.Status) {
		m.EXPECT().
			GetCampaign(gomock.Any(), "c1").
			Return(&campaign.Campaign{ID: "c1", Status: current}, nil)
	}

	tests := []testCase{
		{
			name:    "ActiveToClosed",
			to:      campaign.StatusClosed,
			current: campaign.StatusActive,
			setupMock: func(m *campaign.MockRepository, current campaign.Status) {
				getReturning(m, current)
				m.EXPECT().UpdateStatus(gomock.Any(), "c1", campaign.StatusClosed).Return(nil)
			},
		},
		{
			name:    "ActiveToCancelled",
			to:      campaign.StatusCancelled,
			current: campaign.StatusActive,
			setupMock: func(m *campaign.MockRepository, current campaign.Status) {
				getReturning(m, current)
				m.EXPECT().UpdateStatus(gomock.Any(), "c1", campaign.StatusCancelled).Return(nil)
			},
		},
		{
			name:      "ClosedIsTerminal",
			to:        campaign.StatusCancelled,
			current:   campaign.StatusClosed,
			setupMock: getReturning,
			wantErr:   true,
		},
		{
			name:    "BackToActiveForbidden",
			to:      campaign.StatusActive,
			current: campaign.StatusClosed,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := campaign.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo, tt.current)
			}

			svc := campaign.NewService(repo)
			err := svc.TransitionStatus(context.Background(), "c1", tt.to)

			if tt.wantErr {
				assert.ErrorIs(t, err, campaign.ErrInvalid)
				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestService_Credit(t *testing.T) {
	amount := money.Amount{Units: 500_000_000, Asset: usdc}

	t.Run("Applied", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := campaign.NewMockRepository(ctrl)
		repo.EXPECT().
			GetCampaign(gomock.Any(), "c1").
			Return(&campaign.Campaign{ID: "c1", Target: money.Amount{Units: 1, Asset: usdc}}, nil)
		repo.EXPECT().
			CreditDonation(gomock.Any(), "c1", "tx1", amount).
			Return(campaign.CreditApplied, nil)

		svc := campaign.NewService(repo)
		result, err := svc.Credit(context.Background(), "c1", "tx1", amount)

		require.NoError(t, err)
		assert.Equal(t, campaign.CreditApplied, result)
	})

	t.Run("AssetMismatch", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := campaign.NewMockRepository(ctrl)
		repo.EXPECT().
			GetCampaign(gomock.Any(), "c1").
			Return(&campaign.Campaign{ID: "c1", Target: money.Amount{Units: 1, Asset: money.Native()}}, nil)

		svc := campaign.NewService(repo)
		_, err := svc.Credit(context.Background(), "c1", "tx1", amount)

		assert.ErrorIs(t, err, money.ErrAssetMismatch)
	})

	t.Run("EmptyReference", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		svc := campaign.NewService(campaign.NewMockRepository(ctrl))
		_, err := svc.Credit(context.Background(), "c1", "", amount)

		assert.ErrorIs(t, err, campaign.ErrInvalid)
	})
}
