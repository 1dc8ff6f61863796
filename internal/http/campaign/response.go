package campaign

import (
	"time"

	"github.com/aidbridge/aidbridge/internal/campaign"
)

type campaignResponse struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Category     string     `json:"category"`
	Status       string     `json:"status"`
	TargetAmount string     `json:"target_amount"`
	RaisedAmount string     `json:"raised_amount"`
	Asset        string     `json:"asset"`
	DonorCount   int64      `json:"donor_count"`
	NGOWallet    string     `json:"ngo_wallet"`
	Location     string     `json:"location,omitempty"`
	StartDate    time.Time  `json:"start_date"`
	EndDate      time.Time  `json:"end_date"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

type listResponse struct {
	Campaigns []campaignResponse `json:"campaigns"`
	Total     int64              `json:"total"`
	Limit     int64              `json:"limit"`
	Skip      int64              `json:"skip"`
}

func toResponse(c *campaign.Campaign) campaignResponse {
	return campaignResponse{
		ID:           c.ID,
		Title:        c.Title,
		Description:  c.Description,
		Category:     c.Category,
		Status:       string(c.Status),
		TargetAmount: c.Target.Display(),
		RaisedAmount: c.Raised.Display(),
		Asset:        c.Target.Asset.String(),
		DonorCount:   c.DonorCount,
		NGOWallet:    c.NGOWallet,
		Location:     c.Location,
		StartDate:    c.StartDate,
		EndDate:      c.EndDate,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func toListResponse(campaigns []*campaign.Campaign, total int64, filter campaign.ListFilter) listResponse {
	items := make([]campaignResponse, len(campaigns))
	for i, c := range campaigns {
		items[i] = toResponse(c)
	}

	return listResponse{
		Campaigns: items,
		Total:     total,
		Limit:     filter.Limit,
		Skip:      filter.Skip,
	}
}
