package models

import (
	"time"

	"github.com/google/uuid"
)

// Campaign represents an advertising campaign. Impressions and clicks only
// ever increase; CreatedBy is set once at creation.
type Campaign struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Budget      float64   `json:"budget"`
	CreatedBy   uuid.UUID `json:"created_by_user_id"`
	Impressions int64     `json:"impressions"`
	Clicks      int64     `json:"clicks"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CampaignStats is the derived performance view returned alongside a campaign.
// ROI attributes a fixed 10 currency units of value per click.
type CampaignStats struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	ROI         float64 `json:"roi"`
}

// Stats computes the performance view. ROI is zero for a zero budget.
func (c *Campaign) Stats() CampaignStats {
	s := CampaignStats{
		ID:          c.ID,
		Title:       c.Title,
		Impressions: c.Impressions,
		Clicks:      c.Clicks,
	}
	if c.Budget > 0 {
		s.ROI = float64(c.Clicks) * 10 / c.Budget
	}
	return s
}
