package models

import (
	"time"

	"github.com/google/uuid"
)

// EmailType identifies why a notification was sent.
const (
	EmailTypeCampaignCreatedOwner = "campaign_created_owner"
	EmailTypeCampaignCreatedAdmin = "campaign_created_admin"
)

// EmailLogStatus for delivery.
const (
	EmailLogStatusPending = "pending"
	EmailLogStatusSent    = "sent"
	EmailLogStatusFailed  = "failed"
)

// EmailLog records outbound campaign notifications.
type EmailLog struct {
	ID             uuid.UUID  `json:"id"`
	CampaignID     *int64     `json:"campaign_id,omitempty"`
	EmailType      string     `json:"email_type"`
	RecipientEmail string     `json:"recipient_email"`
	Subject        string     `json:"subject,omitempty"`
	Body           string     `json:"-"`
	Status         string     `json:"status"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
