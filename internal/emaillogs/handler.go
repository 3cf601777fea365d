package emaillogs

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/adcampaign/backend/internal/models"
	"github.com/adcampaign/backend/pkg/queue"
	"github.com/adcampaign/backend/pkg/response"
)

// LogStore is the subset of the repository the handler reads and updates.
type LogStore interface {
	ListByCampaign(ctx context.Context, campaignID int64) ([]*models.EmailLog, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.EmailLog, error)
	MarkPending(ctx context.Context, id uuid.UUID) error
}

// Enqueuer hands delivery jobs to the email worker.
type Enqueuer interface {
	EnqueueEmail(ctx context.Context, payload queue.EmailPayload) error
}

// Handler handles email log HTTP endpoints.
type Handler struct {
	store  LogStore
	queue  Enqueuer
	logger *zap.Logger
}

// NewHandler creates an email logs handler.
func NewHandler(store LogStore, q Enqueuer, logger *zap.Logger) *Handler {
	return &Handler{store: store, queue: q, logger: logger}
}

// ListByCampaign handles GET /campaigns/:id/emails. Run after
// campaigns.RequireCampaignAccess so access is already validated.
func (h *Handler) ListByCampaign(c *gin.Context) {
	campaignID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid campaign id")
		return
	}
	logs, err := h.store.ListByCampaign(c.Request.Context(), campaignID)
	if err != nil {
		response.Internal(c, "failed to load email logs")
		return
	}
	response.OK(c, logs)
}

// ResendRequest is the body for POST /campaigns/:id/emails/resend.
type ResendRequest struct {
	EmailLogID string `json:"email_log_id" binding:"required,uuid"`
}

// Resend handles POST /campaigns/:id/emails/resend. Re-enqueues a logged
// notification for delivery by the email worker. The log must belong to the
// campaign in the path; access to other campaigns' logs is not revealed.
func (h *Handler) Resend(c *gin.Context) {
	campaignID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid campaign id")
		return
	}
	var body ResendRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "email_log_id required")
		return
	}
	logID, err := uuid.Parse(body.EmailLogID)
	if err != nil {
		response.BadRequest(c, "invalid email_log_id")
		return
	}
	entry, err := h.store.GetByID(c.Request.Context(), logID)
	if err != nil {
		response.Internal(c, "failed to load email log")
		return
	}
	if entry == nil || entry.CampaignID == nil || *entry.CampaignID != campaignID {
		response.NotFound(c, "email log not found")
		return
	}
	if err := h.store.MarkPending(c.Request.Context(), entry.ID); err != nil {
		response.Internal(c, "failed to update email log")
		return
	}
	err = h.queue.EnqueueEmail(c.Request.Context(), queue.EmailPayload{
		EmailLogID:     entry.ID,
		CampaignID:     entry.CampaignID,
		RecipientEmail: entry.RecipientEmail,
		Subject:        entry.Subject,
		Body:           entry.Body,
	})
	if err != nil {
		h.logger.Error("enqueue email", zap.Error(err))
		response.Internal(c, "failed to enqueue email")
		return
	}
	response.OK(c, gin.H{"message": "resend queued"})
}
