package campaigns

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/adcampaign/backend/internal/middleware"
	"github.com/adcampaign/backend/internal/models"
	"github.com/adcampaign/backend/pkg/response"
)

// CampaignRequest is the body for POST /campaigns and PUT /campaigns/:id.
type CampaignRequest struct {
	Title       string  `json:"title" binding:"required"`
	Description string  `json:"description"`
	Budget      float64 `json:"budget" binding:"gte=0"`
}

// Handler handles campaign HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a campaign handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// callerFrom builds the caller identity from JWT claims set by the middleware.
// Returns nil for anonymous requests.
func callerFrom(c *gin.Context) *Caller {
	idVal, ok := c.Get(middleware.ContextUserID)
	if !ok {
		return nil
	}
	id, ok := idVal.(uuid.UUID)
	if !ok {
		return nil
	}
	role, _ := c.Get(middleware.ContextUserRole)
	email, _ := c.Get(middleware.ContextUserEmail)
	roleStr, _ := role.(string)
	emailStr, _ := email.(string)
	return &Caller{ID: id, Email: emailStr, Role: models.Role(roleStr)}
}

func campaignID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid campaign id")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondErr(c *gin.Context, err error) {
	switch err {
	case ErrUnauthenticated:
		response.Unauthorized(c, "authentication required")
	case ErrForbidden:
		response.Forbidden(c, "only the owner or an admin can modify this campaign")
	case ErrNotFound:
		response.NotFound(c, "campaign not found")
	default:
		h.logger.Error("campaign operation failed", zap.Error(err))
		response.Internal(c, "internal error")
	}
}

// ListAll handles GET /campaigns.
func (h *Handler) ListAll(c *gin.Context) {
	list, err := h.svc.ListAll(c.Request.Context())
	if err != nil {
		h.respondErr(c, err)
		return
	}
	response.OK(c, list)
}

// ListMine handles GET /campaigns/my. Admins see every campaign.
func (h *Handler) ListMine(c *gin.Context) {
	list, err := h.svc.ListMine(c.Request.Context(), callerFrom(c))
	if err != nil {
		h.respondErr(c, err)
		return
	}
	response.OK(c, list)
}

// Get handles GET /campaigns/:id. Returns the campaign with its ROI view.
func (h *Handler) Get(c *gin.Context) {
	id, ok := campaignID(c)
	if !ok {
		return
	}
	campaign, stats, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	response.OK(c, gin.H{"campaign": campaign, "stats": stats})
}

// Create handles POST /campaigns.
func (h *Handler) Create(c *gin.Context) {
	var req CampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	campaign, err := h.svc.Create(c.Request.Context(), callerFrom(c), CreateParams{
		Title:       req.Title,
		Description: req.Description,
		Budget:      req.Budget,
	})
	if err != nil {
		h.respondErr(c, err)
		return
	}
	response.Created(c, campaign)
}

// Update handles PUT /campaigns/:id (owner or admin).
func (h *Handler) Update(c *gin.Context) {
	id, ok := campaignID(c)
	if !ok {
		return
	}
	var req CampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	campaign, err := h.svc.Update(c.Request.Context(), callerFrom(c), id, CreateParams{
		Title:       req.Title,
		Description: req.Description,
		Budget:      req.Budget,
	})
	if err != nil {
		h.respondErr(c, err)
		return
	}
	response.OK(c, campaign)
}

// Delete handles DELETE /campaigns/:id (owner or admin).
func (h *Handler) Delete(c *gin.Context) {
	id, ok := campaignID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), callerFrom(c), id); err != nil {
		h.respondErr(c, err)
		return
	}
	response.NoContent(c)
}

// RecordImpression handles POST /campaigns/:id/impression (anonymous).
func (h *Handler) RecordImpression(c *gin.Context) {
	id, ok := campaignID(c)
	if !ok {
		return
	}
	campaign, err := h.svc.RecordImpression(c.Request.Context(), id)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	response.OK(c, campaign)
}

// RecordClick handles POST /campaigns/:id/click (anonymous).
func (h *Handler) RecordClick(c *gin.Context) {
	id, ok := campaignID(c)
	if !ok {
		return
	}
	campaign, err := h.svc.RecordClick(c.Request.Context(), id)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	response.OK(c, campaign)
}
