package campaigns

import (
	"github.com/gin-gonic/gin"

	"github.com/adcampaign/backend/pkg/response"
)

// RequireCampaignAccess returns a middleware that allows only the campaign
// owner or an admin through. Run after the JWT middleware.
func RequireCampaignAccess(store Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := campaignID(c)
		if !ok {
			c.Abort()
			return
		}
		caller := callerFrom(c)
		if caller == nil {
			response.Unauthorized(c, "authentication required")
			c.Abort()
			return
		}
		campaign, err := store.GetByID(c.Request.Context(), id)
		if err != nil {
			response.Internal(c, "failed to load campaign")
			c.Abort()
			return
		}
		if campaign == nil {
			response.NotFound(c, "campaign not found")
			c.Abort()
			return
		}
		if !canModify(caller, campaign) {
			response.Forbidden(c, "only the owner or an admin can access this")
			c.Abort()
			return
		}
		c.Next()
	}
}
