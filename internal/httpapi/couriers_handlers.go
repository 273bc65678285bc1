package httpapi

import (
	"errors"
	"net/http"

	"courier-bridge/internal/auth"
	"courier-bridge/internal/profiles"
	"courier-bridge/pkg/logger"

	"github.com/gin-gonic/gin"
)

// DeleteCourier removes a courier's profile. Admin only. The identity-provider
// account lives outside this service; deleting the profile is what revokes
// access here.
func (h Handlers) DeleteCourier(c *gin.Context) {
	courierID := c.Param("id")

	actorID, _ := auth.UserID(c.Request.Context())
	if actorID == courierID {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "You cannot delete your own account"})
		return
	}

	err := h.Profiles.Delete(c.Request.Context(), courierID)
	if errors.Is(err, profiles.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "courier not found"})
		return
	}
	if err != nil {
		logger.FromGin(c).Error("courier delete failed", "courier_id", courierID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete courier"})
		return
	}

	if h.Audits != nil {
		role, _ := auth.Role(c.Request.Context())
		if err := h.Audits.LogCourierRemoval(c.Request.Context(), actorID, role, c.ClientIP(), courierID); err != nil {
			logger.FromGin(c).Warn("audit write failed", "err", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Courier deleted successfully"})
}
