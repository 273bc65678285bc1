package httpapi

import (
	"net/http"

	"courier-bridge/internal/auth"
	"courier-bridge/pkg/logger"

	"github.com/gin-gonic/gin"
)

type putSettingRequest struct {
	Value string `json:"value"`
}

// GetSetting reads one system setting. Admin only. An absent key returns an
// empty value, matching how the rest of the service treats unset settings.
func (h Handlers) GetSetting(c *gin.Context) {
	key := c.Param("key")
	val, err := h.Settings.Get(c.Request.Context(), key)
	if err != nil {
		logger.FromGin(c).Error("setting read failed", "key", key, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "setting lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "value": val})
}

// PutSetting writes one system setting. Admin only.
func (h Handlers) PutSetting(c *gin.Context) {
	key := c.Param("key")
	var req putSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	actorID, _ := auth.UserID(c.Request.Context())
	if err := h.Settings.Set(c.Request.Context(), key, req.Value, actorID); err != nil {
		logger.FromGin(c).Error("setting write failed", "key", key, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "setting write failed"})
		return
	}

	if h.Audits != nil {
		role, _ := auth.Role(c.Request.Context())
		if err := h.Audits.LogSettingChange(c.Request.Context(), actorID, role, c.ClientIP(), key, "setting updated"); err != nil {
			logger.FromGin(c).Warn("audit write failed", "err", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"key": key, "value": req.Value})
}
