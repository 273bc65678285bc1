package admin

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"courier-bridge/internal/auth"
	"courier-bridge/internal/rbac"

	"github.com/gin-gonic/gin"
)

// CronSecretHeader authorizes scheduler-triggered resets without a user token.
const CronSecretHeader = "X-Cron-Secret"

// ResetHandler exposes POST /admin/reset. The route stays outside the normal
// auth chain because the cron scheduler has no user token; authorization is
// either the shared cron secret or an admin bearer token.
type ResetHandler struct {
	svc        *ResetService
	tokens     *auth.Manager
	cronSecret string
}

func NewResetHandler(svc *ResetService, tokens *auth.Manager, cronSecret string) *ResetHandler {
	return &ResetHandler{svc: svc, tokens: tokens, cronSecret: cronSecret}
}

func (h *ResetHandler) isCron(c *gin.Context) bool {
	if h.cronSecret == "" {
		return false
	}
	got := c.GetHeader(CronSecretHeader)
	return subtle.ConstantTimeCompare([]byte(got), []byte(h.cronSecret)) == 1
}

func (h *ResetHandler) HandleReset(c *gin.Context) {
	var actorUserID, actorRole string

	if !h.isCron(c) {
		raw := strings.TrimSpace(c.GetHeader("Authorization"))
		if raw == "" || !strings.HasPrefix(raw, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		claims, err := h.tokens.Verify(strings.TrimPrefix(raw, "Bearer "), auth.TokenTypeAccess, time.Now())
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		if !rbac.IsAdmin(claims.Role) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Only admins can reset the list"})
			return
		}
		actorUserID, actorRole = claims.UserID, claims.Role
	}

	res, err := h.svc.Run(c.Request.Context(), actorUserID, actorRole, c.ClientIP())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Reset failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"message":        "Daily reset completed successfully",
		"archived_calls": res.ArchivedCalls,
		"reset_date":     res.ResetDate,
	})
}
