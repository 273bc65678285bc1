package httpapi

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"courier-bridge/internal/audit"
	"courier-bridge/internal/auth"
	"courier-bridge/internal/calls"
	"courier-bridge/internal/customers"
	"courier-bridge/internal/profiles"
	"courier-bridge/internal/reporting"
	"courier-bridge/internal/telephony"
	"courier-bridge/pkg/logger"
	"courier-bridge/pkg/utils"

	"github.com/gin-gonic/gin"
)

// CallInitiator places an outbound masked call. Satisfied by *calls.Initiator.
type CallInitiator interface {
	Initiate(ctx context.Context, courierID, customerID string) (string, error)
}

// SettingsStore is the runtime settings surface. Satisfied by *settings.Service.
type SettingsStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value, updatedBy string) error
}

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.

type Handlers struct {
	Auth      *auth.Manager
	Profiles  profiles.Repository
	Customers customers.Repository
	Settings  SettingsStore
	Reports   *reporting.Service
	Initiator CallInitiator
	Audits    *audit.Service

	// Health probes. Provider may be nil when credentials are absent.
	Provider           *telephony.Client
	DB                 *sql.DB
	ProviderConfigured bool
}

// --- Auth ---

type loginRequest struct {
	UserID string `json:"user_id"`
}

// Login issues a JWT token pair for a known profile.
//
// NOTE: This is a skeleton-only endpoint. Real systems must validate credentials.
// The role always comes from the profiles table, never from the request.
func (h Handlers) Login(c *gin.Context) {
	if h.Auth == nil || h.Profiles == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.UserID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "user_id required"})
		return
	}

	p, err := h.Profiles.Get(c.Request.Context(), req.UserID)
	if errors.Is(err, profiles.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
		return
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "profile lookup failed"})
		return
	}

	pair, err := h.Auth.IssuePair(time.Now(), p.ID, p.Role)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

// --- Call initiation ---

type initiateCallRequest struct {
	CustomerID string `json:"customer_id"`
}

// InitiateCall places a masked call from the authenticated courier to a
// customer. The courier identity comes from the access token, never the body.
func (h Handlers) InitiateCall(c *gin.Context) {
	if h.Initiator == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call service not configured"})
		return
	}
	courierID, err := auth.UserID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var req initiateCallRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.CustomerID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "customer_id required"})
		return
	}

	sid, err := h.Initiator.Initiate(c.Request.Context(), courierID, req.CustomerID)
	if err != nil {
		status := initiateErrorStatus(err)
		if status == http.StatusInternalServerError {
			logger.FromGin(c).Error("call initiation failed", "customer_id", req.CustomerID, "err", err)
			c.AbortWithStatusJSON(status, gin.H{"error": "Failed to initiate call"})
			return
		}
		c.AbortWithStatusJSON(status, gin.H{"error": publicErrorMessage(err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"call_sid": sid,
		"message":  "Call initiated successfully",
	})
}

func initiateErrorStatus(err error) int {
	switch {
	case errors.Is(err, calls.ErrNotConfigured),
		errors.Is(err, calls.ErrCourierPhoneMissing),
		errors.Is(err, calls.ErrInvalidPhoneFormat),
		errors.Is(err, calls.ErrCustomerInactive),
		errors.Is(err, calls.ErrWebhookUnreachable),
		errors.Is(err, calls.ErrWebhookInsecure):
		return http.StatusBadRequest
	case errors.Is(err, calls.ErrProfileNotFound), errors.Is(err, calls.ErrNotCourier):
		return http.StatusForbidden
	case errors.Is(err, calls.ErrCustomerNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// publicErrorMessage strips the package prefix from sentinel errors so API
// consumers see "customer not found", not "calls: customer not found".
func publicErrorMessage(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, ": "); i > 0 && !strings.Contains(msg[:i], " ") {
		return msg[i+2:]
	}
	return msg
}

// --- Health ---

const healthProbeTimeout = 5 * time.Second

// Health reports provider and database connectivity. 200 only when
// everything is reachable, 503 otherwise so load balancers drain the node.
func (h Handlers) Health(c *gin.Context) {
	ctx := c.Request.Context()

	dbOK := false
	if h.DB != nil {
		dbOK = utils.HealthCheck(ctx, h.DB, healthProbeTimeout) == nil
	}

	providerOK := false
	if h.ProviderConfigured && h.Provider != nil {
		providerOK = h.Provider.FetchAccount(ctx) == nil
	}

	status := http.StatusOK
	if !h.ProviderConfigured || !providerOK || !dbOK {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"twilio_configured":  h.ProviderConfigured,
		"twilio_connected":   providerOK,
		"database_connected": dbOK,
		"timestamp":          time.Now().UTC().Format(time.RFC3339),
	})
}
