package main

import (
	"courier-bridge/internal/admin"
	"courier-bridge/internal/httpapi"
	"courier-bridge/internal/rbac"
	"courier-bridge/internal/telephony"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, api httpapi.Handlers, webhooks telephony.WebhookHandlers, reset *admin.ResetHandler, authMW gin.HandlerFunc) {
	// Public: health and provider callbacks. Status and incoming callbacks
	// carry provider signatures; connect is exempt (single-use URL minted by
	// this service moments earlier).
	r.GET("/health", api.Health)

	voice := r.Group("/webhooks/voice")
	{
		voice.POST("/connect", webhooks.HandleConnect)
		voice.POST("/status", webhooks.HandleStatus)
		voice.POST("/incoming", webhooks.HandleIncoming)
	}

	// Reset authorizes itself: admin bearer token or the cron secret header.
	r.POST("/admin/reset", reset.HandleReset)

	v1 := r.Group("/v1")

	// Token issuance is the only unauthenticated v1 route.
	v1.POST("/auth/login", api.Login)

	v1.Use(authMW)
	{
		// Courier-facing surface.
		v1.POST("/call/initiate", rbac.RequireAnyRole(rbac.RoleCourier), api.InitiateCall)
		v1.GET("/customers", rbac.RequireAnyRole(rbac.RoleCourier), api.ListCustomersPublic)

		adminGroup := v1.Group("/admin")
		adminGroup.Use(rbac.RequireAnyRole(rbac.RoleAdmin))
		{
			adminGroup.POST("/customers", api.CreateCustomer)
			adminGroup.GET("/customers", api.ListCustomers)
			adminGroup.GET("/customers/:id", api.GetCustomer)
			adminGroup.PATCH("/customers/:id", api.UpdateCustomer)
			adminGroup.DELETE("/customers/:id", api.DeactivateCustomer)

			adminGroup.DELETE("/couriers/:id", api.DeleteCourier)

			adminGroup.GET("/settings/:key", api.GetSetting)
			adminGroup.PUT("/settings/:key", api.PutSetting)

			adminGroup.GET("/calls", api.ListCallLogs)
			adminGroup.GET("/calls/summary", api.CallsSummary)
			adminGroup.GET("/calls/export", api.ExportCallsCSV)
		}
	}
}
