package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/codeternalx123/agropulseAI/internal/api/middleware"
)

// SetupRoutes configures all REST API routes
func SetupRoutes(router *gin.Engine, handler Handler, authCfg middleware.AuthConfig) {
	// Health check endpoint (no auth, no version prefix)
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Asset listing endpoints (public)
		v1.POST("/assets", handler.CreateAsset)
		v1.PUT("/assets/:id/publish", handler.PublishAsset)
		v1.GET("/assets", handler.ListAssets)
		v1.GET("/assets/:id", handler.GetAsset)

		// Escrow transaction endpoints (public)
		v1.POST("/transactions", handler.CreateTransaction)
		v1.POST("/transactions/:id/escrow", handler.EscrowFunds)
		v1.POST("/transactions/:id/delivery-proof", handler.SubmitDeliveryProof)
		v1.POST("/transactions/:id/accept", handler.AcceptDelivery)
		v1.GET("/transactions/:id", handler.GetTransaction)

		// Scheduler-only release trigger (requires API key authentication only)
		v1.POST("/transactions/:id/auto-release", middleware.APIKeyAuth(authCfg), handler.AutoRelease)

		// Dispute endpoints; arbitration actions require authentication
		v1.POST("/disputes", handler.OpenDispute)
		v1.GET("/disputes/:id", handler.GetDispute)
		v1.PUT("/disputes/:id/arbitrator", middleware.Auth(authCfg), handler.AssignArbitrator)
		v1.POST("/disputes/:id/resolve", middleware.Auth(authCfg), handler.ResolveDispute)

		// Farm inventory bookkeeping (public)
		v1.POST("/inventory/sync", handler.SyncInventory)
		v1.GET("/inventory/:farm_id", handler.GetFarmInventory)

		// Standing buyer orders (public)
		v1.POST("/orders", handler.CreateOrder)
		v1.GET("/orders/:buyer_id", handler.ListOrders)

		// Marketplace aggregates (public)
		v1.GET("/stats", handler.GetStats)
	}
}
