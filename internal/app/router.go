// internal/app/router.go
package app

import (
	authHandler "instaup-service/internal/handlers/auth"
	catalogHandler "instaup-service/internal/handlers/catalog"
	fundingHandler "instaup-service/internal/handlers/funding"
	orderHandler "instaup-service/internal/handlers/orders"
	wsHandler "instaup-service/internal/handlers/websocket"
	"instaup-service/internal/middleware"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	AuthHandler    *authHandler.AuthHandler
	OrderHandler   *orderHandler.OrderHandler
	FundingHandler *fundingHandler.FundingHandler
	CatalogHandler *catalogHandler.CatalogHandler
	WSHandler      *wsHandler.WebSocketHandler
	AuthMiddleware *middleware.AuthMiddleware
}

func SetupRouter(r *gin.Engine, h *Handlers) {
	api := r.Group("/api/v1")

	// ==================== Health Check ====================
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "version": "1.0.0"})
	})

	// ==================== WebSocket ====================
	r.GET("/ws", h.WSHandler.HandleConnection)

	// ==================== Public Routes ====================
	authPublic := api.Group("/auth")
	{
		authPublic.POST("/register", h.AuthHandler.Register)
		authPublic.POST("/login", h.AuthHandler.Login)
	}

	api.GET("/services", h.CatalogHandler.List)

	// ==================== Authenticated Routes ====================
	authProtected := api.Group("/auth")
	authProtected.Use(h.AuthMiddleware.Auth())
	{
		authProtected.POST("/logout", h.AuthHandler.Logout)
		authProtected.GET("/me", h.AuthHandler.GetMe)
	}

	api.GET("/session", h.AuthMiddleware.Auth(), h.AuthHandler.GetMe)

	orders := api.Group("/orders")
	orders.Use(h.AuthMiddleware.Auth())
	{
		orders.POST("", h.OrderHandler.Create)
		orders.GET("", h.OrderHandler.List)
		orders.GET("/:id", h.OrderHandler.Get)
	}

	funds := api.Group("/funds")
	funds.Use(h.AuthMiddleware.Auth())
	{
		funds.POST("/deposit", h.FundingHandler.Deposit)
	}
}
