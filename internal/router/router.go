package router

import (
	"github.com/gin-gonic/gin"

	"invox/internal/auth"
	"invox/internal/handler"
	"invox/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	verifier auth.Verifier,
	allowedOrigins []string,
	invoiceH *handler.InvoiceHandler,
	reviewH *handler.ReviewHandler,
	statsH *handler.StatsHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(allowedOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")

	// Protected routes - require a valid bearer token
	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(verifier))

	// Invoice routes
	invoices := protected.Group("/invoices")
	invoices.POST("", invoiceH.Upload)
	invoices.GET("", invoiceH.List)
	invoices.GET("/:id", invoiceH.GetByID)
	invoices.GET("/:id/image", invoiceH.GetImageURL)
	invoices.GET("/:id/audit", invoiceH.ListAudit)
	invoices.POST("/:id/retry", invoiceH.Retry)

	// Review queue routes
	review := protected.Group("/review-queue")
	review.GET("", reviewH.ListQueue)
	review.POST("/:id/decision", reviewH.Decide)

	// Analytics
	protected.GET("/analytics", statsH.GetAnalytics)

	return r
}
