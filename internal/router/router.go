package router

import (
	"github.com/gin-gonic/gin"

	"farmbooks/internal/config"
	"farmbooks/internal/domain"
	"farmbooks/internal/handler"
	"farmbooks/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	cfg *config.Config,
	invoiceH *handler.InvoiceHandler,
	syncH *handler.SyncHandler,
	ruleH *handler.RuleHandler,
	linkingH *handler.LinkingHandler,
	attachmentH *handler.AttachmentHandler,
	entityH *handler.EntityHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")

	// Protected routes - require valid JWT
	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(&cfg.JWT))

	// Invoice routes
	invoices := protected.Group("/invoices")
	invoices.GET("", invoiceH.List)
	invoices.GET("/export", invoiceH.ExportRegister)
	invoices.GET("/:id", invoiceH.GetByID)
	invoices.POST("/:id/assign", invoiceH.Assign)
	invoices.POST("/:id/reclassify", invoiceH.Reclassify)
	invoices.POST("/:id/archive", invoiceH.Archive)
	invoices.GET("/:id/audit", invoiceH.AuditTrail)
	invoices.GET("/:id/relations", invoiceH.Relations)
	invoices.POST("/:id/link", linkingH.Confirm)
	invoices.POST("/:id/link/dismiss", linkingH.Dismiss)
	invoices.POST("/:id/attachments", attachmentH.Upload)
	invoices.GET("/:id/attachments", attachmentH.ListByInvoice)
	invoices.DELETE("/:id", middleware.RequireRole(domain.RoleAdmin), invoiceH.Delete)

	// Attachment routes
	attachments := protected.Group("/attachments")
	attachments.GET("/:id/url", attachmentH.DownloadURL)
	attachments.DELETE("/:id", attachmentH.Delete)

	// Pending linking decisions
	linking := protected.Group("/linking")
	linking.GET("/pending", linkingH.ListPending)

	// Synchronization runs
	sync := protected.Group("/sync")
	sync.POST("/runs", syncH.Start)
	sync.GET("/runs", syncH.List)
	sync.GET("/runs/running", syncH.Running)
	sync.GET("/runs/:id", syncH.GetByID)
	sync.POST("/runs/:id/cancel", syncH.Cancel)

	// Assignment rules
	rules := protected.Group("/rules")
	rules.POST("", ruleH.Create)
	rules.GET("/:dimension", ruleH.ListByDimension)
	rules.GET("/:dimension/:id", ruleH.GetByID)
	rules.PUT("/:dimension/:id", ruleH.Update)
	rules.DELETE("/:dimension/:id", middleware.RequireRole(domain.RoleAdmin, domain.RoleBookkeeper), ruleH.Delete)

	// Business entities (admin only)
	entities := protected.Group("/entities")
	entities.Use(middleware.RequireRole(domain.RoleAdmin))
	entities.POST("", entityH.Create)
	entities.GET("", entityH.List)
	entities.GET("/:id", entityH.GetByID)
	entities.PUT("/:id", entityH.Update)
	entities.DELETE("/:id", entityH.Delete)

	return r
}
