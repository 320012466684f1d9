package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/maglo-api/internal/config"
	domainRepo "github.com/sangkips/maglo-api/internal/domain/repository"
	"github.com/sangkips/maglo-api/internal/presentation/http/handler"
	"github.com/sangkips/maglo-api/internal/presentation/http/middleware"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Auth      *handler.AuthHandler
	Invoice   *handler.InvoiceHandler
	Dashboard *handler.DashboardHandler
	Settings  *handler.SettingsHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	Authenticator   middleware.Authenticator
	Cfg             *config.Config
	IdempotencyRepo domainRepo.IdempotencyRepository
	RateLimiter     *middleware.RateLimiter
}

// NewRateLimiter builds the per-user limiter from the rate limit settings
func NewRateLimiter(cfg *config.RateLimitConfig) *middleware.RateLimiter {
	rlCfg := middleware.DefaultRateLimiterConfig()
	if cfg.Requests > 0 {
		rlCfg.RequestsPerSecond = float64(cfg.Requests)
		if cfg.Duration > 0 {
			rlCfg.RequestsPerSecond = float64(cfg.Requests) / float64(cfg.Duration)
		}
		rlCfg.BurstSize = cfg.Requests
	}
	return middleware.NewRateLimiter(rlCfg)
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(middleware.LoggerMiddleware())
	router.Use(middleware.Recovery())
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": deps.Cfg.App.Name,
		})
	})

	v1 := router.Group("/api/v1")
	{
		public := v1.Group("")
		if deps.RateLimiter != nil {
			public.Use(deps.RateLimiter.Middleware())
		}
		registerAuthRoutes(public, h)

		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(deps.Authenticator))
		if deps.RateLimiter != nil {
			protected.Use(deps.RateLimiter.Middleware())
		}

		registerProtectedRoutes(protected, h, deps)
	}

	return router
}

func registerAuthRoutes(v1 *gin.RouterGroup, h *Handlers) {
	auth := v1.Group("/auth")
	{
		auth.POST("/login", h.Auth.Login)
		auth.POST("/register", h.Auth.Register)
		auth.POST("/refresh", h.Auth.RefreshToken)
		// Google OAuth routes
		auth.GET("/google", h.Auth.GoogleAuth)
		auth.GET("/google/callback", h.Auth.GoogleCallback)
	}
}

func registerProtectedRoutes(protected *gin.RouterGroup, h *Handlers, deps *Deps) {
	// Session and profile
	protected.POST("/auth/logout", h.Auth.Logout)
	protected.GET("/auth/me", h.Auth.GetProfile)
	protected.PUT("/profile", h.Auth.UpdateProfile)
	protected.PUT("/profile/password", h.Auth.ChangePassword)

	// Settings
	protected.GET("/settings", h.Settings.GetSettings)
	protected.PUT("/settings", h.Settings.UpdateSettings)

	// Dashboard
	protected.GET("/dashboard", h.Dashboard.GetStats)

	registerInvoiceRoutes(protected, h, deps)
}

func registerInvoiceRoutes(protected *gin.RouterGroup, h *Handlers, deps *Deps) {
	invoices := protected.Group("/invoices")
	{
		invoices.GET("", h.Invoice.ListInvoices)
		invoices.GET("/export", h.Invoice.ExportInvoices)
		invoices.POST("/preview", h.Invoice.PreviewTotals)
		invoices.GET("/:id", h.Invoice.GetInvoice)
		invoices.PUT("/:id", h.Invoice.UpdateInvoice)
		invoices.DELETE("/:id", h.Invoice.DeleteInvoice)
		invoices.PATCH("/:id/pay", h.Invoice.MarkInvoicePaid)
		invoices.POST("/:id/send", h.Invoice.SendInvoice)
	}

	create := []gin.HandlerFunc{h.Invoice.CreateInvoice}
	if deps.IdempotencyRepo != nil {
		create = append([]gin.HandlerFunc{middleware.Idempotency(middleware.IdempotencyConfig{
			Repo: deps.IdempotencyRepo,
			TTL:  deps.Cfg.Invoice.IdempotencyTTL,
		})}, create...)
	}
	invoices.POST("", create...)
}
