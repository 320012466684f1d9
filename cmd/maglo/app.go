package main

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sangkips/maglo-api/internal/application/service"
	"github.com/sangkips/maglo-api/internal/config"
	domainRepo "github.com/sangkips/maglo-api/internal/domain/repository"
	"github.com/sangkips/maglo-api/internal/infrastructure/cache"
	"github.com/sangkips/maglo-api/internal/infrastructure/database"
	"github.com/sangkips/maglo-api/internal/infrastructure/memory"
	"github.com/sangkips/maglo-api/internal/infrastructure/repository"
	"github.com/sangkips/maglo-api/internal/presentation/http/handler"
	"github.com/sangkips/maglo-api/internal/presentation/http/middleware"
	"github.com/sangkips/maglo-api/internal/presentation/http/routes"
	"github.com/sangkips/maglo-api/pkg/email"
	"github.com/sangkips/maglo-api/pkg/logger"
	"github.com/sangkips/maglo-api/pkg/oauth"
	"github.com/sangkips/maglo-api/pkg/utils"
	"gorm.io/gorm"
)

// stores groups the repositories of one storage driver
type stores struct {
	users       domainRepo.UserRepository
	invoices    domainRepo.InvoiceRepository
	summaries   domainRepo.InvoiceSummaryRepository
	settings    domainRepo.SettingsRepository
	idempotency domainRepo.IdempotencyRepository
	close       func() error
}

func openStores(cfg *config.Config, migrate bool) (*stores, error) {
	log := logger.WithComponent("storage")

	if cfg.Database.Driver == config.DriverMemory {
		log.Warn().Msg("using in-memory storage, data is lost on exit")
		store := memory.NewStore()
		return &stores{
			users:       memory.NewUserRepository(store),
			invoices:    memory.NewInvoiceRepository(store),
			summaries:   memory.NewInvoiceSummaryRepository(store),
			settings:    memory.NewSettingsRepository(store),
			idempotency: memory.NewIdempotencyRepository(store),
			close:       func() error { return nil },
		}, nil
	}

	db, err := openPostgres(cfg, migrate)
	if err != nil {
		return nil, err
	}
	return &stores{
		users:       repository.NewUserRepository(db),
		invoices:    repository.NewInvoiceRepository(db),
		summaries:   repository.NewInvoiceSummaryRepository(db),
		settings:    repository.NewSettingsRepository(db),
		idempotency: repository.NewIdempotencyRepository(db),
		close:       func() error { return database.Close(db) },
	}, nil
}

func openPostgres(cfg *config.Config, migrate bool) (*gorm.DB, error) {
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if migrate {
		if err := database.AutoMigrate(db); err != nil {
			_ = database.Close(db)
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}
	return db, nil
}

// openSessionStore returns the revocation store and a close function
func openSessionStore(cfg *config.Config) (domainRepo.SessionStore, func() error, error) {
	if !cfg.Redis.Enabled {
		log := logger.WithComponent("sessions")
		log.Warn().Msg("redis disabled, signed-out tokens are tracked in memory")
		return cache.NewMemorySessionStore(), func() error { return nil }, nil
	}

	client, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return cache.NewRedisSessionStore(client, cfg.Redis.KeyPrefix), closeRedis(client), nil
}

func closeRedis(client *redis.Client) func() error {
	return func() error { return client.Close() }
}

// application is the wired HTTP surface
type application struct {
	handlers    *routes.Handlers
	deps        *routes.Deps
	rateLimiter *middleware.RateLimiter
}

func buildApplication(cfg *config.Config, st *stores, sessions domainRepo.SessionStore) *application {
	jwtManager := utils.NewJWTManager(
		cfg.JWT.Secret,
		cfg.JWT.ExpiryHours,
		cfg.JWT.RefreshExpiryHours,
	)

	emailService := email.NewEmailService(email.EmailConfig{
		SMTPHost:     cfg.Email.SMTPHost,
		SMTPPort:     cfg.Email.SMTPPort,
		SMTPUsername: cfg.Email.SMTPUsername,
		SMTPPassword: cfg.Email.SMTPPassword,
		FromName:     cfg.Email.FromName,
		FromEmail:    cfg.Email.FromEmail,
		FrontendURL:  cfg.Email.FrontendURL,
	})
	if !cfg.Email.EmailEnabled() {
		log := logger.WithComponent("email")
		log.Warn().Msg("SMTP not configured, sending invoices is disabled")
	}

	googleOAuthService := oauth.NewGoogleOAuthService(oauth.GoogleOAuthConfig{
		ClientID:           cfg.OAuth.GoogleClientID,
		ClientSecret:       cfg.OAuth.GoogleClientSecret,
		RedirectURL:        cfg.OAuth.GoogleRedirectURL,
		FrontendSuccessURL: cfg.OAuth.FrontendSuccessURL,
		FrontendErrorURL:   cfg.OAuth.FrontendErrorURL,
	})

	// Services
	authService := service.NewAuthService(st.users, sessions, jwtManager, googleOAuthService)
	settingsService := service.NewSettingsService(st.settings)
	invoiceService := service.NewInvoiceService(st.invoices, settingsService, emailService, cfg.Invoice.ExportMaxRows)
	dashboardService := service.NewDashboardService(st.summaries, settingsService)

	rateLimiter := routes.NewRateLimiter(&cfg.RateLimit)

	return &application{
		handlers: &routes.Handlers{
			Auth: handler.NewAuthHandler(authService, handler.GoogleRedirects{
				SuccessURL: googleOAuthService.FrontendSuccessURL(),
				ErrorURL:   googleOAuthService.FrontendErrorURL(),
			}),
			Invoice:   handler.NewInvoiceHandler(invoiceService),
			Dashboard: handler.NewDashboardHandler(dashboardService),
			Settings:  handler.NewSettingsHandler(settingsService),
		},
		deps: &routes.Deps{
			Authenticator:   authService,
			Cfg:             cfg,
			IdempotencyRepo: st.idempotency,
			RateLimiter:     rateLimiter,
		},
		rateLimiter: rateLimiter,
	}
}
