package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/tchova-digital/portal/internal/config"
	"github.com/tchova-digital/portal/internal/credits"
	"github.com/tchova-digital/portal/internal/middleware"
	"github.com/tchova-digital/portal/internal/notification"
	"github.com/tchova-digital/portal/internal/payments"
	"github.com/tchova-digital/portal/internal/project"
	"github.com/tchova-digital/portal/internal/verification"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though main also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	// Plain text access log: [HH:MM:SS] 200 -  145ms METHOD /path
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))

	RegisterHealthRoutes(app, d)

	// Storage backends fall back to memory in dev without a database.
	var projectRepo project.Repository
	var codeStore verification.CodeStore
	var ledger credits.Ledger
	var resultStore payments.ResultStore
	if d.DB != nil {
		projectRepo = project.NewPostgresRepository(d.DB)
		codeStore = verification.NewPostgresCodeStore(d.DB)
		ledger = credits.NewPostgresLedger(d.DB)
		resultStore = payments.NewPostgresResultStore(d.DB)
	} else {
		projectRepo = project.NewMemoryRepository()
		codeStore = verification.NewMemoryCodeStore()
		ledger = credits.NewInMemory()
		resultStore = payments.NewMemoryResultStore()
	}
	var sessionStore verification.SessionStore
	if d.Cache != nil {
		sessionStore = verification.NewRedisSessionStore(d.Cache)
	} else {
		sessionStore = verification.NewMemorySessionStore()
	}

	// Codes leave the system as wa.me deep links on the operator channel;
	// the logger is the delivery sink.
	var notifier notification.Notifier = notification.NewWhatsAppNotifier(
		d.Cfg.WhatsAppBaseURL, notification.NewLoggerNotifier(d.Logger))
	projectSvc := project.NewService(projectRepo, d.Cfg.TokenExpiryDays, d.Cfg.PortalBaseURL)
	verificationSvc := verification.NewService(codeStore, sessionStore, notifier, verification.Options{
		CodeTTL:     d.Cfg.CodeTTL,
		MaxAttempts: d.Cfg.CodeMaxAttempts,
		BlockTTL:    d.Cfg.CodeBlockTTL,
		SessionTTL:  d.Cfg.SecureSessionTTL,
	})
	creditsSvc := credits.NewService(ledger, credits.DefaultCatalogue(), 0)
	paymentSvc := payments.NewService(payments.DefaultMethods(), payments.DefaultProviders(), ledger, resultStore, notifier, payments.Options{
		ProviderTimeout: d.Cfg.ProviderTimeout,
		CreditNetOfFees: d.Cfg.CreditNetOfFees,
	})

	projectHandler := project.NewHandler(projectSvc)
	verificationHandler := verification.NewHandler(verificationSvc, projectSvc)
	creditsHandler := credits.NewHandler(creditsSvc)
	paymentHandler := payments.NewHandler(paymentSvc)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": middleware.RequestIDFrom(c),
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	RegisterPortalRoutes(api, projectHandler, verificationHandler, middleware.CodeRateLimit(d.Cache, 3))
	RegisterCreditRoutes(api, creditsHandler)
	RegisterPaymentRoutes(api, paymentHandler, d)
	RegisterStaffRoutes(api, projectHandler, middleware.StaffAuth(d.Cfg.StaffAPIKey))

	return nil
}
