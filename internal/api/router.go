package api

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/easemail/easemail-backend/internal/api/handlers"
	"github.com/easemail/easemail-backend/internal/api/middleware"
	"github.com/easemail/easemail-backend/internal/api/response"
	"github.com/easemail/easemail-backend/internal/cache"
	"github.com/easemail/easemail-backend/internal/folders"
	"github.com/easemail/easemail-backend/internal/logger"
	"github.com/easemail/easemail-backend/internal/mailbox"
	"github.com/easemail/easemail-backend/internal/provider"
	"github.com/easemail/easemail-backend/internal/repository"
	"github.com/easemail/easemail-backend/internal/scheduler"
	"github.com/easemail/easemail-backend/internal/websocket"
)

// RouterConfig holds dependencies for the router
type RouterConfig struct {
	DB        *gorm.DB
	Cache     cache.Cache
	Provider  provider.Client
	Connector provider.Connector
	Hub       *websocket.Hub
	Limiter   *middleware.IPRateLimiter
	Logger    *slog.Logger
	Security  *logger.SecurityLogger

	// Security configuration
	AuthJWTSecret  string
	CronSecret     string
	AllowedOrigins []string
	Production     bool

	FolderCountsTTL time.Duration
}

// NewRouter creates and configures the Echo router with all routes
func NewRouter(cfg *RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = response.HTTPErrorHandler

	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	security := cfg.Security
	if security == nil {
		security = logger.NewSecurityLoggerWithHandler(log.Handler())
	}

	// Middleware (applied in order)
	// 1. Deployment mode, read by error responses
	e.Use(response.Production(cfg.Production))

	// 2. Request id so every log line of a request can be correlated
	e.Use(middleware.RequestID())

	// 3. Request logging, outermost of the handlers that can fail
	e.Use(middleware.RequestLogger(log))

	// 4. Recover from panics
	e.Use(middleware.Recover())

	// 5. Security headers (applied to all responses)
	e.Use(middleware.SecureHeaders())

	// 6. CORS
	e.Use(middleware.SecureCORS(cfg.AllowedOrigins, cfg.Production))

	// 7. Rate limiting
	if cfg.Limiter != nil {
		e.Use(middleware.RateLimit(cfg.Limiter, security))
	}

	// Initialize repositories
	accountRepo := repository.NewAccountRepository(cfg.DB)
	mappingRepo := repository.NewFolderMappingRepository(cfg.DB)
	scheduledRepo := repository.NewScheduledEmailRepository(cfg.DB)
	snoozeRepo := repository.NewSnoozeRepository(cfg.DB)
	spamRepo := repository.NewSpamReportRepository(cfg.DB)

	// Initialize services
	folderService := folders.NewService(mappingRepo, cfg.Provider, cfg.Cache, cfg.FolderCountsTTL, log)
	resolver := folders.NewResolver(accountRepo, mappingRepo, cfg.Provider, log)
	aggregator := mailbox.NewAggregator(accountRepo, resolver, cfg.Provider, log)

	var notifier scheduler.Notifier
	if cfg.Hub != nil {
		notifier = cfg.Hub
	}
	processor := scheduler.NewProcessor(accountRepo, scheduledRepo, snoozeRepo, cfg.Provider, notifier, log)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Cache)
	accountHandler := handlers.NewAccountHandler(accountRepo, cfg.Connector, folderService, cfg.Cache, security, log)
	messageHandler := handlers.NewMessageHandler(aggregator, accountRepo, cfg.Provider, security, log)
	folderHandler := handlers.NewFolderHandler(accountRepo, cfg.Provider, folderService, security, log)
	contactHandler := handlers.NewContactHandler(accountRepo, cfg.Provider, security, log)
	eventHandler := handlers.NewEventHandler(accountRepo, cfg.Provider, security, log)
	scheduledHandler := handlers.NewScheduledEmailHandler(accountRepo, scheduledRepo, security, log)
	snoozeHandler := handlers.NewSnoozeHandler(accountRepo, snoozeRepo, security, log)
	spamHandler := handlers.NewSpamHandler(spamRepo, log)
	cronHandler := handlers.NewCronHandler(processor, log)

	// Health routes (no auth required)
	e.GET("/health", healthHandler.Health)
	e.GET("/ready", healthHandler.Ready)

	// Cron routes use the shared secret instead of a session
	cron := e.Group("/api/cron", middleware.CronAuth(cfg.CronSecret, security))
	cron.Match([]string{echo.GET, echo.POST}, "/scheduled-emails", cronHandler.ScheduledEmails)
	cron.Match([]string{echo.GET, echo.POST}, "/snoozes", cronHandler.Snoozes)

	// API routes
	api := e.Group("/api", middleware.SessionAuth(cfg.AuthJWTSecret, security))

	if cfg.Hub != nil {
		wsHandler := handlers.NewWebSocketHandler(cfg.Hub, websocket.NewSecureUpgrader(cfg.AllowedOrigins, security), log)
		api.GET("/ws", wsHandler.Serve)
	}

	// Account routes
	accounts := api.Group("/accounts")
	accounts.GET("", accountHandler.List)
	accounts.GET("/connect", accountHandler.Connect)
	accounts.POST("/callback", accountHandler.Callback)
	accounts.GET("/:id", accountHandler.Get)
	accounts.PATCH("/:id/primary", accountHandler.SetPrimary)
	accounts.DELETE("/:id", accountHandler.Delete)

	// Per-account message routes
	accounts.GET("/:id/messages", messageHandler.ListAccount)
	accounts.POST("/:id/messages/send", messageHandler.Send)
	accounts.GET("/:id/messages/:message_id", messageHandler.Get)
	accounts.PATCH("/:id/messages/:message_id", messageHandler.Update)
	accounts.DELETE("/:id/messages/:message_id", messageHandler.Delete)

	// Folder, contact and event routes (nested under accounts)
	accounts.GET("/:id/folders", folderHandler.List)
	accounts.POST("/:id/folders/sync", folderHandler.Sync)
	accounts.GET("/:id/contacts", contactHandler.List)
	accounts.POST("/:id/contacts", contactHandler.Create)
	accounts.GET("/:id/events", eventHandler.List)
	accounts.POST("/:id/events", eventHandler.Create)

	// Unified routes
	api.GET("/messages", messageHandler.Unified)
	api.GET("/folders/counts", folderHandler.Counts)

	// Scheduled send routes
	scheduled := api.Group("/scheduled-emails")
	scheduled.POST("", scheduledHandler.Create)
	scheduled.GET("", scheduledHandler.List)
	scheduled.DELETE("/:id", scheduledHandler.Cancel)

	// Snooze routes
	snoozes := api.Group("/snoozes")
	snoozes.POST("", snoozeHandler.Create)
	snoozes.GET("", snoozeHandler.List)
	snoozes.DELETE("/:id", snoozeHandler.Cancel)

	// Spam routes
	spam := api.Group("/spam")
	spam.POST("/score", spamHandler.Score)
	spam.POST("/reports", spamHandler.CreateReport)
	spam.GET("/reports", spamHandler.ListReports)
	spam.DELETE("/reports/:id", spamHandler.DeleteReport)

	return e
}
