package app

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"phishlab/handlers/api"
	"phishlab/handlers/web"
	"phishlab/middleware"
	"phishlab/utils"
)

func isCampaignPage(c *fiber.Ctx) bool {
	return strings.HasPrefix(c.Path(), "/campana/")
}

func (a *App) routes() {
	app := a.server
	cfg := a.config

	// Add global middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(compress.New(compress.Config{
		// SSE must be flushed as written
		Next: func(c *fiber.Ctx) bool { return c.Path() == "/api/events" },
	}))
	app.Use(helmet.New(helmet.Config{
		// Landing pages are operator-supplied HTML and load their own assets
		Next:                  isCampaignPage,
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "SAMEORIGIN",
		ReferrerPolicy:        "no-referrer",
		ContentSecurityPolicy: "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline';",
	}))
	app.Use(middleware.LocaleMiddleware())
	app.Use(middleware.NewRateLimiter(middleware.RateLimitConfig{
		Requests: cfg.Security.RateLimitPerMinute,
		Per:      time.Minute,
		// Recipients of one campaign often share a NAT address
		Next: isCampaignPage,
	}))

	csrf := middleware.DefaultCSRFConfig()
	csrf.CookieSecure = cfg.Server.SecureCookies || cfg.SSL.Enabled
	csrf.Skipper = func(c *fiber.Ctx) bool {
		return isCampaignPage(c) || isAPIRequest(c) || c.Path() == "/health"
	}
	app.Use(middleware.CSRFProtection(csrf))

	// Brute force guard on credential checks
	loginLimiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		Requests: 10,
		Per:      time.Minute,
		Next:     func(c *fiber.Ctx) bool { return c.Method() != fiber.MethodPost },
	})

	base := web.NewBase(a.sessions, cfg)
	authHandler := web.NewAuthHandler(base, a.creds)
	dashboardHandler := web.NewDashboardHandler(base, a.campaigns)
	campaignHandler := web.NewCampaignHandler(base, a.campaigns)
	captureHandler := web.NewCaptureHandler(base, a.campaigns, a.feed)
	mailConfigHandler := web.NewMailConfigHandler(base, a.mailConfig)
	recipientHandler := web.NewRecipientHandler(base, a.campaigns, a.recipients)
	sendHandler := web.NewSendHandler(base, a.campaigns, a.recipients, a.mailConfig, a.mailer)

	// Public routes
	app.Get("/", authHandler.Landing)
	app.Get("/login", authHandler.ShowLogin)
	app.Post("/login", loginLimiter, authHandler.HandleLogin)
	app.Get("/logout", authHandler.HandleLogout)
	app.Get("/setup", authHandler.ShowSetup)
	app.Post("/setup", authHandler.HandleSetup)
	app.Get("/campana/:name", captureHandler.ServePage)
	app.Post("/campana/:name", captureHandler.Submit)
	app.Get("/warning", captureHandler.Warning)

	// Protected routes
	auth := middleware.RequireAuth(a.sessions)
	app.Get("/dashboard", auth, dashboardHandler.Show)
	app.Post("/create_campaign", auth, campaignHandler.Create)
	app.Get("/delete_campaign/:name", auth, campaignHandler.Delete)
	app.Get("/logs/:name", auth, campaignHandler.Logs)
	app.Get("/email_config", auth, mailConfigHandler.Show)
	app.Post("/email_config", auth, mailConfigHandler.Save)
	app.Get("/recipients/:name", auth, recipientHandler.Show)
	app.Post("/recipients/:name", auth, recipientHandler.Save)
	app.Get("/send_campaign/:name", auth, sendHandler.Show)
	app.Post("/send_campaign/:name", auth, sendHandler.Send)

	// API routes
	tokenHandler := api.NewTokenHandler(a.tokens, a.creds)
	campaignAPI := api.NewCampaignHandler(a.campaigns, cfg.CampaignURL)
	i18nHandler := &api.I18nHandler{}
	apiAuth := api.APIAuth(a.tokens, a.sessions)

	apiRoutes := app.Group("/api")
	apiRoutes.Post("/token", loginLimiter, tokenHandler.HandleToken)
	apiRoutes.Get("/i18n/:lang", i18nHandler.GetTranslations)
	apiRoutes.Get("/campaigns", apiAuth, campaignAPI.List)
	apiRoutes.Get("/campaigns/:name/logs", apiAuth, campaignAPI.Logs)
	apiRoutes.Get("/events", apiAuth, a.feed.HandleSSE)

	app.Get("/ws/captures", api.UpgradeWebSocket, apiAuth, websocket.New(a.feed.HandleWebSocket))

	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":      "ok",
			"time":        time.Now().Format(time.RFC3339),
			"subscribers": a.feed.Subscribers(),
		})
	})

	// 404 Handler for undefined routes
	app.Use(func(c *fiber.Ctx) error {
		return utils.NotFoundError(utils.TLang(langOf(c), "error_404"), nil)
	})
}
