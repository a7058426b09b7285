package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/template/html/v2"
	"go.etcd.io/bbolt"
	"golang.org/x/sync/errgroup"

	"phishlab/config"
	"phishlab/handlers/api"
	"phishlab/locales"
	"phishlab/mailer"
	"phishlab/storage"
	"phishlab/utils"
	"phishlab/views"
)

const sweepInterval = 10 * time.Minute

// App owns the stores, the HTTP server and the background workers
type App struct {
	config *config.Config
	server *fiber.App
	db     *bbolt.DB

	sessions   *session.Store
	sessionDB  *storage.SessionStorage
	creds      *storage.CredentialStorage
	campaigns  *storage.CampaignStorage
	recipients *storage.RecipientStorage
	mailConfig *storage.MailConfigStorage
	mailer     *mailer.Mailer
	tokens     *api.TokenIssuer
	feed       *api.CaptureFeed
}

// New opens every store under cfg's data directory and builds the router
func New(cfg *config.Config) (*App, error) {
	utils.Log.SetLevel(utils.ParseLevel(cfg.Server.LogLevel))

	if err := utils.InitI18n(locales.FS); err != nil {
		utils.Log.Error("Failed to initialize i18n: %v", err)
	}

	st := cfg.Storage
	creds, err := storage.NewCredentialStorage(st.Path(st.CredentialFile))
	if err != nil {
		return nil, fmt.Errorf("credential store: %w", err)
	}

	campaigns, err := storage.NewCampaignStorage(
		st.Path(st.CampaignDir),
		st.Path(st.LogDir),
		st.Path(st.RecipientDir),
		st.Path(st.TemplateDir),
	)
	if err != nil {
		return nil, fmt.Errorf("campaign store: %w", err)
	}

	recipients, err := storage.NewRecipientStorage(st.Path(st.RecipientDir))
	if err != nil {
		return nil, fmt.Errorf("recipient store: %w", err)
	}

	mailConfig, err := storage.NewMailConfigStorage(st.Path(st.MailConfigFile))
	if err != nil {
		return nil, fmt.Errorf("mail config store: %w", err)
	}

	db, err := storage.InitDB(st.Path(st.SessionDB))
	if err != nil {
		return nil, fmt.Errorf("session database: %w", err)
	}
	sessionDB := storage.NewSessionStorage(db)

	sessions := session.New(session.Config{
		Storage:        sessionDB,
		Expiration:     time.Duration(cfg.Session.ExpirationHours) * time.Hour,
		CookieSecure:   cfg.Server.SecureCookies || cfg.SSL.Enabled,
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
	})

	engine := newEngine()

	signer, err := mailer.NewSigner(cfg.DKIM)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("dkim: %w", err)
	}

	secret := cfg.JWT.Secret
	if secret == "" {
		secret = randomSecret()
		utils.Log.Warn("No JWT secret configured; API tokens will not survive a restart")
	}

	a := &App{
		config:     cfg,
		db:         db,
		sessions:   sessions,
		sessionDB:  sessionDB,
		creds:      creds,
		campaigns:  campaigns,
		recipients: recipients,
		mailConfig: mailConfig,
		mailer:     mailer.NewMailer(mailer.NewSender(), signer, engine),
		tokens:     api.NewTokenIssuer(secret, time.Duration(cfg.JWT.ExpirationHours)*time.Hour),
		feed:       api.NewCaptureFeed(),
	}

	a.server = fiber.New(fiber.Config{
		AppName:      "PhishLab",
		Views:        engine,
		ViewsLayout:  "layouts/main",
		BodyLimit:    10 * 1024 * 1024,
		UnescapePath: true,
		ErrorHandler: a.errorHandler,
	})
	a.routes()

	return a, nil
}

func newEngine() *html.Engine {
	engine := html.NewFileSystem(http.FS(views.FS), ".html")

	// Templates receive the request language as .Lang
	engine.AddFunc("t", func(lang, messageID string) string {
		return utils.TLang(lang, messageID)
	})
	engine.AddFunc("lower", strings.ToLower)
	engine.AddFunc("path", url.PathEscape)

	return engine
}

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("crypto/rand failed: %v", err))
	}
	return hex.EncodeToString(b)
}

// Handler exposes the router, mainly for tests
func (a *App) Handler() *fiber.App {
	return a.server
}

// Start serves HTTP(S) until ctx is cancelled, then shuts down gracefully
func (a *App) Start(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	a.sessionDB.StartSweeper(gctx, sweepInterval)

	g.Go(func() error {
		if a.config.SSL.Enabled {
			addr := fmt.Sprintf(":%d", a.config.SSL.Port)
			utils.Log.Info("Starting HTTPS server on %s", addr)
			return a.server.ListenTLS(addr, a.config.SSL.CertFile, a.config.SSL.KeyFile)
		}
		addr := fmt.Sprintf(":%d", a.config.Server.Port)
		utils.Log.Info("Starting server on %s", addr)
		return a.server.Listen(addr)
	})

	g.Go(func() error {
		<-gctx.Done()
		utils.Log.Info("Shutting down server")
		if err := a.server.ShutdownWithTimeout(30 * time.Second); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("server error: %w", err)
	}

	utils.Log.Info("Server stopped")
	return nil
}

// Close releases the session database
func (a *App) Close() error {
	return a.sessionDB.Close()
}

func isAPIRequest(c *fiber.Ctx) bool {
	return strings.HasPrefix(c.Path(), "/api/") || strings.HasPrefix(c.Path(), "/ws/")
}

// errorHandler answers API requests with JSON, client errors with plain
// text and server errors with the error page.
func (a *App) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := utils.TLang(langOf(c), "error_500")

	var appErr *utils.AppError
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &appErr):
		code = appErr.Code
		if appErr.IsClientError() {
			message = appErr.Message
		}
	case errors.As(err, &fiberErr):
		code = fiberErr.Code
		if code < fiber.StatusInternalServerError {
			message = fiberErr.Message
		}
	}

	if code >= fiber.StatusInternalServerError {
		utils.Log.Error("%s %s failed: %v", c.Method(), c.Path(), err)
	} else {
		utils.Log.Debug("%s %s: %d %v", c.Method(), c.Path(), code, err)
	}

	if isAPIRequest(c) {
		return c.Status(code).JSON(fiber.Map{"error": message})
	}

	if code < fiber.StatusInternalServerError {
		c.Type("txt", "utf-8")
		return c.Status(code).SendString(message)
	}

	renderErr := c.Status(code).Render("error", fiber.Map{
		"Code":  code,
		"Error": message,
		"Lang":  langOf(c),
	})
	if renderErr != nil {
		utils.Log.Error("Failed to render error page: %v", renderErr)
		return c.Status(code).SendString(message)
	}
	return nil
}

func langOf(c *fiber.Ctx) string {
	if l, ok := c.Locals("lang").(string); ok && l != "" {
		return l
	}
	return "en"
}
