package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phishlab/utils"
)

func newTestApp() *fiber.App {
	return fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if appErr, ok := err.(*utils.AppError); ok {
				return c.Status(appErr.Code).SendString(appErr.Message)
			}
			return fiber.DefaultErrorHandler(c, err)
		},
	})
}

func TestCSRFIssuesTokenAndValidatesForm(t *testing.T) {
	app := newTestApp()
	app.Use(CSRFProtection())
	app.Get("/form", func(c *fiber.Ctx) error { return c.SendString(CSRFToken(c)) })
	app.Post("/form", func(c *fiber.Ctx) error { return c.SendString("ok") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/form", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var cookie *http.Cookie
	for _, ck := range resp.Cookies() {
		if ck.Name == "csrf_token" {
			cookie = ck
		}
	}
	require.NotNil(t, cookie)

	post := func(token string) int {
		form := url.Values{"csrf_token": {token}}
		req := httptest.NewRequest(http.MethodPost, "/form", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.AddCookie(cookie)
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusOK, post(cookie.Value))
	assert.Equal(t, http.StatusForbidden, post("wrong-token-value-0000"))
	assert.Equal(t, http.StatusForbidden, post(""))
}

func TestCSRFReusesExistingCookie(t *testing.T) {
	app := newTestApp()
	app.Use(CSRFProtection())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString(CSRFToken(c)) })

	token := "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA="
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: token})
	resp, err := app.Test(req)
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, token, string(body))
}

func TestCSRFSkipper(t *testing.T) {
	app := newTestApp()
	cfg := DefaultCSRFConfig()
	cfg.Skipper = func(c *fiber.Ctx) bool { return strings.HasPrefix(c.Path(), "/public") }
	app.Use(CSRFProtection(cfg))
	app.Post("/public/x", func(c *fiber.Ctx) error { return c.SendString("ok") })

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/public/x", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRateLimiter(t *testing.T) {
	app := newTestApp()
	app.Use(RateLimiter(2, time.Minute))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)
		codes = append(codes, resp.StatusCode)
	}
	assert.Equal(t, []int{200, 200, http.StatusTooManyRequests}, codes)
}

func TestRateLimiterNextSkips(t *testing.T) {
	app := newTestApp()
	app.Use(NewRateLimiter(RateLimitConfig{
		Requests: 1,
		Per:      time.Minute,
		Next:     func(c *fiber.Ctx) bool { return strings.HasPrefix(c.Path(), "/campana/") },
	}))
	app.Get("/*", func(c *fiber.Ctx) error { return c.SendString("ok") })

	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/campana/q3", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestLimiterStoreForgetsIdleClients(t *testing.T) {
	store := newLimiterStore(2, time.Minute)
	now := time.Now()
	store.now = func() time.Time { return now }

	assert.True(t, store.allow("10.0.0.1"))
	assert.True(t, store.allow("10.0.0.1"))
	assert.False(t, store.allow("10.0.0.1"))
	assert.Equal(t, 1, store.size())

	now = now.Add(idleAfter + sweepEvery)
	assert.True(t, store.allow("10.0.0.2"))
	assert.Equal(t, 1, store.size())

	// The forgotten client starts again with a full bucket
	assert.True(t, store.allow("10.0.0.1"))
	assert.Equal(t, 2, store.size())
}

func TestMatchAcceptLanguage(t *testing.T) {
	assert.Equal(t, "es", matchAcceptLanguage("es-ES,es;q=0.9,en;q=0.8"))
	assert.Equal(t, "en", matchAcceptLanguage("en-US,en;q=0.9"))
	assert.Equal(t, "en", matchAcceptLanguage("fr-FR"))
	assert.Equal(t, "en", matchAcceptLanguage(""))
}

func TestLocaleMiddlewareQueryWins(t *testing.T) {
	app := newTestApp()
	app.Use(LocaleMiddleware())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString(c.Locals("lang").(string)) })

	req := httptest.NewRequest(http.MethodGet, "/?lang=es", nil)
	req.Header.Set("Accept-Language", "en")
	resp, err := app.Test(req)
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "es", string(body))
}

func TestRequireAuthRedirects(t *testing.T) {
	store := session.New()
	app := newTestApp()
	app.Get("/login", func(c *fiber.Ctx) error {
		sess, err := store.Get(c)
		if err != nil {
			return err
		}
		sess.Set(SessionAuthenticated, true)
		sess.Set(SessionUsername, "admin")
		return sess.Save()
	})
	app.Get("/private", RequireAuth(store), func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("username").(string))
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/private", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/login", nil))
	require.NoError(t, err)
	cookies := resp.Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
