package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"

	"phishlab/utils"
)

// Session keys shared by the auth middleware and the login handlers
const (
	SessionAuthenticated = "authenticated"
	SessionUsername      = "username"
)

// RequireAuth redirects to /login unless the session is authenticated. The
// username is exposed to later handlers via Locals("username").
func RequireAuth(store *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := store.Get(c)
		if err != nil {
			utils.Log.Warn("Session lookup failed: %v", err)
			return c.Redirect("/login")
		}

		if auth, _ := sess.Get(SessionAuthenticated).(bool); !auth {
			return c.Redirect("/login")
		}

		c.Locals("username", sess.Get(SessionUsername))
		return c.Next()
	}
}
