package web

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"phishlab/middleware"
	"phishlab/storage"
	"phishlab/utils"
)

type AuthHandler struct {
	*Base
	credentials *storage.CredentialStorage
}

// NewAuthHandler creates a new instance of AuthHandler
func NewAuthHandler(base *Base, credentials *storage.CredentialStorage) *AuthHandler {
	return &AuthHandler{Base: base, credentials: credentials}
}

// Landing sends visitors of / to the login page
func (h *AuthHandler) Landing(c *fiber.Ctx) error {
	return c.Redirect("/login")
}

// ShowLogin renders the login page
func (h *AuthHandler) ShowLogin(c *fiber.Ctx) error {
	if h.credentials.Count() == 0 {
		return c.Redirect("/setup")
	}
	if h.authenticated(c) {
		return c.Redirect("/dashboard")
	}
	return h.render(c, "login", nil)
}

// HandleLogin processes the login form
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	if h.credentials.Count() == 0 {
		return c.Redirect("/setup")
	}

	username := strings.TrimSpace(c.FormValue("username"))
	password := c.FormValue("password")

	if !h.credentials.Verify(username, password) {
		utils.Log.Warn("Failed login for %q from %s", username, c.IP())
		c.Status(fiber.StatusUnauthorized)
		return h.render(c, "login", fiber.Map{
			"Error":    h.t(c, "login_invalid"),
			"Username": username,
		})
	}

	sess, err := h.store.Get(c)
	if err != nil {
		return utils.InternalServerError("Session error", err)
	}
	if err := sess.Regenerate(); err != nil {
		return utils.InternalServerError("Session error", err)
	}
	sess.Set(middleware.SessionAuthenticated, true)
	sess.Set(middleware.SessionUsername, username)
	if err := sess.Save(); err != nil {
		return utils.InternalServerError("Failed to save session", err)
	}

	utils.Log.Info("User %s logged in", username)
	return c.Redirect("/dashboard")
}

// HandleLogout destroys the session
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	sess, err := h.store.Get(c)
	if err == nil {
		if err := sess.Destroy(); err != nil {
			utils.Log.Warn("Failed to destroy session: %v", err)
		}
	}
	return c.Redirect("/login")
}

// setupAllowed is true while no administrator exists, and afterwards only
// for signed-in administrators.
func (h *AuthHandler) setupAllowed(c *fiber.Ctx) bool {
	if h.credentials.Count() == 0 {
		return true
	}
	if !h.authenticated(c) {
		return false
	}
	if sess, err := h.store.Get(c); err == nil {
		c.Locals("username", sess.Get(middleware.SessionUsername))
	}
	return true
}

// ShowSetup renders the administrator creation form
func (h *AuthHandler) ShowSetup(c *fiber.Ctx) error {
	if !h.setupAllowed(c) {
		return c.Redirect("/login")
	}
	return h.render(c, "setup", nil)
}

// HandleSetup creates an administrator account
func (h *AuthHandler) HandleSetup(c *fiber.Ctx) error {
	if !h.setupAllowed(c) {
		return c.Redirect("/login")
	}

	username := strings.TrimSpace(c.FormValue("username"))
	password := c.FormValue("password")

	if username == "" || password == "" {
		c.Status(fiber.StatusBadRequest)
		return h.render(c, "setup", fiber.Map{
			"Error":       h.t(c, "setup_missing_fields"),
			"NewUsername": username,
		})
	}

	if err := h.credentials.Save(username, password); err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			c.Status(fiber.StatusBadRequest)
			return h.render(c, "setup", fiber.Map{
				"Error":       h.t(c, "setup_user_exists"),
				"NewUsername": username,
			})
		}
		return utils.InternalServerError("Failed to save credentials", err)
	}

	utils.Log.Info("Administrator %s created", username)

	if h.authenticated(c) {
		h.flash(c, h.t(c, "setup_done"))
		return c.Redirect("/dashboard")
	}
	return c.Redirect("/login")
}
