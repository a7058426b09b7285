package web

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"

	"phishlab/config"
	"phishlab/middleware"
	"phishlab/utils"
)

const sessionFlashes = "flashes"

// Base carries what every page handler needs: the session store, the
// configuration and the common template bindings.
type Base struct {
	store  *session.Store
	config *config.Config
}

func NewBase(store *session.Store, cfg *config.Config) *Base {
	return &Base{store: store, config: cfg}
}

// render adds the layout bindings to data and renders view
func (b *Base) render(c *fiber.Ctx, view string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	lang := lang(c)
	data["Lang"] = lang
	data["CSRFToken"] = middleware.CSRFToken(c)
	data["Flashes"] = b.popFlashes(c)
	if username, ok := c.Locals("username").(string); ok {
		data["CurrentUser"] = username
	}
	return c.Render(view, data)
}

// t translates messageID for the request's language
func (b *Base) t(c *fiber.Ctx, messageID string) string {
	return utils.TLang(lang(c), messageID)
}

// flash queues a notice for the next rendered page
func (b *Base) flash(c *fiber.Ctx, message string) {
	sess, err := b.store.Get(c)
	if err != nil {
		utils.Log.Warn("Flash dropped, session unavailable: %v", err)
		return
	}

	message = strings.ReplaceAll(message, "\n", " ")
	if existing, _ := sess.Get(sessionFlashes).(string); existing != "" {
		message = existing + "\n" + message
	}
	sess.Set(sessionFlashes, message)
	if err := sess.Save(); err != nil {
		utils.Log.Warn("Failed to save flash: %v", err)
	}
}

func (b *Base) popFlashes(c *fiber.Ctx) []string {
	sess, err := b.store.Get(c)
	if err != nil {
		return nil
	}

	raw, _ := sess.Get(sessionFlashes).(string)
	if raw == "" {
		return nil
	}
	sess.Delete(sessionFlashes)
	if err := sess.Save(); err != nil {
		utils.Log.Warn("Failed to clear flashes: %v", err)
	}
	return strings.Split(raw, "\n")
}

func (b *Base) authenticated(c *fiber.Ctx) bool {
	sess, err := b.store.Get(c)
	if err != nil {
		return false
	}
	auth, _ := sess.Get(middleware.SessionAuthenticated).(bool)
	return auth
}

func lang(c *fiber.Ctx) string {
	if l, ok := c.Locals("lang").(string); ok && l != "" {
		return l
	}
	return "en"
}
