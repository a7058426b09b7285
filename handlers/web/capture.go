package web

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"phishlab/handlers/api"
	"phishlab/models"
	"phishlab/storage"
	"phishlab/utils"
)

// CaptureHandler serves the public campaign pages and records submissions
type CaptureHandler struct {
	*Base
	campaigns *storage.CampaignStorage
	feed      *api.CaptureFeed
}

func NewCaptureHandler(base *Base, campaigns *storage.CampaignStorage, feed *api.CaptureFeed) *CaptureHandler {
	return &CaptureHandler{Base: base, campaigns: campaigns, feed: feed}
}

// ServePage handles GET /campana/:name
func (h *CaptureHandler) ServePage(c *fiber.Ctx) error {
	body, err := h.campaigns.Get(c.Params("name"))
	if err != nil {
		return api.StorageError(err)
	}

	c.Type("html", "utf-8")
	return c.SendString(body)
}

// Submit handles POST /campana/:name. The username and password fields are
// logged and the visitor is sent to the awareness page.
func (h *CaptureHandler) Submit(c *fiber.Ctx) error {
	name := c.Params("name")
	if err := storage.ValidateName(name); err != nil {
		return api.StorageError(err)
	}
	if !h.campaigns.Exists(name) {
		return api.StorageError(storage.ErrNotFound)
	}

	email := strings.TrimSpace(c.FormValue("username"))
	if email == "" {
		email = strings.TrimSpace(c.FormValue("email"))
	}
	if email == "" {
		email = storage.MissingField
	}

	password := c.FormValue("password", storage.MissingField)
	if h.config.Capture.MaskPasswords && password != storage.MissingField {
		password = maskPassword(password)
	}

	userAgent := c.Get(fiber.HeaderUserAgent)
	if err := h.campaigns.AppendLog(name, email, password, userAgent); err != nil {
		return api.StorageError(err)
	}

	h.feed.Publish(models.CaptureEvent{
		Campaign: name,
		Email:    email,
		Client:   utils.ClassifyUserAgent(userAgent),
	})

	return c.Redirect("/warning")
}

// Warning renders the awareness page shown after a submission
func (h *CaptureHandler) Warning(c *fiber.Ctx) error {
	return h.render(c, "warning", nil)
}

// maskPassword keeps only the length of the captured password
func maskPassword(password string) string {
	n := len([]rune(password))
	if n > 100 {
		n = 100
	}
	return strings.Repeat("*", n)
}
