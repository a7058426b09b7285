package web

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"phishlab/models"
	"phishlab/storage"
	"phishlab/utils"
)

type MailConfigHandler struct {
	*Base
	mailConfig *storage.MailConfigStorage
}

func NewMailConfigHandler(base *Base, mailConfig *storage.MailConfigStorage) *MailConfigHandler {
	return &MailConfigHandler{Base: base, mailConfig: mailConfig}
}

// Show renders the SMTP settings form. The stored password is never sent
// back to the browser.
func (h *MailConfigHandler) Show(c *fiber.Ctx) error {
	settings := h.mailConfig.Current()
	hasPassword := settings.Password != ""
	settings.Password = ""

	return h.render(c, "email_config", fiber.Map{
		"Settings":    settings,
		"HasPassword": hasPassword,
	})
}

// Save replaces the SMTP settings. An empty password keeps the stored one.
func (h *MailConfigHandler) Save(c *fiber.Ctx) error {
	current := h.mailConfig.Current()

	port, err := strconv.Atoi(strings.TrimSpace(c.FormValue("mail_port")))
	if err != nil || port <= 0 || port > 65535 {
		return utils.BadRequestError("Invalid mail port", err)
	}

	settings := models.MailSettings{
		Server:        strings.TrimSpace(c.FormValue("mail_server")),
		Port:          port,
		UseTLS:        checkbox(c, "mail_use_tls"),
		UseSSL:        checkbox(c, "mail_use_ssl"),
		Username:      strings.TrimSpace(c.FormValue("mail_username")),
		Password:      c.FormValue("mail_password"),
		DefaultSender: strings.TrimSpace(c.FormValue("mail_default_sender")),
	}
	if settings.Password == "" {
		settings.Password = current.Password
	}

	if err := h.mailConfig.Save(settings); err != nil {
		utils.Log.Error("Failed to save mail settings: %v", err)
		h.flash(c, h.t(c, "email_config_load_failed"))
		return c.Redirect("/email_config")
	}

	utils.Log.Info("Mail settings updated (server %s:%d)", settings.Server, settings.Port)
	h.flash(c, h.t(c, "email_config_saved"))
	return c.Redirect("/email_config")
}

func checkbox(c *fiber.Ctx, field string) bool {
	switch strings.ToLower(c.FormValue(field)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}
