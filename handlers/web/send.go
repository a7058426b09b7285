package web

import (
	"errors"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"

	"phishlab/handlers/api"
	"phishlab/mailer"
	"phishlab/storage"
	"phishlab/utils"
)

type SendHandler struct {
	*Base
	campaigns  *storage.CampaignStorage
	recipients *storage.RecipientStorage
	mailConfig *storage.MailConfigStorage
	mailer     *mailer.Mailer
}

func NewSendHandler(base *Base, campaigns *storage.CampaignStorage, recipients *storage.RecipientStorage,
	mailConfig *storage.MailConfigStorage, m *mailer.Mailer) *SendHandler {
	return &SendHandler{
		Base:       base,
		campaigns:  campaigns,
		recipients: recipients,
		mailConfig: mailConfig,
		mailer:     m,
	}
}

func (h *SendHandler) load(c *fiber.Ctx) (string, []string, error) {
	name := c.Params("name")
	if err := storage.ValidateName(name); err != nil {
		return "", nil, api.StorageError(err)
	}
	if !h.campaigns.Exists(name) {
		return "", nil, api.StorageError(storage.ErrNotFound)
	}

	raw, err := h.recipients.Load(name)
	if err != nil {
		return "", nil, api.StorageError(err)
	}
	return name, storage.ParseRecipients(raw), nil
}

// Show handles GET /send_campaign/:name
func (h *SendHandler) Show(c *fiber.Ctx) error {
	name, recipients, err := h.load(c)
	if err != nil {
		return err
	}

	info, err := h.campaigns.Info(name)
	if err != nil {
		return api.StorageError(err)
	}

	return h.render(c, "send_campaign", fiber.Map{
		"Name":       name,
		"Info":       info,
		"URL":        h.config.CampaignURL(name),
		"Recipients": recipients,
		"Configured": h.mailConfig.Current().Configured(),
	})
}

// Send handles POST /send_campaign/:name: one message per parsed recipient
func (h *SendHandler) Send(c *fiber.Ctx) error {
	name, recipients, err := h.load(c)
	if err != nil {
		return err
	}

	if len(recipients) == 0 {
		h.flash(c, h.t(c, "send_no_recipients"))
		return c.Redirect("/recipients/" + url.PathEscape(name))
	}

	info, err := h.campaigns.Info(name)
	if err != nil {
		return api.StorageError(err)
	}

	subject := strings.TrimSpace(c.FormValue("subject"))
	if subject == "" {
		subject = info.Subject
	}

	report, err := h.mailer.SendCampaign(c.UserContext(), h.mailConfig.Current(), mailer.CampaignMail{
		Campaign:    name,
		Link:        h.config.CampaignURL(name),
		Subject:     subject,
		SenderName:  strings.TrimSpace(c.FormValue("sender_name")),
		SenderEmail: info.SenderEmail,
	}, recipients)
	switch {
	case errors.Is(err, mailer.ErrNotConfigured), errors.Is(err, mailer.ErrNoSender):
		h.flash(c, h.t(c, "send_not_configured"))
		return c.Redirect("/email_config")
	case err != nil:
		return utils.InternalServerError("Failed to send campaign", err)
	}

	return h.render(c, "send_results", fiber.Map{
		"Name":   name,
		"Report": report,
		"Failed": report.Failed(),
	})
}
