package web

import (
	"net/url"

	"github.com/gofiber/fiber/v2"

	"phishlab/handlers/api"
	"phishlab/storage"
)

type RecipientHandler struct {
	*Base
	campaigns  *storage.CampaignStorage
	recipients *storage.RecipientStorage
}

func NewRecipientHandler(base *Base, campaigns *storage.CampaignStorage, recipients *storage.RecipientStorage) *RecipientHandler {
	return &RecipientHandler{Base: base, campaigns: campaigns, recipients: recipients}
}

func (h *RecipientHandler) campaign(c *fiber.Ctx) (string, error) {
	name := c.Params("name")
	if err := storage.ValidateName(name); err != nil {
		return "", api.StorageError(err)
	}
	if !h.campaigns.Exists(name) {
		return "", api.StorageError(storage.ErrNotFound)
	}
	return name, nil
}

// Show handles GET /recipients/:name
func (h *RecipientHandler) Show(c *fiber.Ctx) error {
	name, err := h.campaign(c)
	if err != nil {
		return err
	}

	raw, err := h.recipients.Load(name)
	if err != nil {
		return api.StorageError(err)
	}

	return h.render(c, "recipients", fiber.Map{
		"Name":  name,
		"Raw":   raw,
		"Count": len(storage.ParseRecipients(raw)),
	})
}

// Save handles POST /recipients/:name, replacing the whole list
func (h *RecipientHandler) Save(c *fiber.Ctx) error {
	name, err := h.campaign(c)
	if err != nil {
		return err
	}

	if err := h.recipients.Save(name, c.FormValue("recipients")); err != nil {
		return api.StorageError(err)
	}

	h.flash(c, h.t(c, "recipients_saved"))
	return c.Redirect("/recipients/" + url.PathEscape(name))
}
