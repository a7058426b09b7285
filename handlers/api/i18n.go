package api

import (
	"github.com/gofiber/fiber/v2"

	"phishlab/utils"
)

// clientMessages are the strings the dashboard script needs
var clientMessages = []string{
	"feed_connected",
	"feed_disconnected",
	"feed_new_capture",
	"confirm_delete",
	"error_network",
}

// I18nHandler handles i18n-related requests
type I18nHandler struct{}

// GetTranslations returns translations for the client-side JavaScript
func (h *I18nHandler) GetTranslations(c *fiber.Ctx) error {
	lang := utils.NormalizeLanguage(c.Params("lang"))
	return c.JSON(utils.Translations(lang, clientMessages))
}
