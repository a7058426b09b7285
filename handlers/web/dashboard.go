package web

import (
	"github.com/gofiber/fiber/v2"

	"phishlab/handlers/api"
	"phishlab/models"
	"phishlab/storage"
)

type DashboardHandler struct {
	*Base
	campaigns *storage.CampaignStorage
}

func NewDashboardHandler(base *Base, campaigns *storage.CampaignStorage) *DashboardHandler {
	return &DashboardHandler{Base: base, campaigns: campaigns}
}

type campaignRow struct {
	models.CampaignInfo
	URL string
}

// Show lists the page templates and the existing campaigns
func (h *DashboardHandler) Show(c *fiber.Ctx) error {
	templates, err := h.campaigns.Templates()
	if err != nil {
		return api.StorageError(err)
	}

	names, err := h.campaigns.List()
	if err != nil {
		return api.StorageError(err)
	}

	rows := make([]campaignRow, 0, len(names))
	for _, name := range names {
		info, err := h.campaigns.Info(name)
		if err != nil {
			return api.StorageError(err)
		}
		rows = append(rows, campaignRow{CampaignInfo: info, URL: h.config.CampaignURL(name)})
	}

	return h.render(c, "dashboard", fiber.Map{
		"Templates": templates,
		"Campaigns": rows,
	})
}
