package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"phishlab/models"
	"phishlab/storage"
)

// CampaignHandler exposes campaigns and their capture logs as JSON
type CampaignHandler struct {
	campaigns *storage.CampaignStorage
	urlFor    func(name string) string
}

// NewCampaignHandler creates the handler. urlFor builds the public link of a
// campaign.
func NewCampaignHandler(campaigns *storage.CampaignStorage, urlFor func(string) string) *CampaignHandler {
	return &CampaignHandler{campaigns: campaigns, urlFor: urlFor}
}

type campaignSummary struct {
	models.CampaignInfo
	URL      string `json:"url"`
	Captures int    `json:"captures"`
}

// List handles GET /api/campaigns
func (h *CampaignHandler) List(c *fiber.Ctx) error {
	names, err := h.campaigns.List()
	if err != nil {
		return StorageError(err)
	}

	out := make([]campaignSummary, 0, len(names))
	for _, name := range names {
		info, err := h.campaigns.Info(name)
		if err != nil {
			return StorageError(err)
		}

		entries, err := h.campaigns.ReadLog(name)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return StorageError(err)
		}

		out = append(out, campaignSummary{
			CampaignInfo: info,
			URL:          h.urlFor(name),
			Captures:     len(entries),
		})
	}

	return c.JSON(fiber.Map{"campaigns": out})
}

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// Logs handles GET /api/campaigns/:name/logs?page=&page_size=
func (h *CampaignHandler) Logs(c *fiber.Ctx) error {
	name := c.Params("name")

	entries, err := h.campaigns.ReadLog(name)
	if errors.Is(err, storage.ErrNotFound) {
		if !h.campaigns.Exists(name) {
			return StorageError(err)
		}
		entries = nil
	} else if err != nil {
		return StorageError(err)
	}

	pageSize := c.QueryInt("page_size", defaultPageSize)
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	return c.JSON(models.NewPaginatedLogs(name, entries, c.QueryInt("page", 1), pageSize))
}
