package web

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"

	"phishlab/handlers/api"
	"phishlab/models"
	"phishlab/storage"
	"phishlab/utils"
)

type CampaignHandler struct {
	*Base
	campaigns *storage.CampaignStorage
}

func NewCampaignHandler(base *Base, campaigns *storage.CampaignStorage) *CampaignHandler {
	return &CampaignHandler{Base: base, campaigns: campaigns}
}

// Create handles POST /create_campaign. The page comes from the uploaded
// html_file when present, otherwise from selected_template.
func (h *CampaignHandler) Create(c *fiber.Ctx) error {
	name := strings.TrimSpace(c.FormValue("campaign_name"))
	if err := storage.ValidateName(name); err != nil {
		return api.StorageError(err)
	}

	source, err := campaignSource(c)
	if err != nil {
		return err
	}

	info := models.CampaignInfo{
		SenderEmail: strings.TrimSpace(c.FormValue("sender_email")),
		Subject:     strings.TrimSpace(c.FormValue("subject")),
	}

	if _, err := h.campaigns.Create(name, source, info); err != nil {
		return api.StorageError(err)
	}
	utils.Log.Info("Campaign %s created", name)

	body, err := h.campaigns.Get(name)
	if err != nil {
		return api.StorageError(err)
	}

	return h.render(c, "campaign_created", fiber.Map{
		"Name":    name,
		"URL":     h.config.CampaignURL(name),
		"Notices": h.pageNotices(c, utils.InspectPage([]byte(body))),
	})
}

func campaignSource(c *fiber.Ctx) (models.CampaignSource, error) {
	file, err := c.FormFile("html_file")
	if err == nil && file.Filename != "" {
		f, err := file.Open()
		if err != nil {
			return models.CampaignSource{}, utils.BadRequestError("Failed to read upload", err)
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			return models.CampaignSource{}, utils.BadRequestError("Failed to read upload", err)
		}
		return models.CampaignSource{UploadName: file.Filename, UploadData: data}, nil
	}

	return models.CampaignSource{Template: strings.TrimSpace(c.FormValue("selected_template"))}, nil
}

// pageNotices warns about landing pages that will not capture anything
func (h *CampaignHandler) pageNotices(c *fiber.Ctx, report models.PageReport) []string {
	var notices []string
	if report.Forms == 0 {
		notices = append(notices, h.t(c, "campaign_no_form"))
	} else if !report.HasPasswordField {
		notices = append(notices, h.t(c, "campaign_no_password"))
	}
	return notices
}

// Delete handles GET /delete_campaign/:name. Every file is attempted and
// each failure is reported separately.
func (h *CampaignHandler) Delete(c *fiber.Ctx) error {
	name := c.Params("name")

	report, err := h.campaigns.Delete(name)
	if err != nil {
		return api.StorageError(err)
	}

	for _, failure := range report.Failures {
		h.flash(c, fmt.Sprintf("%s: %s (%v)", h.t(c, "campaign_delete_failed"), failure.File, failure.Err))
	}
	if len(report.Failures) == 0 {
		h.flash(c, h.t(c, "campaign_deleted"))
	}
	utils.Log.Info("Campaign %s deleted (%d files removed, %d failures)", name, len(report.Removed), len(report.Failures))

	return c.Redirect("/dashboard")
}

// Logs handles GET /logs/:name
func (h *CampaignHandler) Logs(c *fiber.Ctx) error {
	name := c.Params("name")

	entries, err := h.campaigns.ReadLog(name)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return api.StorageError(err)
	}

	return h.render(c, "logs", fiber.Map{
		"Name":    name,
		"Entries": entries,
		"Empty":   len(entries) == 0,
	})
}
