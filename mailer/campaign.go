package mailer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"phishlab/models"
	"phishlab/utils"
)

// EmailTemplate is the view rendered as the body of every campaign email
const EmailTemplate = "email/campaign"

var (
	ErrNotConfigured = errors.New("mail server is not configured")
	ErrNoSender      = errors.New("no sender address configured")
)

// Renderer renders a named template. It is satisfied by fiber.Views.
type Renderer interface {
	Render(out io.Writer, name string, binding interface{}, layout ...string) error
}

// CampaignMail describes one delivery run of a campaign
type CampaignMail struct {
	Campaign    string
	Link        string
	Subject     string
	SenderName  string
	SenderEmail string // falls back to the default sender
}

// Mailer sends campaign emails, one message per recipient
type Mailer struct {
	sender   *Sender
	signer   *Signer
	renderer Renderer
	now      func() time.Time
}

// NewMailer creates a mailer. signer may be nil.
func NewMailer(sender *Sender, signer *Signer, renderer Renderer) *Mailer {
	return &Mailer{
		sender:   sender,
		signer:   signer,
		renderer: renderer,
		now:      time.Now,
	}
}

// SendCampaign mails the campaign link to every recipient in order. A failed
// recipient is recorded in the report and does not stop the run. The error
// return is reserved for problems that prevent any delivery.
func (m *Mailer) SendCampaign(ctx context.Context, settings models.MailSettings, cm CampaignMail, recipients []string) (*models.SendReport, error) {
	if !settings.Configured() {
		return nil, ErrNotConfigured
	}

	from := cm.SenderEmail
	if from == "" {
		from = settings.DefaultSender
	}
	if from == "" {
		return nil, ErrNoSender
	}

	report := &models.SendReport{
		BatchID:  uuid.NewString(),
		Campaign: cm.Campaign,
		Total:    len(recipients),
		Results:  make([]models.SendResult, 0, len(recipients)),
	}
	logger := utils.Log.WithFields(map[string]interface{}{
		"batch":    report.BatchID,
		"campaign": cm.Campaign,
	})
	logger.Info("Sending campaign to %d recipients", len(recipients))

	for _, to := range recipients {
		result := models.SendResult{Email: to}
		if err := ctx.Err(); err != nil {
			result.Error = err.Error()
			report.Results = append(report.Results, result)
			continue
		}

		if err := m.sendOne(ctx, settings, cm, from, to); err != nil {
			logger.Warn("Delivery to %s failed: %v", to, err)
			result.Error = err.Error()
		} else {
			result.Success = true
			report.Succeeded++
		}
		report.Results = append(report.Results, result)
	}

	logger.Info("Campaign sent: %d/%d delivered", report.Succeeded, report.Total)
	return report, nil
}

func (m *Mailer) sendOne(ctx context.Context, settings models.MailSettings, cm CampaignMail, from, to string) error {
	var body bytes.Buffer
	err := m.renderer.Render(&body, EmailTemplate, map[string]interface{}{
		"CampaignURL":    cm.Link,
		"RecipientEmail": to,
		"Subject":        cm.Subject,
	})
	if err != nil {
		return fmt.Errorf("failed to render email: %w", err)
	}

	msg, err := BuildMessage(Message{
		FromName:    cm.SenderName,
		FromAddress: from,
		To:          to,
		Subject:     cm.Subject,
		HTMLBody:    body.String(),
		Date:        m.now(),
	})
	if err != nil {
		return err
	}

	msg, err = m.signer.Sign(msg)
	if err != nil {
		return err
	}

	return m.sender.Send(ctx, settings, from, to, msg)
}
