package mailer

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-message/mail"

	"phishlab/utils"
)

// Message is a single campaign email before encoding
type Message struct {
	FromName    string
	FromAddress string
	To          string
	Subject     string
	HTMLBody    string
	Date        time.Time
}

// BuildMessage encodes msg as a multipart/alternative RFC 5322 message with
// a plain text part derived from the HTML body.
func BuildMessage(msg Message) ([]byte, error) {
	var h mail.Header
	h.SetDate(msg.Date)
	h.SetAddressList("From", []*mail.Address{{Name: msg.FromName, Address: msg.FromAddress}})
	h.SetAddressList("To", []*mail.Address{{Address: msg.To}})
	h.SetSubject(msg.Subject)
	if err := h.GenerateMessageID(); err != nil {
		return nil, fmt.Errorf("failed to generate message id: %w", err)
	}

	var buf bytes.Buffer
	w, err := mail.CreateInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("failed to create message writer: %w", err)
	}

	if err := writePart(w, "text/plain", utils.PlainText(msg.HTMLBody)); err != nil {
		return nil, err
	}
	if err := writePart(w, "text/html", msg.HTMLBody); err != nil {
		return nil, err
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to close message: %w", err)
	}
	return buf.Bytes(), nil
}

func writePart(w *mail.InlineWriter, contentType, body string) error {
	var h mail.InlineHeader
	h.SetContentType(contentType, map[string]string{"charset": "utf-8"})

	part, err := w.CreatePart(h)
	if err != nil {
		return fmt.Errorf("failed to create %s part: %w", contentType, err)
	}
	if _, err := io.WriteString(part, body); err != nil {
		part.Close()
		return fmt.Errorf("failed to write %s part: %w", contentType, err)
	}
	return part.Close()
}
