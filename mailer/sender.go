package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"

	"phishlab/models"
)

const defaultTimeout = 30 * time.Second

// Sender delivers encoded messages over SMTP. Settings are passed on every
// call so a configuration change takes effect on the next send.
type Sender struct {
	Timeout time.Duration

	sendFn func(ctx context.Context, settings models.MailSettings, from, to string, msg []byte) error
}

// NewSender creates a sender using the default timeout
func NewSender() *Sender {
	s := &Sender{Timeout: defaultTimeout}
	s.sendFn = s.deliver
	return s
}

// Send delivers msg to a single recipient
func (s *Sender) Send(ctx context.Context, settings models.MailSettings, from, to string, msg []byte) error {
	return s.sendFn(ctx, settings, from, to, msg)
}

func (s *Sender) deliver(ctx context.Context, settings models.MailSettings, from, to string, msg []byte) error {
	addr := net.JoinHostPort(settings.Server, strconv.Itoa(settings.Port))

	dialer := &net.Dialer{Timeout: s.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial failed: %v", err)
	}

	deadline := time.Now().Add(s.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return fmt.Errorf("set deadline failed: %v", err)
	}

	tlsConfig := &tls.Config{ServerName: settings.Server}
	if settings.UseSSL {
		conn = tls.Client(conn, tlsConfig)
	}

	client := smtp.NewClient(conn)
	defer client.Close()

	if err := client.Hello(heloName(from)); err != nil {
		return fmt.Errorf("hello failed: %v", err)
	}

	if settings.UseTLS && !settings.UseSSL {
		if err := client.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("starttls failed: %v", err)
		}
	}

	if settings.Username != "" {
		auth := sasl.NewPlainClient("", settings.Username, settings.Password)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("auth failed: %v", err)
		}
	}

	if err := client.Mail(from, nil); err != nil {
		return fmt.Errorf("mail from failed: %v", err)
	}
	if err := client.Rcpt(to, nil); err != nil {
		return fmt.Errorf("rcpt to failed: %v", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("data failed: %v", err)
	}
	if _, err := w.Write(msg); err != nil {
		w.Close()
		return fmt.Errorf("write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("data close failed: %v", err)
	}

	return client.Quit()
}

// heloName uses the sender's domain for EHLO, falling back to localhost
func heloName(from string) string {
	if i := strings.LastIndex(from, "@"); i >= 0 && i < len(from)-1 {
		return from[i+1:]
	}
	return "localhost"
}
