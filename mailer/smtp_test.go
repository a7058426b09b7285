package mailer

import (
	"bytes"
	"io"
	"mime"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/stretchr/testify/require"

	"phishlab/models"
)

type receivedMail struct {
	From string
	To   []string
	Data []byte
}

// testBackend is a minimal in-process SMTP server that records deliveries
type testBackend struct {
	mu       sync.Mutex
	received []receivedMail
	reject   map[string]bool
	username string
	password string
}

func (b *testBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &testSession{backend: b}, nil
}

func (b *testBackend) messages() []receivedMail {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]receivedMail(nil), b.received...)
}

type testSession struct {
	backend *testBackend
	from    string
	to      []string
}

func (s *testSession) AuthMechanisms() []string {
	return []string{sasl.Plain}
}

func (s *testSession) Auth(mech string) (sasl.Server, error) {
	return sasl.NewPlainServer(func(identity, username, password string) error {
		if username != s.backend.username || password != s.backend.password {
			return &smtp.SMTPError{Code: 535, EnhancedCode: smtp.EnhancedCode{5, 7, 8}, Message: "Invalid credentials"}
		}
		return nil
	}), nil
}

func (s *testSession) Mail(from string, _ *smtp.MailOptions) error {
	s.from = from
	return nil
}

func (s *testSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	if s.backend.reject[to] {
		return &smtp.SMTPError{Code: 550, EnhancedCode: smtp.EnhancedCode{5, 1, 1}, Message: "No such user"}
	}
	s.to = append(s.to, to)
	return nil
}

func (s *testSession) Data(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.backend.mu.Lock()
	s.backend.received = append(s.backend.received, receivedMail{From: s.from, To: s.to, Data: data})
	s.backend.mu.Unlock()
	return nil
}

func (s *testSession) Reset() {
	s.from = ""
	s.to = nil
}

func (s *testSession) Logout() error { return nil }

// startSMTPServer runs a plaintext server on a random local port and returns
// settings pointing at it.
func startSMTPServer(t *testing.T, be *testBackend) models.MailSettings {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := smtp.NewServer(be)
	s.Domain = "localhost"
	s.AllowInsecureAuth = true
	go s.Serve(l)
	t.Cleanup(func() { s.Close() })

	host, port, err := net.SplitHostPort(l.Addr().String())
	require.NoError(t, err)
	p, err := strconv.Atoi(port)
	require.NoError(t, err)

	return models.MailSettings{
		Server:        host,
		Port:          p,
		Username:      be.username,
		Password:      be.password,
		DefaultSender: "it@example.org",
	}
}

func headerBlock(data []byte) string {
	if i := bytes.Index(data, []byte("\r\n\r\n")); i >= 0 {
		return string(data[:i])
	}
	return string(data)
}

func containsHeader(data []byte, prefix string) bool {
	for _, line := range strings.Split(headerBlock(data), "\r\n") {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

// htmlPart decodes a received message and returns its text/html body
func htmlPart(t *testing.T, data []byte) string {
	t.Helper()
	mr, err := mail.CreateReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer mr.Close()

	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			return ""
		}
		require.NoError(t, err)
		ct, _, _ := mime.ParseMediaType(p.Header.Get("Content-Type"))
		if ct == "text/html" {
			body, err := io.ReadAll(p.Body)
			require.NoError(t, err)
			return string(body)
		}
	}
}
