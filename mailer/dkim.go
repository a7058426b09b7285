package mailer

import (
	"bytes"
	"crypto"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"

	"github.com/emersion/go-msgauth/dkim"

	"phishlab/config"
)

// Signer adds a DKIM-Signature header to outgoing messages
type Signer struct {
	options *dkim.SignOptions
}

// NewSigner loads the private key named in cfg. It returns nil, nil when
// signing is not configured.
func NewSigner(cfg config.DKIMConfig) (*Signer, error) {
	if !cfg.Enabled() {
		return nil, nil
	}

	keyData, err := os.ReadFile(cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read DKIM key from %s: %v", cfg.KeyFile, err)
	}

	key, err := parsePrivateKey(keyData)
	if err != nil {
		return nil, err
	}

	selector := cfg.Selector
	if selector == "" {
		selector = "default"
	}

	return &Signer{options: &dkim.SignOptions{
		Domain:   cfg.Domain,
		Selector: selector,
		Signer:   key,
	}}, nil
}

func parsePrivateKey(keyData []byte) (crypto.Signer, error) {
	block, _ := pem.Decode(keyData)
	if block == nil {
		return nil, fmt.Errorf("failed to decode PEM block")
	}

	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}

	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DKIM key: %v", err)
	}
	signer, ok := key.(crypto.Signer)
	if !ok {
		return nil, fmt.Errorf("unsupported DKIM key type %T", key)
	}
	return signer, nil
}

// Sign returns msg with a DKIM signature prepended. A nil Signer returns msg
// unchanged.
func (s *Signer) Sign(msg []byte) ([]byte, error) {
	if s == nil {
		return msg, nil
	}

	var signed bytes.Buffer
	if err := dkim.Sign(&signed, bytes.NewReader(msg), s.options); err != nil {
		return nil, fmt.Errorf("dkim sign failed: %w", err)
	}
	return signed.Bytes(), nil
}
