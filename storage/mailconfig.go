package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"phishlab/models"
	"phishlab/utils"
)

// MailConfigStorage persists the SMTP settings and keeps the last
// successfully loaded copy in memory.
type MailConfigStorage struct {
	path    string
	mu      sync.RWMutex
	current models.MailSettings
}

// NewMailConfigStorage creates the store and loads the file if present
func NewMailConfigStorage(path string) (*MailConfigStorage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create mail config directory: %v", err)
	}

	s := &MailConfigStorage{path: path, current: models.DefaultMailSettings()}
	if err := s.Load(); err != nil {
		utils.Log.Warn("Mail configuration not loaded: %v", err)
	}
	return s, nil
}

// Current returns a copy of the active settings
func (s *MailConfigStorage) Current() models.MailSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.current
}

// Load merges the recognised keys of the file into the active settings.
// Keys are matched case-insensitively. A malformed file leaves the settings
// unchanged.
func (s *MailConfigStorage) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read mail config: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to decode mail config: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	merged := s.current
	for key, value := range raw {
		if err := mergeMailKey(&merged, strings.ToLower(key), value); err != nil {
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}
	}
	s.current = merged
	return nil
}

// Save replaces the file with settings and reloads it
func (s *MailConfigStorage) Save(settings models.MailSettings) error {
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal mail config: %w", err)
	}
	if err := writeFileAtomic(s.path, data, 0600); err != nil {
		return err
	}
	return s.Load()
}

func mergeMailKey(settings *models.MailSettings, key string, value json.RawMessage) error {
	switch key {
	case "mail_server":
		return json.Unmarshal(value, &settings.Server)
	case "mail_port":
		port, err := decodeInt(value)
		if err != nil {
			return err
		}
		settings.Port = port
	case "mail_use_tls":
		b, err := decodeBool(value)
		if err != nil {
			return err
		}
		settings.UseTLS = b
	case "mail_use_ssl":
		b, err := decodeBool(value)
		if err != nil {
			return err
		}
		settings.UseSSL = b
	case "mail_username":
		return json.Unmarshal(value, &settings.Username)
	case "mail_password":
		return json.Unmarshal(value, &settings.Password)
	case "mail_default_sender":
		return json.Unmarshal(value, &settings.DefaultSender)
	}
	return nil
}

// decodeInt accepts 587 as well as "587", since older files stored form values verbatim
func decodeInt(value json.RawMessage) (int, error) {
	var n int
	if err := json.Unmarshal(value, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(value, &s); err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(s))
}

func decodeBool(value json.RawMessage) (bool, error) {
	var b bool
	if err := json.Unmarshal(value, &b); err == nil {
		return b, nil
	}
	var s string
	if err := json.Unmarshal(value, &s); err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "on", "1", "yes":
		return true, nil
	case "", "false", "off", "0", "no":
		return false, nil
	}
	return false, fmt.Errorf("not a boolean: %q", s)
}
