package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// RecipientStorage keeps one newline-delimited address list per campaign
type RecipientStorage struct {
	dir string
}

// NewRecipientStorage creates a new recipient storage instance
func NewRecipientStorage(dir string) (*RecipientStorage, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create recipients directory: %v", err)
	}
	return &RecipientStorage{dir: dir}, nil
}

func recipientPath(dir, name string) string {
	return filepath.Join(dir, name+"_recipients.txt")
}

// Save overwrites the list for name with rawText
func (s *RecipientStorage) Save(name, rawText string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	return writeFileAtomic(recipientPath(s.dir, name), []byte(rawText), 0600)
}

// Load returns the stored list, or "" when none was saved
func (s *RecipientStorage) Load(name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}

	data, err := os.ReadFile(recipientPath(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read recipients: %w", err)
	}
	return string(data), nil
}

// ParseRecipients extracts the addresses from a raw list. Only lines that
// contain "@" are kept; anything else about the address is left to the mail
// server to reject.
func ParseRecipients(rawText string) []string {
	var recipients []string
	for _, line := range strings.Split(rawText, "\n") {
		line = strings.TrimSpace(line)
		if strings.Contains(line, "@") {
			recipients = append(recipients, line)
		}
	}
	return recipients
}
