package storage

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"phishlab/models"
	"phishlab/utils"
)

const (
	// CommaToken replaces commas inside logged values
	CommaToken = "&#44;"
	// MissingField fills columns absent from legacy records
	MissingField = "N/A"

	maxFieldLength     = 100
	maxUserAgentLength = 255
	logFieldCount      = 4
)

// escapeField truncates value and makes it safe for the comma-delimited log
func escapeField(value string, max int) string {
	if runes := []rune(value); len(runes) > max {
		value = string(runes[:max])
	}
	value = strings.NewReplacer("\r", "", "\n", "").Replace(value)
	return strings.ReplaceAll(value, ",", CommaToken)
}

// AppendLog records one submission for name
func (s *CampaignStorage) AppendLog(name, email, password, userAgent string) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	line := strings.Join([]string{
		escapeField(email, maxFieldLength),
		escapeField(password, maxFieldLength),
		s.now().Format(time.RFC3339),
		escapeField(userAgent, maxUserAgentLength),
	}, ",") + "\n"

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.logPath(name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open log: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("failed to append log: %w", err)
	}
	return nil
}

// ReadLog returns the entries captured for name in arrival order. It returns
// ErrNotFound when nothing was ever logged.
func (s *CampaignStorage) ReadLog(name string) ([]models.LogEntry, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	f, err := os.Open(s.logPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to open log: %w", err)
	}
	defer f.Close()

	entries := []models.LogEntry{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		entries = append(entries, parseLogLine(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read log: %w", err)
	}

	return entries, nil
}

// parseLogLine splits a record. Records written before the user agent
// column existed have three fields and are kept as legacy entries.
func parseLogLine(line string) models.LogEntry {
	fields := strings.SplitN(line, ",", logFieldCount)
	for len(fields) < logFieldCount {
		fields = append(fields, "")
	}

	entry := models.LogEntry{
		Email:     orMissing(fields[0], MissingField),
		Password:  orMissing(fields[1], MissingField),
		Timestamp: orMissing(fields[2], MissingField),
		UserAgent: orMissing(fields[3], utils.UnknownValue),
	}

	if fields[3] == "" {
		entry.Legacy = true
		entry.Client = models.ClientInfo{
			OS:      utils.UnknownValue,
			Browser: utils.UnknownValue,
			Device:  utils.UnknownValue,
		}
	} else {
		entry.Client = utils.ClassifyUserAgent(entry.UserAgent)
	}
	return entry
}

func orMissing(value, sentinel string) string {
	if value == "" {
		return sentinel
	}
	return value
}
