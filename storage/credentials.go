package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"phishlab/models"
	"phishlab/utils"

	"golang.org/x/crypto/bcrypt"
)

// CredentialStorage keeps the administrator accounts in a single JSON array
type CredentialStorage struct {
	path string
	mu   sync.RWMutex
}

// NewCredentialStorage creates a credential store backed by path. The file
// itself is only created by the first Save.
func NewCredentialStorage(path string) (*CredentialStorage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create credentials directory: %v", err)
	}
	return &CredentialStorage{path: path}, nil
}

// Exists reports whether the credential file is present
func (s *CredentialStorage) Exists() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return fileExists(s.path)
}

// Count returns the number of stored accounts
func (s *CredentialStorage) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.load())
}

// Save appends a new account. It returns ErrUserExists when the username is
// already taken.
func (s *CredentialStorage) Save(username, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts := s.load()
	for _, account := range accounts {
		if account.Username == username {
			return ErrUserExists
		}
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %v", err)
	}

	accounts = append(accounts, models.AdminAccount{
		Username:     username,
		PasswordHash: string(hashedPassword),
	})

	data, err := json.MarshalIndent(accounts, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %v", err)
	}

	return writeFileAtomic(s.path, data, 0600)
}

// Verify checks a username/password pair
func (s *CredentialStorage) Verify(username, password string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, account := range s.load() {
		if account.Username == username {
			return bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) == nil
		}
	}
	return false
}

// load reads the collection (must be called with lock held). A missing or
// malformed file is an empty collection.
func (s *CredentialStorage) load() []models.AdminAccount {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			utils.Log.Warn("Failed to read credential file %s: %v", s.path, err)
		}
		return nil
	}

	var accounts []models.AdminAccount
	if err := json.Unmarshal(data, &accounts); err != nil {
		utils.Log.Warn("Credential file %s is malformed, treating as empty: %v", s.path, err)
		return nil
	}
	return accounts
}
