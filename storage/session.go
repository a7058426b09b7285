package storage

import (
	"context"
	"encoding/binary"
	"time"

	"go.etcd.io/bbolt"

	"phishlab/utils"
)

// SessionStorage implements fiber.Storage on top of bbolt so that logins
// survive restarts. Each value is prefixed with its expiry as unix nanoseconds
// (zero meaning no expiry).
type SessionStorage struct {
	db  *bbolt.DB
	now func() time.Time
}

// NewSessionStorage wraps an opened database
func NewSessionStorage(db *bbolt.DB) *SessionStorage {
	return &SessionStorage{db: db, now: time.Now}
}

// Get returns nil, nil for unknown or expired keys
func (s *SessionStorage) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}

	var value []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket([]byte(sessionBucket)).Get([]byte(key))
		if raw == nil {
			return nil
		}
		val, ok := s.decode(raw)
		if !ok {
			return nil
		}
		value = append([]byte(nil), val...)
		return nil
	})
	return value, err
}

func (s *SessionStorage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}

	var expiry int64
	if exp > 0 {
		expiry = s.now().Add(exp).UnixNano()
	}

	record := make([]byte, 8+len(val))
	binary.BigEndian.PutUint64(record, uint64(expiry))
	copy(record[8:], val)

	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(sessionBucket)).Put([]byte(key), record)
	})
}

func (s *SessionStorage) Delete(key string) error {
	if key == "" {
		return nil
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(sessionBucket)).Delete([]byte(key))
	})
}

// Reset removes every session
func (s *SessionStorage) Reset() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket([]byte(sessionBucket)); err != nil {
			return err
		}
		_, err := tx.CreateBucket([]byte(sessionBucket))
		return err
	})
}

func (s *SessionStorage) Close() error {
	return s.db.Close()
}

// Sweep deletes expired sessions and returns how many were removed
func (s *SessionStorage) Sweep() (int, error) {
	removed := 0
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(sessionBucket))
		var expired [][]byte
		err := b.ForEach(func(k, v []byte) error {
			if _, ok := s.decode(v); !ok {
				expired = append(expired, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range expired {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		removed = len(expired)
		return nil
	})
	return removed, err
}

// StartSweeper runs Sweep every interval until ctx is cancelled
func (s *SessionStorage) StartSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := s.Sweep()
				if err != nil {
					utils.Log.Error("Session sweep failed: %v", err)
					continue
				}
				if n > 0 {
					utils.Log.Debug("Removed %d expired sessions", n)
				}
			}
		}
	}()
}

// decode splits a stored record; ok is false for corrupt or expired records
func (s *SessionStorage) decode(raw []byte) ([]byte, bool) {
	if len(raw) < 8 {
		return nil, false
	}
	expiry := int64(binary.BigEndian.Uint64(raw[:8]))
	if expiry != 0 && s.now().UnixNano() > expiry {
		return nil, false
	}
	return raw[8:], true
}
