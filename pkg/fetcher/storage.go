package fetcher

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	storagePrefix = "ai-dashboard"
	tokenKey      = "token"

	// TokenTTL is how long a stored token stays valid.
	TokenTTL = 7 * 24 * time.Hour
)

type storageItem struct {
	Value json.RawMessage `json:"value"`
	// Expire is a unix timestamp in milliseconds; zero means no expiry.
	Expire int64 `json:"expire,omitempty"`
}

// Storage is a small prefixed key/value store with per-item expiry, persisted
// as a JSON file. An empty path keeps everything in memory.
type Storage struct {
	path string
	now  func() time.Time

	mu    sync.Mutex
	items map[string]storageItem
}

// NewStorage opens the store at path, creating it on first write.
func NewStorage(path string) (*Storage, error) {
	s := &Storage{path: path, now: time.Now, items: map[string]storageItem{}}
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path) //nolint:gosec // path comes from configuration
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read storage: %w", err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &s.items); err != nil {
			return nil, fmt.Errorf("failed to parse storage %s: %w", path, err)
		}
	}
	return s, nil
}

func storageID(id string) string {
	return storagePrefix + "-" + id
}

// GetItem decodes the item into v. Expired items are removed and reported as
// missing.
func (s *Storage) GetItem(id string, v any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := storageID(id)
	item, ok := s.items[key]
	if !ok {
		return false, nil
	}
	if item.Expire != 0 && item.Expire < s.now().UnixMilli() {
		delete(s.items, key)
		return false, s.flush()
	}
	if err := json.Unmarshal(item.Value, v); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

// SetItem stores v under id. A positive ttl sets an expiry.
func (s *Storage) SetItem(id string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item := storageItem{Value: data}
	if ttl > 0 {
		item.Expire = s.now().Add(ttl).UnixMilli()
	}
	s.items[storageID(id)] = item
	return s.flush()
}

// RemoveItem deletes id.
func (s *Storage) RemoveItem(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, storageID(id))
	return s.flush()
}

// Clear removes every item written by this store.
func (s *Storage) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.items {
		if strings.HasPrefix(key, storagePrefix) {
			delete(s.items, key)
		}
	}
	return s.flush()
}

// Token returns the stored bearer token, or "" when absent or expired.
func (s *Storage) Token() string {
	var token string
	if ok, err := s.GetItem(tokenKey, &token); err != nil || !ok {
		return ""
	}
	return token
}

// SetToken stores token for TokenTTL.
func (s *Storage) SetToken(token string) error {
	return s.SetItem(tokenKey, token, TokenTTL)
}

// flush writes the items to disk. Callers hold s.mu.
func (s *Storage) flush() error {
	if s.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(s.items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode storage: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write storage: %w", err)
	}
	return nil
}

var _ TokenStore = (*Storage)(nil)
