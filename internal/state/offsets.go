// Package state persists the poller cursor across restarts.
//
// One JSON file per bot, named by a hash of the token so the credential never
// appears on disk outside the config file:
//
//	{"offset":1234,"updated_at":"2026-01-02T15:04:05Z"}
package state

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// OffsetStore loads and saves getUpdates offsets as JSON files.
type OffsetStore struct {
	dir   string
	cache sync.Map // file key → int64
}

type offsetFile struct {
	Offset    int64  `json:"offset"`
	UpdatedAt string `json:"updated_at"`
}

// NewOffsetStore creates a store rooted at dir. The directory is created on
// first save.
func NewOffsetStore(dir string) *OffsetStore {
	return &OffsetStore{dir: dir}
}

// Load returns the saved offset for token, or false when none is recorded.
// An unreadable file is logged and treated as absent.
func (s *OffsetStore) Load(token string) (int64, bool) {
	key := fileKey(token)
	if v, ok := s.cache.Load(key); ok {
		return v.(int64), true
	}

	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("state: read offset", "err", err)
		}
		return 0, false
	}
	var f offsetFile
	if err := json.Unmarshal(data, &f); err != nil {
		slog.Warn("state: skipping malformed offset file", "path", s.path(key), "err", err)
		return 0, false
	}

	actual, _ := s.cache.LoadOrStore(key, f.Offset)
	return actual.(int64), true
}

// Save records offset for token. The file is replaced atomically.
func (s *OffsetStore) Save(token string, offset int64) error {
	key := fileKey(token)
	if v, ok := s.cache.Load(key); ok && v.(int64) == offset {
		return nil
	}

	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(offsetFile{
		Offset:    offset,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		return fmt.Errorf("encode offset: %w", err)
	}

	path := s.path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("write offset %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace offset %s: %w", path, err)
	}

	s.cache.Store(key, offset)
	return nil
}

// Forget drops the saved offset for token.
func (s *OffsetStore) Forget(token string) error {
	key := fileKey(token)
	s.cache.Delete(key)
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *OffsetStore) path(key string) string {
	return filepath.Join(s.dir, "offset-"+key+".json")
}

func fileKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:8])
}
