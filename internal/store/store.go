package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	domainErrors "github.com/thomas-vilte/changelens/internal/errors"
)

// Store is a small key/value slot for persisted state.
type Store interface {
	// Get returns the stored value, or ok=false if key was never written.
	Get(ctx context.Context, key string) (value json.RawMessage, ok bool, err error)
	// Set overwrites the value stored under key.
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
}

type entry struct {
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// FileStore keeps one JSON file per key inside dir.
type FileStore struct {
	mu  sync.Mutex
	dir string
}

var _ Store = (*FileStore)(nil)

func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, domainErrors.ErrStoreWrite.WithError(fmt.Errorf("state directory is not set"))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, domainErrors.ErrStoreWrite.WithError(fmt.Errorf("error creating state directory: %w", err))
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the directory holding the state files.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(key string) string {
	hash := sha256.Sum256([]byte(key))
	return filepath.Join(s.dir, hex.EncodeToString(hash[:8])+".json")
}

func (s *FileStore) Get(_ context.Context, key string) (json.RawMessage, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, domainErrors.ErrStoreRead.WithError(err).WithContext("key", key)
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, false, domainErrors.ErrStoreRead.WithError(fmt.Errorf("error decoding state file: %w", err)).WithContext("key", key)
	}
	return e.Value, true, nil
}

// Set writes through a temp file and a rename so readers never see a
// partial record.
func (s *FileStore) Set(_ context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return domainErrors.ErrStoreWrite.WithError(fmt.Errorf("error encoding value: %w", err)).WithContext("key", key)
	}

	data, err := json.MarshalIndent(entry{Key: key, Value: raw, UpdatedAt: time.Now().UTC()}, "", "  ")
	if err != nil {
		return domainErrors.ErrStoreWrite.WithError(err).WithContext("key", key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, ".state-*")
	if err != nil {
		return domainErrors.ErrStoreWrite.WithError(err).WithContext("key", key)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return domainErrors.ErrStoreWrite.WithError(err).WithContext("key", key)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return domainErrors.ErrStoreWrite.WithError(err).WithContext("key", key)
	}
	if err := os.Rename(tmpName, s.path(key)); err != nil {
		_ = os.Remove(tmpName)
		return domainErrors.ErrStoreWrite.WithError(err).WithContext("key", key)
	}
	return nil
}

func (s *FileStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return domainErrors.ErrStoreWrite.WithError(err).WithContext("key", key)
	}
	return nil
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]json.RawMessage
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]json.RawMessage)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (json.RawMessage, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return domainErrors.ErrStoreWrite.WithError(err).WithContext("key", key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = raw
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}
