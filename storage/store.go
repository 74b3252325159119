// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

// Package storage persists period calculations. A FileStore keeps one
// JSON file per cache key; CalculationCache layers single-flight
// get-or-compute semantics on top of any CalculationStore.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	apperrors "github.com/soothill/tariff-engine/pkg/errors"
	"github.com/soothill/tariff-engine/pkg/interfaces"
	"github.com/soothill/tariff-engine/pkg/logger"
)

const (
	defaultStoreDir = "/var/cache/tariff-engine"
	entryFilePrefix = "calc_"
	entryFileExt    = ".json"
)

// FileStore is a file-backed calculation repository: one JSON file per
// composite key. Entries are small fixed-size summaries, so the store is
// unbounded by design; bounding it is a deployment concern.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

var _ interfaces.CalculationStore = (*FileStore)(nil)

// NewFileStore creates a file store rooted at dir, creating the
// directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = defaultStoreDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.NewStoreError("create directory", dir, err)
	}

	fs := &FileStore{dir: dir}
	logger.Info().Str("directory", dir).Int("entries", fs.Len()).Msg("Calculation store initialized")
	return fs, nil
}

// Get retrieves the entry for key, or nil if absent.
func (fs *FileStore) Get(_ context.Context, key interfaces.Key) (*interfaces.Entry, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	data, err := os.ReadFile(fs.filename(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, apperrors.NewStoreError("get", key.String(), err)
	}

	var entry interfaces.Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, apperrors.NewStoreError("get", key.String(), fmt.Errorf("unmarshal entry: %w", err))
	}
	return &entry, nil
}

// Put persists the entry under key, superseding any previous entry.
func (fs *FileStore) Put(_ context.Context, key interfaces.Key, entry *interfaces.Entry) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	data, err := json.Marshal(entry)
	if err != nil {
		return apperrors.NewStoreError("put", key.String(), fmt.Errorf("marshal entry: %w", err))
	}
	if err := os.WriteFile(fs.filename(key), data, 0o644); err != nil {
		return apperrors.NewStoreError("put", key.String(), err)
	}

	logger.Debug().
		Str("key", key.String()).
		Str("tariff_code", entry.TariffCode).
		Msg("Persisted calculation entry")
	return nil
}

// Len returns the number of persisted entries.
func (fs *FileStore) Len() int {
	files, err := filepath.Glob(filepath.Join(fs.dir, entryFilePrefix+"*"+entryFileExt))
	if err != nil {
		return 0
	}
	return len(files)
}

func (fs *FileStore) filename(key interfaces.Key) string {
	return filepath.Join(fs.dir, entryFilePrefix+key.String()+entryFileExt)
}

// MemoryStore is an in-memory calculation repository, used in tests and
// when persistence is disabled.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]interfaces.Entry
}

var _ interfaces.CalculationStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]interfaces.Entry)}
}

// Get retrieves the entry for key, or nil if absent.
func (ms *MemoryStore) Get(_ context.Context, key interfaces.Key) (*interfaces.Entry, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	if entry, ok := ms.entries[key.String()]; ok {
		return &entry, nil
	}
	return nil, nil
}

// Put stores a copy of the entry under key.
func (ms *MemoryStore) Put(_ context.Context, key interfaces.Key, entry *interfaces.Entry) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.entries[key.String()] = *entry
	return nil
}

// Len returns the number of stored entries.
func (ms *MemoryStore) Len() int {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return len(ms.entries)
}
