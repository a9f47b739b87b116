package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/google/renameio/v2"

	apperrors "chessclub-bot/internal/common/errors"
)

// store keeps a map of records keyed by user id in memory and mirrors it to a
// JSON object on disk whose keys are the ids in decimal form.
type store[T any] struct {
	path  string
	clone func(T) T

	mu      sync.RWMutex
	records map[int64]T
}

func newStore[T any](path string, clone func(T) T) *store[T] {
	return &store[T]{path: path, clone: clone, records: make(map[int64]T)}
}

// load replaces the in-memory map with the file contents. A missing file is an
// empty store; an unreadable one leaves the store empty and returns the error.
func (s *store[T]) load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[int64]T)

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return apperrors.NewPersistenceError("load", filepath.Base(s.path), err)
	}
	if len(raw) == 0 {
		return nil
	}

	var byKey map[string]T
	if err := json.Unmarshal(raw, &byKey); err != nil {
		return apperrors.NewPersistenceError("decode", filepath.Base(s.path), err)
	}
	records := make(map[int64]T, len(byKey))
	for k, v := range byKey {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			return apperrors.NewPersistenceError("decode", filepath.Base(s.path), fmt.Errorf("invalid user id key %q", k))
		}
		records[id] = v
	}
	s.records = records
	return nil
}

func (s *store[T]) get(id int64) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.records[id]
	if !ok {
		return v, false
	}
	return s.clone(v), true
}

// put stores v and rewrites the file. The in-memory value stands even when the
// write fails.
func (s *store[T]) put(ctx context.Context, id int64, v T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[id] = s.clone(v)
	return s.persistLocked()
}

func (s *store[T]) all() map[int64]T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int64]T, len(s.records))
	for id, v := range s.records {
		out[id] = s.clone(v)
	}
	return out
}

func (s *store[T]) persistLocked() error {
	byKey := make(map[string]T, len(s.records))
	for id, v := range s.records {
		byKey[strconv.FormatInt(id, 10)] = v
	}
	raw, err := json.MarshalIndent(byKey, "", "  ")
	if err != nil {
		return apperrors.NewPersistenceError("encode", filepath.Base(s.path), err)
	}
	return writeAtomic(s.path, raw)
}

// writeAtomic replaces path with data through a temp file and rename.
func writeAtomic(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return apperrors.NewPersistenceError("mkdir", filepath.Base(path), err)
		}
	}
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return apperrors.NewPersistenceError("save", filepath.Base(path), err)
	}
	return nil
}
