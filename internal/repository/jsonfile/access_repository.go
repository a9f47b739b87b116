package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	apperrors "chessclub-bot/internal/common/errors"
	"chessclub-bot/internal/domain/access"
)

// AccessRepository persists the admin and ban lists in access.json.
type AccessRepository struct {
	path string
	mu   sync.Mutex
}

func NewAccessRepository(path string) *AccessRepository {
	return &AccessRepository{path: path}
}

func (r *AccessRepository) Load(ctx context.Context) (access.Config, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	raw, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return access.Config{}, false, nil
		}
		return access.Config{}, false, apperrors.NewPersistenceError("load", filepath.Base(r.path), err)
	}
	var cfg access.Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return access.Config{}, false, apperrors.NewPersistenceError("decode", filepath.Base(r.path), err)
	}
	return cfg.Normalized(), true, nil
}

func (r *AccessRepository) Save(ctx context.Context, cfg access.Config) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	raw, err := json.MarshalIndent(cfg.Normalized(), "", "  ")
	if err != nil {
		return apperrors.NewPersistenceError("encode", filepath.Base(r.path), err)
	}
	return writeAtomic(r.path, raw)
}

var _ access.Store = (*AccessRepository)(nil)
