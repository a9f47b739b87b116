package access

import (
	"context"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	domain "chessclub-bot/internal/domain/access"
)

// Service holds the admin and ban sets. The two sets never share an id.
type Service struct {
	mu     sync.RWMutex
	admins map[int64]struct{}
	banned map[int64]struct{}
	store  domain.Store
	log    zerolog.Logger
}

// New builds a service from an explicit membership snapshot. store may be nil,
// in which case mutations live only in memory.
func New(cfg domain.Config, store domain.Store, log zerolog.Logger) *Service {
	s := &Service{
		admins: make(map[int64]struct{}),
		banned: make(map[int64]struct{}),
		store:  store,
		log:    log,
	}
	for _, id := range cfg.Banned {
		s.banned[id] = struct{}{}
	}
	for _, id := range cfg.Admins {
		delete(s.banned, id)
		s.admins[id] = struct{}{}
	}
	return s
}

// Bootstrap loads the persisted snapshot and merges the configured admins into it.
// Configured admins win over a persisted ban. The merged state is saved back.
// An unreadable store is logged and treated as empty.
func Bootstrap(ctx context.Context, seedAdmins []int64, store domain.Store, log zerolog.Logger) *Service {
	var cfg domain.Config
	if store != nil {
		persisted, found, err := store.Load(ctx)
		switch {
		case err != nil:
			log.Warn().Err(err).Msg("access lists unreadable, starting from configured admins")
		case found:
			cfg = persisted
		}
	}
	cfg.Admins = append(cfg.Admins, seedAdmins...)

	s := New(cfg, store, log)
	s.mu.RLock()
	s.persistLocked(ctx)
	s.mu.RUnlock()
	log.Info().Int("admins", len(s.admins)).Int("banned", len(s.banned)).Msg("access lists loaded")
	return s
}

func (s *Service) IsAdmin(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.admins[id]
	return ok
}

func (s *Service) IsBanned(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.banned[id]
	return ok
}

// CheckAccess gates admin operations. A ban is reported ahead of missing privileges.
func (s *Service) CheckAccess(id int64) domain.Decision {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.banned[id]; ok {
		return domain.DeniedBanned
	}
	if _, ok := s.admins[id]; !ok {
		return domain.DeniedNotAdmin
	}
	return domain.Allowed
}

// CheckUser gates regular commands: only banned users are turned away.
func (s *Service) CheckUser(id int64) domain.Decision {
	if s.IsBanned(id) {
		return domain.DeniedBanned
	}
	return domain.Allowed
}

func (s *Service) Status(id int64) domain.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.admins[id]; ok {
		return domain.StatusAdmin
	}
	if _, ok := s.banned[id]; ok {
		return domain.StatusBanned
	}
	return domain.StatusRegular
}

// AddAdmin grants privileges. It refuses ids that are already admins or are banned.
func (s *Service) AddAdmin(ctx context.Context, id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.admins[id]; ok {
		return false
	}
	if _, ok := s.banned[id]; ok {
		return false
	}
	s.admins[id] = struct{}{}
	s.persistLocked(ctx)
	return true
}

func (s *Service) RemoveAdmin(ctx context.Context, id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.admins[id]; !ok {
		return false
	}
	delete(s.admins, id)
	s.persistLocked(ctx)
	return true
}

// BanUser refuses admins and ids that are already banned.
func (s *Service) BanUser(ctx context.Context, id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.admins[id]; ok {
		return false
	}
	if _, ok := s.banned[id]; ok {
		return false
	}
	s.banned[id] = struct{}{}
	s.persistLocked(ctx)
	return true
}

func (s *Service) UnbanUser(ctx context.Context, id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.banned[id]; !ok {
		return false
	}
	delete(s.banned, id)
	s.persistLocked(ctx)
	return true
}

func (s *Service) Admins() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.admins)
}

func (s *Service) Banned() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.banned)
}

// Snapshot returns the current membership.
func (s *Service) Snapshot() domain.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Service) snapshotLocked() domain.Config {
	return domain.Config{Admins: sortedKeys(s.admins), Banned: sortedKeys(s.banned)}
}

func (s *Service) persistLocked(ctx context.Context) {
	if s.store == nil {
		return
	}
	if err := s.store.Save(ctx, s.snapshotLocked()); err != nil {
		s.log.Error().Err(err).Msg("failed to save access lists")
	}
}

func sortedKeys(m map[int64]struct{}) []int64 {
	out := make([]int64, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}
