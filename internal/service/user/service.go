package user

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	apperrors "chessclub-bot/internal/common/errors"
	domain "chessclub-bot/internal/domain/user"
	"chessclub-bot/internal/metrics"
)

// Loader is implemented by repositories that read their backing store at startup.
type Loader interface {
	Load(ctx context.Context) error
}

// Service owns profile and activity records. Writes go through the repositories
// immediately; a failed write is logged and the in-memory value is kept.
type Service struct {
	profiles domain.ProfileRepository
	activity domain.ActivityRepository
	log      zerolog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
	locks    *keyedMutex
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.log = l }
}

func NewService(profiles domain.ProfileRepository, activity domain.ActivityRepository, opts ...Option) *Service {
	s := &Service{
		profiles: profiles,
		activity: activity,
		log:      zerolog.Nop(),
		now:      time.Now,
		locks:    newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads both stores. Problems are logged and leave the affected store empty.
func (s *Service) Load(ctx context.Context) {
	for name, repo := range map[string]any{"profiles": s.profiles, "activity": s.activity} {
		l, ok := repo.(Loader)
		if !ok {
			continue
		}
		if err := l.Load(ctx); err != nil {
			s.log.Warn().Err(err).Str("store", name).Msg("starting with an empty store")
		}
	}
}

// WithUserLock runs fn while holding the lock for id. Calls into Service from
// fn must use the *Locked variants.
func (s *Service) WithUserLock(id int64, fn func()) {
	unlock := s.locks.lock(id)
	defer unlock()
	fn()
}

func (s *Service) GetOrCreateProfile(ctx context.Context, id int64) (domain.Profile, bool) {
	unlock := s.locks.lock(id)
	defer unlock()
	return s.GetOrCreateProfileLocked(ctx, id)
}

// GetOrCreateProfileLocked is GetOrCreateProfile for callers already inside WithUserLock.
func (s *Service) GetOrCreateProfileLocked(ctx context.Context, id int64) (domain.Profile, bool) {
	if p, ok := s.profiles.Get(ctx, id); ok {
		return p, false
	}
	p := domain.NewProfile(domain.NewTimestamp(s.now()))
	s.persist(s.profiles.Put(ctx, id, p), id)
	return p.Clone(), true
}

// UpdateProfile merges the non-nil fields of u, creating the profile first when missing.
func (s *Service) UpdateProfile(ctx context.Context, id int64, u domain.ProfileUpdate) domain.Profile {
	unlock := s.locks.lock(id)
	defer unlock()
	return s.UpdateProfileLocked(ctx, id, u)
}

func (s *Service) UpdateProfileLocked(ctx context.Context, id int64, u domain.ProfileUpdate) domain.Profile {
	p, _ := s.GetOrCreateProfileLocked(ctx, id)
	p = u.Apply(p)
	s.persist(s.profiles.Put(ctx, id, p), id)
	return p.Clone()
}

func (s *Service) IsRegistered(ctx context.Context, id int64) bool {
	p, ok := s.profiles.Get(ctx, id)
	return ok && p.Registered()
}

// Profile returns the stored profile without creating one.
func (s *Service) Profile(ctx context.Context, id int64) (domain.Profile, bool) {
	return s.profiles.Get(ctx, id)
}

// Activity returns the stored activity record without creating one.
func (s *Service) Activity(ctx context.Context, id int64) (domain.Activity, bool) {
	return s.activity.Get(ctx, id)
}

// RecordActivity notes one incoming message from id.
func (s *Service) RecordActivity(ctx context.Context, id int64, displayName *string, text string) domain.Activity {
	unlock := s.locks.lock(id)
	defer unlock()

	now := domain.NewTimestamp(s.now())
	a, ok := s.activity.Get(ctx, id)
	if !ok {
		a = domain.NewActivity(now)
	}
	if displayName != nil {
		name := *displayName
		a.Username = &name
	} else {
		a.Username = nil
	}
	a.LastSeen = now
	a.MessageCount++
	if cmd := CommandToken(text); cmd != "" {
		a.AddCommand(cmd)
	}

	s.persist(s.activity.Put(ctx, id, a), id)
	return a.Clone()
}

// LoadProfiles returns a snapshot of every profile.
func (s *Service) LoadProfiles(ctx context.Context) map[int64]domain.Profile {
	return s.profiles.All(ctx)
}

// LoadActivity returns a snapshot of every activity record.
func (s *Service) LoadActivity(ctx context.Context) map[int64]domain.Activity {
	return s.activity.All(ctx)
}

// CommandToken returns the leading "/command" of text, or "" for plain text.
// Only text whose first character is "/" is a command.
func CommandToken(text string) string {
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	fields := strings.Fields(text)
	return fields[0]
}

func (s *Service) persist(err error, id int64) {
	if err == nil {
		return
	}
	store := "unknown"
	if appErr, ok := apperrors.AsAppError(err); ok {
		if v, ok := appErr.Details["store"].(string); ok {
			store = v
		}
	}
	s.metrics.PersistenceError(store)
	s.log.Warn().Err(err).Int64("user_id", id).Str("store", store).Msg("persist failed, keeping in-memory state")
}
