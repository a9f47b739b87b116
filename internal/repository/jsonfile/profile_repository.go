package jsonfile

import (
	"context"

	domain "chessclub-bot/internal/domain/user"
)

// ProfileRepository stores profiles in user_profiles.json.
type ProfileRepository struct {
	s *store[domain.Profile]
}

func NewProfileRepository(path string) *ProfileRepository {
	return &ProfileRepository{s: newStore(path, domain.Profile.Clone)}
}

// Load reads the file into memory. On error the repository starts empty.
func (r *ProfileRepository) Load(ctx context.Context) error {
	return r.s.load(ctx)
}

func (r *ProfileRepository) Get(ctx context.Context, id int64) (domain.Profile, bool) {
	return r.s.get(id)
}

func (r *ProfileRepository) Put(ctx context.Context, id int64, p domain.Profile) error {
	return r.s.put(ctx, id, p)
}

func (r *ProfileRepository) All(ctx context.Context) map[int64]domain.Profile {
	return r.s.all()
}

func (r *ProfileRepository) Path() string {
	return r.s.path
}

var _ domain.ProfileRepository = (*ProfileRepository)(nil)
