package jsonfile

import (
	"context"

	domain "chessclub-bot/internal/domain/user"
)

// ActivityRepository stores activity records in user_activity.json.
type ActivityRepository struct {
	s *store[domain.Activity]
}

func NewActivityRepository(path string) *ActivityRepository {
	return &ActivityRepository{s: newStore(path, domain.Activity.Clone)}
}

func (r *ActivityRepository) Load(ctx context.Context) error {
	return r.s.load(ctx)
}

func (r *ActivityRepository) Get(ctx context.Context, id int64) (domain.Activity, bool) {
	return r.s.get(id)
}

func (r *ActivityRepository) Put(ctx context.Context, id int64, a domain.Activity) error {
	return r.s.put(ctx, id, a)
}

func (r *ActivityRepository) All(ctx context.Context) map[int64]domain.Activity {
	return r.s.all()
}

func (r *ActivityRepository) Path() string {
	return r.s.path
}

var _ domain.ActivityRepository = (*ActivityRepository)(nil)
