package user

import "context"

// ProfileRepository persists profiles keyed by Telegram user id.
// Put keeps the in-memory value even when persisting fails and reports the failure.
type ProfileRepository interface {
	Get(ctx context.Context, id int64) (Profile, bool)
	Put(ctx context.Context, id int64, p Profile) error
	All(ctx context.Context) map[int64]Profile
}

// ActivityRepository persists activity records keyed by Telegram user id.
type ActivityRepository interface {
	Get(ctx context.Context, id int64) (Activity, bool)
	Put(ctx context.Context, id int64, a Activity) error
	All(ctx context.Context) map[int64]Activity
}
