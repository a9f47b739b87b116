package redis

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"

	apperrors "chessclub-bot/internal/common/errors"
	"chessclub-bot/internal/domain/access"
)

// AccessRepository stores the admin and ban lists as two Redis sets plus a
// marker key that tells an empty saved state apart from a never-saved one.
type AccessRepository struct {
	client redis.Cmdable
	prefix string
}

func NewAccessRepository(client redis.Cmdable, prefix string) *AccessRepository {
	if prefix == "" {
		prefix = "access"
	}
	return &AccessRepository{client: client, prefix: prefix}
}

func (r *AccessRepository) adminsKey() string { return r.prefix + ":admins" }
func (r *AccessRepository) bannedKey() string { return r.prefix + ":banned" }
func (r *AccessRepository) markerKey() string { return r.prefix + ":saved" }

func (r *AccessRepository) Load(ctx context.Context) (access.Config, bool, error) {
	n, err := r.client.Exists(ctx, r.markerKey()).Result()
	if err != nil {
		return access.Config{}, false, apperrors.NewCacheError("load access marker", err)
	}
	if n == 0 {
		return access.Config{}, false, nil
	}

	admins, err := r.members(ctx, r.adminsKey())
	if err != nil {
		return access.Config{}, false, err
	}
	banned, err := r.members(ctx, r.bannedKey())
	if err != nil {
		return access.Config{}, false, err
	}
	return access.Config{Admins: admins, Banned: banned}.Normalized(), true, nil
}

func (r *AccessRepository) members(ctx context.Context, key string) ([]int64, error) {
	raw, err := r.client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, apperrors.NewCacheError("smembers "+key, err)
	}
	ids := make([]int64, 0, len(raw))
	for _, s := range raw {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, apperrors.NewCacheError("decode "+key, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Save replaces both sets atomically.
func (r *AccessRepository) Save(ctx context.Context, cfg access.Config) error {
	cfg = cfg.Normalized()
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.adminsKey(), r.bannedKey())
		if len(cfg.Admins) > 0 {
			pipe.SAdd(ctx, r.adminsKey(), toMembers(cfg.Admins)...)
		}
		if len(cfg.Banned) > 0 {
			pipe.SAdd(ctx, r.bannedKey(), toMembers(cfg.Banned)...)
		}
		pipe.Set(ctx, r.markerKey(), "1", 0)
		return nil
	})
	if err != nil {
		return apperrors.NewCacheError("save access lists", err)
	}
	return nil
}

func toMembers(ids []int64) []interface{} {
	out := make([]interface{}, len(ids))
	for i, id := range ids {
		out[i] = strconv.FormatInt(id, 10)
	}
	return out
}

var _ access.Store = (*AccessRepository)(nil)
