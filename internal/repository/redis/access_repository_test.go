package redis

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	red "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "chessclub-bot/internal/common/errors"
	"chessclub-bot/internal/domain/access"
)

func newTestRedis(t *testing.T) (*red.Client, *miniredis.Miniredis) {
	t.Helper()

	server, err := miniredis.Run()
	require.NoError(t, err)

	client := red.NewClient(&red.Options{Addr: server.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		server.Close()
	})
	return client, server
}

func TestAccessRepository_LoadBeforeSave(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewAccessRepository(client, "")

	cfg, found, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, cfg.Admins)
}

func TestAccessRepository_SaveAndLoad(t *testing.T) {
	client, server := newTestRedis(t)
	repo := NewAccessRepository(client, "bot:access")
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, access.Config{Admins: []int64{9, 7}, Banned: []int64{3, 4}}))

	members, err := server.Members("bot:access:admins")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"7", "9"}, members)

	cfg, found, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []int64{7, 9}, cfg.Admins)
	assert.Equal(t, []int64{3, 4}, cfg.Banned)

	// Saving an emptied ban list must clear the old members.
	require.NoError(t, repo.Save(ctx, access.Config{Admins: []int64{7}}))
	cfg, found, err = repo.Load(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []int64{7}, cfg.Admins)
	assert.Empty(t, cfg.Banned)
}

func TestAccessRepository_ServerDown(t *testing.T) {
	client, server := newTestRedis(t)
	repo := NewAccessRepository(client, "")
	server.Close()

	_, _, err := repo.Load(context.Background())
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeCacheError))
	err = repo.Save(context.Background(), access.Config{Admins: []int64{1}})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeCacheError))
}
