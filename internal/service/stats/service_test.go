package stats

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chessclub-bot/internal/domain/access"
	domain "chessclub-bot/internal/domain/user"
	accesssvc "chessclub-bot/internal/service/access"
)

type records struct {
	profiles map[int64]domain.Profile
	activity map[int64]domain.Activity
}

func (r records) LoadProfiles(context.Context) map[int64]domain.Profile  { return r.profiles }
func (r records) LoadActivity(context.Context) map[int64]domain.Activity { return r.activity }

var now = time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

func seen(daysAgo int, messages int, name string) domain.Activity {
	at := domain.NewTimestamp(now.Add(-time.Duration(daysAgo) * 24 * time.Hour))
	return domain.Activity{Username: domain.StringPtr(name), FirstSeen: at, LastSeen: at, MessageCount: messages}
}

func fixture() (records, *accesssvc.Service) {
	handle := "magnus_99"
	r := records{
		activity: map[int64]domain.Activity{
			1: seen(1, 10, "alice"),
			2: seen(3, 4, "bob"),
			3: seen(30, 6, ""),
		},
		profiles: map[int64]domain.Profile{
			1: {LichessUsername: &handle, Balance: 100, RegistrationComplete: true},
			2: {Balance: 100},
			3: {Balance: 40, RegistrationComplete: true},
		},
	}
	acc := accesssvc.New(access.Config{Admins: []int64{1}, Banned: []int64{3}}, nil, zerolog.Nop())
	return r, acc
}

func TestSummary(t *testing.T) {
	r, acc := fixture()
	sum := NewService(r, acc).Summary(context.Background(), now)

	assert.Equal(t, 3, sum.TotalUsers)
	assert.Equal(t, 2, sum.ActiveUsers)
	assert.Equal(t, 2, sum.RegisteredUsers)
	assert.Equal(t, 1, sum.UsersWithHandle)
	assert.Equal(t, 1, sum.BannedUsers)
	assert.Equal(t, 20, sum.TotalMessages)
	assert.InDelta(t, 20.0/3.0, sum.AvgMessagesPerUser, 0.001)
	assert.Equal(t, 240, sum.TotalBalance)
	assert.InDelta(t, 120.0, sum.AvgBalance, 0.001)
	assert.Equal(t, []int64{1}, sum.AdminIDs)
}

func TestSummary_Empty(t *testing.T) {
	acc := accesssvc.New(access.Config{Admins: []int64{1}}, nil, zerolog.Nop())
	sum := NewService(records{}, acc).Summary(context.Background(), now)
	assert.Zero(t, sum.TotalUsers)
	assert.Zero(t, sum.AvgMessagesPerUser)
	assert.Zero(t, sum.AvgBalance)
}

func TestListUsers(t *testing.T) {
	r, acc := fixture()
	svc := NewService(r, acc)

	list := svc.ListUsers(context.Background(), 2)
	require.Len(t, list.Users, 2)
	assert.Equal(t, int64(1), list.Users[0].ID)
	assert.Equal(t, int64(2), list.Users[1].ID)
	assert.Equal(t, access.StatusAdmin, list.Users[0].Status)
	assert.Equal(t, "magnus_99", list.Users[0].Handle)
	assert.Equal(t, 3, list.Total)
	assert.Equal(t, 1, list.Remaining)
	assert.Equal(t, 2, list.RegisteredUsers)
	assert.Equal(t, 240, list.TotalBalance)

	all := svc.ListUsers(context.Background(), 0)
	require.Len(t, all.Users, 3)
	assert.Equal(t, access.StatusBanned, all.Users[2].Status)
	assert.Zero(t, all.Remaining)
}

func TestUser(t *testing.T) {
	r, acc := fixture()
	svc := NewService(r, acc)

	row, ok := svc.User(context.Background(), 2)
	require.True(t, ok)
	assert.Equal(t, "bob", row.Username)
	assert.Equal(t, access.StatusRegular, row.Status)

	_, ok = svc.User(context.Background(), 404)
	assert.False(t, ok)
}

func TestLegacyProfileWithHandleCountsAsRegistered(t *testing.T) {
	handle := "old_timer"
	legacy := domain.Profile{LichessUsername: &handle, Balance: 100}
	require.True(t, legacy.Registered())

	r := records{
		activity: map[int64]domain.Activity{5: seen(1, 2, "eve")},
		profiles: map[int64]domain.Profile{5: legacy},
	}
	acc := accesssvc.New(access.Config{Admins: []int64{1}}, nil, zerolog.Nop())
	svc := NewService(r, acc)

	sum := svc.Summary(context.Background(), now)
	assert.Equal(t, 1, sum.RegisteredUsers)
	assert.Equal(t, 1, sum.UsersWithHandle)

	list := svc.ListUsers(context.Background(), 0)
	assert.Equal(t, 1, list.RegisteredUsers)

	row, ok := svc.User(context.Background(), 5)
	require.True(t, ok)
	assert.True(t, row.Registered)
}
