package registration

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "chessclub-bot/internal/domain/user"
	"chessclub-bot/internal/metrics"
	"chessclub-bot/internal/repository/jsonfile"
	usersvc "chessclub-bot/internal/service/user"
)

func newServices(t *testing.T) (*Service, *usersvc.Service, *metrics.Metrics) {
	t.Helper()
	dir := t.TempDir()
	users := usersvc.NewService(
		jsonfile.NewProfileRepository(filepath.Join(dir, "user_profiles.json")),
		jsonfile.NewActivityRepository(filepath.Join(dir, "user_activity.json")),
	)
	m := metrics.NewMetrics(metrics.NewRegistry())
	return NewService(users, m, zerolog.Nop()), users, m
}

func TestTryRegister_AcceptsAndNormalizes(t *testing.T) {
	ctx := context.Background()
	svc, users, m := newServices(t)

	res := svc.TryRegister(ctx, 42, "  Magnus_99 ")
	assert.Equal(t, Accepted, res.Outcome)
	assert.Equal(t, "magnus_99", res.Handle)

	p, ok := users.Profile(ctx, 42)
	require.True(t, ok)
	assert.Equal(t, "magnus_99", p.Handle())
	assert.True(t, p.RegistrationComplete)
	assert.Equal(t, domain.DefaultBalance, p.Balance)

	// Once registered, further text is not a handle submission.
	again := svc.TryRegister(ctx, 42, "another_name")
	assert.Equal(t, NotApplicable, again.Outcome)
	p, _ = users.Profile(ctx, 42)
	assert.Equal(t, "magnus_99", p.Handle())

	assert.Equal(t, float64(1), testutil.ToFloat64(m.Registrations.WithLabelValues("accepted")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Registrations.WithLabelValues("not_applicable")))
}

func TestTryRegister_ResetsBalance(t *testing.T) {
	ctx := context.Background()
	svc, users, _ := newServices(t)

	balance := 5
	users.UpdateProfile(ctx, 1, domain.ProfileUpdate{Balance: &balance})

	res := svc.TryRegister(ctx, 1, "player-one")
	require.Equal(t, Accepted, res.Outcome)
	p, _ := users.Profile(ctx, 1)
	assert.Equal(t, domain.DefaultBalance, p.Balance)
}

func TestTryRegister_Rejects(t *testing.T) {
	ctx := context.Background()
	svc, users, _ := newServices(t)

	cases := map[string]string{
		"ab":                     "too_short",
		"   ab   ":               "too_short",
		"this_handle_is_far_too": "too_long",
		"hello world":            "invalid_characters",
		"bad!name":               "invalid_characters",
		"___":                    "no_alphanumeric_characters",
		"-_-":                    "no_alphanumeric_characters",
	}
	for input, detail := range cases {
		res := svc.TryRegister(ctx, 9, input)
		assert.Equal(t, Rejected, res.Outcome, input)
		assert.Equal(t, ReasonInvalidFormat, res.Reason, input)
		assert.Equal(t, detail, res.Detail, input)
	}

	p, ok := users.Profile(ctx, 9)
	require.True(t, ok)
	assert.False(t, p.Registered())
	assert.Nil(t, p.LichessUsername)
}

func TestTryRegister_UnicodeLetters(t *testing.T) {
	svc, _, _ := newServices(t)

	res := svc.TryRegister(context.Background(), 3, "Шахматист")
	assert.Equal(t, Accepted, res.Outcome)
	assert.Equal(t, "шахматист", res.Handle)
}

func TestTryRegister_BoundaryLengths(t *testing.T) {
	svc, _, _ := newServices(t)
	ctx := context.Background()

	assert.Equal(t, Accepted, svc.TryRegister(ctx, 1, "abc").Outcome)
	assert.Equal(t, Accepted, svc.TryRegister(ctx, 2, "abcdefghijklmnopqrst").Outcome)
	assert.Equal(t, Rejected, svc.TryRegister(ctx, 3, "abcdefghijklmnopqrstu").Outcome)
}
