package broadcast

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "chessclub-bot/internal/common/errors"
	domain "chessclub-bot/internal/domain/user"
)

type directory map[int64]domain.Activity

func (d directory) LoadActivity(context.Context) map[int64]domain.Activity { return d }

type banned map[int64]bool

func (b banned) IsBanned(id int64) bool { return b[id] }

type fakeSender struct {
	calls []int64
	fail  map[int64]bool
}

func (f *fakeSender) SendBroadcast(_ context.Context, userID int64, _ string) error {
	f.calls = append(f.calls, userID)
	if f.fail[userID] {
		return errors.New("Forbidden: bot was blocked by the user")
	}
	return nil
}

type counter struct{ ok, failed int }

func (c *counter) Delivery(ok bool) {
	if ok {
		c.ok++
	} else {
		c.failed++
	}
}

func users(ids ...int64) directory {
	d := directory{}
	for _, id := range ids {
		d[id] = domain.Activity{}
	}
	return d
}

func TestBroadcast_SkipsBanned(t *testing.T) {
	sender := &fakeSender{}
	svc := NewService(users(3, 1, 2), banned{2: true}, sender, nil, zerolog.Nop())

	rep, err := svc.Broadcast(context.Background(), "Club meeting tonight")
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 3}, sender.calls)
	assert.Equal(t, 3, rep.Total)
	assert.Equal(t, 2, rep.Sent)
	assert.Equal(t, 0, rep.Failed)
	assert.Equal(t, 1, rep.Skipped)
	_, err = uuid.Parse(rep.ID)
	assert.NoError(t, err)
}

func TestBroadcast_FailuresDoNotStopDelivery(t *testing.T) {
	sender := &fakeSender{fail: map[int64]bool{1: true}}
	c := &counter{}
	svc := NewService(users(1, 2, 3), banned{}, sender, c, zerolog.Nop())

	rep, err := svc.Broadcast(context.Background(), "hello")
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 2, 3}, sender.calls)
	assert.Equal(t, 2, rep.Sent)
	assert.Equal(t, 1, rep.Failed)
	assert.Equal(t, len(sender.calls), rep.Sent+rep.Failed)
	assert.Equal(t, 2, c.ok)
	assert.Equal(t, 1, c.failed)
}

func TestBroadcast_NoRecipients(t *testing.T) {
	svc := NewService(directory{}, banned{}, &fakeSender{}, nil, zerolog.Nop())
	_, err := svc.Broadcast(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrNoRecipients)
}

func TestBroadcast_InvalidText(t *testing.T) {
	sender := &fakeSender{}
	svc := NewService(users(1), banned{}, sender, nil, zerolog.Nop())

	_, err := svc.Broadcast(context.Background(), "   ")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidation))

	_, err = svc.Broadcast(context.Background(), strings.Repeat("ж", 4001))
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidation))
	assert.Empty(t, sender.calls)

	_, err = svc.Broadcast(context.Background(), strings.Repeat("ж", 4000))
	assert.NoError(t, err)
}
