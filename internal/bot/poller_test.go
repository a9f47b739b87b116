package bot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chessclub-bot/internal/platform/telegram"
)

// scriptedSource returns the queued batches in order, then blocks until cancelled.
type scriptedSource struct {
	fakeSender
	mu      sync.Mutex
	batches [][]telegram.Update
	errs    []error
	offsets []int64
	drained chan struct{}
}

func (s *scriptedSource) GetUpdates(ctx context.Context, offset int64, _ time.Duration) ([]telegram.Update, error) {
	s.mu.Lock()
	s.offsets = append(s.offsets, offset)
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		s.mu.Unlock()
		return nil, err
	}
	if len(s.batches) > 0 {
		b := s.batches[0]
		s.batches = s.batches[1:]
		s.mu.Unlock()
		return b, nil
	}
	s.mu.Unlock()

	select {
	case s.drained <- struct{}{}:
	default:
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

func textUpdate(id, userID int64, text string) telegram.Update {
	return telegram.Update{
		UpdateID: id,
		Message: &telegram.Message{
			From: &telegram.User{ID: userID, FirstName: "Ann"},
			Chat: telegram.Chat{ID: userID, Type: "private"},
			Text: text,
		},
	}
}

func TestPoller_DispatchesAndAdvancesOffset(t *testing.T) {
	f := newFixture(t)
	src := &scriptedSource{
		fakeSender: fakeSender{fail: map[int64]bool{}},
		errs:       []error{errors.New("connection reset")},
		batches: [][]telegram.Update{
			{textUpdate(10, 42, "/help"), {UpdateID: 11}},
			{textUpdate(12, 43, "/start")},
		},
		drained: make(chan struct{}, 1),
	}

	p := NewPoller(src, f.router, time.Second, zerolog.Nop())
	p.backoff = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Start(ctx)
		close(done)
	}()

	select {
	case <-src.drained:
	case <-time.After(5 * time.Second):
		t.Fatal("poller did not drain the updates")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("poller did not stop")
	}

	src.mu.Lock()
	defer src.mu.Unlock()
	assert.Equal(t, []int64{0, 0, 12, 13}, src.offsets)

	require.Len(t, src.to(42), 1)
	assert.Equal(t, helpText, src.to(42)[0])
	require.Len(t, src.to(43), 1)
	assert.Contains(t, src.to(43)[0], "Lichess username")
}
