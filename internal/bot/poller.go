package bot

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"chessclub-bot/internal/platform/telegram"
)

// UpdateSource is the part of the Telegram client the poller reads from.
type UpdateSource interface {
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]telegram.Update, error)
	MessageSender
}

// Poller long-polls Telegram and feeds messages through the router one at a time.
type Poller struct {
	client  UpdateSource
	router  *Router
	timeout time.Duration
	backoff time.Duration
	log     zerolog.Logger
	offset  int64
}

func NewPoller(client UpdateSource, router *Router, timeout time.Duration, log zerolog.Logger) *Poller {
	return &Poller{client: client, router: router, timeout: timeout, backoff: time.Second, log: log}
}

// Start polls until ctx is cancelled.
func (p *Poller) Start(ctx context.Context) {
	p.log.Info().Dur("timeout", p.timeout).Msg("starting update poller")

	for {
		select {
		case <-ctx.Done():
			p.log.Info().Msg("stopping update poller")
			return
		default:
		}

		updates, err := p.client.GetUpdates(ctx, p.offset, p.timeout)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			wait := p.backoff
			var apiErr *telegram.APIError
			if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
				wait = apiErr.RetryAfter
			}
			p.log.Error().Err(err).Dur("retry_in", wait).Msg("getUpdates failed")
			select {
			case <-ctx.Done():
			case <-time.After(wait):
			}
			continue
		}

		for _, u := range updates {
			p.offset = u.UpdateID + 1
			p.dispatch(ctx, u)
		}
	}
}

func (p *Poller) dispatch(ctx context.Context, u telegram.Update) {
	m := u.Message
	if m == nil || m.From == nil || m.From.IsBot || m.Text == "" {
		return
	}
	msg := Message{
		UserID:    m.From.ID,
		ChatID:    m.Chat.ID,
		Username:  m.From.Username,
		FirstName: m.From.FirstName,
		LastName:  m.From.LastName,
		Text:      m.Text,
	}
	for _, r := range p.router.Handle(ctx, msg) {
		if err := p.client.SendMessage(ctx, r.ChatID, r.Text, r.ParseMode); err != nil {
			p.log.Warn().Err(err).Int64("chat_id", r.ChatID).Msg("failed to send reply")
		}
	}
}
