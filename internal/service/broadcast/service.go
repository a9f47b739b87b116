package broadcast

import (
	"context"
	"errors"
	"slices"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"chessclub-bot/internal/common/validation"
	domain "chessclub-bot/internal/domain/user"
)

var ErrNoRecipients = errors.New("no users to broadcast to")

// Sender delivers one broadcast message to one user.
type Sender interface {
	SendBroadcast(ctx context.Context, userID int64, text string) error
}

type Directory interface {
	LoadActivity(ctx context.Context) map[int64]domain.Activity
}

type BanChecker interface {
	IsBanned(id int64) bool
}

type Recorder interface {
	Delivery(ok bool)
}

// Report summarizes one broadcast. Sent+Failed is the number of attempts.
type Report struct {
	ID      string `json:"id"`
	Total   int    `json:"total"`
	Sent    int    `json:"sent"`
	Failed  int    `json:"failed"`
	Skipped int    `json:"skipped"`
}

type Service struct {
	users   Directory
	access  BanChecker
	sender  Sender
	metrics Recorder
	log     zerolog.Logger
}

func NewService(users Directory, access BanChecker, sender Sender, metrics Recorder, log zerolog.Logger) *Service {
	return &Service{users: users, access: access, sender: sender, metrics: metrics, log: log}
}

// Broadcast sends text to every user that ever wrote to the bot, except banned ones.
// Deliveries are independent: one failure does not stop the rest.
func (s *Service) Broadcast(ctx context.Context, text string) (Report, error) {
	if err := validation.ValidateBroadcast(text); err != nil {
		return Report{}, err
	}

	activity := s.users.LoadActivity(ctx)
	if len(activity) == 0 {
		return Report{}, ErrNoRecipients
	}
	ids := make([]int64, 0, len(activity))
	for id := range activity {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	rep := Report{ID: uuid.NewString(), Total: len(ids)}
	log := s.log.With().Str("broadcast_id", rep.ID).Logger()
	log.Info().Int("recipients", len(ids)).Msg("broadcast started")

	for _, id := range ids {
		if s.access.IsBanned(id) {
			rep.Skipped++
			continue
		}
		err := s.sender.SendBroadcast(ctx, id, text)
		if s.metrics != nil {
			s.metrics.Delivery(err == nil)
		}
		if err != nil {
			rep.Failed++
			log.Warn().Err(err).Int64("user_id", id).Msg("broadcast delivery failed")
			continue
		}
		rep.Sent++
	}

	log.Info().Int("sent", rep.Sent).Int("failed", rep.Failed).Int("skipped", rep.Skipped).Msg("broadcast finished")
	return rep, nil
}
