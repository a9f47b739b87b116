package admin

import (
	"context"

	"github.com/rs/zerolog"

	"chessclub-bot/internal/common/validation"
	domain "chessclub-bot/internal/domain/user"
	accesssvc "chessclub-bot/internal/service/access"
	usersvc "chessclub-bot/internal/service/user"
)

type Outcome int

const (
	Done Outcome = iota
	TargetIsAdmin
	AlreadyBanned
	NotBanned
	TargetBanned
	AlreadyAdmin
	SelfRemoval
	NotAdmin
)

func (o Outcome) String() string {
	switch o {
	case Done:
		return "done"
	case TargetIsAdmin:
		return "target_is_admin"
	case AlreadyBanned:
		return "already_banned"
	case NotBanned:
		return "not_banned"
	case TargetBanned:
		return "target_banned"
	case AlreadyAdmin:
		return "already_admin"
	case SelfRemoval:
		return "self_removal"
	case NotAdmin:
		return "not_admin"
	default:
		return "unknown"
	}
}

// Event is what a target user is told about after a membership change.
type Event int

const (
	EventBanned Event = iota
	EventUnbanned
	EventPromoted
	EventDemoted
)

// Notifier delivers membership notices. Delivery is best-effort.
type Notifier interface {
	Notify(ctx context.Context, userID int64, event Event) error
}

// Service runs the administrative use-cases. Callers are expected to have
// checked the acting user's privileges already.
type Service struct {
	access   *accesssvc.Service
	users    *usersvc.Service
	notifier Notifier
	log      zerolog.Logger
}

func NewService(access *accesssvc.Service, users *usersvc.Service, notifier Notifier, log zerolog.Logger) *Service {
	return &Service{access: access, users: users, notifier: notifier, log: log}
}

func (s *Service) Ban(ctx context.Context, actorID, targetID int64) Outcome {
	if s.access.IsAdmin(targetID) {
		return TargetIsAdmin
	}
	if !s.access.BanUser(ctx, targetID) {
		if s.access.IsAdmin(targetID) {
			return TargetIsAdmin
		}
		return AlreadyBanned
	}
	s.log.Info().Int64("admin_id", actorID).Int64("target_id", targetID).Msg("user banned")
	s.notify(ctx, targetID, EventBanned)
	return Done
}

func (s *Service) Unban(ctx context.Context, actorID, targetID int64) Outcome {
	if !s.access.UnbanUser(ctx, targetID) {
		return NotBanned
	}
	s.log.Info().Int64("admin_id", actorID).Int64("target_id", targetID).Msg("user unbanned")
	s.notify(ctx, targetID, EventUnbanned)
	return Done
}

func (s *Service) AddAdmin(ctx context.Context, actorID, targetID int64) Outcome {
	if !s.access.AddAdmin(ctx, targetID) {
		if s.access.IsBanned(targetID) {
			return TargetBanned
		}
		return AlreadyAdmin
	}
	s.log.Info().Int64("admin_id", actorID).Int64("target_id", targetID).Msg("user promoted to admin")
	s.notify(ctx, targetID, EventPromoted)
	return Done
}

// RemoveAdmin refuses to let an admin demote themselves. Removing the last
// remaining admin is otherwise allowed.
func (s *Service) RemoveAdmin(ctx context.Context, actorID, targetID int64) Outcome {
	if actorID == targetID {
		return SelfRemoval
	}
	if !s.access.RemoveAdmin(ctx, targetID) {
		return NotAdmin
	}
	s.log.Info().Int64("admin_id", actorID).Int64("target_id", targetID).Msg("admin removed")
	s.notify(ctx, targetID, EventDemoted)
	return Done
}

// SetBalance overwrites a user's balance, creating the profile when the user was never seen.
func (s *Service) SetBalance(ctx context.Context, actorID, targetID int64, amount int) (domain.Profile, error) {
	if err := validation.ValidateNonNegativeInt(int64(amount), "balance"); err != nil {
		return domain.Profile{}, err
	}
	p := s.users.UpdateProfile(ctx, targetID, domain.ProfileUpdate{Balance: &amount})
	s.log.Info().Int64("admin_id", actorID).Int64("target_id", targetID).Int("balance", amount).Msg("balance set")
	return p, nil
}

func (s *Service) notify(ctx context.Context, userID int64, event Event) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, userID, event); err != nil {
		s.log.Debug().Err(err).Int64("user_id", userID).Msg("notification not delivered")
	}
}
