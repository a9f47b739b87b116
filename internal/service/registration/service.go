package registration

import (
	"context"

	"github.com/rs/zerolog"

	apperrors "chessclub-bot/internal/common/errors"
	"chessclub-bot/internal/common/validation"
	domain "chessclub-bot/internal/domain/user"
	usersvc "chessclub-bot/internal/service/user"
)

type Outcome int

const (
	// NotApplicable means the user is already registered; the text is not a handle.
	NotApplicable Outcome = iota
	Accepted
	Rejected
)

func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case Rejected:
		return "rejected"
	default:
		return "not_applicable"
	}
}

// ReasonInvalidFormat is the only rejection reason surfaced to users.
const ReasonInvalidFormat = "invalid_format"

type Result struct {
	Outcome Outcome
	Reason  string
	// Detail is the specific validation failure, for logs.
	Detail string
	Handle string
}

type Profiles interface {
	WithUserLock(id int64, fn func())
	GetOrCreateProfileLocked(ctx context.Context, id int64) (domain.Profile, bool)
	UpdateProfileLocked(ctx context.Context, id int64, u domain.ProfileUpdate) domain.Profile
}

type Recorder interface {
	Registration(outcome string)
}

type Service struct {
	profiles Profiles
	metrics  Recorder
	log      zerolog.Logger
}

func NewService(profiles Profiles, metrics Recorder, log zerolog.Logger) *Service {
	return &Service{profiles: profiles, metrics: metrics, log: log}
}

// TryRegister treats text as a handle submission from an unregistered user.
// An accepted handle completes registration and resets the balance to the default.
func (s *Service) TryRegister(ctx context.Context, id int64, text string) Result {
	var res Result
	s.profiles.WithUserLock(id, func() {
		res = s.tryRegisterLocked(ctx, id, text)
	})

	if s.metrics != nil {
		s.metrics.Registration(res.Outcome.String())
	}
	if res.Outcome != NotApplicable {
		s.log.Info().
			Int64("user_id", id).
			Str("outcome", res.Outcome.String()).
			Str("handle", res.Handle).
			Str("detail", res.Detail).
			Msg("registration attempt")
	}
	return res
}

func (s *Service) tryRegisterLocked(ctx context.Context, id int64, text string) Result {
	p, _ := s.profiles.GetOrCreateProfileLocked(ctx, id)
	if p.Registered() {
		return Result{Outcome: NotApplicable}
	}

	handle, err := validation.ValidateHandle(text)
	if err != nil {
		detail := ""
		if appErr, ok := apperrors.AsAppError(err); ok {
			detail, _ = appErr.Details["reason"].(string)
		}
		return Result{Outcome: Rejected, Reason: ReasonInvalidFormat, Detail: detail}
	}

	done := true
	balance := domain.DefaultBalance
	s.profiles.UpdateProfileLocked(ctx, id, domain.ProfileUpdate{
		LichessUsername:      &handle,
		RegistrationComplete: &done,
		Balance:              &balance,
	})
	return Result{Outcome: Accepted, Handle: handle}
}

var _ Profiles = (*usersvc.Service)(nil)
