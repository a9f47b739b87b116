package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	apperrors "chessclub-bot/internal/common/errors"
	"chessclub-bot/internal/common/logger"
	"chessclub-bot/internal/common/validation"
	"chessclub-bot/internal/domain/access"
	domain "chessclub-bot/internal/domain/user"
	"chessclub-bot/internal/metrics"
	"chessclub-bot/internal/platform/telegram"
	accesssvc "chessclub-bot/internal/service/access"
	"chessclub-bot/internal/service/admin"
	"chessclub-bot/internal/service/broadcast"
	"chessclub-bot/internal/service/registration"
	"chessclub-bot/internal/service/stats"
	usersvc "chessclub-bot/internal/service/user"
)

// Message is an incoming private text message.
type Message struct {
	UserID    int64
	ChatID    int64
	Username  string
	FirstName string
	LastName  string
	Text      string
}

// Reply is an outgoing message produced by the router.
type Reply struct {
	ChatID    int64
	Text      string
	ParseMode string
}

type Deps struct {
	Users        *usersvc.Service
	Access       *accesssvc.Service
	Registration *registration.Service
	Admin        *admin.Service
	Broadcast    *broadcast.Service
	Stats        *stats.Service
	Metrics      *metrics.Metrics
	Logger       zerolog.Logger
	// LogFile is the file /logs reads from. Empty disables the command.
	LogFile string
	Now     func() time.Time
}

type handlerFunc func(ctx context.Context, msg Message, args string) (string, error)

type Router struct {
	Deps
	userCommands  map[string]handlerFunc
	adminCommands map[string]handlerFunc
}

func NewRouter(deps Deps) *Router {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	r := &Router{Deps: deps}
	r.userCommands = map[string]handlerFunc{
		"start":   r.handleStart,
		"help":    r.handleHelp,
		"info":    r.handleInfo,
		"balance": r.handleBalance,
	}
	r.adminCommands = map[string]handlerFunc{
		"admin":       r.handleAdmin,
		"stats":       r.handleStats,
		"users":       r.handleUsers,
		"broadcast":   r.handleBroadcast,
		"ban":         r.handleBan,
		"unban":       r.handleUnban,
		"addadmin":    r.handleAddAdmin,
		"removeadmin": r.handleRemoveAdmin,
		"setbalance":  r.handleSetBalance,
		"logs":        r.handleLogs,
	}
	return r
}

// Handle processes one message and returns the replies to send.
func (r *Router) Handle(ctx context.Context, msg Message) []Reply {
	r.Users.RecordActivity(ctx, msg.UserID, domain.StringPtr(msg.Username), msg.Text)

	log := r.Logger.With().Int64("user_id", msg.UserID).Str("username", msg.Username).Logger()

	name, args, isCommand := parseCommand(msg.Text)
	if !isCommand {
		r.Metrics.Message("text")
		return r.reply(msg, r.handleText(ctx, msg))
	}
	r.Metrics.Message("command")

	if h, ok := r.userCommands[name]; ok {
		if d := r.Access.CheckUser(msg.UserID); d != access.Allowed {
			r.Metrics.Denied(d.String())
			log.Warn().Str("event", "security").Str("command", name).Msg("banned user attempted command")
			return r.reply(msg, msgBanned)
		}
		log.Info().Str("command", name).Msg("command")
		return r.reply(msg, r.run(ctx, log, h, msg, args))
	}

	if h, ok := r.adminCommands[name]; ok {
		switch d := r.Access.CheckAccess(msg.UserID); d {
		case access.DeniedBanned:
			r.Metrics.Denied(d.String())
			log.Warn().Str("event", "security").Str("command", name).Msg("banned user attempted admin command")
			return r.reply(msg, msgAdminBanned)
		case access.DeniedNotAdmin:
			r.Metrics.Denied(d.String())
			log.Warn().Str("event", "security").Str("command", name).Msg("non-admin attempted admin command")
			return r.reply(msg, msgAdminDenied)
		}
		log.Info().Str("command", name).Msg("admin command")
		return r.reply(msg, r.run(ctx, log, h, msg, args))
	}

	if r.Access.IsBanned(msg.UserID) {
		return r.reply(msg, msgBanned)
	}
	return r.reply(msg, msgUnknownCommand)
}

func (r *Router) run(ctx context.Context, log zerolog.Logger, h handlerFunc, msg Message, args string) string {
	text, err := h(ctx, msg, args)
	if err != nil {
		log.Error().Err(err).Msg("handler failed")
		return msgInternalError
	}
	return text
}

func (r *Router) reply(msg Message, text string) []Reply {
	return []Reply{{ChatID: msg.ChatID, Text: text, ParseMode: telegram.ParseModeHTML}}
}

// parseCommand splits "/name@bot rest" into the lower-cased name and the raw rest.
func parseCommand(text string) (name, args string, ok bool) {
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}
	head, rest, _ := strings.Cut(text, " ")
	if i := strings.IndexAny(head, "\n\t"); i >= 0 {
		rest = head[i:] + " " + rest
		head = head[:i]
	}
	head = strings.TrimPrefix(head, "/")
	head, _, _ = strings.Cut(head, "@")
	return strings.ToLower(head), strings.TrimSpace(rest), true
}

func (r *Router) handleText(ctx context.Context, msg Message) string {
	if r.Access.IsBanned(msg.UserID) {
		return msgBanned
	}
	res := r.Registration.TryRegister(ctx, msg.UserID, msg.Text)
	switch res.Outcome {
	case registration.Accepted:
		return registrationAccepted(res.Handle)
	case registration.Rejected:
		return msgInvalidHandle
	default:
		return msgReceived
	}
}

func (r *Router) handleStart(ctx context.Context, msg Message, _ string) (string, error) {
	p, _ := r.Users.GetOrCreateProfile(ctx, msg.UserID)
	if !p.Registered() {
		return welcomeUnregistered(msg.FirstName), nil
	}
	return welcomeRegistered(msg.FirstName), nil
}

func (r *Router) handleHelp(context.Context, Message, string) (string, error) {
	return helpText, nil
}

func (r *Router) handleInfo(ctx context.Context, msg Message, _ string) (string, error) {
	if !r.Users.IsRegistered(ctx, msg.UserID) {
		return msgNotRegistered, nil
	}
	p, _ := r.Users.GetOrCreateProfile(ctx, msg.UserID)
	a, ok := r.Users.Activity(ctx, msg.UserID)
	return infoText(msg, p, a, ok), nil
}

func (r *Router) handleBalance(ctx context.Context, msg Message, _ string) (string, error) {
	if !r.Users.IsRegistered(ctx, msg.UserID) {
		return msgNotRegistered, nil
	}
	p, _ := r.Users.GetOrCreateProfile(ctx, msg.UserID)
	return balanceText(p), nil
}

func (r *Router) handleAdmin(context.Context, Message, string) (string, error) {
	return adminMenuText, nil
}

func (r *Router) handleStats(ctx context.Context, _ Message, _ string) (string, error) {
	return statsText(r.Stats.Summary(ctx, r.Now())), nil
}

func (r *Router) handleUsers(ctx context.Context, _ Message, _ string) (string, error) {
	return usersText(r.Stats.ListUsers(ctx, usersPageSize)), nil
}

func (r *Router) handleBroadcast(ctx context.Context, _ Message, args string) (string, error) {
	if args == "" {
		return usageText("broadcast", "Your message here"), nil
	}
	rep, err := r.Broadcast.Broadcast(ctx, args)
	switch {
	case errors.Is(err, broadcast.ErrNoRecipients):
		return msgNoUsers, nil
	case apperrors.HasCode(err, apperrors.ErrCodeValidation):
		return broadcastTooLong(), nil
	case err != nil:
		return "", err
	}
	return broadcastReport(rep), nil
}

// targetArg parses the first argument as a user id. On failure it returns the reply to send.
func targetArg(command, args string) (int64, string, bool) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return 0, usageText(command, "123456789"), false
	}
	id, err := validation.ParseUserID(fields[0])
	if err != nil {
		return 0, msgInvalidUserID, false
	}
	return id, "", true
}

func (r *Router) handleBan(ctx context.Context, msg Message, args string) (string, error) {
	target, text, ok := targetArg("ban", args)
	if !ok {
		return text, nil
	}
	return adminOutcomeText("ban", target, r.Admin.Ban(ctx, msg.UserID, target)), nil
}

func (r *Router) handleUnban(ctx context.Context, msg Message, args string) (string, error) {
	target, text, ok := targetArg("unban", args)
	if !ok {
		return text, nil
	}
	return adminOutcomeText("unban", target, r.Admin.Unban(ctx, msg.UserID, target)), nil
}

func (r *Router) handleAddAdmin(ctx context.Context, msg Message, args string) (string, error) {
	target, text, ok := targetArg("addadmin", args)
	if !ok {
		return text, nil
	}
	return adminOutcomeText("addadmin", target, r.Admin.AddAdmin(ctx, msg.UserID, target)), nil
}

func (r *Router) handleRemoveAdmin(ctx context.Context, msg Message, args string) (string, error) {
	target, text, ok := targetArg("removeadmin", args)
	if !ok {
		return text, nil
	}
	return adminOutcomeText("removeadmin", target, r.Admin.RemoveAdmin(ctx, msg.UserID, target)), nil
}

func (r *Router) handleSetBalance(ctx context.Context, msg Message, args string) (string, error) {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		return usageText("setbalance", "123456789 250"), nil
	}
	target, err := validation.ParseUserID(fields[0])
	if err != nil {
		return msgInvalidUserID, nil
	}
	amount, err := strconv.Atoi(fields[1])
	if err != nil || amount < 0 {
		return "❌ Balance must be a non-negative whole number.", nil
	}
	p, err := r.Admin.SetBalance(ctx, msg.UserID, target, amount)
	if err != nil {
		return "", err
	}
	return balanceSetText(target, p.Balance), nil
}

func (r *Router) handleLogs(context.Context, Message, string) (string, error) {
	if r.LogFile == "" {
		return msgLogFileNotFound, nil
	}
	lines, err := logger.Tail(r.LogFile, logLines)
	if errors.Is(err, logger.ErrNoLogFile) {
		return msgLogFileNotFound, nil
	}
	if err != nil {
		return "", err
	}
	return logsText(lines), nil
}
