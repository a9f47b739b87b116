package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	apperrors "chessclub-bot/internal/common/errors"
	"chessclub-bot/internal/common/validation"
	"chessclub-bot/internal/domain/access"
	domain "chessclub-bot/internal/domain/user"
	mw "chessclub-bot/internal/http/middleware"
	"chessclub-bot/internal/metrics"
	accesssvc "chessclub-bot/internal/service/access"
	adminsvc "chessclub-bot/internal/service/admin"
	broadcastsvc "chessclub-bot/internal/service/broadcast"
	statssvc "chessclub-bot/internal/service/stats"
)

const defaultUsersLimit = 50

const callerKey = "caller_id"

// BroadcastRequest is the body of POST /admin/broadcast.
type BroadcastRequest struct {
	Message string `json:"message" validate:"required"`
}

// BalanceRequest is the body of PUT /admin/users/{id}/balance.
type BalanceRequest struct {
	Balance *int `json:"balance" validate:"required,min=0"`
}

// ActionResponse reports a membership change. Success is false when the
// request was valid but the change did not apply.
type ActionResponse struct {
	Success bool   `json:"success"`
	Action  string `json:"action"`
	UserID  int64  `json:"user_id"`
	Outcome string `json:"outcome"`
}

// BalanceResponse is the profile after a balance overwrite.
type BalanceResponse struct {
	UserID  int64          `json:"user_id"`
	Profile domain.Profile `json:"profile"`
}

type AdminHandler struct {
	access    *accesssvc.Service
	admin     *adminsvc.Service
	broadcast *broadcastsvc.Service
	stats     *statssvc.Service
	metrics   *metrics.Metrics
	cache     redis.Cmdable
	log       zerolog.Logger
}

func NewAdminHandler(d Deps) *AdminHandler {
	return &AdminHandler{
		access:    d.Access,
		admin:     d.Admin,
		broadcast: d.Broadcast,
		stats:     d.Stats,
		metrics:   d.Metrics,
		cache:     d.Redis.Cmdable(),
		log:       d.Logger,
	}
}

func (h *AdminHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.Use(h.requireAdmin)
	{
		router.GET("/stats", mw.RedisCache(h.cache, statsCacheTTL), h.getStats)
		router.GET("/users", h.listUsers)
		router.GET("/users/:id", h.getUser)
		router.PUT("/users/:id/balance", h.setBalance)
		router.POST("/broadcast", h.sendBroadcast)
		router.POST("/bans/:id", h.ban)
		router.DELETE("/bans/:id", h.unban)
		router.POST("/admins/:id", h.addAdmin)
		router.DELETE("/admins/:id", h.removeAdmin)
	}
}

// requireAdmin re-checks the caller against the live access lists on every request.
func (h *AdminHandler) requireAdmin(c *gin.Context) {
	user, ok := mw.CurrentUser(c)
	if !ok {
		mw.RespondError(c, h.log, apperrors.NewUnauthorizedError("missing user"))
		return
	}

	decision := h.access.CheckAccess(user.ID)
	if decision != access.Allowed {
		h.log.Warn().
			Str("event", "security").
			Int64("user_id", user.ID).
			Str("reason", decision.String()).
			Str("path", c.FullPath()).
			Msg("admin API access denied")
	}
	switch decision {
	case access.Allowed:
		c.Set(callerKey, user.ID)
		c.Next()
		return
	case access.DeniedBanned:
		h.metrics.Denied(decision.String())
		mw.RespondError(c, h.log, apperrors.NewBannedError(user.ID).WithDetail("reason", decision.String()))
	default:
		h.metrics.Denied(decision.String())
		mw.RespondError(c, h.log, apperrors.NewNotAdminError(user.ID).WithDetail("reason", decision.String()))
	}
}

func caller(c *gin.Context) int64 {
	return c.GetInt64(callerKey)
}

// @Summary Community statistics
// @Description Aggregate counts over all known users. Cached for a few seconds when Redis is configured.
// @Tags admin
// @Produce json
// @Security TelegramInitData
// @Success 200 {object} stats.Summary
// @Failure 401 {object} middleware.ErrorResponse "Missing or invalid init data"
// @Failure 403 {object} middleware.ErrorResponse "Caller is banned or not an admin"
// @Router /admin/stats [get]
func (h *AdminHandler) getStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.stats.Summary(c.Request.Context(), time.Now()))
}

// @Summary List users
// @Description Users ordered by most recent activity.
// @Tags admin
// @Produce json
// @Security TelegramInitData
// @Param limit query int false "Maximum rows, 0 for all" default(50)
// @Success 200 {object} stats.UserList
// @Failure 400 {object} middleware.ErrorResponse "Invalid limit"
// @Failure 403 {object} middleware.ErrorResponse "Caller is banned or not an admin"
// @Router /admin/users [get]
func (h *AdminHandler) listUsers(c *gin.Context) {
	limit := defaultUsersLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			mw.RespondError(c, h.log, apperrors.NewValidationError("limit", "must be a non-negative integer"))
			return
		}
		limit = n
	}
	c.JSON(http.StatusOK, h.stats.ListUsers(c.Request.Context(), limit))
}

// @Summary Get user
// @Tags admin
// @Produce json
// @Security TelegramInitData
// @Param id path int true "Telegram user ID"
// @Success 200 {object} stats.UserRow
// @Failure 400 {object} middleware.ErrorResponse "Invalid user ID"
// @Failure 404 {object} middleware.ErrorResponse "User not found"
// @Router /admin/users/{id} [get]
func (h *AdminHandler) getUser(c *gin.Context) {
	id, err := validation.ParseUserID(c.Param("id"))
	if err != nil {
		mw.RespondError(c, h.log, err)
		return
	}
	row, ok := h.stats.User(c.Request.Context(), id)
	if !ok {
		mw.RespondError(c, h.log, apperrors.NewNotFoundError("user", id))
		return
	}
	c.JSON(http.StatusOK, row)
}

// @Summary Set balance
// @Description Overwrites a user's balance. The profile is created when missing.
// @Tags admin
// @Accept json
// @Produce json
// @Security TelegramInitData
// @Param id path int true "Telegram user ID"
// @Param body body BalanceRequest true "New balance"
// @Success 200 {object} BalanceResponse
// @Failure 400 {object} middleware.ErrorResponse "Invalid user ID or balance"
// @Router /admin/users/{id}/balance [put]
func (h *AdminHandler) setBalance(c *gin.Context) {
	id, err := validation.ParseUserID(c.Param("id"))
	if err != nil {
		mw.RespondError(c, h.log, err)
		return
	}
	var req BalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		mw.RespondError(c, h.log, apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "Invalid request body"))
		return
	}
	if err := validation.Struct(req); err != nil {
		mw.RespondError(c, h.log, err)
		return
	}

	p, err := h.admin.SetBalance(c.Request.Context(), caller(c), id, *req.Balance)
	if err != nil {
		mw.RespondError(c, h.log, err)
		return
	}
	h.purge(c)
	c.JSON(http.StatusOK, BalanceResponse{UserID: id, Profile: p})
}

// @Summary Broadcast a message
// @Description Sends the message to every known user except banned ones.
// @Tags admin
// @Accept json
// @Produce json
// @Security TelegramInitData
// @Param body body BroadcastRequest true "Message text"
// @Success 200 {object} broadcast.Report
// @Failure 400 {object} middleware.ErrorResponse "Empty or oversized message"
// @Failure 404 {object} middleware.ErrorResponse "No recipients"
// @Router /admin/broadcast [post]
func (h *AdminHandler) sendBroadcast(c *gin.Context) {
	var req BroadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		mw.RespondError(c, h.log, apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "Invalid request body"))
		return
	}

	rep, err := h.broadcast.Broadcast(c.Request.Context(), req.Message)
	if errors.Is(err, broadcastsvc.ErrNoRecipients) {
		mw.RespondError(c, h.log, apperrors.NewNotFoundError("recipients", "all"))
		return
	}
	if err != nil {
		mw.RespondError(c, h.log, err)
		return
	}
	h.log.Info().Int64("admin_id", caller(c)).Str("broadcast_id", rep.ID).Msg("broadcast requested over HTTP")
	c.JSON(http.StatusOK, rep)
}

// @Summary Ban user
// @Tags admin
// @Produce json
// @Security TelegramInitData
// @Param id path int true "Telegram user ID"
// @Success 200 {object} ActionResponse
// @Failure 409 {object} ActionResponse "Target is an admin or already banned"
// @Router /admin/bans/{id} [post]
func (h *AdminHandler) ban(c *gin.Context) {
	h.membership(c, "ban", h.admin.Ban)
}

// @Summary Unban user
// @Tags admin
// @Produce json
// @Security TelegramInitData
// @Param id path int true "Telegram user ID"
// @Success 200 {object} ActionResponse
// @Failure 409 {object} ActionResponse "Target is not banned"
// @Router /admin/bans/{id} [delete]
func (h *AdminHandler) unban(c *gin.Context) {
	h.membership(c, "unban", h.admin.Unban)
}

// @Summary Grant admin
// @Tags admin
// @Produce json
// @Security TelegramInitData
// @Param id path int true "Telegram user ID"
// @Success 200 {object} ActionResponse
// @Failure 409 {object} ActionResponse "Target is banned or already an admin"
// @Router /admin/admins/{id} [post]
func (h *AdminHandler) addAdmin(c *gin.Context) {
	h.membership(c, "add_admin", h.admin.AddAdmin)
}

// @Summary Revoke admin
// @Tags admin
// @Produce json
// @Security TelegramInitData
// @Param id path int true "Telegram user ID"
// @Success 200 {object} ActionResponse
// @Failure 409 {object} ActionResponse "Self removal or target is not an admin"
// @Router /admin/admins/{id} [delete]
func (h *AdminHandler) removeAdmin(c *gin.Context) {
	h.membership(c, "remove_admin", h.admin.RemoveAdmin)
}

type membershipFunc func(ctx context.Context, actorID, targetID int64) adminsvc.Outcome

func (h *AdminHandler) membership(c *gin.Context, action string, fn membershipFunc) {
	id, err := validation.ParseUserID(c.Param("id"))
	if err != nil {
		mw.RespondError(c, h.log, err)
		return
	}

	outcome := fn(c.Request.Context(), caller(c), id)
	resp := ActionResponse{
		Success: outcome == adminsvc.Done,
		Action:  action,
		UserID:  id,
		Outcome: outcome.String(),
	}
	if !resp.Success {
		c.JSON(http.StatusConflict, resp)
		return
	}
	h.purge(c)
	c.JSON(http.StatusOK, resp)
}

func (h *AdminHandler) purge(c *gin.Context) {
	if err := mw.PurgeCache(c.Request.Context(), h.cache); err != nil {
		h.log.Warn().Err(err).Msg("failed to purge response cache")
	}
}
