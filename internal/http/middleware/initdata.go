package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	initdata "github.com/telegram-mini-apps/init-data-golang"

	apperrors "chessclub-bot/internal/common/errors"
)

const (
	InitDataHeader = "X-Telegram-Init-Data"
	UserKey        = "telegram_user"
)

// InitData validates Telegram Mini App init-data and stores the caller in the context.
// It reads the X-Telegram-Init-Data header, then "Authorization: tma <data>",
// then the init_data query parameter. expIn of zero disables the age check.
func InitData(token string, expIn time.Duration, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			RespondError(c, log, apperrors.New(apperrors.ErrCodeConfiguration, "init-data validation is not configured"))
			return
		}

		raw := c.GetHeader(InitDataHeader)
		if raw == "" {
			if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "tma ") {
				raw = strings.TrimPrefix(auth, "tma ")
			}
		}
		if raw == "" {
			raw = c.Query("init_data")
		}
		if raw == "" {
			RespondError(c, log, apperrors.NewUnauthorizedError("missing init data"))
			return
		}

		if err := initdata.Validate(raw, token, expIn); err != nil {
			RespondError(c, log, apperrors.NewUnauthorizedError("invalid init data").WithDetail("cause", err.Error()))
			return
		}
		parsed, err := initdata.Parse(raw)
		if err != nil || parsed.User.ID == 0 {
			RespondError(c, log, apperrors.NewUnauthorizedError("init data carries no user"))
			return
		}

		c.Set(UserKey, parsed.User)
		c.Next()
	}
}

// CurrentUser returns the caller stored by InitData.
func CurrentUser(c *gin.Context) (initdata.User, bool) {
	v, ok := c.Get(UserKey)
	if !ok {
		return initdata.User{}, false
	}
	u, ok := v.(initdata.User)
	return u, ok
}
