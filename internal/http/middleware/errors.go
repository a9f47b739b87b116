package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	apperrors "chessclub-bot/internal/common/errors"
)

// ErrorResponse is the JSON body of every failed API call.
type ErrorResponse struct {
	Success   bool                `json:"success"`
	Error     *apperrors.AppError `json:"error"`
	Timestamp time.Time           `json:"timestamp"`
	RequestID string              `json:"request_id"`
	Path      string              `json:"path,omitempty"`
	Method    string              `json:"method,omitempty"`
}

// Recovery turns panics into a 500 ErrorResponse.
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Error().
			Str("request_id", GetRequestID(c)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Interface("panic", recovered).
			Str("stack", string(debug.Stack())).
			Msg("Panic recovered")

		appErr := apperrors.New(apperrors.ErrCodeInternal, "Internal server error").
			WithDetail("panic", fmt.Sprintf("%v", recovered))
		RespondError(c, log, appErr)
	})
}

// RespondError aborts the request with the status matching err's code.
func RespondError(c *gin.Context, log zerolog.Logger, err error) {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		appErr = apperrors.Wrap(err, apperrors.ErrCodeInternal, "Internal server error")
	}
	requestID := GetRequestID(c)
	appErr.WithRequestID(requestID).
		WithContext("path", c.Request.URL.Path).
		WithContext("method", c.Request.Method)

	status := StatusCode(appErr)
	event := log.Warn()
	if appErr.IsInternal() {
		event = log.Error().Err(appErr.Cause).Strs("stack", appErr.Stack)
	}
	event.
		Str("request_id", requestID).
		Str("error_code", string(appErr.Code)).
		Str("error_message", appErr.Message).
		Int("status", status).
		Msg("Request failed")

	c.AbortWithStatusJSON(status, ErrorResponse{
		Success:   false,
		Error:     appErr,
		Timestamp: time.Now(),
		RequestID: requestID,
		Path:      c.Request.URL.Path,
		Method:    c.Request.Method,
	})
}

func StatusCode(appErr *apperrors.AppError) int {
	switch appErr.Code {
	case apperrors.ErrCodeValidation, apperrors.ErrCodeBadRequest,
		apperrors.ErrCodeInvalidHandle, apperrors.ErrCodeInvalidTargetID:
		return http.StatusBadRequest
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case apperrors.ErrCodeForbidden, apperrors.ErrCodeUserBanned, apperrors.ErrCodeNotAdmin:
		return http.StatusForbidden
	case apperrors.ErrCodeCacheError:
		return http.StatusServiceUnavailable
	case apperrors.ErrCodeTelegramAPI:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
