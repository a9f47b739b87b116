package errors

import (
	stderrors "errors"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// ErrorCode classifies an application error.
type ErrorCode string

const (
	ErrCodeInternal   ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation ErrorCode = "VALIDATION_ERROR"
	ErrCodeNotFound   ErrorCode = "NOT_FOUND"
	ErrCodeForbidden  ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest ErrorCode = "BAD_REQUEST"

	ErrCodeUserBanned      ErrorCode = "USER_BANNED"
	ErrCodeNotAdmin        ErrorCode = "NOT_ADMIN"
	ErrCodeUnauthorized    ErrorCode = "UNAUTHORIZED"
	ErrCodeInvalidHandle   ErrorCode = "INVALID_HANDLE"
	ErrCodeInvalidTargetID ErrorCode = "INVALID_TARGET_ID"

	ErrCodePersistence   ErrorCode = "PERSISTENCE_ERROR"
	ErrCodeConfiguration ErrorCode = "CONFIGURATION_ERROR"
	ErrCodeCacheError    ErrorCode = "CACHE_ERROR"

	ErrCodeTelegramAPI ErrorCode = "TELEGRAM_API_ERROR"
)

// AppError is a typed application error.
type AppError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Context   map[string]string      `json:"context,omitempty"`
	Stack     []string               `json:"-"`
	Timestamp time.Time              `json:"timestamp"`
	RequestID string                 `json:"request_id,omitempty"`
	UserID    int64                  `json:"user_id,omitempty"`
	Cause     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// IsValidation reports whether the error is a user input problem.
func (e *AppError) IsValidation() bool {
	return e.Code == ErrCodeValidation ||
		e.Code == ErrCodeInvalidHandle ||
		e.Code == ErrCodeInvalidTargetID ||
		e.Code == ErrCodeBadRequest
}

// IsDenial reports whether the error is an authorization outcome rather than a fault.
func (e *AppError) IsDenial() bool {
	return e.Code == ErrCodeUserBanned ||
		e.Code == ErrCodeNotAdmin ||
		e.Code == ErrCodeForbidden ||
		e.Code == ErrCodeUnauthorized
}

// IsInternal reports whether the error is a server-side fault.
func (e *AppError) IsInternal() bool {
	return e.Code == ErrCodeInternal ||
		e.Code == ErrCodePersistence ||
		e.Code == ErrCodeCacheError ||
		e.Code == ErrCodeTelegramAPI
}

func (e *AppError) WithContext(key, value string) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func (e *AppError) WithRequestID(requestID string) *AppError {
	e.RequestID = requestID
	return e
}

func (e *AppError) WithUserID(userID int64) *AppError {
	e.UserID = userID
	return e
}

// New creates an application error and captures the caller stack.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
		Stack:     getStackTrace(),
	}
}

// Wrap wraps err with a code and message.
func Wrap(err error, code ErrorCode, message string) *AppError {
	appErr := New(code, message)
	appErr.Cause = err
	return appErr
}

func getStackTrace() []string {
	var stack []string
	for i := 2; ; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}
		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}
		if strings.Contains(fn.Name(), "internal/common/errors") {
			continue
		}
		stack = append(stack, fmt.Sprintf("%s:%d %s", file, line, fn.Name()))
		if len(stack) >= 10 {
			break
		}
	}
	return stack
}

// NewValidationError reports a rejected input field.
func NewValidationError(field, reason string) *AppError {
	return New(ErrCodeValidation, fmt.Sprintf("Validation failed for field '%s': %s", field, reason)).
		WithDetail("field", field).
		WithDetail("reason", reason)
}

// NewInvalidHandleError reports a malformed registration handle.
func NewInvalidHandleError(reason string) *AppError {
	return New(ErrCodeInvalidHandle, fmt.Sprintf("Invalid handle: %s", reason)).
		WithDetail("reason", reason)
}

// NewInvalidTargetIDError reports a malformed user id argument.
func NewInvalidTargetIDError(raw string) *AppError {
	return New(ErrCodeInvalidTargetID, fmt.Sprintf("Invalid user id: %q", raw)).
		WithDetail("raw", raw)
}

func NewNotFoundError(resource, id interface{}) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource)).
		WithDetail("resource", resource).
		WithDetail("id", id)
}

func NewBannedError(userID int64) *AppError {
	return New(ErrCodeUserBanned, "User is banned").WithUserID(userID)
}

func NewNotAdminError(userID int64) *AppError {
	return New(ErrCodeNotAdmin, "Administrator privileges required").WithUserID(userID)
}

func NewUnauthorizedError(reason string) *AppError {
	return New(ErrCodeUnauthorized, fmt.Sprintf("Unauthorized: %s", reason)).
		WithDetail("reason", reason)
}

// NewPersistenceError wraps a failed load or save of a backing store.
func NewPersistenceError(operation, store string, err error) *AppError {
	return Wrap(err, ErrCodePersistence, fmt.Sprintf("Persistence operation failed: %s %s", operation, store)).
		WithDetail("operation", operation).
		WithDetail("store", store)
}

// NewConfigurationError reports missing or malformed startup configuration.
func NewConfigurationError(err error) *AppError {
	return Wrap(err, ErrCodeConfiguration, "Invalid configuration")
}

func NewCacheError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeCacheError, fmt.Sprintf("Cache operation failed: %s", operation)).
		WithDetail("operation", operation)
}

func NewTelegramAPIError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeTelegramAPI, fmt.Sprintf("Telegram API operation failed: %s", operation)).
		WithDetail("operation", operation)
}

// AsAppError finds the first AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if err == nil {
		return nil, false
	}
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}
