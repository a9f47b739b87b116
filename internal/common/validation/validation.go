package validation

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	apperrors "chessclub-bot/internal/common/errors"
)

const (
	MinHandleLength = 3
	MaxHandleLength = 20

	// MaxBroadcastLength is the longest broadcast body accepted, in characters.
	MaxBroadcastLength = 4000
)

// Handle rejection reasons.
const (
	ReasonTooShort      = "too_short"
	ReasonTooLong       = "too_long"
	ReasonInvalidChars  = "invalid_characters"
	ReasonEmptyAfterSep = "no_alphanumeric_characters"
)

// ValidateHandle checks a raw external account handle and returns it normalized
// (trimmed, lower-cased). Underscores and hyphens are allowed; every other
// character must be a letter or a digit.
func ValidateHandle(raw string) (string, error) {
	handle := strings.TrimSpace(raw)

	n := utf8.RuneCountInString(handle)
	if n < MinHandleLength {
		return "", apperrors.NewInvalidHandleError(ReasonTooShort).WithDetail("length", n)
	}
	if n > MaxHandleLength {
		return "", apperrors.NewInvalidHandleError(ReasonTooLong).WithDetail("length", n)
	}

	core := strings.NewReplacer("_", "", "-", "").Replace(handle)
	if core == "" {
		return "", apperrors.NewInvalidHandleError(ReasonEmptyAfterSep)
	}
	for _, r := range core {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return "", apperrors.NewInvalidHandleError(ReasonInvalidChars).WithDetail("rune", string(r))
		}
	}

	return strings.ToLower(handle), nil
}

// IsValidHandle reports whether raw would be accepted by ValidateHandle.
func IsValidHandle(raw string) bool {
	_, err := ValidateHandle(raw)
	return err == nil
}

// ParseUserID parses a Telegram user id command argument.
func ParseUserID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperrors.NewInvalidTargetIDError(raw)
	}
	return id, nil
}

// ValidateBroadcast checks a broadcast body.
func ValidateBroadcast(text string) error {
	if strings.TrimSpace(text) == "" {
		return apperrors.NewValidationError("message", "cannot be empty")
	}
	if n := utf8.RuneCountInString(text); n > MaxBroadcastLength {
		return apperrors.NewValidationError("message", fmt.Sprintf("cannot exceed %d characters", MaxBroadcastLength)).
			WithDetail("length", n)
	}
	return nil
}

// ValidateNonNegativeInt checks that value is not negative.
func ValidateNonNegativeInt(value int64, fieldName string) error {
	if value < 0 {
		return apperrors.NewValidationError(fieldName, "cannot be negative")
	}
	return nil
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the shared struct validator with the "handle" tag registered.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("handle", func(fl validator.FieldLevel) bool {
			return IsValidHandle(fl.Field().String())
		})
	})
	return validate
}

// Struct validates a DTO and converts the first failure into a validation error.
func Struct(v interface{}) error {
	if err := Validator().Struct(v); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return apperrors.NewValidationError(strings.ToLower(fe.Field()), fmt.Sprintf("failed on '%s'", fe.Tag()))
		}
		return apperrors.Wrap(err, apperrors.ErrCodeValidation, "Validation failed")
	}
	return nil
}
