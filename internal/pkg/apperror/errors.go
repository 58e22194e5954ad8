package apperror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/marcos-nsantos/focusdeck-sync/internal/domain"
)

type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

func NotFound(resource string) *AppError {
	return &AppError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: http.StatusNotFound,
	}
}

func BadRequest(message string) *AppError {
	return &AppError{
		Code:       "BAD_REQUEST",
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func Unauthorized(message string) *AppError {
	return &AppError{
		Code:       "UNAUTHORIZED",
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func Forbidden(message string) *AppError {
	return &AppError{
		Code:       "FORBIDDEN",
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Code:       "CONFLICT",
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func Internal(err error) *AppError {
	return &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "an internal error occurred",
		StatusCode: http.StatusInternalServerError,
		Err:        err,
	}
}

func Wrap(err error, message string) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return &AppError{
			Code:       appErr.Code,
			Message:    message,
			StatusCode: appErr.StatusCode,
			Err:        err,
		}
	}
	return Internal(fmt.Errorf("%s: %w", message, err))
}

func Is(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

func StatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

func TooManyRequests(code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: http.StatusTooManyRequests,
	}
}

func Unprocessable(message string) *AppError {
	return &AppError{
		Code:       "VALIDATION_ERROR",
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
	}
}

// FromDomain maps domain errors to their HTTP form. Whole error families share
// one response so callers cannot tell causes apart. Unknown errors become an
// internal error.
func FromDomain(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, domain.ErrTooManyAttempts):
		return TooManyRequests("AUTH_FAILED", "too many failed attempts, please try again later")
	case errors.Is(err, domain.ErrAuthFailed), errors.Is(err, domain.ErrUserNotFound):
		return New("AUTH_FAILED", domain.ErrAuthFailed.Error(), http.StatusUnauthorized)
	case errors.Is(err, domain.ErrPairingFailed):
		return New("PAIRING_FAILED", domain.ErrPairingFailed.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrSessionInvalid):
		return New("SESSION_INVALID", domain.ErrSessionInvalid.Error(), http.StatusUnauthorized)
	case errors.Is(err, domain.ErrConflictAlreadyResolved):
		return Conflict(err.Error())
	case errors.Is(err, domain.ErrResolutionNotTerminal):
		return Unprocessable(err.Error())
	case errors.Is(err, domain.ErrConflictNotFound):
		return NotFound("conflict")
	case errors.Is(err, domain.ErrDeviceNotFound):
		return NotFound("device")
	case errors.Is(err, domain.ErrEntityNotFound):
		return NotFound("entity")
	case errors.Is(err, domain.ErrUserAlreadyExists):
		return Conflict(err.Error())
	case errors.Is(err, domain.ErrInvalidEntityType),
		errors.Is(err, domain.ErrInvalidOperation),
		errors.Is(err, domain.ErrBatchTooLarge):
		return &AppError{Code: "VALIDATION_ERROR", Message: err.Error(), StatusCode: http.StatusBadRequest}
	}
	return Internal(err)
}
