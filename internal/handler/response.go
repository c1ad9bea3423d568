package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/josh-kwaku/pocket-wallet/internal/domain"
)

type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data"`
	Error   *APIError `json:"error"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func RespondSuccess(w http.ResponseWriter, status int, data any) {
	RespondJSON(w, status, APIResponse{
		Success: true,
		Data:    data,
		Error:   nil,
	})
}

func RespondAppError(w http.ResponseWriter, appErr *AppError, details any) {
	RespondJSON(w, appErr.Status, APIResponse{
		Success: false,
		Data:    nil,
		Error: &APIError{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: details,
		},
	})
}

// RespondDomainError maps core errors onto API errors. Validation failures
// collapse into two user-facing messages; the offending field goes in details.
func RespondDomainError(w http.ResponseWriter, err error) {
	var appErr *AppError
	var details any

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		details = []FieldError{{Field: verr.Field, Message: verr.Err.Error()}}
	}

	switch {
	case errors.Is(err, domain.ErrMissingField), errors.Is(err, domain.ErrInvalidAmount):
		appErr = ErrFillRequired
	case errors.Is(err, domain.ErrInsufficientBalance):
		appErr = ErrInsufficientBalance
	case errors.Is(err, domain.ErrInvalidTransactionType):
		appErr = ErrInvalidType
	case errors.Is(err, domain.ErrPINLocked):
		appErr = ErrPINLocked
	case errors.Is(err, domain.ErrAuthenticationFailed):
		appErr = ErrIncorrectPIN
	case errors.Is(err, domain.ErrTransactionAlreadyStaged):
		appErr = ErrAlreadyStaged
	case errors.Is(err, domain.ErrConfirmationInProgress):
		appErr = ErrConfirmInProgress
	case errors.Is(err, domain.ErrTransactionDiscarded):
		appErr = ErrTransactionDiscarded
	case errors.Is(err, domain.ErrPersistenceFailure):
		appErr = ErrPersistenceFailure
	case errors.Is(err, context.DeadlineExceeded):
		appErr = ErrConfirmTimeout
	case errors.Is(err, context.Canceled):
		// The client is usually gone; the transaction stays staged.
		slog.Info("request canceled", "error", err)
		appErr = ErrRequestCanceled
	case errors.Is(err, domain.ErrNotFound):
		appErr = ErrResourceNotFound
	default:
		slog.Error("unhandled domain error", "error", err)
		appErr = ErrInternalError
	}

	RespondAppError(w, appErr, details)
}

type lockoutReporter interface {
	PINLockedUntil() time.Time
}

// respondPINError is RespondDomainError plus a Retry-After header while the
// PIN is locked.
func respondPINError(w http.ResponseWriter, pins lockoutReporter, err error) {
	if errors.Is(err, domain.ErrPINLocked) {
		if until := pins.PINLockedUntil(); !until.IsZero() {
			secs := int(math.Ceil(time.Until(until).Seconds()))
			w.Header().Set("Retry-After", strconv.Itoa(max(secs, 1)))
		}
	}
	RespondDomainError(w, err)
}

// flexString accepts a JSON string or number so form values can be sent
// either way.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	if string(b) == "null" {
		*f = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}
