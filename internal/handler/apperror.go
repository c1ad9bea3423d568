package handler

import (
	"net/http"

	"github.com/josh-kwaku/pocket-wallet/internal/present"
)

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrMissingToken     = &AppError{http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header required"}
	ErrInvalidToken     = &AppError{http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired"}
	ErrInvalidRequest   = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrResourceNotFound = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrInternalError    = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}

	ErrFillRequired         = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", present.MessageFillRequired}
	ErrInsufficientBalance  = &AppError{http.StatusUnprocessableEntity, "INSUFFICIENT_BALANCE", present.MessageInsufficient}
	ErrInvalidType          = &AppError{http.StatusBadRequest, "INVALID_TRANSACTION_TYPE", "Unknown transaction type"}
	ErrIncorrectPIN         = &AppError{http.StatusUnauthorized, "INCORRECT_PIN", present.MessageIncorrectPIN}
	ErrPINLocked            = &AppError{http.StatusLocked, "PIN_LOCKED", present.MessagePINLocked}
	ErrAlreadyStaged        = &AppError{http.StatusConflict, "TRANSACTION_ALREADY_STAGED", "Another transaction is awaiting confirmation"}
	ErrConfirmInProgress    = &AppError{http.StatusConflict, "CONFIRMATION_IN_PROGRESS", present.MessageConfirmInProgress}
	ErrTransactionDiscarded = &AppError{http.StatusConflict, "TRANSACTION_DISCARDED", "Transaction was cancelled before it completed"}
	ErrConfirmTimeout       = &AppError{http.StatusGatewayTimeout, "CONFIRMATION_TIMEOUT", "Transaction timed out, please try again"}
	ErrRequestCanceled      = &AppError{http.StatusRequestTimeout, "REQUEST_CANCELED", "Request was canceled before the transaction completed"}
	ErrPersistenceFailure   = &AppError{http.StatusServiceUnavailable, "PERSISTENCE_FAILURE", "Wallet could not be saved, please try again"}
)
