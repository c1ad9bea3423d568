package domain

import "errors"

var (
	ErrNotFound                 = errors.New("not found")
	ErrMissingField             = errors.New("required field missing")
	ErrInvalidAmount            = errors.New("amount must be greater than zero")
	ErrInsufficientBalance      = errors.New("insufficient balance")
	ErrInvalidTransactionType   = errors.New("invalid transaction type")
	ErrAuthenticationFailed     = errors.New("incorrect pin")
	ErrPINLocked                = errors.New("too many incorrect pin attempts")
	ErrPersistenceFailure       = errors.New("failed to persist wallet")
	ErrTransactionAlreadyStaged = errors.New("a transaction is already awaiting confirmation")
	ErrConfirmationInProgress   = errors.New("a confirmation is already in progress")
	ErrTransactionDiscarded     = errors.New("transaction was discarded before it was applied")
)

// ValidationError reports which input field failed and why. Err is one of
// ErrMissingField, ErrInvalidAmount or ErrInsufficientBalance.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }
