package xerrors

import "errors"

// Generic
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrNotFound       = errors.New("not found")
)

// Transaction validation
var (
	ErrInvalidAccounts  = errors.New("both debit and credit accounts are required")
	ErrInvalidAmount    = errors.New("transaction amount must be positive")
	ErrInvalidTimestamp = errors.New("invalid timestamp format")
)

// Sealing
var (
	ErrEmptyLedger = errors.New("no transactions to seal")
)

// IsClientError reports whether err was caused by the caller's input rather
// than by the service.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrInvalidAccounts) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidTimestamp) ||
		errors.Is(err, ErrEmptyLedger)
}
