package domain

import "errors"

var (
	ErrNotFound           = errors.New("export not found")
	ErrInvalidTransition  = errors.New("invalid transition")
	ErrValidationFailed   = errors.New("validation failed")
	ErrLedgerConflict     = errors.New("ledger conflict")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrCircuitOpen        = errors.New("circuit open")
	ErrInternal           = errors.New("internal error")
)

// IsRetryable reports whether the caller may usefully retry after a backoff.
// Business rejections are final; only transport-level exhaustion qualifies.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) || errors.Is(err, ErrCircuitOpen)
}

// IsBusinessError reports whether the ledger (or the engine's own guards)
// rejected the request on its merits. Business errors are never retried by
// the gateway: retrying would not change the outcome and could duplicate
// side effects.
func IsBusinessError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrValidationFailed) ||
		errors.Is(err, ErrLedgerConflict)
}
