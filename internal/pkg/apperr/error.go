// internal/pkg/apperr/error.go
package apperr

import (
	"errors"
	"fmt"
)

// Failure taxonomy for the order/balance core. Validation failures are
// resolved locally before any backend call; the rest surface backend
// outcomes verbatim.
var (
	ErrUnauthenticated    = errors.New("authentication required")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrPasswordMismatch   = errors.New("password confirmation does not match")
	ErrInsufficientFunds  = errors.New("insufficient balance")
	ErrSessionExpired     = errors.New("session expired or invalid")
	ErrNetworkUnavailable = errors.New("backend unavailable")
	ErrUnknownOutcome     = errors.New("submission outcome unknown, re-check order state before retrying")
	ErrIllegalTransition  = errors.New("illegal order status transition")
	ErrNotFound           = errors.New("resource not found")
	ErrRateLimited        = errors.New("too many requests")
)

// OrderError carries the backend-provided reason for a rejected order.
type OrderError struct {
	Reason string
}

func (e *OrderError) Error() string {
	return fmt.Sprintf("order failed: %s", e.Reason)
}

// OrderFailed builds an OrderError from a backend reason.
func OrderFailed(reason string) error {
	return &OrderError{Reason: reason}
}

// Wrap adds context to an error (similar to fmt.Errorf("%w")).
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Is allows checking whether an error is a specific sentinel error.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
