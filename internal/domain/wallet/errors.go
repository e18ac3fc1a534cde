package wallet

import (
	"errors"
	"strconv"
)

// Common errors
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrRecordNotFound    = errors.New("transaction record not found")
	ErrSelfTransfer      = errors.New("transfer source and destination must differ")
)

// ErrDailyLimitExceeded indicates the rolling 24-hour credit total for a
// (user, currency) pair would exceed the configured cap
type ErrDailyLimitExceeded struct {
	Limit int64
}

func (e ErrDailyLimitExceeded) Error() string {
	return "daily credit limit exceeded: " + strconv.FormatInt(e.Limit, 10)
}

// Is implements the errors.Is interface for ErrDailyLimitExceeded
func (e ErrDailyLimitExceeded) Is(target error) bool {
	t, ok := target.(ErrDailyLimitExceeded)
	if !ok {
		return false
	}
	// A zero target limit matches any ErrDailyLimitExceeded
	if t.Limit == 0 {
		return true
	}
	return e.Limit == t.Limit
}

// ErrDuplicateIdempotencyKey indicates a journal insert lost an
// idempotency-key race. It is recovered internally by re-reading the
// winner's record and is never surfaced to callers.
type ErrDuplicateIdempotencyKey struct {
	Key string
}

func (e ErrDuplicateIdempotencyKey) Error() string {
	return "duplicate idempotency key: " + e.Key
}

// Is implements the errors.Is interface for ErrDuplicateIdempotencyKey
func (e ErrDuplicateIdempotencyKey) Is(target error) bool {
	t, ok := target.(ErrDuplicateIdempotencyKey)
	if !ok {
		return false
	}
	if t.Key == "" {
		return true
	}
	return e.Key == t.Key
}
