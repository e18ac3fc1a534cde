// Package currency defines the currency registry: the mapping from external
// currency codes (e.g. "gem", "krw") to internal identifiers that every
// ledger operation resolves against.
package currency

import "context"

// Currency represents a registered currency
type Currency struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
}

// Registry resolves currency codes to registered currencies
type Registry interface {
	GetByCode(ctx context.Context, code string) (*Currency, error)
	List(ctx context.Context) ([]*Currency, error)
}

// ErrUnknownCurrency indicates a currency code with no registry entry
type ErrUnknownCurrency struct {
	Code string
}

func (e ErrUnknownCurrency) Error() string {
	return "unknown currency: " + e.Code
}

// Is implements the errors.Is interface for ErrUnknownCurrency
func (e ErrUnknownCurrency) Is(target error) bool {
	t, ok := target.(ErrUnknownCurrency)
	if !ok {
		return false
	}
	// An empty target code matches any ErrUnknownCurrency
	if t.Code == "" {
		return true
	}
	return e.Code == t.Code
}
