// Package bonus defines the bonus policy domain: reward policies gated by
// cooldown and quota rules, and the claim records that drive eligibility.
package bonus

import (
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/gem-platform/wallet-ledger/internal/domain/wallet"
)

// Common errors
var (
	// ErrDuplicateClaim indicates a claim insert lost the uniqueness race on
	// (user, policy, claim window). The bonus engine recovers it as a deny.
	ErrDuplicateClaim = errors.New("duplicate bonus claim for window")
)

// Policy defines a repeatable grant of ledger credits. A nil CooldownSeconds
// makes the policy one-time (subject to MaxClaims); a nil MaxClaims means
// unlimited claims.
type Policy struct {
	ID              int64  `json:"id"`
	Code            string `json:"code"`
	Amount          int64  `json:"amount"`
	CurrencyID      int64  `json:"-"`
	CurrencyCode    string `json:"currency"`
	CooldownSeconds *int64 `json:"cooldown_seconds"`
	MaxClaims       *int   `json:"max_claims"`
	Description     string `json:"description,omitempty"`
	IsActive        bool   `json:"is_active"`
}

// PolicyUpdate carries a partial administrative update; nil fields are left
// untouched
type PolicyUpdate struct {
	Amount          *int64
	CooldownSeconds *int64
	MaxClaims       *int
	IsActive        *bool
}

// IsEmpty reports whether the update would change nothing
func (u PolicyUpdate) IsEmpty() bool {
	return u.Amount == nil && u.CooldownSeconds == nil && u.MaxClaims == nil && u.IsActive == nil
}

// PolicyStats is a policy together with its total claim count, for
// administrative listings
type PolicyStats struct {
	Policy
	ClaimCount int64 `json:"claim_count"`
}

// Claim records one successful grant linking a user, a policy and the
// resulting journal record. Immutable once inserted.
type Claim struct {
	ID            int64     `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	PolicyID      int64     `json:"policy_id"`
	TransactionID int64     `json:"transaction_id"`
	ClaimWindow   string    `json:"claim_window"`
	ClaimedAt     time.Time `json:"claimed_at"`
}

// DenyReason explains a refused claim
type DenyReason string

const (
	ReasonPolicyNotFound   DenyReason = "policy_not_found"
	ReasonMaxClaimsReached DenyReason = "max_claims_reached"
	ReasonCooldownActive   DenyReason = "cooldown_active"
	ReasonError            DenyReason = "error"
)

// ClaimResult is the outcome of a claim attempt. When Granted is false,
// Reason is set and NextAvailableAt carries the end of an active cooldown.
type ClaimResult struct {
	Granted         bool           `json:"granted"`
	Reason          DenyReason     `json:"reason,omitempty"`
	NextAvailableAt *time.Time     `json:"next_available_at,omitempty"`
	Transaction     *wallet.Record `json:"transaction,omitempty"`
	Amount          int64          `json:"amount,omitempty"`
	Currency        string         `json:"currency,omitempty"`
}

// ErrPolicyNotFound indicates a missing bonus policy
type ErrPolicyNotFound struct {
	ID int64
}

func (e ErrPolicyNotFound) Error() string {
	return "bonus policy not found: " + strconv.FormatInt(e.ID, 10)
}

// Is implements the errors.Is interface for ErrPolicyNotFound
func (e ErrPolicyNotFound) Is(target error) bool {
	t, ok := target.(ErrPolicyNotFound)
	if !ok {
		return false
	}
	if t.ID == 0 {
		return true
	}
	return e.ID == t.ID
}
