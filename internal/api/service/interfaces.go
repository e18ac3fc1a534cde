package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/gem-platform/wallet-ledger/internal/domain/bonus"
	"github.com/gem-platform/wallet-ledger/internal/domain/wallet"
)

// CreditParams carries one credit request into the ledger engine
type CreditParams struct {
	UserID         uuid.UUID
	Currency       string
	Amount         int64
	Reference      string
	Memo           string
	IdempotencyKey string
	Metadata       map[string]string
	CorrelationID  string
}

// DebitParams carries one debit request into the ledger engine
type DebitParams struct {
	UserID         uuid.UUID
	Currency       string
	Amount         int64
	Reference      string
	Memo           string
	IdempotencyKey string
	CorrelationID  string
}

// TransferParams carries one transfer request into the ledger engine
type TransferParams struct {
	FromUserID     uuid.UUID
	ToUserID       uuid.UUID
	Currency       string
	Amount         int64
	Reference      string
	IdempotencyKey string
	CorrelationID  string
}

// WalletService defines the interface for ledger operations
type WalletService interface {
	// Credit adds funds to a (user, currency) balance inside one atomic unit.
	// A repeated call with the same idempotency key returns the original record.
	Credit(ctx context.Context, params CreditParams) (*wallet.Record, error)

	// Debit removes funds from a (user, currency) balance inside one atomic
	// unit. Returns ErrInsufficientFunds when the locked balance cannot cover
	// the amount.
	Debit(ctx context.Context, params DebitParams) (*wallet.Record, error)

	// Transfer moves funds between two users as a debit plus a credit in one
	// atomic unit; if the debit cannot proceed the credit never executes
	Transfer(ctx context.Context, params TransferParams) (*wallet.TransferResult, error)

	// GetBalances returns all balances held by the user
	GetBalances(ctx context.Context, userID uuid.UUID) ([]*wallet.Balance, error)

	// GetBalance returns the balance for one currency, reporting zero rather
	// than absence when the pair has never held funds
	GetBalance(ctx context.Context, userID uuid.UUID, currencyCode string) (*wallet.Balance, error)

	// GetHistory returns paginated journal records newest-first together with
	// the total count under the same filter
	GetHistory(ctx context.Context, userID uuid.UUID, currencyCode string, page, perPage int) ([]*wallet.Record, int64, error)
}

// BonusService defines the interface for bonus claim operations
type BonusService interface {
	// Claim evaluates the policy gate for (user, policyCode) and grants a
	// ledger credit when eligible. Ineligibility is reported in the result,
	// not as an error.
	Claim(ctx context.Context, userID uuid.UUID, policyCode string, correlationID string) (*bonus.ClaimResult, error)

	// GrantSignupBonus triggers the signup policy as a best-effort side
	// effect; failures are logged and never propagated
	GrantSignupBonus(ctx context.Context, userID uuid.UUID, correlationID string) *bonus.ClaimResult

	// GrantDailyVisitBonus triggers the daily visit policy as a best-effort
	// side effect; failures are logged and never propagated
	GrantDailyVisitBonus(ctx context.Context, userID uuid.UUID, correlationID string) *bonus.ClaimResult

	// ListPolicies returns all policies with claim statistics
	ListPolicies(ctx context.Context) ([]*bonus.PolicyStats, error)

	// UpdatePolicy applies a partial administrative update.
	// Returns ErrPolicyNotFound for an unknown id.
	UpdatePolicy(ctx context.Context, id int64, update bonus.PolicyUpdate) (*bonus.Policy, error)
}
