package wallet

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// LedgerRepository manages balance and journal persistence. Mutating methods
// are designed to run inside a caller-owned transaction obtained via WithTx,
// so the balance read and write always share one atomic unit.
type LedgerRepository interface {
	// WithTx returns a repository bound to the given transaction
	WithTx(tx pgx.Tx) LedgerRepository

	// LockBalanceForUpdate takes a row-level lock on the balance row,
	// creating a zero row first if the pair has never been credited, and
	// returns the locked amount.
	LockBalanceForUpdate(ctx context.Context, userID uuid.UUID, currencyID int64) (int64, error)

	// AddToBalance applies a signed delta to a locked balance row
	AddToBalance(ctx context.Context, userID uuid.UUID, currencyID int64, delta int64) error

	// SumCreditsSince returns the total credited to (user, currency) at or
	// after the given instant. Used for rolling daily-limit enforcement and
	// must be called inside the same transaction as the credit insert.
	SumCreditsSince(ctx context.Context, userID uuid.UUID, currencyID int64, since time.Time) (int64, error)

	// InsertRecord appends a journal record, filling ID and CreatedAt.
	// Returns ErrDuplicateIdempotencyKey if the key is already taken.
	InsertRecord(ctx context.Context, record *Record) error

	// GetByIdempotencyKey returns the record carrying the key, or nil when
	// no such record exists
	GetByIdempotencyKey(ctx context.Context, key string) (*Record, error)

	ListBalances(ctx context.Context, userID uuid.UUID) ([]*Balance, error)
	GetBalance(ctx context.Context, userID uuid.UUID, currencyID int64) (*Balance, error)

	// ListHistory returns journal records newest-first; currencyID narrows
	// the result when non-nil. CountHistory applies the same filter.
	ListHistory(ctx context.Context, userID uuid.UUID, currencyID *int64, limit, offset int) ([]*Record, error)
	CountHistory(ctx context.Context, userID uuid.UUID, currencyID *int64) (int64, error)
}
