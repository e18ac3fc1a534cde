package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gem-platform/wallet-ledger/internal/domain/wallet"
	"github.com/gem-platform/wallet-ledger/internal/platform/persistence"
)

// LedgerRepository implements the wallet.LedgerRepository interface for PostgreSQL
type LedgerRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewLedgerRepository creates a new PostgreSQL ledger repository
func NewLedgerRepository(logger *slog.Logger, db *persistence.PostgresDB) wallet.LedgerRepository {
	return &LedgerRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx returns a copy of the repository bound to the given transaction
func (r *LedgerRepository) WithTx(tx pgx.Tx) wallet.LedgerRepository {
	return &LedgerRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// LockBalanceForUpdate acquires a row-level lock on the balance row and
// returns the locked amount. The row is created with a zero amount when the
// (user, currency) pair has never held funds, so the lock always lands.
func (r *LedgerRepository) LockBalanceForUpdate(ctx context.Context, userID uuid.UUID, currencyID int64) (int64, error) {
	insertQuery := `
		INSERT INTO account_balances (user_id, currency_id, amount)
		VALUES ($1, $2, 0)
		ON CONFLICT (user_id, currency_id) DO NOTHING
	`

	if _, err := r.querier.Exec(ctx, insertQuery, userID, currencyID); err != nil {
		r.logger.Error("Failed to ensure balance row", "user_id", userID, "currency_id", currencyID, "error", err)
		return 0, fmt.Errorf("failed to ensure balance row: %w", err)
	}

	lockQuery := `
		SELECT amount
		FROM account_balances
		WHERE user_id = $1 AND currency_id = $2
		FOR UPDATE
	`

	var amount int64
	if err := r.querier.QueryRow(ctx, lockQuery, userID, currencyID).Scan(&amount); err != nil {
		r.logger.Error("Failed to lock balance row", "user_id", userID, "currency_id", currencyID, "error", err)
		return 0, fmt.Errorf("failed to lock balance row: %w", err)
	}

	return amount, nil
}

// AddToBalance applies a signed delta to an existing balance row. The caller
// must hold the row lock taken by LockBalanceForUpdate.
func (r *LedgerRepository) AddToBalance(ctx context.Context, userID uuid.UUID, currencyID int64, delta int64) error {
	query := `
		UPDATE account_balances
		SET amount = amount + $3, updated_at = NOW()
		WHERE user_id = $1 AND currency_id = $2
	`

	tag, err := r.querier.Exec(ctx, query, userID, currencyID, delta)
	if err != nil {
		r.logger.Error("Failed to update balance", "user_id", userID, "currency_id", currencyID, "error", err)
		return fmt.Errorf("failed to update balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("balance row missing for user %s currency %d", userID, currencyID)
	}

	return nil
}

// SumCreditsSince returns the total amount credited to the pair at or after
// the given instant
func (r *LedgerRepository) SumCreditsSince(ctx context.Context, userID uuid.UUID, currencyID int64, since time.Time) (int64, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE user_id = $1 AND currency_id = $2 AND type = 'credit' AND created_at >= $3
	`

	var total int64
	if err := r.querier.QueryRow(ctx, query, userID, currencyID, since).Scan(&total); err != nil {
		r.logger.Error("Failed to sum recent credits", "user_id", userID, "currency_id", currencyID, "error", err)
		return 0, fmt.Errorf("failed to sum recent credits: %w", err)
	}

	return total, nil
}

// InsertRecord appends a record to the transaction journal, filling the
// generated ID and CreatedAt on success
func (r *LedgerRepository) InsertRecord(ctx context.Context, record *wallet.Record) error {
	query := `
		INSERT INTO transactions (user_id, currency_id, type, amount, reference, memo, idempotency_key, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	var memo, idempotencyKey *string
	if record.Memo != "" {
		memo = &record.Memo
	}
	if record.IdempotencyKey != "" {
		idempotencyKey = &record.IdempotencyKey
	}

	err := r.querier.QueryRow(ctx, query,
		record.UserID,
		record.CurrencyID,
		record.Type,
		record.Amount,
		record.Reference,
		memo,
		idempotencyKey,
		record.Metadata,
	).Scan(&record.ID, &record.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "idempotency_key") {
			return wallet.ErrDuplicateIdempotencyKey{Key: record.IdempotencyKey}
		}
		r.logger.Error("Failed to insert journal record", "user_id", record.UserID, "type", record.Type, "error", err)
		return fmt.Errorf("failed to insert journal record: %w", err)
	}

	return nil
}

// GetByIdempotencyKey returns the journal record carrying the key, or nil
// when no record has claimed it
func (r *LedgerRepository) GetByIdempotencyKey(ctx context.Context, key string) (*wallet.Record, error) {
	query := `
		SELECT t.id, t.user_id, t.currency_id, c.code, t.type, t.amount, t.reference,
		       COALESCE(t.memo, ''), COALESCE(t.idempotency_key, ''), t.metadata, t.created_at
		FROM transactions t
		JOIN currencies c ON c.id = t.currency_id
		WHERE t.idempotency_key = $1
	`

	record, err := r.scanRecord(r.querier.QueryRow(ctx, query, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get record by idempotency key", "error", err)
		return nil, fmt.Errorf("failed to get record by idempotency key: %w", err)
	}

	return record, nil
}

// ListBalances returns all balances held by the user, ordered by currency code
func (r *LedgerRepository) ListBalances(ctx context.Context, userID uuid.UUID) ([]*wallet.Balance, error) {
	query := `
		SELECT b.user_id, b.currency_id, c.code, b.amount, b.updated_at
		FROM account_balances b
		JOIN currencies c ON c.id = b.currency_id
		WHERE b.user_id = $1
		ORDER BY c.code
	`

	rows, err := r.querier.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error("Failed to list balances", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to list balances: %w", err)
	}
	defer rows.Close()

	var balances []*wallet.Balance
	for rows.Next() {
		var b wallet.Balance
		if err := rows.Scan(&b.UserID, &b.CurrencyID, &b.CurrencyCode, &b.Amount, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan balance: %w", err)
		}
		balances = append(balances, &b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over balances: %w", err)
	}

	return balances, nil
}

// GetBalance returns the balance for one (user, currency) pair, or nil when
// the pair has never held funds
func (r *LedgerRepository) GetBalance(ctx context.Context, userID uuid.UUID, currencyID int64) (*wallet.Balance, error) {
	query := `
		SELECT b.user_id, b.currency_id, c.code, b.amount, b.updated_at
		FROM account_balances b
		JOIN currencies c ON c.id = b.currency_id
		WHERE b.user_id = $1 AND b.currency_id = $2
	`

	var b wallet.Balance
	err := r.querier.QueryRow(ctx, query, userID, currencyID).
		Scan(&b.UserID, &b.CurrencyID, &b.CurrencyCode, &b.Amount, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get balance", "user_id", userID, "currency_id", currencyID, "error", err)
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}

	return &b, nil
}

// ListHistory returns journal records newest-first. Records sharing a
// timestamp fall back to descending ID so pagination stays stable.
func (r *LedgerRepository) ListHistory(ctx context.Context, userID uuid.UUID, currencyID *int64, limit, offset int) ([]*wallet.Record, error) {
	query := `
		SELECT t.id, t.user_id, t.currency_id, c.code, t.type, t.amount, t.reference,
		       COALESCE(t.memo, ''), COALESCE(t.idempotency_key, ''), t.metadata, t.created_at
		FROM transactions t
		JOIN currencies c ON c.id = t.currency_id
		WHERE t.user_id = $1
		ORDER BY t.created_at DESC, t.id DESC
		LIMIT $2 OFFSET $3
	`
	args := []interface{}{userID, limit, offset}

	if currencyID != nil {
		query = `
		SELECT t.id, t.user_id, t.currency_id, c.code, t.type, t.amount, t.reference,
		       COALESCE(t.memo, ''), COALESCE(t.idempotency_key, ''), t.metadata, t.created_at
		FROM transactions t
		JOIN currencies c ON c.id = t.currency_id
		WHERE t.user_id = $1 AND t.currency_id = $2
		ORDER BY t.created_at DESC, t.id DESC
		LIMIT $3 OFFSET $4
	`
		args = []interface{}{userID, *currencyID, limit, offset}
	}

	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list history", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	var records []*wallet.Record
	for rows.Next() {
		record, err := r.scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over records: %w", err)
	}

	return records, nil
}

// CountHistory returns the number of journal records matching the same
// filter as ListHistory
func (r *LedgerRepository) CountHistory(ctx context.Context, userID uuid.UUID, currencyID *int64) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM transactions
		WHERE user_id = $1
	`
	args := []interface{}{userID}

	if currencyID != nil {
		query = `
		SELECT COUNT(*)
		FROM transactions
		WHERE user_id = $1 AND currency_id = $2
	`
		args = []interface{}{userID, *currencyID}
	}

	var count int64
	if err := r.querier.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		r.logger.Error("Failed to count history", "user_id", userID, "error", err)
		return 0, fmt.Errorf("failed to count history: %w", err)
	}

	return count, nil
}

func (r *LedgerRepository) scanRecord(row pgx.Row) (*wallet.Record, error) {
	var record wallet.Record
	err := row.Scan(
		&record.ID,
		&record.UserID,
		&record.CurrencyID,
		&record.CurrencyCode,
		&record.Type,
		&record.Amount,
		&record.Reference,
		&record.Memo,
		&record.IdempotencyKey,
		&record.Metadata,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &record, nil
}
