// Package postgres provides PostgreSQL implementations of the domain
// repositories. It handles all database operations while maintaining
// transaction safety and proper error handling for the wallet ledger.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/gem-platform/wallet-ledger/internal/domain/currency"
	"github.com/gem-platform/wallet-ledger/internal/platform/persistence"
)

// CurrencyRepository implements the currency.Registry interface for PostgreSQL
type CurrencyRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewCurrencyRepository creates a new PostgreSQL currency registry
func NewCurrencyRepository(logger *slog.Logger, db *persistence.PostgresDB) currency.Registry {
	return &CurrencyRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// GetByCode resolves a currency code to its registry entry
func (r *CurrencyRepository) GetByCode(ctx context.Context, code string) (*currency.Currency, error) {
	query := `
		SELECT id, code
		FROM currencies
		WHERE code = $1
	`

	var cur currency.Currency
	err := r.querier.QueryRow(ctx, query, code).Scan(&cur.ID, &cur.Code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, currency.ErrUnknownCurrency{Code: code}
		}
		r.logger.Error("Failed to resolve currency", "code", code, "error", err)
		return nil, fmt.Errorf("failed to resolve currency: %w", err)
	}

	return &cur, nil
}

// List returns all registered currencies
func (r *CurrencyRepository) List(ctx context.Context) ([]*currency.Currency, error) {
	query := `
		SELECT id, code
		FROM currencies
		ORDER BY code
	`

	rows, err := r.querier.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list currencies", "error", err)
		return nil, fmt.Errorf("failed to list currencies: %w", err)
	}
	defer rows.Close()

	var currencies []*currency.Currency
	for rows.Next() {
		var cur currency.Currency
		if err := rows.Scan(&cur.ID, &cur.Code); err != nil {
			return nil, fmt.Errorf("failed to scan currency: %w", err)
		}
		currencies = append(currencies, &cur)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over currencies: %w", err)
	}

	return currencies, nil
}
