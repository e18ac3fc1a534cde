package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gem-platform/wallet-ledger/internal/domain/bonus"
	"github.com/gem-platform/wallet-ledger/internal/platform/persistence"
)

// PolicyRepository implements the bonus.Repository interface for PostgreSQL
type PolicyRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewPolicyRepository creates a new PostgreSQL bonus policy repository
func NewPolicyRepository(logger *slog.Logger, db *persistence.PostgresDB) bonus.Repository {
	return &PolicyRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// GetActiveByCode returns the active policy with the given code, or nil when
// the code is unknown or the policy has been deactivated
func (r *PolicyRepository) GetActiveByCode(ctx context.Context, code string) (*bonus.Policy, error) {
	query := `
		SELECT p.id, p.code, p.amount, p.currency_id, c.code, p.cooldown_seconds, p.max_claims,
		       COALESCE(p.description, ''), p.is_active
		FROM bonus_policies p
		JOIN currencies c ON c.id = p.currency_id
		WHERE p.code = $1 AND p.is_active = TRUE
	`

	policy, err := scanPolicy(r.querier.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get bonus policy", "code", code, "error", err)
		return nil, fmt.Errorf("failed to get bonus policy: %w", err)
	}

	return policy, nil
}

// List returns all policies together with their total claim counts
func (r *PolicyRepository) List(ctx context.Context) ([]*bonus.PolicyStats, error) {
	query := `
		SELECT p.id, p.code, p.amount, p.currency_id, c.code, p.cooldown_seconds, p.max_claims,
		       COALESCE(p.description, ''), p.is_active,
		       (SELECT COUNT(*) FROM bonus_claims bc WHERE bc.policy_id = p.id)
		FROM bonus_policies p
		JOIN currencies c ON c.id = p.currency_id
		ORDER BY p.id
	`

	rows, err := r.querier.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list bonus policies", "error", err)
		return nil, fmt.Errorf("failed to list bonus policies: %w", err)
	}
	defer rows.Close()

	var stats []*bonus.PolicyStats
	for rows.Next() {
		var s bonus.PolicyStats
		err := rows.Scan(
			&s.ID, &s.Code, &s.Amount, &s.CurrencyID, &s.CurrencyCode,
			&s.CooldownSeconds, &s.MaxClaims, &s.Description, &s.IsActive,
			&s.ClaimCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bonus policy: %w", err)
		}
		stats = append(stats, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over bonus policies: %w", err)
	}

	return stats, nil
}

// Update applies a partial administrative update and returns the resulting
// policy. Nil fields in the update leave the stored value untouched.
func (r *PolicyRepository) Update(ctx context.Context, id int64, update bonus.PolicyUpdate) (*bonus.Policy, error) {
	setClauses := make([]string, 0, 4)
	args := make([]interface{}, 0, 5)
	args = append(args, id)

	addClause := func(column string, value interface{}) {
		args = append(args, value)
		setClauses = append(setClauses, column+" = $"+strconv.Itoa(len(args)))
	}

	if update.Amount != nil {
		addClause("amount", *update.Amount)
	}
	if update.CooldownSeconds != nil {
		addClause("cooldown_seconds", *update.CooldownSeconds)
	}
	if update.MaxClaims != nil {
		addClause("max_claims", *update.MaxClaims)
	}
	if update.IsActive != nil {
		addClause("is_active", *update.IsActive)
	}

	if len(setClauses) == 0 {
		return nil, errors.New("bonus policy update is empty")
	}

	query := "UPDATE bonus_policies SET " + strings.Join(setClauses, ", ") + `, updated_at = NOW()
		WHERE id = $1
		RETURNING id, code, amount, currency_id,
		          (SELECT code FROM currencies WHERE id = bonus_policies.currency_id),
		          cooldown_seconds, max_claims, COALESCE(description, ''), is_active`

	policy, err := scanPolicy(r.querier.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, bonus.ErrPolicyNotFound{ID: id}
		}
		r.logger.Error("Failed to update bonus policy", "policy_id", id, "error", err)
		return nil, fmt.Errorf("failed to update bonus policy: %w", err)
	}

	return policy, nil
}

// CountClaims returns the number of claims the user holds against the policy
func (r *PolicyRepository) CountClaims(ctx context.Context, userID uuid.UUID, policyID int64) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM bonus_claims
		WHERE user_id = $1 AND policy_id = $2
	`

	var count int64
	if err := r.querier.QueryRow(ctx, query, userID, policyID).Scan(&count); err != nil {
		r.logger.Error("Failed to count bonus claims", "user_id", userID, "policy_id", policyID, "error", err)
		return 0, fmt.Errorf("failed to count bonus claims: %w", err)
	}

	return count, nil
}

// LastClaim returns the most recent claim for the pair, or nil when the user
// has never claimed the policy
func (r *PolicyRepository) LastClaim(ctx context.Context, userID uuid.UUID, policyID int64) (*bonus.Claim, error) {
	query := `
		SELECT id, user_id, policy_id, transaction_id, claim_window, claimed_at
		FROM bonus_claims
		WHERE user_id = $1 AND policy_id = $2
		ORDER BY claimed_at DESC, id DESC
		LIMIT 1
	`

	var claim bonus.Claim
	err := r.querier.QueryRow(ctx, query, userID, policyID).Scan(
		&claim.ID, &claim.UserID, &claim.PolicyID,
		&claim.TransactionID, &claim.ClaimWindow, &claim.ClaimedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get last bonus claim", "user_id", userID, "policy_id", policyID, "error", err)
		return nil, fmt.Errorf("failed to get last bonus claim: %w", err)
	}

	return &claim, nil
}

// InsertClaim records a grant, filling the generated ID and ClaimedAt.
// A uniqueness collision on (user, policy, window) surfaces as
// bonus.ErrDuplicateClaim.
func (r *PolicyRepository) InsertClaim(ctx context.Context, claim *bonus.Claim) error {
	query := `
		INSERT INTO bonus_claims (user_id, policy_id, transaction_id, claim_window)
		VALUES ($1, $2, $3, $4)
		RETURNING id, claimed_at
	`

	err := r.querier.QueryRow(ctx, query,
		claim.UserID, claim.PolicyID, claim.TransactionID, claim.ClaimWindow,
	).Scan(&claim.ID, &claim.ClaimedAt)
	if err != nil {
		if isUniqueViolation(err, "") {
			return bonus.ErrDuplicateClaim
		}
		r.logger.Error("Failed to insert bonus claim", "user_id", claim.UserID, "policy_id", claim.PolicyID, "error", err)
		return fmt.Errorf("failed to insert bonus claim: %w", err)
	}

	return nil
}

func scanPolicy(row pgx.Row) (*bonus.Policy, error) {
	var p bonus.Policy
	err := row.Scan(
		&p.ID, &p.Code, &p.Amount, &p.CurrencyID, &p.CurrencyCode,
		&p.CooldownSeconds, &p.MaxClaims, &p.Description, &p.IsActive,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
