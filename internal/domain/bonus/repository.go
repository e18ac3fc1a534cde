package bonus

import (
	"context"

	"github.com/google/uuid"
)

// Repository manages bonus policy and claim persistence. Claim lookups are
// evaluated on every claim attempt and must be index-backed.
type Repository interface {
	// GetActiveByCode returns the active policy with the given code, or nil
	// when the code is unknown or the policy is inactive
	GetActiveByCode(ctx context.Context, code string) (*Policy, error)

	// List returns all policies with their total claim counts
	List(ctx context.Context) ([]*PolicyStats, error)

	// Update applies a partial administrative update and returns the
	// resulting policy. Returns ErrPolicyNotFound for an unknown id.
	Update(ctx context.Context, id int64, update PolicyUpdate) (*Policy, error)

	// CountClaims returns the number of claims a user holds against a policy
	CountClaims(ctx context.Context, userID uuid.UUID, policyID int64) (int64, error)

	// LastClaim returns the most recent claim for (user, policy), or nil
	// when the user has never claimed
	LastClaim(ctx context.Context, userID uuid.UUID, policyID int64) (*Claim, error)

	// InsertClaim records a grant, filling ID and ClaimedAt. Returns
	// ErrDuplicateClaim when the (user, policy, window) slot is taken.
	InsertClaim(ctx context.Context, claim *Claim) error
}
