package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gem-platform/wallet-ledger/internal/domain/bonus"
)

// BonusServiceImpl implements the BonusService interface. Eligibility is
// evaluated fresh on every attempt from the claim history; the uniqueness
// constraint on (user, policy, window) closes the race between concurrent
// attempts that both pass eligibility.
type BonusServiceImpl struct {
	wallet         WalletService
	policies       bonus.Repository
	resetZone      *time.Location
	signupCode     string
	dailyVisitCode string
	logger         *slog.Logger
	now            func() time.Time
}

// NewBonusService creates a new bonus claim service
func NewBonusService(
	logger *slog.Logger,
	walletService WalletService,
	policies bonus.Repository,
	resetZone *time.Location,
	signupCode string,
	dailyVisitCode string,
) BonusService {
	return &BonusServiceImpl{
		wallet:         walletService,
		policies:       policies,
		resetZone:      resetZone,
		signupCode:     signupCode,
		dailyVisitCode: dailyVisitCode,
		logger:         logger,
		now:            time.Now,
	}
}

// Claim runs the policy gate and grants a ledger credit when eligible.
// Evaluation order: policy resolution, max-claims quota, cooldown. The first
// matching rule denies and short-circuits.
func (s *BonusServiceImpl) Claim(ctx context.Context, userID uuid.UUID, policyCode string, correlationID string) (*bonus.ClaimResult, error) {
	now := s.now()

	policy, err := s.policies.GetActiveByCode(ctx, policyCode)
	if err != nil {
		return nil, err
	}
	if policy == nil {
		return &bonus.ClaimResult{Granted: false, Reason: bonus.ReasonPolicyNotFound}, nil
	}

	priorClaims, err := s.policies.CountClaims(ctx, userID, policy.ID)
	if err != nil {
		return nil, err
	}
	if policy.MaxClaims != nil && priorClaims >= int64(*policy.MaxClaims) {
		return &bonus.ClaimResult{Granted: false, Reason: bonus.ReasonMaxClaimsReached}, nil
	}

	if policy.CooldownSeconds != nil {
		lastClaim, err := s.policies.LastClaim(ctx, userID, policy.ID)
		if err != nil {
			return nil, err
		}
		if lastClaim != nil {
			if denied, next := s.cooldownActive(policy, lastClaim.ClaimedAt, now); denied {
				return &bonus.ClaimResult{
					Granted:         false,
					Reason:          bonus.ReasonCooldownActive,
					NextAvailableAt: next,
				}, nil
			}
		}
	}

	window := bonus.ClaimWindow(policy, priorClaims, now, s.resetZone)

	record, err := s.wallet.Credit(ctx, CreditParams{
		UserID:         userID,
		Currency:       policy.CurrencyCode,
		Amount:         policy.Amount,
		Reference:      "bonus:" + policy.Code,
		IdempotencyKey: fmt.Sprintf("bonus:%s:%s:%s", policy.Code, userID, window),
		Metadata: map[string]string{
			"policy_code": policy.Code,
			"policy_id":   fmt.Sprintf("%d", policy.ID),
		},
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}

	claim := &bonus.Claim{
		UserID:        userID,
		PolicyID:      policy.ID,
		TransactionID: record.ID,
		ClaimWindow:   window,
	}
	if err := s.policies.InsertClaim(ctx, claim); err != nil {
		if errors.Is(err, bonus.ErrDuplicateClaim) {
			s.logger.Info("Concurrent claim lost uniqueness race",
				"user_id", userID,
				"policy_code", policy.Code,
				"claim_window", window,
			)
			return &bonus.ClaimResult{
				Granted:         false,
				Reason:          bonus.ReasonCooldownActive,
				NextAvailableAt: s.windowEnd(policy, now),
			}, nil
		}
		return nil, err
	}

	s.logger.Info("Bonus granted",
		"user_id", userID,
		"policy_code", policy.Code,
		"amount", policy.Amount,
		"currency", policy.CurrencyCode,
		"transaction_id", record.ID,
	)

	return &bonus.ClaimResult{
		Granted:     true,
		Transaction: record,
		Amount:      policy.Amount,
		Currency:    policy.CurrencyCode,
	}, nil
}

// GrantSignupBonus triggers the signup policy without ever failing the
// caller; a signup must complete even when the bonus cannot be granted
func (s *BonusServiceImpl) GrantSignupBonus(ctx context.Context, userID uuid.UUID, correlationID string) *bonus.ClaimResult {
	return s.grantBestEffort(ctx, userID, s.signupCode, correlationID)
}

// GrantDailyVisitBonus triggers the daily visit policy without ever failing
// the caller
func (s *BonusServiceImpl) GrantDailyVisitBonus(ctx context.Context, userID uuid.UUID, correlationID string) *bonus.ClaimResult {
	return s.grantBestEffort(ctx, userID, s.dailyVisitCode, correlationID)
}

// ListPolicies returns all policies with claim statistics
func (s *BonusServiceImpl) ListPolicies(ctx context.Context) ([]*bonus.PolicyStats, error) {
	return s.policies.List(ctx)
}

// UpdatePolicy applies a partial administrative update
func (s *BonusServiceImpl) UpdatePolicy(ctx context.Context, id int64, update bonus.PolicyUpdate) (*bonus.Policy, error) {
	return s.policies.Update(ctx, id, update)
}

func (s *BonusServiceImpl) grantBestEffort(ctx context.Context, userID uuid.UUID, policyCode string, correlationID string) *bonus.ClaimResult {
	result, err := s.Claim(ctx, userID, policyCode, correlationID)
	if err != nil {
		s.logger.Error("Best-effort bonus grant failed",
			"user_id", userID,
			"policy_code", policyCode,
			"error", err,
		)
		return &bonus.ClaimResult{Granted: false, Reason: bonus.ReasonError}
	}
	return result
}

// cooldownActive evaluates the cooldown rule against the most recent claim.
// Daily policies reset at local midnight in the reset zone; any other
// cooldown is a rolling window from the last claim instant.
func (s *BonusServiceImpl) cooldownActive(policy *bonus.Policy, lastClaimedAt, now time.Time) (bool, *time.Time) {
	cooldown := *policy.CooldownSeconds

	if cooldown == bonus.DailyCooldownSeconds {
		if bonus.SameLocalDay(now, lastClaimedAt, s.resetZone) {
			next := bonus.NextDailyReset(now, s.resetZone)
			return true, &next
		}
		return false, nil
	}

	if now.Sub(lastClaimedAt) < time.Duration(cooldown)*time.Second {
		next := lastClaimedAt.Add(time.Duration(cooldown) * time.Second)
		return true, &next
	}
	return false, nil
}

// windowEnd reports when the window containing now closes, for denials
// issued after losing the claim uniqueness race
func (s *BonusServiceImpl) windowEnd(policy *bonus.Policy, now time.Time) *time.Time {
	if policy.CooldownSeconds == nil {
		return nil
	}
	cooldown := *policy.CooldownSeconds
	if cooldown == bonus.DailyCooldownSeconds {
		next := bonus.NextDailyReset(now, s.resetZone)
		return &next
	}
	bucket := now.Unix() / cooldown
	next := time.Unix((bucket+1)*cooldown, 0).UTC()
	return &next
}
