package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gem-platform/wallet-ledger/internal/domain/bonus"
	"github.com/gem-platform/wallet-ledger/internal/domain/wallet"
)

type MockPolicyRepository struct {
	mock.Mock
}

func (m *MockPolicyRepository) GetActiveByCode(ctx context.Context, code string) (*bonus.Policy, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bonus.Policy), args.Error(1)
}

func (m *MockPolicyRepository) List(ctx context.Context) ([]*bonus.PolicyStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*bonus.PolicyStats), args.Error(1)
}

func (m *MockPolicyRepository) Update(ctx context.Context, id int64, update bonus.PolicyUpdate) (*bonus.Policy, error) {
	args := m.Called(ctx, id, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bonus.Policy), args.Error(1)
}

func (m *MockPolicyRepository) CountClaims(ctx context.Context, userID uuid.UUID, policyID int64) (int64, error) {
	args := m.Called(ctx, userID, policyID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPolicyRepository) LastClaim(ctx context.Context, userID uuid.UUID, policyID int64) (*bonus.Claim, error) {
	args := m.Called(ctx, userID, policyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bonus.Claim), args.Error(1)
}

func (m *MockPolicyRepository) InsertClaim(ctx context.Context, claim *bonus.Claim) error {
	args := m.Called(ctx, claim)
	if args.Error(0) == nil {
		claim.ID = 1
		claim.ClaimedAt = time.Now()
	}
	return args.Error(0)
}

type MockWalletService struct {
	mock.Mock
}

func (m *MockWalletService) Credit(ctx context.Context, params CreditParams) (*wallet.Record, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wallet.Record), args.Error(1)
}

func (m *MockWalletService) Debit(ctx context.Context, params DebitParams) (*wallet.Record, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wallet.Record), args.Error(1)
}

func (m *MockWalletService) Transfer(ctx context.Context, params TransferParams) (*wallet.TransferResult, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wallet.TransferResult), args.Error(1)
}

func (m *MockWalletService) GetBalances(ctx context.Context, userID uuid.UUID) ([]*wallet.Balance, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*wallet.Balance), args.Error(1)
}

func (m *MockWalletService) GetBalance(ctx context.Context, userID uuid.UUID, currencyCode string) (*wallet.Balance, error) {
	args := m.Called(ctx, userID, currencyCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wallet.Balance), args.Error(1)
}

func (m *MockWalletService) GetHistory(ctx context.Context, userID uuid.UUID, currencyCode string, page, perPage int) ([]*wallet.Record, int64, error) {
	args := m.Called(ctx, userID, currencyCode, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*wallet.Record), args.Get(1).(int64), args.Error(2)
}

// resetZone mirrors the default daily reset zone (UTC+9)
var resetZone = time.FixedZone("UTC+9", 9*60*60)

func newBonusService(walletSvc *MockWalletService, policies *MockPolicyRepository, now time.Time) *BonusServiceImpl {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	return &BonusServiceImpl{
		wallet:         walletSvc,
		policies:       policies,
		resetZone:      resetZone,
		signupCode:     "signup",
		dailyVisitCode: "daily_visit",
		logger:         logger,
		now:            func() time.Time { return now },
	}
}

func dailyVisitPolicy() *bonus.Policy {
	cooldown := int64(bonus.DailyCooldownSeconds)
	return &bonus.Policy{
		ID:              2,
		Code:            "daily_visit",
		Amount:          10,
		CurrencyID:      1,
		CurrencyCode:    "gem",
		CooldownSeconds: &cooldown,
		IsActive:        true,
	}
}

func signupPolicy() *bonus.Policy {
	maxClaims := 1
	return &bonus.Policy{
		ID:           1,
		Code:         "signup",
		Amount:       100,
		CurrencyID:   1,
		CurrencyCode: "gem",
		MaxClaims:    &maxClaims,
		IsActive:     true,
	}
}

func TestBonusServiceImpl_Claim(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("PolicyNotFound", func(t *testing.T) {
		walletSvc := new(MockWalletService)
		policies := new(MockPolicyRepository)
		service := newBonusService(walletSvc, policies, time.Now())

		policies.On("GetActiveByCode", ctx, "nope").Return(nil, nil).Once()

		result, err := service.Claim(ctx, userID, "nope", "corr")
		assert.NoError(t, err)
		assert.False(t, result.Granted)
		assert.Equal(t, bonus.ReasonPolicyNotFound, result.Reason)
		walletSvc.AssertNotCalled(t, "Credit", mock.Anything, mock.Anything)
	})

	t.Run("MaxClaimsReached", func(t *testing.T) {
		walletSvc := new(MockWalletService)
		policies := new(MockPolicyRepository)
		service := newBonusService(walletSvc, policies, time.Now())

		policies.On("GetActiveByCode", ctx, "signup").Return(signupPolicy(), nil).Once()
		policies.On("CountClaims", ctx, userID, int64(1)).Return(int64(1), nil).Once()

		result, err := service.Claim(ctx, userID, "signup", "corr")
		assert.NoError(t, err)
		assert.False(t, result.Granted)
		assert.Equal(t, bonus.ReasonMaxClaimsReached, result.Reason)
		walletSvc.AssertNotCalled(t, "Credit", mock.Anything, mock.Anything)
	})

	t.Run("GrantsAndRecordsClaim", func(t *testing.T) {
		now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
		walletSvc := new(MockWalletService)
		policies := new(MockPolicyRepository)
		service := newBonusService(walletSvc, policies, now)

		record := &wallet.Record{ID: 42, UserID: userID, Type: wallet.RecordTypeCredit, Amount: 10, CurrencyCode: "gem"}
		window := now.In(resetZone).Format("2006-01-02")
		expectedKey := fmt.Sprintf("bonus:daily_visit:%s:%s", userID, window)

		policies.On("GetActiveByCode", ctx, "daily_visit").Return(dailyVisitPolicy(), nil).Once()
		policies.On("CountClaims", ctx, userID, int64(2)).Return(int64(3), nil).Once()
		policies.On("LastClaim", ctx, userID, int64(2)).Return(nil, nil).Once()
		walletSvc.On("Credit", ctx, mock.MatchedBy(func(p CreditParams) bool {
			return p.IdempotencyKey == expectedKey &&
				p.Reference == "bonus:daily_visit" &&
				p.Amount == 10 &&
				p.Metadata["policy_code"] == "daily_visit"
		})).Return(record, nil).Once()
		policies.On("InsertClaim", ctx, mock.MatchedBy(func(c *bonus.Claim) bool {
			return c.TransactionID == 42 && c.ClaimWindow == window
		})).Return(nil).Once()

		result, err := service.Claim(ctx, userID, "daily_visit", "corr")
		assert.NoError(t, err)
		assert.True(t, result.Granted)
		assert.Equal(t, record, result.Transaction)
		assert.Equal(t, int64(10), result.Amount)
		assert.Equal(t, "gem", result.Currency)
		policies.AssertExpectations(t)
		walletSvc.AssertExpectations(t)
	})

	t.Run("DailySameLocalDayDenied", func(t *testing.T) {
		// 12:00 UTC is 21:00 in the reset zone; a claim from 09:00 UTC the
		// same day (18:00 local) is the same calendar date
		now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
		walletSvc := new(MockWalletService)
		policies := new(MockPolicyRepository)
		service := newBonusService(walletSvc, policies, now)

		lastClaim := &bonus.Claim{ID: 1, UserID: userID, PolicyID: 2, ClaimedAt: now.Add(-3 * time.Hour)}
		policies.On("GetActiveByCode", ctx, "daily_visit").Return(dailyVisitPolicy(), nil).Once()
		policies.On("CountClaims", ctx, userID, int64(2)).Return(int64(5), nil).Once()
		policies.On("LastClaim", ctx, userID, int64(2)).Return(lastClaim, nil).Once()

		result, err := service.Claim(ctx, userID, "daily_visit", "corr")
		assert.NoError(t, err)
		assert.False(t, result.Granted)
		assert.Equal(t, bonus.ReasonCooldownActive, result.Reason)
		require.NotNil(t, result.NextAvailableAt)
		// next local midnight: 2026-08-29 00:00 +09 is 2026-08-28 15:00 UTC
		assert.Equal(t, time.Date(2026, 8, 28, 15, 0, 0, 0, time.UTC), *result.NextAvailableAt)
		walletSvc.AssertNotCalled(t, "Credit", mock.Anything, mock.Anything)
	})

	t.Run("DailyCalendarBoundaryPermits", func(t *testing.T) {
		// Last claim at 23:59 local, attempt at 00:01 local the next day.
		// Under a rolling window this would be denied; calendar-day reset
		// permits it.
		lastLocal := time.Date(2026, 8, 27, 23, 59, 0, 0, resetZone)
		nowLocal := time.Date(2026, 8, 28, 0, 1, 0, 0, resetZone)
		now := nowLocal.UTC()

		walletSvc := new(MockWalletService)
		policies := new(MockPolicyRepository)
		service := newBonusService(walletSvc, policies, now)

		record := &wallet.Record{ID: 43, UserID: userID, Type: wallet.RecordTypeCredit, Amount: 10, CurrencyCode: "gem"}
		lastClaim := &bonus.Claim{ID: 1, UserID: userID, PolicyID: 2, ClaimedAt: lastLocal.UTC()}

		policies.On("GetActiveByCode", ctx, "daily_visit").Return(dailyVisitPolicy(), nil).Once()
		policies.On("CountClaims", ctx, userID, int64(2)).Return(int64(5), nil).Once()
		policies.On("LastClaim", ctx, userID, int64(2)).Return(lastClaim, nil).Once()
		walletSvc.On("Credit", ctx, mock.AnythingOfType("CreditParams")).Return(record, nil).Once()
		policies.On("InsertClaim", ctx, mock.MatchedBy(func(c *bonus.Claim) bool {
			return c.ClaimWindow == "2026-08-28"
		})).Return(nil).Once()

		result, err := service.Claim(ctx, userID, "daily_visit", "corr")
		assert.NoError(t, err)
		assert.True(t, result.Granted)
		policies.AssertExpectations(t)
	})

	t.Run("RollingCooldownDenied", func(t *testing.T) {
		cooldown := int64(3600)
		policy := &bonus.Policy{
			ID: 3, Code: "hourly", Amount: 5, CurrencyID: 1, CurrencyCode: "gem",
			CooldownSeconds: &cooldown, IsActive: true,
		}
		now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
		lastClaimedAt := now.Add(-30 * time.Minute)

		walletSvc := new(MockWalletService)
		policies := new(MockPolicyRepository)
		service := newBonusService(walletSvc, policies, now)

		policies.On("GetActiveByCode", ctx, "hourly").Return(policy, nil).Once()
		policies.On("CountClaims", ctx, userID, int64(3)).Return(int64(2), nil).Once()
		policies.On("LastClaim", ctx, userID, int64(3)).Return(&bonus.Claim{ClaimedAt: lastClaimedAt}, nil).Once()

		result, err := service.Claim(ctx, userID, "hourly", "corr")
		assert.NoError(t, err)
		assert.False(t, result.Granted)
		assert.Equal(t, bonus.ReasonCooldownActive, result.Reason)
		require.NotNil(t, result.NextAvailableAt)
		assert.Equal(t, lastClaimedAt.Add(time.Hour), *result.NextAvailableAt)
	})

	t.Run("RollingCooldownElapsedGrants", func(t *testing.T) {
		cooldown := int64(3600)
		policy := &bonus.Policy{
			ID: 3, Code: "hourly", Amount: 5, CurrencyID: 1, CurrencyCode: "gem",
			CooldownSeconds: &cooldown, IsActive: true,
		}
		now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

		walletSvc := new(MockWalletService)
		policies := new(MockPolicyRepository)
		service := newBonusService(walletSvc, policies, now)

		record := &wallet.Record{ID: 44, Amount: 5, CurrencyCode: "gem"}
		policies.On("GetActiveByCode", ctx, "hourly").Return(policy, nil).Once()
		policies.On("CountClaims", ctx, userID, int64(3)).Return(int64(2), nil).Once()
		policies.On("LastClaim", ctx, userID, int64(3)).Return(&bonus.Claim{ClaimedAt: now.Add(-2 * time.Hour)}, nil).Once()
		walletSvc.On("Credit", ctx, mock.AnythingOfType("CreditParams")).Return(record, nil).Once()
		policies.On("InsertClaim", ctx, mock.AnythingOfType("*bonus.Claim")).Return(nil).Once()

		result, err := service.Claim(ctx, userID, "hourly", "corr")
		assert.NoError(t, err)
		assert.True(t, result.Granted)
		policies.AssertExpectations(t)
	})

	t.Run("ConcurrentClaimLosesRaceDenied", func(t *testing.T) {
		now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
		walletSvc := new(MockWalletService)
		policies := new(MockPolicyRepository)
		service := newBonusService(walletSvc, policies, now)

		record := &wallet.Record{ID: 45, Amount: 10, CurrencyCode: "gem"}
		policies.On("GetActiveByCode", ctx, "daily_visit").Return(dailyVisitPolicy(), nil).Once()
		policies.On("CountClaims", ctx, userID, int64(2)).Return(int64(0), nil).Once()
		policies.On("LastClaim", ctx, userID, int64(2)).Return(nil, nil).Once()
		walletSvc.On("Credit", ctx, mock.AnythingOfType("CreditParams")).Return(record, nil).Once()
		policies.On("InsertClaim", ctx, mock.AnythingOfType("*bonus.Claim")).Return(bonus.ErrDuplicateClaim).Once()

		result, err := service.Claim(ctx, userID, "daily_visit", "corr")
		assert.NoError(t, err)
		assert.False(t, result.Granted)
		assert.Equal(t, bonus.ReasonCooldownActive, result.Reason)
		require.NotNil(t, result.NextAvailableAt)
	})

	t.Run("RepositoryErrorPropagates", func(t *testing.T) {
		walletSvc := new(MockWalletService)
		policies := new(MockPolicyRepository)
		service := newBonusService(walletSvc, policies, time.Now())

		dbErr := errors.New("db down")
		policies.On("GetActiveByCode", ctx, "signup").Return(nil, dbErr).Once()

		result, err := service.Claim(ctx, userID, "signup", "corr")
		assert.Nil(t, result)
		assert.ErrorIs(t, err, dbErr)
	})
}

func TestBonusServiceImpl_BestEffortGrants(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("SignupSwallowsErrors", func(t *testing.T) {
		walletSvc := new(MockWalletService)
		policies := new(MockPolicyRepository)
		service := newBonusService(walletSvc, policies, time.Now())

		policies.On("GetActiveByCode", ctx, "signup").Return(nil, errors.New("db down")).Once()

		result := service.GrantSignupBonus(ctx, userID, "corr")
		require.NotNil(t, result)
		assert.False(t, result.Granted)
		assert.Equal(t, bonus.ReasonError, result.Reason)
	})

	t.Run("DailyVisitPassesThroughDeny", func(t *testing.T) {
		walletSvc := new(MockWalletService)
		policies := new(MockPolicyRepository)
		service := newBonusService(walletSvc, policies, time.Now())

		policies.On("GetActiveByCode", ctx, "daily_visit").Return(nil, nil).Once()

		result := service.GrantDailyVisitBonus(ctx, userID, "corr")
		require.NotNil(t, result)
		assert.False(t, result.Granted)
		assert.Equal(t, bonus.ReasonPolicyNotFound, result.Reason)
	})
}

func TestBonusServiceImpl_Policies(t *testing.T) {
	ctx := context.Background()

	t.Run("List", func(t *testing.T) {
		walletSvc := new(MockWalletService)
		policies := new(MockPolicyRepository)
		service := newBonusService(walletSvc, policies, time.Now())

		stats := []*bonus.PolicyStats{{Policy: *signupPolicy(), ClaimCount: 10}}
		policies.On("List", ctx).Return(stats, nil).Once()

		got, err := service.ListPolicies(ctx)
		assert.NoError(t, err)
		assert.Equal(t, stats, got)
	})

	t.Run("Update", func(t *testing.T) {
		walletSvc := new(MockWalletService)
		policies := new(MockPolicyRepository)
		service := newBonusService(walletSvc, policies, time.Now())

		amount := int64(200)
		update := bonus.PolicyUpdate{Amount: &amount}
		updated := signupPolicy()
		updated.Amount = amount
		policies.On("Update", ctx, int64(1), update).Return(updated, nil).Once()

		got, err := service.UpdatePolicy(ctx, 1, update)
		assert.NoError(t, err)
		assert.Equal(t, amount, got.Amount)
	})

	t.Run("UpdateUnknownPolicy", func(t *testing.T) {
		walletSvc := new(MockWalletService)
		policies := new(MockPolicyRepository)
		service := newBonusService(walletSvc, policies, time.Now())

		amount := int64(200)
		update := bonus.PolicyUpdate{Amount: &amount}
		policies.On("Update", ctx, int64(99), update).Return(nil, bonus.ErrPolicyNotFound{ID: 99}).Once()

		_, err := service.UpdatePolicy(ctx, 99, update)
		assert.ErrorIs(t, err, bonus.ErrPolicyNotFound{ID: 99})
	})
}
