package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gem-platform/wallet-ledger/internal/domain/audit"
	"github.com/gem-platform/wallet-ledger/internal/domain/wallet"
)

// MockArchiveRepository mocks audit.ArchiveRepository
type MockArchiveRepository struct {
	mock.Mock
}

func (m *MockArchiveRepository) Insert(ctx context.Context, event *audit.LedgerEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockArchiveRepository) GetByTransactionID(ctx context.Context, transactionID int64) (*audit.LedgerEvent, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*audit.LedgerEvent), args.Error(1)
}

func (m *MockArchiveRepository) GetByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*audit.LedgerEvent, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*audit.LedgerEvent), args.Error(1)
}

func (m *MockArchiveRepository) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockArchiveRepository) GetByTimeRange(ctx context.Context, start, end time.Time, limit, offset int) ([]*audit.LedgerEvent, error) {
	args := m.Called(ctx, start, end, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*audit.LedgerEvent), args.Error(1)
}

func testEvent() *audit.LedgerEvent {
	return &audit.LedgerEvent{
		TransactionID: 42,
		UserID:        uuid.New(),
		Currency:      "gem",
		Type:          wallet.RecordTypeCredit,
		Amount:        500,
		Reference:     "topup",
		CreatedAt:     time.Now().UTC(),
	}
}

func TestArchiveService_ArchiveEvent(t *testing.T) {
	logger := slog.Default()
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockArchiveRepository)
		svc := NewArchiveService(logger, mockRepo)

		event := testEvent()
		mockRepo.On("Insert", ctx, event).Return(nil).Once()

		err := svc.ArchiveEvent(ctx, event)
		require.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("DuplicateEventIsSuccess", func(t *testing.T) {
		mockRepo := new(MockArchiveRepository)
		svc := NewArchiveService(logger, mockRepo)

		event := testEvent()
		mockRepo.On("Insert", ctx, event).Return(audit.ErrDuplicateEvent{TransactionID: event.TransactionID}).Once()

		err := svc.ArchiveEvent(ctx, event)
		require.NoError(t, err)
	})

	t.Run("InsertErrorPropagates", func(t *testing.T) {
		mockRepo := new(MockArchiveRepository)
		svc := NewArchiveService(logger, mockRepo)

		event := testEvent()
		mockRepo.On("Insert", ctx, event).Return(errors.New("mongo down")).Once()

		err := svc.ArchiveEvent(ctx, event)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to archive ledger event")
	})
}

// Verify interface implementation
var _ audit.ArchiveRepository = (*MockArchiveRepository)(nil)
