package audit

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// ArchiveRepository manages archived ledger events with pagination support
type ArchiveRepository interface {
	Insert(ctx context.Context, event *LedgerEvent) error
	GetByTransactionID(ctx context.Context, transactionID int64) (*LedgerEvent, error)
	GetByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*LedgerEvent, error)
	CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error)
	GetByTimeRange(ctx context.Context, start, end time.Time, limit, offset int) ([]*LedgerEvent, error)
}

// ErrEventNotFound indicates a missing archived event
type ErrEventNotFound struct {
	TransactionID int64
}

func (e ErrEventNotFound) Error() string {
	return "audit event not found: " + strconv.FormatInt(e.TransactionID, 10)
}

// Is implements the errors.Is interface for ErrEventNotFound
func (e ErrEventNotFound) Is(target error) bool {
	t, ok := target.(ErrEventNotFound)
	if !ok {
		return false
	}
	if t.TransactionID == 0 {
		return true
	}
	return e.TransactionID == t.TransactionID
}

// ErrDuplicateEvent indicates an event was already archived
type ErrDuplicateEvent struct {
	TransactionID int64
}

func (e ErrDuplicateEvent) Error() string {
	return "duplicate audit event: " + strconv.FormatInt(e.TransactionID, 10)
}

// Is implements the errors.Is interface for ErrDuplicateEvent
func (e ErrDuplicateEvent) Is(target error) bool {
	t, ok := target.(ErrDuplicateEvent)
	if !ok {
		return false
	}
	if t.TransactionID == 0 {
		return true
	}
	return e.TransactionID == t.TransactionID
}
