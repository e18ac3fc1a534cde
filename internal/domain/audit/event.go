// Package audit defines the read-model mirror of committed ledger activity.
// Events are emitted through the transactional outbox, carried over Kafka
// and archived in MongoDB; PostgreSQL remains the source of truth.
package audit

import (
	"time"

	"github.com/google/uuid"

	"github.com/gem-platform/wallet-ledger/internal/domain/wallet"
)

// LedgerEvent is the archived form of one committed journal record
type LedgerEvent struct {
	TransactionID  int64             `json:"transaction_id" bson:"transaction_id"`
	UserID         uuid.UUID         `json:"user_id" bson:"user_id"`
	Currency       string            `json:"currency" bson:"currency"`
	Type           wallet.RecordType `json:"type" bson:"type"`
	Amount         int64             `json:"amount" bson:"amount"`
	Reference      string            `json:"reference" bson:"reference"`
	Memo           string            `json:"memo,omitempty" bson:"memo,omitempty"`
	IdempotencyKey string            `json:"idempotency_key,omitempty" bson:"idempotency_key,omitempty"`
	CorrelationID  string            `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
	CreatedAt      time.Time         `json:"created_at" bson:"created_at"`
	ArchivedAt     time.Time         `json:"archived_at" bson:"archived_at"`
}

// NewLedgerEvent builds an event from a committed journal record
func NewLedgerEvent(record *wallet.Record, correlationID string) *LedgerEvent {
	return &LedgerEvent{
		TransactionID:  record.ID,
		UserID:         record.UserID,
		Currency:       record.CurrencyCode,
		Type:           record.Type,
		Amount:         record.Amount,
		Reference:      record.Reference,
		Memo:           record.Memo,
		IdempotencyKey: record.IdempotencyKey,
		CorrelationID:  correlationID,
		CreatedAt:      record.CreatedAt,
	}
}
