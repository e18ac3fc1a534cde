package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/gem-platform/wallet-ledger/internal/domain/audit"
)

// Status defines message publishing states
type Status string

const (
	StatusPending         Status = "PENDING"
	StatusProcessed       Status = "PROCESSED"
	StatusFailedToPublish Status = "FAILED_TO_PUBLISH"
)

// Message stores a committed ledger event for reliable publishing. Rows are
// inserted in the same database transaction as the journal record they
// describe, so the journal and the event stream cannot diverge.
type Message struct {
	ID            int64           `json:"id"`
	TransactionID int64           `json:"transaction_id"`
	UserID        uuid.UUID       `json:"user_id"`
	Payload       json.RawMessage `json:"payload"`
	Status        Status          `json:"status"`
	Attempts      int             `json:"attempts"`
	CreatedAt     time.Time       `json:"created_at"`
	LastAttemptAt *time.Time      `json:"last_attempt_at,omitempty"`
}

// NewMessage wraps a ledger event into a pending outbox message
func NewMessage(event *audit.LedgerEvent) (*Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	return &Message{
		TransactionID: event.TransactionID,
		UserID:        event.UserID,
		Payload:       payload,
		Status:        StatusPending,
		Attempts:      0,
		CreatedAt:     time.Now(),
	}, nil
}

// LedgerEvent extracts the event carried by the payload
func (m *Message) LedgerEvent() (*audit.LedgerEvent, error) {
	var event audit.LedgerEvent
	if err := json.Unmarshal(m.Payload, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
