// Package wallet defines the ledger domain model: account balances and the
// append-only journal of signed balance-affecting records. Balances are a
// materialized view of the journal and must never drift from it.
package wallet

import (
	"time"

	"github.com/google/uuid"
)

// RecordType defines the signed effect of a journal record
type RecordType string

const (
	RecordTypeCredit RecordType = "credit"
	RecordTypeDebit  RecordType = "debit"
)

// Record is an immutable entry in the transaction journal. The magnitude is
// always positive; direction is carried by Type.
type Record struct {
	ID             int64             `json:"id"`
	UserID         uuid.UUID         `json:"user_id"`
	CurrencyID     int64             `json:"-"`
	CurrencyCode   string            `json:"currency"`
	Type           RecordType        `json:"type"`
	Amount         int64             `json:"amount"` // Minor units, always > 0
	Reference      string            `json:"reference"`
	Memo           string            `json:"memo,omitempty"`
	IdempotencyKey string            `json:"idempotency_key,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}

// Balance is the materialized amount held by one user in one currency.
// Created lazily on first credit, never deleted; zero is a valid state.
type Balance struct {
	UserID       uuid.UUID `json:"user_id"`
	CurrencyID   int64     `json:"-"`
	CurrencyCode string    `json:"currency"`
	Amount       int64     `json:"amount"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TransferResult pairs the two journal records produced by a transfer
type TransferResult struct {
	DebitRecord  *Record `json:"debit"`
	CreditRecord *Record `json:"credit"`
}
