package service

import (
	"context"

	"github.com/gem-platform/wallet-ledger/internal/domain/audit"
)

// ArchiveService defines the interface for archiving ledger events.
type ArchiveService interface {
	ArchiveEvent(ctx context.Context, event *audit.LedgerEvent) error
}
