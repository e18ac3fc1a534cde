// Package service archives ledger events consumed from Kafka into the
// MongoDB read model.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gem-platform/wallet-ledger/internal/domain/audit"
)

// ArchiveServiceImpl implements ArchiveService against the audit archive
type ArchiveServiceImpl struct {
	archive audit.ArchiveRepository
	logger  *slog.Logger
}

func NewArchiveService(logger *slog.Logger, archive audit.ArchiveRepository) *ArchiveServiceImpl {
	return &ArchiveServiceImpl{
		archive: archive,
		logger:  logger,
	}
}

// ArchiveEvent inserts one ledger event into the archive. An event that was
// already archived is treated as success so redelivered messages commit
// their offset instead of looping forever.
func (s *ArchiveServiceImpl) ArchiveEvent(ctx context.Context, event *audit.LedgerEvent) error {
	err := s.archive.Insert(ctx, event)
	if err != nil {
		if errors.Is(err, audit.ErrDuplicateEvent{}) {
			s.logger.Info("Ledger event already archived, skipping",
				"transaction_id", event.TransactionID,
			)
			return nil
		}
		return fmt.Errorf("failed to archive ledger event %d: %w", event.TransactionID, err)
	}

	s.logger.Debug("Archived ledger event",
		"transaction_id", event.TransactionID,
		"user_id", event.UserID,
		"type", event.Type,
	)
	return nil
}
