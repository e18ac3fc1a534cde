// Package consumer handles ledger events arriving from Kafka and feeds them
// to the archive service.
package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/gem-platform/wallet-ledger/internal/audit_worker/service"
	"github.com/gem-platform/wallet-ledger/internal/domain/audit"
	"github.com/gem-platform/wallet-ledger/internal/platform/messaging/producers"
)

// LedgerEventHandler handles incoming ledger event messages from Kafka
type LedgerEventHandler struct {
	archiveService service.ArchiveService
	producer       producers.DeadLetterPublisher
	logger         *slog.Logger
}

// NewLedgerEventHandler creates a new handler
func NewLedgerEventHandler(
	logger *slog.Logger,
	archiveService service.ArchiveService,
	producer producers.DeadLetterPublisher,
) *LedgerEventHandler {
	return &LedgerEventHandler{
		archiveService: archiveService,
		producer:       producer,
		logger:         logger,
	}
}

// HandleMessage processes Kafka messages
func (h *LedgerEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var event audit.LedgerEvent
	if err := json.Unmarshal(value, &event); err != nil {
		unmarshalErrorMsg := "Failed to unmarshal ledger event from Kafka message"
		h.logger.Error(unmarshalErrorMsg,
			"error", err,
			"message_key", string(key),
		)

		// Send to DLQ if available
		if h.producer != nil {
			dlqReason := fmt.Sprintf("%s: %s", unmarshalErrorMsg, err.Error())
			if dlqErr := h.producer.PublishToDLQ(ctx, string(key), value, dlqReason); dlqErr != nil {
				h.logger.Error("Failed to publish message to DLQ after unmarshal error",
					"dlq_error", dlqErr,
					"original_error", err,
					"message_key", string(key),
				)
			} else {
				h.logger.Info("Published unprocessable message to DLQ", "message_key", string(key), "reason", dlqReason)
				// Message handled, commit offset
				return nil
			}
		}
		// Allow Kafka redelivery
		return fmt.Errorf("failed to unmarshal message value: %w", err)
	}

	logger := h.logger
	if event.CorrelationID != "" {
		logger = h.logger.With("correlation_id", event.CorrelationID)
	}

	logger.Info("Received ledger event for archiving",
		"transaction_id", event.TransactionID,
		"user_id", event.UserID,
		"type", event.Type,
		"amount", event.Amount,
	)

	if err := h.archiveService.ArchiveEvent(ctx, &event); err != nil {
		logger.Error("Failed to archive ledger event",
			"transaction_id", event.TransactionID,
			"error", err,
		)
		return fmt.Errorf("archiving ledger event %d failed: %w", event.TransactionID, err)
	}

	logger.Debug("Ledger event archived", "transaction_id", event.TransactionID)
	return nil // Success, commit offset
}
