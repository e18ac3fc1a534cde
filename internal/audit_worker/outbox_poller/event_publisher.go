// Package outbox_poller drains staged outbox rows into the Kafka ledger
// event stream.
package outbox_poller

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/gem-platform/wallet-ledger/internal/domain/outbox"
	"github.com/gem-platform/wallet-ledger/internal/platform/messaging/producers"
)

// EventPublisher publishes one outbox message to the ledger event stream
type EventPublisher interface {
	PublishEvent(ctx context.Context, message *outbox.Message) error
}

// EventPublisherImpl implements EventPublisher over a Kafka producer. An
// outbox row is deleted only after the broker acknowledged its event, so a
// crash between publish and delete yields a duplicate rather than a loss.
type EventPublisherImpl struct {
	outboxRepo outbox.Repository
	producer   producers.MessagePublisher
	logger     *slog.Logger
}

// NewEventPublisher creates a new publisher
func NewEventPublisher(
	outboxRepo outbox.Repository,
	producer producers.MessagePublisher,
	logger *slog.Logger,
) EventPublisher {
	return &EventPublisherImpl{
		outboxRepo: outboxRepo,
		producer:   producer,
		logger:     logger,
	}
}

// PublishEvent publishes the event carried by the message and removes the row
func (p *EventPublisherImpl) PublishEvent(ctx context.Context, message *outbox.Message) error {
	event, err := message.LedgerEvent()
	if err != nil {
		p.logger.Error("Failed to unmarshal ledger event from outbox payload",
			"outbox_id", message.ID, "transaction_id", message.TransactionID, "error", err,
		)
		// A poisoned payload never becomes publishable; park the row
		if updateErr := p.outboxRepo.UpdateStatus(ctx, message.ID, outbox.StatusFailedToPublish); updateErr != nil {
			p.logger.Error("Also failed to update outbox status after unmarshal error", "outbox_id", message.ID, "update_error", updateErr)
		}
		return fmt.Errorf("unmarshal payload for outbox %d failed: %w", message.ID, err)
	}

	logger := p.logger
	if event.CorrelationID != "" {
		logger = p.logger.With("correlation_id", event.CorrelationID)
	}

	key := strconv.FormatInt(message.TransactionID, 10)
	if err := p.producer.Publish(ctx, key, event); err != nil {
		return fmt.Errorf("failed to publish outbox message %d to kafka: %w", message.ID, err)
	}

	if err := p.outboxRepo.Delete(ctx, message.ID); err != nil {
		logger.Error("Published ledger event but failed to delete outbox row",
			"outbox_id", message.ID, "transaction_id", message.TransactionID, "error", err,
		)
		return fmt.Errorf("event for %d published, but failed to delete outbox %d: %w", message.TransactionID, message.ID, err)
	}

	logger.Info("Outbox message published and removed", "outbox_id", message.ID, "transaction_id", message.TransactionID)
	return nil
}
