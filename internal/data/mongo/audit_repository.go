// Package mongo provides the MongoDB implementation of the audit archive.
// The archive is a read model fed by the outbox pipeline; it never serves
// balance decisions.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gem-platform/wallet-ledger/internal/domain/audit"
)

const (
	// AuditCollectionName is the name of the archived events collection
	AuditCollectionName = "ledger_events"
)

// AuditRepository implements the audit.ArchiveRepository interface for MongoDB
type AuditRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewAuditRepository creates a new MongoDB audit archive repository
func NewAuditRepository(logger *slog.Logger, db *mongo.Database) audit.ArchiveRepository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

// Insert archives a ledger event, stamping ArchivedAt. Redelivered events
// are detected by transaction ID and surface as ErrDuplicateEvent so the
// consumer can acknowledge without archiving twice.
func (r *AuditRepository) Insert(ctx context.Context, event *audit.LedgerEvent) error {
	collection := r.db.Collection(AuditCollectionName)

	existing, err := r.GetByTransactionID(ctx, event.TransactionID)
	if err != nil && !errors.Is(err, audit.ErrEventNotFound{}) {
		r.logger.Error("Failed to check for existing audit event",
			"transaction_id", event.TransactionID,
			"error", err)
		return fmt.Errorf("failed to check for existing audit event: %w", err)
	}

	if existing != nil {
		return audit.ErrDuplicateEvent{TransactionID: event.TransactionID}
	}

	event.ArchivedAt = time.Now()

	if _, err := collection.InsertOne(ctx, event); err != nil {
		r.logger.Error("Failed to archive audit event",
			"transaction_id", event.TransactionID,
			"error", err)
		return fmt.Errorf("failed to archive audit event: %w", err)
	}

	return nil
}

// GetByTransactionID retrieves an archived event by its journal record ID.
// Returns ErrEventNotFound if the event has not been archived.
func (r *AuditRepository) GetByTransactionID(ctx context.Context, transactionID int64) (*audit.LedgerEvent, error) {
	collection := r.db.Collection(AuditCollectionName)

	filter := bson.M{"transaction_id": transactionID}
	var event audit.LedgerEvent
	err := collection.FindOne(ctx, filter).Decode(&event)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, audit.ErrEventNotFound{TransactionID: transactionID}
		}
		r.logger.Error("Failed to get audit event",
			"transaction_id", transactionID,
			"error", err)
		return nil, fmt.Errorf("failed to get audit event: %w", err)
	}

	return &event, nil
}

// GetByUserID retrieves paginated archived events for a user, newest first
func (r *AuditRepository) GetByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*audit.LedgerEvent, error) {
	collection := r.db.Collection(AuditCollectionName)

	filter := bson.M{"user_id": userID}
	opts := options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to get audit events",
			"user_id", userID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get audit events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []*audit.LedgerEvent
	if err := cursor.All(ctx, &events); err != nil {
		r.logger.Error("Failed to decode audit events",
			"user_id", userID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to decode audit events: %w", err)
	}

	return events, nil
}

// CountByUserID counts the total archived events for a user
func (r *AuditRepository) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	collection := r.db.Collection(AuditCollectionName)

	filter := bson.M{"user_id": userID}
	count, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		r.logger.Error("Failed to count audit events",
			"user_id", userID.String(),
			"error", err)
		return 0, fmt.Errorf("failed to count audit events: %w", err)
	}

	return count, nil
}

// GetByTimeRange retrieves paginated archived events within the time window,
// newest first
func (r *AuditRepository) GetByTimeRange(ctx context.Context, start, end time.Time, limit, offset int) ([]*audit.LedgerEvent, error) {
	collection := r.db.Collection(AuditCollectionName)

	filter := bson.M{
		"created_at": bson.M{
			"$gte": start,
			"$lte": end,
		},
	}
	opts := options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to get audit events by time range",
			"start", start,
			"end", end,
			"error", err)
		return nil, fmt.Errorf("failed to get audit events by time range: %w", err)
	}
	defer cursor.Close(ctx)

	var events []*audit.LedgerEvent
	if err := cursor.All(ctx, &events); err != nil {
		r.logger.Error("Failed to decode audit events",
			"start", start,
			"end", end,
			"error", err)
		return nil, fmt.Errorf("failed to decode audit events: %w", err)
	}

	return events, nil
}
