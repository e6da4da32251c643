package ledger

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/studyflow/billing/internal/models"
	"github.com/studyflow/billing/pkg/logctx"
	"github.com/studyflow/billing/pkg/tool"
)

// Service is the idempotency ledger: an append-only set of webhook event ids
// that have already entered processing. The unique index on event_id is the
// correctness mechanism; HasProcessed is only a fast path to skip work.
type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func New(db *gorm.DB, log *zap.SugaredLogger) *Service { return &Service{db: db, log: log} }

// HasProcessed reports whether the event id is already in the ledger.
// A ledger read failure is treated as "not processed": availability is
// favored over strict exactly-once, the insert constraint still holds.
func (s *Service) HasProcessed(ctx context.Context, eventID string) bool {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.ProcessedEvent{}).
		Where("event_id = ?", eventID).
		Count(&count).Error
	if err != nil {
		logctx.FromCtx(ctx, s.log).Warnw("ledger_read_failed", "event_id", eventID, "error", err.Error())
		return false
	}
	return count > 0
}

// MarkProcessed inserts the event id into the ledger. A duplicate insert is
// success, not an error: the insert ignores conflicts on the unique event_id
// index so redelivered events stay safe to mark twice.
func (s *Service) MarkProcessed(ctx context.Context, eventID, eventType string) error {
	record := &models.ProcessedEvent{
		ID:        tool.GenerateUUIDV7(),
		EventID:   eventID,
		EventType: eventType,
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "event_id"}}, DoNothing: true}).
		Create(record).Error
	if err != nil {
		return fmt.Errorf("failed to mark event processed: %w", err)
	}
	return nil
}
