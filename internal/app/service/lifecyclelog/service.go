package lifecyclelog

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/studyflow/billing/internal/models"
	"github.com/studyflow/billing/pkg/logctx"
	"github.com/studyflow/billing/pkg/tool"
)

// Service appends subscription state transitions to the lifecycle log.
type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func New(db *gorm.DB, log *zap.SugaredLogger) *Service { return &Service{db: db, log: log} }

// Entry describes one state transition. Previous/New status are nil when the
// event carries no before/after status (e.g. invoice events).
type Entry struct {
	SubscriptionID string
	CustomerID     string
	UserID         *string
	EventType      string
	PreviousStatus *string
	NewStatus      *string
	Metadata       map[string]any
}

// Record appends an entry. A write failure is logged and swallowed: the
// lifecycle log is best-effort relative to notification dispatch and must
// never block it.
func (s *Service) Record(ctx context.Context, e *Entry) {
	if e == nil {
		return
	}
	row := &models.LifecycleLog{
		ID:             tool.GenerateUUIDV7(),
		SubscriptionID: e.SubscriptionID,
		CustomerID:     e.CustomerID,
		UserID:         e.UserID,
		EventType:      e.EventType,
		PreviousStatus: e.PreviousStatus,
		NewStatus:      e.NewStatus,
		Metadata:       datatypes.JSONMap(e.Metadata),
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		logctx.FromCtx(ctx, s.log).Errorw("lifecycle_log_write_failed",
			"subscription_id", e.SubscriptionID,
			"event_type", e.EventType,
			"error", err.Error(),
		)
	}
}
