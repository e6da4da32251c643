package purchases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/studyflow/billing/internal/models"
	"github.com/studyflow/billing/pkg/logctx"
	"github.com/studyflow/billing/pkg/tool"
)

// Service owns the purchase-record write paths driven by webhook events.
type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func New(db *gorm.DB, log *zap.SugaredLogger) *Service { return &Service{db: db, log: log} }

// Activate records an active purchase for a user. Re-activation for the same
// user/subscription pair updates the existing row instead of duplicating it,
// so a redelivered checkout event is safe.
func (s *Service) Activate(ctx context.Context, userID, productID, subscriptionID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Purchase
		err := tx.Where("user_id = ? AND subscription_id = ?", userID, subscriptionID).
			First(&existing).Error
		if err == nil {
			existing.Status = models.PurchaseStatusActive
			existing.ProductID = productID
			existing.AccessUntil = nil
			if err := tx.Save(&existing).Error; err != nil {
				return fmt.Errorf("failed to reactivate purchase: %w", err)
			}
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to load purchase: %w", err)
		}
		row := &models.Purchase{
			ID:             tool.GenerateUUIDV7(),
			UserID:         userID,
			ProductID:      productID,
			SubscriptionID: subscriptionID,
			Status:         models.PurchaseStatusActive,
		}
		if err := tx.Create(row).Error; err != nil {
			return fmt.Errorf("failed to create purchase: %w", err)
		}
		return nil
	})
}

// CancelBySubscription marks all purchases for a subscription cancelled,
// keeping access open until the end of the already-paid billing period.
func (s *Service) CancelBySubscription(ctx context.Context, subscriptionID string, accessUntil time.Time) error {
	res := s.db.WithContext(ctx).
		Model(&models.Purchase{}).
		Where("subscription_id = ?", subscriptionID).
		Updates(map[string]any{
			"status":       models.PurchaseStatusCancelled,
			"access_until": accessUntil,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to cancel purchases: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		logctx.FromCtx(ctx, s.log).Warnw("cancel_no_purchase_rows", "subscription_id", subscriptionID)
	}
	return nil
}
