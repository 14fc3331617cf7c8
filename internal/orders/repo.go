package orders

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repo applies webhook notifications to the shop database.
type Repo struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db, logger: slog.Default()}
}

func (r *Repo) SetLogger(logger *slog.Logger) {
	r.logger = logger
}

func (r *Repo) MarkPaid(ctx context.Context, merchantOrderID string) error {
	now := time.Now()
	res := r.db.WithContext(ctx).Model(&Order{}).
		Where("merchant_order_id = ?", merchantOrderID).
		Updates(map[string]any{
			"status":     StatusPaid,
			"paid_at":    &now,
			"updated_at": now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		r.logger.WarnContext(ctx, "mark paid matched no order", "merchant_order_id", merchantOrderID)
	}
	return nil
}

func (r *Repo) MarkFailed(ctx context.Context, merchantOrderID string) error {
	res := r.db.WithContext(ctx).Model(&Order{}).
		Where("merchant_order_id = ?", merchantOrderID).
		Updates(map[string]any{
			"status":     StatusFailed,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		r.logger.WarnContext(ctx, "mark failed matched no order", "merchant_order_id", merchantOrderID)
	}
	return nil
}

func (r *Repo) RecordRefund(ctx context.Context, merchantRefundID string) error {
	ref := OrderRefund{
		ID:               uuid.NewString(),
		MerchantRefundID: merchantRefundID,
		ReceivedAt:       time.Now(),
	}
	return r.db.WithContext(ctx).Create(&ref).Error
}
