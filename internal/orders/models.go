package orders

import "time"

const (
	StatusPaid   = "paid"
	StatusFailed = "failed"
)

// Order mirrors the shop's orders table. The shop creates rows at
// checkout; the relay only flips status from webhook notifications,
// correlated by the merchant order id sent with the pay call.
type Order struct {
	ID              string     `gorm:"type:char(36);primaryKey"`
	MerchantOrderID string     `gorm:"type:varchar(64);not null;uniqueIndex:ux_orders_merchant_order_id"`
	Status          string     `gorm:"type:varchar(32);not null"`
	PaidAt          *time.Time `gorm:"type:datetime(3)"`
	CreatedAt       time.Time  `gorm:"type:datetime(3);not null"`
	UpdatedAt       time.Time  `gorm:"type:datetime(3);not null"`
}

func (Order) TableName() string { return "orders" }

// OrderRefund records every refund notification for reconciliation.
type OrderRefund struct {
	ID               string    `gorm:"type:char(36);primaryKey"`
	MerchantRefundID string    `gorm:"type:varchar(64);not null;index:ix_order_refunds_merchant_refund_id"`
	ReceivedAt       time.Time `gorm:"type:datetime(3);not null"`
}

func (OrderRefund) TableName() string { return "order_refunds" }
