package orders

import (
	"context"
	"log/slog"
)

// Store is the order-tracking collaborator the webhook dispatch calls
// into. The shop owns the order lifecycle; the relay only reports the
// transitions the gateway confirmed.
type Store interface {
	MarkPaid(ctx context.Context, merchantOrderID string) error
	MarkFailed(ctx context.Context, merchantOrderID string) error
	RecordRefund(ctx context.Context, merchantRefundID string) error
}

// LogStore satisfies Store without a database. Used when DB_DSN is
// unset so the relay can run standalone against the sandbox.
type LogStore struct {
	Logger *slog.Logger
}

func (s *LogStore) MarkPaid(ctx context.Context, merchantOrderID string) error {
	s.Logger.InfoContext(ctx, "order paid, no database configured", "merchant_order_id", merchantOrderID)
	return nil
}

func (s *LogStore) MarkFailed(ctx context.Context, merchantOrderID string) error {
	s.Logger.InfoContext(ctx, "order failed, no database configured", "merchant_order_id", merchantOrderID)
	return nil
}

func (s *LogStore) RecordRefund(ctx context.Context, merchantRefundID string) error {
	s.Logger.InfoContext(ctx, "refund received, no database configured", "merchant_refund_id", merchantRefundID)
	return nil
}
