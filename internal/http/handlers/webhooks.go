package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Rajbabu19/phonepev2/internal/http/middleware"
	"github.com/Rajbabu19/phonepev2/internal/orders"
	"github.com/Rajbabu19/phonepev2/internal/phonepe"
)

type WebhookHandler struct {
	Logger   *slog.Logger
	Gateway  phonepe.Gateway
	Orders   orders.Store
	Username string
	Password string
}

func NewWebhookHandler(logger *slog.Logger, gw phonepe.Gateway, store orders.Store, username, password string) *WebhookHandler {
	return &WebhookHandler{Logger: logger, Gateway: gw, Orders: store, Username: username, Password: password}
}

// POST /api/phonepe/webhook
// The body stays raw: PhonePe's authorization check covers the exact
// bytes received, so nothing may JSON-decode it before validation.
func (h *WebhookHandler) Handle(c *gin.Context) {
	auth := c.GetHeader("Authorization")
	if auth == "" {
		c.String(http.StatusUnauthorized, "Unauthorized")
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.Logger.Error("webhook body read failed",
			"request_id", middleware.GetRequestID(c), "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Error processing webhook"})
		return
	}

	cb, err := h.Gateway.ValidateCallback(h.Username, h.Password, auth, string(body))
	if err != nil {
		if pe, ok := phonepe.AsError(err); ok {
			h.Logger.Warn("webhook validation failed",
				"request_id", middleware.GetRequestID(c), "code", pe.Code, "err", err)
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": pe.Message})
			return
		}
		h.Logger.Error("webhook processing failed",
			"request_id", middleware.GetRequestID(c), "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Error processing webhook"})
		return
	}

	if err := h.dispatch(c, cb); err != nil {
		h.Logger.Error("webhook dispatch failed",
			"request_id", middleware.GetRequestID(c), "event", cb.Type, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Error processing webhook"})
		return
	}

	// 200 tells PhonePe to stop retrying, including for events we
	// take no action on
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Webhook processed"})
}

func (h *WebhookHandler) dispatch(c *gin.Context, cb *phonepe.CallbackResponse) error {
	ctx := c.Request.Context()

	switch {
	case cb.Type == phonepe.EventCheckoutOrderCompleted:
		switch cb.Payload.State {
		case phonepe.StateCompleted:
			return h.Orders.MarkPaid(ctx, cb.Payload.OriginalMerchantOrderID)
		case phonepe.StateFailed:
			return h.Orders.MarkFailed(ctx, cb.Payload.OriginalMerchantOrderID)
		default:
			h.Logger.Info("webhook state ignored",
				"request_id", middleware.GetRequestID(c), "event", cb.Type, "state", cb.Payload.State)
			return nil
		}
	case strings.HasPrefix(cb.Type, phonepe.EventRefundPrefix):
		return h.Orders.RecordRefund(ctx, cb.Payload.MerchantRefundID)
	default:
		h.Logger.Info("webhook event ignored",
			"request_id", middleware.GetRequestID(c), "event", cb.Type)
		return nil
	}
}
