package handlers

import (
	"log/slog"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Rajbabu19/phonepev2/internal/http/middleware"
	"github.com/Rajbabu19/phonepev2/internal/http/validation"
	"github.com/Rajbabu19/phonepev2/internal/phonepe"
	"github.com/Rajbabu19/phonepev2/internal/shared/apperr"
)

// udf fields are capped at 255 by the gateway
const udfMaxLen = 255

type PaymentHandler struct {
	Logger  *slog.Logger
	Gateway phonepe.Gateway
}

func NewPaymentHandler(logger *slog.Logger, gw phonepe.Gateway) *PaymentHandler {
	return &PaymentHandler{Logger: logger, Gateway: gw}
}

type customerDetails struct {
	CustomerName string `json:"customer_name"`
}

type orderData struct {
	Amount          float64          `json:"amount"`
	CustomerDetails *customerDetails `json:"customer_details"`
	ProductName     string           `json:"product_name"`
}

type payInput struct {
	OrderData *orderData `json:"orderData" binding:"required"`
	ReturnURL string     `json:"returnUrl" binding:"required"`
}

// POST /api/phonepe/pay
// Amount arrives in rupees and is converted to paise; the order id
// generated here is what later webhook events are correlated by.
func (h *PaymentHandler) Pay(c *gin.Context) {
	var in payInput
	if err := c.ShouldBindJSON(&in); err != nil {
		errs := validation.FromBindError(err, &in)
		middleware.Fail(c, apperr.InvalidErr("orderData and returnUrl are required", errs))
		return
	}

	merchantOrderID := "MUID-" + uuid.NewString()[:8]
	paise := int64(math.Round(in.OrderData.Amount)) * 100

	meta := &phonepe.MetaInfo{
		UDF1: truncate(in.OrderData.ProductName, udfMaxLen),
	}
	if cd := in.OrderData.CustomerDetails; cd != nil {
		meta.UDF2 = cd.CustomerName
	}

	h.Logger.Info("initiating payment",
		"request_id", middleware.GetRequestID(c),
		"merchant_order_id", merchantOrderID,
		"amount_paise", paise,
	)

	resp, err := h.Gateway.Pay(c.Request.Context(), phonepe.PayRequest{
		MerchantOrderID: merchantOrderID,
		Amount:          paise,
		RedirectURL:     in.ReturnURL,
		MetaInfo:        meta,
	})
	if err != nil {
		if _, ok := phonepe.AsError(err); ok {
			middleware.Fail(c, err)
			return
		}
		middleware.Fail(c, apperr.InternalErr("Error initiating payment", err))
		return
	}

	// relay the gateway body untouched so the checkout page sees
	// exactly what PhonePe returned
	c.Data(http.StatusOK, "application/json; charset=utf-8", resp.Raw)
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n]
}
