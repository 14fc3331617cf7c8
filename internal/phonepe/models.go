package phonepe

import "encoding/json"

// Callback event types and payment states used by the dispatch in the
// webhook handler. Refund events share a common prefix and are not
// distinguished further.
const (
	EventCheckoutOrderCompleted = "CHECKOUT_ORDER_COMPLETED"
	EventCheckoutOrderFailed    = "CHECKOUT_ORDER_FAILED"
	EventRefundPrefix           = "PG_REFUND"

	StateCompleted = "COMPLETED"
	StateFailed    = "FAILED"
	StatePending   = "PENDING"
)

// MetaInfo carries the free-form udf tags echoed back in callbacks.
type MetaInfo struct {
	UDF1 string `json:"udf1,omitempty"`
	UDF2 string `json:"udf2,omitempty"`
	UDF3 string `json:"udf3,omitempty"`
	UDF4 string `json:"udf4,omitempty"`
	UDF5 string `json:"udf5,omitempty"`
}

// PayRequest describes a Standard Checkout payment. Amount is in minor
// units (paise). ExpireAfter is in seconds; zero leaves it to the
// gateway default.
type PayRequest struct {
	MerchantOrderID string
	Amount          int64
	RedirectURL     string
	ExpireAfter     int64
	MetaInfo        *MetaInfo
}

type payBody struct {
	MerchantOrderID string    `json:"merchantOrderId"`
	Amount          int64     `json:"amount"`
	ExpireAfter     int64     `json:"expireAfter,omitempty"`
	MetaInfo        *MetaInfo `json:"metaInfo,omitempty"`
	PaymentFlow     payFlow   `json:"paymentFlow"`
}

type payFlow struct {
	Type         string       `json:"type"`
	MerchantURLs merchantURLs `json:"merchantUrls"`
}

type merchantURLs struct {
	RedirectURL string `json:"redirectUrl"`
}

// PayResponse is the gateway's answer to a pay call. Raw holds the
// response body exactly as received so callers can relay it untouched.
type PayResponse struct {
	OrderID     string `json:"orderId"`
	State       string `json:"state"`
	ExpireAt    int64  `json:"expireAt"`
	RedirectURL string `json:"redirectUrl"`

	Raw json.RawMessage `json:"-"`
}

// CallbackResponse is a validated webhook notification.
type CallbackResponse struct {
	Type    string
	Payload CallbackPayload
}

// CallbackPayload is the union of the fields the known event types
// carry; absent fields stay zero.
type CallbackPayload struct {
	OrderID                 string `json:"orderId,omitempty"`
	MerchantOrderID         string `json:"merchantOrderId,omitempty"`
	OriginalMerchantOrderID string `json:"originalMerchantOrderId,omitempty"`
	RefundID                string `json:"refundId,omitempty"`
	MerchantRefundID        string `json:"merchantRefundId,omitempty"`
	State                   string `json:"state,omitempty"`
	Amount                  int64  `json:"amount,omitempty"`
	ErrorCode               string `json:"errorCode,omitempty"`
}

// callbackEnvelope tolerates both field names PhonePe has used for the
// event type over time.
type callbackEnvelope struct {
	Type    string          `json:"type"`
	Event   string          `json:"event"`
	Payload CallbackPayload `json:"payload"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   int64  `json:"expires_at"`
	TokenType   string `json:"token_type"`
}

type errorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data"`
}
