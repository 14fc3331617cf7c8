package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	apphttp "github.com/Rajbabu19/phonepev2/internal/http"
	"github.com/Rajbabu19/phonepev2/internal/phonepe"
)

type fakeGateway struct {
	payFn      func(ctx context.Context, p phonepe.PayRequest) (*phonepe.PayResponse, error)
	validateFn func(username, password, authorization, body string) (*phonepe.CallbackResponse, error)

	payCalls      []phonepe.PayRequest
	validateCalls int
}

func (f *fakeGateway) Pay(ctx context.Context, p phonepe.PayRequest) (*phonepe.PayResponse, error) {
	f.payCalls = append(f.payCalls, p)
	if f.payFn == nil {
		return &phonepe.PayResponse{Raw: json.RawMessage(`{"state":"PENDING"}`)}, nil
	}
	return f.payFn(ctx, p)
}

func (f *fakeGateway) ValidateCallback(username, password, authorization, body string) (*phonepe.CallbackResponse, error) {
	f.validateCalls++
	if f.validateFn == nil {
		return &phonepe.CallbackResponse{}, nil
	}
	return f.validateFn(username, password, authorization, body)
}

type fakeStore struct {
	paid    []string
	failed  []string
	refunds []string
	err     error
}

func (f *fakeStore) MarkPaid(ctx context.Context, merchantOrderID string) error {
	f.paid = append(f.paid, merchantOrderID)
	return f.err
}

func (f *fakeStore) MarkFailed(ctx context.Context, merchantOrderID string) error {
	f.failed = append(f.failed, merchantOrderID)
	return f.err
}

func (f *fakeStore) RecordRefund(ctx context.Context, merchantRefundID string) error {
	f.refunds = append(f.refunds, merchantRefundID)
	return f.err
}

type errBody struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Error   string            `json:"error"`
	Fields  map[string]string `json:"fields"`
}

func newTestRouter(t *testing.T, gw *fakeGateway, store *fakeStore) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return apphttp.NewRouter(apphttp.Deps{
		Logger:          logger,
		Gateway:         gw,
		Orders:          store,
		WebhookUsername: "merchant",
		WebhookPassword: "s3cret",
	})
}

func doPost(t *testing.T, r *gin.Engine, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeErr(t *testing.T, w *httptest.ResponseRecorder) errBody {
	t.Helper()
	var out errBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestPayConvertsAmountAndGeneratesOrderID(t *testing.T) {
	gw := &fakeGateway{
		payFn: func(ctx context.Context, p phonepe.PayRequest) (*phonepe.PayResponse, error) {
			return &phonepe.PayResponse{Raw: json.RawMessage(`{"orderId":"OMO1","state":"PENDING","redirectUrl":"https://mercury.phonepe.com/transact/x"}`)}, nil
		},
	}
	r := newTestRouter(t, gw, &fakeStore{})

	w := doPost(t, r, "/api/phonepe/pay", `{
		"orderData": {
			"amount": 149.99,
			"customer_details": {"customer_name": "Asha Rao"},
			"product_name": "Annual Plan"
		},
		"returnUrl": "https://shop.example/checkout/return"
	}`, nil)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Header().Get("Content-Type"), "application/json")
	// relayed verbatim, not re-encoded
	require.Equal(t, `{"orderId":"OMO1","state":"PENDING","redirectUrl":"https://mercury.phonepe.com/transact/x"}`, w.Body.String())

	require.Len(t, gw.payCalls, 1)
	p := gw.payCalls[0]
	require.Equal(t, int64(15000), p.Amount) // round(149.99) = 150 rupees
	require.Regexp(t, regexp.MustCompile(`^MUID-[0-9a-f]{8}$`), p.MerchantOrderID)
	require.Equal(t, "https://shop.example/checkout/return", p.RedirectURL)
	require.NotNil(t, p.MetaInfo)
	require.Equal(t, "Annual Plan", p.MetaInfo.UDF1)
	require.Equal(t, "Asha Rao", p.MetaInfo.UDF2)
}

func TestPayRoundsBeforeScaling(t *testing.T) {
	gw := &fakeGateway{}
	r := newTestRouter(t, gw, &fakeStore{})

	w := doPost(t, r, "/api/phonepe/pay", `{
		"orderData": {"amount": 99.4, "product_name": "Sticker"},
		"returnUrl": "https://shop.example/return"
	}`, nil)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, gw.payCalls, 1)
	require.Equal(t, int64(9900), gw.payCalls[0].Amount)
}

func TestPayMissingFieldsRejectedWithoutGatewayCall(t *testing.T) {
	cases := map[string]string{
		"empty object":      `{}`,
		"missing returnUrl": `{"orderData": {"amount": 10}}`,
		"missing orderData": `{"returnUrl": "https://shop.example/return"}`,
		"malformed json":    `{"orderData": `,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			gw := &fakeGateway{}
			r := newTestRouter(t, gw, &fakeStore{})

			w := doPost(t, r, "/api/phonepe/pay", body, nil)

			require.Equal(t, http.StatusBadRequest, w.Code)
			require.Empty(t, gw.payCalls)

			out := decodeErr(t, w)
			require.False(t, out.Success)
			require.Equal(t, "orderData and returnUrl are required", out.Message)
		})
	}
}

func TestPayVendorErrorKeepsStatusAndCode(t *testing.T) {
	gw := &fakeGateway{
		payFn: func(ctx context.Context, p phonepe.PayRequest) (*phonepe.PayResponse, error) {
			return nil, &phonepe.Error{
				Code:       "KEY_NOT_CONFIGURED",
				Message:    "Key not found for the merchant",
				HTTPStatus: http.StatusBadRequest,
			}
		},
	}
	r := newTestRouter(t, gw, &fakeStore{})

	w := doPost(t, r, "/api/phonepe/pay", `{
		"orderData": {"amount": 10},
		"returnUrl": "https://shop.example/return"
	}`, nil)

	require.Equal(t, http.StatusBadRequest, w.Code)
	out := decodeErr(t, w)
	require.False(t, out.Success)
	require.Equal(t, "Key not found for the merchant", out.Message)
	require.Equal(t, "KEY_NOT_CONFIGURED", out.Code)
}

func TestPayVendorErrorWithoutStatusIs500(t *testing.T) {
	gw := &fakeGateway{
		payFn: func(ctx context.Context, p phonepe.PayRequest) (*phonepe.PayResponse, error) {
			return nil, &phonepe.Error{Code: "INTERNAL_SERVER_ERROR", Message: "Something went wrong on our side"}
		},
	}
	r := newTestRouter(t, gw, &fakeStore{})

	w := doPost(t, r, "/api/phonepe/pay", `{
		"orderData": {"amount": 10},
		"returnUrl": "https://shop.example/return"
	}`, nil)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	out := decodeErr(t, w)
	require.Equal(t, "INTERNAL_SERVER_ERROR", out.Code)
}

func TestPayGenericErrorIs500WithErrorText(t *testing.T) {
	gw := &fakeGateway{
		payFn: func(ctx context.Context, p phonepe.PayRequest) (*phonepe.PayResponse, error) {
			return nil, errors.New("dial tcp 10.0.0.1:443: connection refused")
		},
	}
	r := newTestRouter(t, gw, &fakeStore{})

	w := doPost(t, r, "/api/phonepe/pay", `{
		"orderData": {"amount": 10},
		"returnUrl": "https://shop.example/return"
	}`, nil)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	out := decodeErr(t, w)
	require.False(t, out.Success)
	require.Equal(t, "Error initiating payment", out.Message)
	require.Contains(t, out.Error, "connection refused")
}

func TestPayTruncatesProductNameNotCustomerName(t *testing.T) {
	gw := &fakeGateway{}
	r := newTestRouter(t, gw, &fakeStore{})

	longName := strings.Repeat("p", 300)
	longCustomer := strings.Repeat("c", 300)
	body, err := json.Marshal(gin.H{
		"orderData": gin.H{
			"amount":           10,
			"product_name":     longName,
			"customer_details": gin.H{"customer_name": longCustomer},
		},
		"returnUrl": "https://shop.example/return",
	})
	require.NoError(t, err)

	w := doPost(t, r, "/api/phonepe/pay", string(body), nil)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, gw.payCalls, 1)
	meta := gw.payCalls[0].MetaInfo
	require.Len(t, meta.UDF1, 255)
	require.Len(t, meta.UDF2, 300)
}

func TestWebhookMissingAuthShortCircuits(t *testing.T) {
	gw := &fakeGateway{}
	r := newTestRouter(t, gw, &fakeStore{})

	w := doPost(t, r, "/api/phonepe/webhook", `{"type":"CHECKOUT_ORDER_COMPLETED"}`, nil)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "Unauthorized", w.Body.String())
	require.Zero(t, gw.validateCalls)
}

func TestWebhookPassesCredentialsHeaderAndRawBody(t *testing.T) {
	var gotUser, gotPass, gotAuth, gotBody string
	gw := &fakeGateway{
		validateFn: func(username, password, authorization, body string) (*phonepe.CallbackResponse, error) {
			gotUser, gotPass, gotAuth, gotBody = username, password, authorization, body
			return &phonepe.CallbackResponse{Type: "PG_ORDER_UPDATED"}, nil
		},
	}
	r := newTestRouter(t, gw, &fakeStore{})

	raw := `{"type":"PG_ORDER_UPDATED","payload":{"state":"PENDING"}}`
	w := doPost(t, r, "/api/phonepe/webhook", raw, map[string]string{"Authorization": "deadbeef"})

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "merchant", gotUser)
	require.Equal(t, "s3cret", gotPass)
	require.Equal(t, "deadbeef", gotAuth)
	require.Equal(t, raw, gotBody)
}

func TestWebhookInvalidAuthReturnsGatewayMessage(t *testing.T) {
	gw := &fakeGateway{
		validateFn: func(_, _, _, _ string) (*phonepe.CallbackResponse, error) {
			return nil, &phonepe.Error{
				Code:       "INVALID_CALLBACK",
				Message:    "callback authorization mismatch",
				HTTPStatus: http.StatusUnauthorized,
			}
		},
	}
	store := &fakeStore{}
	r := newTestRouter(t, gw, store)

	w := doPost(t, r, "/api/phonepe/webhook", `{}`, map[string]string{"Authorization": "wrong"})

	require.Equal(t, http.StatusUnauthorized, w.Code)
	out := decodeErr(t, w)
	require.False(t, out.Success)
	require.Equal(t, "callback authorization mismatch", out.Message)
	require.Empty(t, store.paid)
	require.Empty(t, store.failed)
	require.Empty(t, store.refunds)
}

func TestWebhookCompletedMarksPaid(t *testing.T) {
	gw := &fakeGateway{
		validateFn: func(_, _, _, _ string) (*phonepe.CallbackResponse, error) {
			return &phonepe.CallbackResponse{
				Type: phonepe.EventCheckoutOrderCompleted,
				Payload: phonepe.CallbackPayload{
					State:                   phonepe.StateCompleted,
					OriginalMerchantOrderID: "MUID-1234abcd",
				},
			}, nil
		},
	}
	store := &fakeStore{}
	r := newTestRouter(t, gw, store)

	w := doPost(t, r, "/api/phonepe/webhook", `{}`, map[string]string{"Authorization": "deadbeef"})

	require.Equal(t, http.StatusOK, w.Code)
	var out struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.True(t, out.Success)

	require.Equal(t, []string{"MUID-1234abcd"}, store.paid)
	require.Empty(t, store.failed)
	require.Empty(t, store.refunds)
}

func TestWebhookFailedStateMarksFailed(t *testing.T) {
	gw := &fakeGateway{
		validateFn: func(_, _, _, _ string) (*phonepe.CallbackResponse, error) {
			return &phonepe.CallbackResponse{
				Type: phonepe.EventCheckoutOrderCompleted,
				Payload: phonepe.CallbackPayload{
					State:                   phonepe.StateFailed,
					OriginalMerchantOrderID: "MUID-1234abcd",
				},
			}, nil
		},
	}
	store := &fakeStore{}
	r := newTestRouter(t, gw, store)

	w := doPost(t, r, "/api/phonepe/webhook", `{}`, map[string]string{"Authorization": "deadbeef"})

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, []string{"MUID-1234abcd"}, store.failed)
	require.Empty(t, store.paid)
}

func TestWebhookPendingStateTakesNoAction(t *testing.T) {
	gw := &fakeGateway{
		validateFn: func(_, _, _, _ string) (*phonepe.CallbackResponse, error) {
			return &phonepe.CallbackResponse{
				Type:    phonepe.EventCheckoutOrderCompleted,
				Payload: phonepe.CallbackPayload{State: phonepe.StatePending, OriginalMerchantOrderID: "MUID-1234abcd"},
			}, nil
		},
	}
	store := &fakeStore{}
	r := newTestRouter(t, gw, store)

	w := doPost(t, r, "/api/phonepe/webhook", `{}`, map[string]string{"Authorization": "deadbeef"})

	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, store.paid)
	require.Empty(t, store.failed)
	require.Empty(t, store.refunds)
}

func TestWebhookRefundEventRecordsRefund(t *testing.T) {
	gw := &fakeGateway{
		validateFn: func(_, _, _, _ string) (*phonepe.CallbackResponse, error) {
			return &phonepe.CallbackResponse{
				Type:    "PG_REFUND_ACCEPTED",
				Payload: phonepe.CallbackPayload{MerchantRefundID: "REFUND-77aa88bb"},
			}, nil
		},
	}
	store := &fakeStore{}
	r := newTestRouter(t, gw, store)

	w := doPost(t, r, "/api/phonepe/webhook", `{}`, map[string]string{"Authorization": "deadbeef"})

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, []string{"REFUND-77aa88bb"}, store.refunds)
	require.Empty(t, store.paid)
	require.Empty(t, store.failed)
}

func TestWebhookUnknownEventStillAcknowledged(t *testing.T) {
	// CHECKOUT_ORDER_FAILED is in PhonePe's vocabulary but only the
	// COMPLETED event's state field drives order updates.
	for _, event := range []string{"SUBSCRIPTION_CANCELLED", phonepe.EventCheckoutOrderFailed} {
		t.Run(event, func(t *testing.T) {
			gw := &fakeGateway{
				validateFn: func(_, _, _, _ string) (*phonepe.CallbackResponse, error) {
					return &phonepe.CallbackResponse{Type: event}, nil
				},
			}
			store := &fakeStore{}
			r := newTestRouter(t, gw, store)

			w := doPost(t, r, "/api/phonepe/webhook", `{}`, map[string]string{"Authorization": "deadbeef"})

			require.Equal(t, http.StatusOK, w.Code)
			require.Empty(t, store.paid)
			require.Empty(t, store.failed)
			require.Empty(t, store.refunds)
		})
	}
}

func TestWebhookStoreErrorIs500Generic(t *testing.T) {
	gw := &fakeGateway{
		validateFn: func(_, _, _, _ string) (*phonepe.CallbackResponse, error) {
			return &phonepe.CallbackResponse{
				Type:    phonepe.EventCheckoutOrderCompleted,
				Payload: phonepe.CallbackPayload{State: phonepe.StateCompleted, OriginalMerchantOrderID: "MUID-1234abcd"},
			}, nil
		},
	}
	store := &fakeStore{err: errors.New("db is down")}
	r := newTestRouter(t, gw, store)

	w := doPost(t, r, "/api/phonepe/webhook", `{}`, map[string]string{"Authorization": "deadbeef"})

	require.Equal(t, http.StatusInternalServerError, w.Code)
	out := decodeErr(t, w)
	require.False(t, out.Success)
	require.Equal(t, "Error processing webhook", out.Message)
	require.NotContains(t, w.Body.String(), "db is down")
}

func TestHealthz(t *testing.T) {
	r := newTestRouter(t, &fakeGateway{}, &fakeStore{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestUnknownRouteIs404JSON(t *testing.T) {
	r := newTestRouter(t, &fakeGateway{}, &fakeStore{})

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
	out := decodeErr(t, w)
	require.False(t, out.Success)
	require.Equal(t, "Route not found", out.Message)
}

func TestRequestIDEchoedAndGenerated(t *testing.T) {
	r := newTestRouter(t, &fakeGateway{}, &fakeStore{})

	w := doPost(t, r, "/api/phonepe/pay", `{}`, map[string]string{"X-Request-ID": "rid-123"})
	require.Equal(t, "rid-123", w.Header().Get("X-Request-ID"))

	w = doPost(t, r, "/api/phonepe/pay", `{}`, nil)
	require.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestOversizedBodyRejected(t *testing.T) {
	gw := &fakeGateway{}
	r := newTestRouter(t, gw, &fakeStore{})

	big := `{"orderData":{"product_name":"` + strings.Repeat("x", 11<<20) + `"},"returnUrl":"https://shop.example/return"}`
	w := doPost(t, r, "/api/phonepe/pay", big, nil)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Empty(t, gw.payCalls)
}
