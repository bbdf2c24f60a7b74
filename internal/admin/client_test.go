package admin

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fluxadmin/internal/core"
	"fluxadmin/internal/middleware/trace"
)

const statsJSON = `{
	"total_collected": 1700,
	"total_transactions": 3,
	"in_razorpay_balance": 500,
	"razorpay_pending_count": 1,
	"in_our_bank": 1000,
	"settled_to_us_count": 1,
	"total_settled_to_merchants": 180,
	"paid_to_merchants_count": 1
}`

const payoutsJSON = `[{"merchant_id":"M1","merchant_name":"Acme","merchant_ifsc":"HDFC0001","total_payable":976.4,"transaction_count":1,"payment_ids":["P1"]}]`

const merchantsJSON = `[{"merchant_id":"M1","merchant_name":"Acme","is_active":true,"has_pending_payout":true,"total_collected":"1700.00","pending_payout":976.4,"total_transactions":3}]`

func newBackend(t *testing.T, routes map[string]http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	mux := http.NewServeMux()
	for pattern, h := range routes {
		mux.HandleFunc(pattern, h)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, time.Second), srv
}

func jsonHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}
}

func TestClient_Stats(t *testing.T) {
	c, _ := newBackend(t, map[string]http.HandlerFunc{
		"GET /admin/stats": jsonHandler(statsJSON),
	})
	s, err := c.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, core.Rupees(1700), s.TotalCollected)
	assert.Equal(t, 1, s.GatewayPendingCount)
	assert.Equal(t, core.Rupees(1000), s.InOurBank)
}

func TestClient_ListEndpoints(t *testing.T) {
	c, _ := newBackend(t, map[string]http.HandlerFunc{
		"GET /admin/payouts":       jsonHandler(payoutsJSON),
		"GET /admin/merchants/all": jsonHandler(merchantsJSON),
	})

	payouts, err := c.PendingPayouts(context.Background())
	require.NoError(t, err)
	require.Len(t, payouts, 1)
	assert.Equal(t, core.Money{Paise: 97640}, payouts[0].TotalPayable)
	assert.Equal(t, []string{"P1"}, payouts[0].PaymentIDs)

	merchants, err := c.AllMerchants(context.Background())
	require.NoError(t, err)
	require.Len(t, merchants, 1)
	assert.Equal(t, core.Rupees(1700), merchants[0].TotalCollected)
	assert.True(t, merchants[0].HasPendingPayout)
}

func TestClient_MerchantTransactionsEscapesID(t *testing.T) {
	var gotPath string
	c, _ := newBackend(t, map[string]http.HandlerFunc{
		"/": func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.EscapedPath()
			_, _ = io.WriteString(w, `[{"payment_id":"P1","amount_gross":10,"status":"settled","payout_status":"unpaid"}]`)
		},
	})
	txs, err := c.MerchantTransactions(context.Background(), "m/1 x")
	require.NoError(t, err)
	assert.Equal(t, "/admin/merchants/m%2F1%20x/transactions", gotPath)
	require.Len(t, txs, 1)
	assert.Equal(t, core.BucketReadyToSettle, txs[0].Bucket())

	_, err = c.MerchantTransactions(context.Background(), " ")
	assert.ErrorIs(t, err, core.ErrMissingMerchant)
}

func TestClient_PayoutDetail(t *testing.T) {
	c, _ := newBackend(t, map[string]http.HandlerFunc{
		"GET /admin/payouts/M1": jsonHandler(`{"merchant":{"merchant_id":"M1","merchant_name":"Acme"},"transactions":[{"payment_id":"P1"}],"total_payable":976.40}`),
	})
	d, err := c.PayoutDetail(context.Background(), "M1")
	require.NoError(t, err)
	assert.Equal(t, "Acme", d.Merchant.MerchantName)
	assert.Len(t, d.Transactions, 1)
	assert.Equal(t, core.Money{Paise: 97640}, d.TotalPayable)
}

func TestClient_MarkPaidSendsExactBody(t *testing.T) {
	var body, contentType, method string
	c, _ := newBackend(t, map[string]http.HandlerFunc{
		"/admin/payouts/mark-paid": func(w http.ResponseWriter, r *http.Request) {
			method = r.Method
			contentType = r.Header.Get("Content-Type")
			b, _ := io.ReadAll(r.Body)
			body = string(b)
			_, _ = io.WriteString(w, `{"invoice_number":"INV-001","net_amount":1952.8,"email_sent":true,"transactions_updated":2}`)
		},
	})

	res, err := c.MarkPaid(context.Background(), core.PayoutRequest{
		MerchantID:      "M1",
		PaymentIDs:      []string{"P1", "P2"},
		PayoutReference: "UTR123",
	})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, `{"merchant_id":"M1","payment_ids":["P1","P2"],"payout_reference":"UTR123"}`, body)
	assert.Equal(t, "INV-001", res.InvoiceNumber)
	assert.Equal(t, core.Money{Paise: 195280}, res.NetAmount)
	assert.True(t, res.EmailSent)
}

func TestClient_MarkPaidRejectsEmptyReferenceWithoutNetwork(t *testing.T) {
	var calls int32
	c, _ := newBackend(t, map[string]http.HandlerFunc{
		"/": func(w http.ResponseWriter, r *http.Request) { atomic.AddInt32(&calls, 1) },
	})
	_, err := c.MarkPaid(context.Background(), core.PayoutRequest{MerchantID: "M1", PaymentIDs: []string{"P1"}})
	assert.ErrorIs(t, err, core.ErrEmptyReference)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestClient_StatusErrors(t *testing.T) {
	long := strings.Repeat("x", 2000)
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"json error field", http.StatusBadRequest, `{"error":"Payment P9 does not belong to merchant"}`, "Payment P9 does not belong to merchant"},
		{"json message field", http.StatusConflict, `{"message":"already paid"}`, "already paid"},
		{"json detail object", http.StatusUnprocessableEntity, `{"detail":[{"msg":"field required"}]}`, `[{"msg":"field required"}]`},
		{"plain text", http.StatusInternalServerError, "  boom \n", "boom"},
		{"empty body", http.StatusServiceUnavailable, "", "503 Service Unavailable"},
		{"long body", http.StatusBadGateway, long, long[:maxErrorMessage] + "..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newBackend(t, map[string]http.HandlerFunc{
				"/admin/stats": func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(tt.status)
					_, _ = io.WriteString(w, tt.body)
				},
			})
			_, err := c.Stats(context.Background())
			var se *StatusError
			require.True(t, errors.As(err, &se), "expected StatusError, got %v", err)
			assert.Equal(t, tt.status, se.StatusCode)
			assert.Equal(t, http.MethodGet, se.Method)
			assert.Equal(t, "/admin/stats", se.Path)
			assert.Equal(t, tt.message, se.Message)
		})
	}
}

func TestClient_DecodeFailure(t *testing.T) {
	c, _ := newBackend(t, map[string]http.HandlerFunc{
		"/admin/payouts": jsonHandler(`{"not":"a list"}`),
		"/admin/stats":   jsonHandler(``),
	})
	_, err := c.PendingPayouts(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")

	_, err = c.Stats(context.Background())
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, time.Second)
	_, err := c.Stats(context.Background())
	require.Error(t, err)
	var se *StatusError
	assert.False(t, errors.As(err, &se))
}

func TestClient_PropagatesRequestID(t *testing.T) {
	var got string
	c, _ := newBackend(t, map[string]http.HandlerFunc{
		"/admin/stats": func(w http.ResponseWriter, r *http.Request) {
			got = r.Header.Get(trace.HeaderRequestID)
			_, _ = io.WriteString(w, statsJSON)
		},
	})
	ctx := trace.WithRequestID(context.Background(), "req-42")
	require.NoError(t, c.Ping(ctx))
	assert.Equal(t, "req-42", got)
}
