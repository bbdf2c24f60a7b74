package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fluxadmin/internal/admin"
	"fluxadmin/internal/core"
	"fluxadmin/internal/services"
	mock_services "fluxadmin/internal/services/mocks"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

type testEnv struct {
	srv     *Server
	backend *mock_services.MockBackend
}

func newTestEnv(t *testing.T, ttl time.Duration, opts Options, probe Pinger) testEnv {
	t.Helper()
	ctrl := gomock.NewController(t)
	backend := mock_services.NewMockBackend(ctrl)
	svc := services.NewSettlements(backend, services.Options{CacheTTL: ttl, CacheSize: 16})
	t.Cleanup(svc.Close)

	srv, err := NewServer(":0", svc, probe, opts)
	require.NoError(t, err)
	t.Cleanup(func() { srv.limiter.Stop() })
	return testEnv{srv: srv, backend: backend}
}

func (e testEnv) do(r *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rr, r)
	return rr
}

func htmx(r *http.Request) *http.Request {
	r.Header.Set("HX-Request", "true")
	return r
}

func settleRequest(merchantID string, form url.Values) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/settlements/"+merchantID, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return htmx(r)
}

func stats() core.Stats {
	return core.Stats{
		TotalCollected:          core.Rupees(1700),
		TotalTransactions:       3,
		InGatewayBalance:        core.Rupees(500),
		GatewayPendingCount:     1,
		InOurBank:               core.Rupees(1000),
		SettledToUsCount:        1,
		TotalSettledToMerchants: core.Rupees(180),
		PaidToMerchantsCount:    1,
	}
}

func merchants() []core.Merchant {
	return []core.Merchant{
		{
			MerchantID:          "M1",
			MerchantName:        "Acme Stores",
			Email:               "ops@acme.test",
			BankAccount:         "001122334455",
			BankIFSC:            "HDFC0001234",
			IsActive:            true,
			HasPendingPayout:    true,
			TotalCollected:      core.Rupees(1700),
			TotalPaid:           core.Rupees(180),
			PendingPayout:       core.Money{Paise: 97640},
			InGatewayBalance:    core.Rupees(500),
			TotalTransactions:   3,
			PaidTransactions:    1,
			UnpaidTransactions:  1,
			PendingTransactions: 1,
		},
		{MerchantID: "M2", MerchantName: "Idle Traders"},
	}
}

func payouts() []core.PendingPayout {
	return []core.PendingPayout{{
		MerchantID:       "M1",
		MerchantName:     "Acme Stores",
		MerchantIFSC:     "HDFC0001234",
		TotalPayable:     core.Money{Paise: 97640},
		TransactionCount: 1,
		PaymentIDs:       []string{"pay_P1"},
	}}
}

func transactions() []core.Transaction {
	return []core.Transaction{
		{PaymentID: "pay_P1", AmountGross: core.Rupees(1000), AmountNet: core.Money{Paise: 97640}, GatewayFee: core.Rupees(20), PlatformFee: core.Money{Paise: 360}, Status: core.LifecycleSettled, PayoutStatus: core.PayoutUnpaid, SettlementID: "setl_1", TransactionDate: "2024-03-01"},
		{PaymentID: "pay_P2", AmountGross: core.Rupees(500), Status: core.LifecyclePending, PayoutStatus: core.PayoutUnpaid, TransactionDate: "2024-03-02"},
		{PaymentID: "pay_P3", AmountGross: core.Rupees(200), AmountNet: core.Rupees(180), Status: core.LifecycleSettled, PayoutStatus: core.PayoutPaid, PayoutReference: "UTR0009", TransactionDate: "2024-02-20"},
	}
}

func TestOverview(t *testing.T) {
	env := newTestEnv(t, 0, Options{}, fakePinger{})
	env.backend.EXPECT().Stats(gomock.Any()).Return(stats(), nil)
	env.backend.EXPECT().PendingPayouts(gomock.Any()).Return(payouts(), nil)
	env.backend.EXPECT().AllMerchants(gomock.Any()).Return(merchants(), nil)

	rr := env.do(httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	for _, want := range []string{"Financial Overview", "₹1700.00", "₹500.00", "₹1000.00", "₹180.00", "2 merchants"} {
		assert.Contains(t, body, want)
	}
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
}

func TestOverview_BackendFailureShowsErrorState(t *testing.T) {
	env := newTestEnv(t, 0, Options{}, fakePinger{})
	env.backend.EXPECT().Stats(gomock.Any()).Return(core.Stats{}, errors.New("connection refused"))
	env.backend.EXPECT().PendingPayouts(gomock.Any()).Return(payouts(), nil).AnyTimes()
	env.backend.EXPECT().AllMerchants(gomock.Any()).Return(merchants(), nil).AnyTimes()

	rr := env.do(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Contains(t, rr.Body.String(), "connection refused")
	assert.NotContains(t, rr.Body.String(), "stat-card")
}

func TestSettlements(t *testing.T) {
	t.Run("lists pending payouts", func(t *testing.T) {
		env := newTestEnv(t, 0, Options{}, fakePinger{})
		env.backend.EXPECT().PendingPayouts(gomock.Any()).Return(payouts(), nil)

		rr := env.do(httptest.NewRequest(http.MethodGet, "/settlements", nil))
		require.Equal(t, http.StatusOK, rr.Code)
		body := rr.Body.String()
		assert.Contains(t, body, "Acme Stores")
		assert.Contains(t, body, "₹976.40")
		assert.Contains(t, body, `hx-get="/settlements/M1"`)
	})

	t.Run("empty state", func(t *testing.T) {
		env := newTestEnv(t, 0, Options{}, fakePinger{})
		env.backend.EXPECT().PendingPayouts(gomock.Any()).Return(nil, nil)

		rr := env.do(httptest.NewRequest(http.MethodGet, "/settlements", nil))
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "No pending settlements")
	})
}

func payoutDetail() core.PayoutDetail {
	return core.PayoutDetail{Merchant: merchants()[0], Transactions: transactions(), TotalPayable: core.Money{Paise: 97640}}
}

func TestSettleForm(t *testing.T) {
	env := newTestEnv(t, 0, Options{}, fakePinger{})
	env.backend.EXPECT().PendingPayouts(gomock.Any()).Return(payouts(), nil).Times(3)
	env.backend.EXPECT().PayoutDetail(gomock.Any(), "M1").Return(payoutDetail(), nil).Times(2)

	rr := env.do(htmx(httptest.NewRequest(http.MethodGet, "/settlements/M1", nil)))
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Settle Payout")
	assert.Contains(t, body, `name="payment_id" value="pay_P1"`)
	assert.Contains(t, body, "₹976.40")
	assert.Contains(t, body, "2024-03-01")
	assert.NotContains(t, body, "does not match")
	assert.NotContains(t, body, "<html", "HTMX requests get the fragment only")

	rr = env.do(httptest.NewRequest(http.MethodGet, "/settlements/M1", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "<html")

	rr = env.do(httptest.NewRequest(http.MethodGet, "/settlements/nobody", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSettleForm_DetailDisagreesWithPendingEntry(t *testing.T) {
	env := newTestEnv(t, 0, Options{}, fakePinger{})
	env.backend.EXPECT().PendingPayouts(gomock.Any()).Return(payouts(), nil)
	detail := payoutDetail()
	detail.Transactions[0].PayoutStatus = core.PayoutPaid
	detail.Transactions = append(detail.Transactions, core.Transaction{
		PaymentID: "pay_P7", AmountGross: core.Rupees(50), Status: core.LifecycleSettledInBank, PayoutStatus: core.PayoutUnpaid,
	})
	env.backend.EXPECT().PayoutDetail(gomock.Any(), "M1").Return(detail, nil)

	rr := env.do(htmx(httptest.NewRequest(http.MethodGet, "/settlements/M1", nil)))
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "not in payout detail")
	assert.Contains(t, body, "does not match the pending payment ids")
	assert.Contains(t, body, "<code>pay_P7</code>")
	assert.Contains(t, body, `name="payment_id" value="pay_P1"`)
	assert.NotContains(t, body, `value="pay_P7"`)
}

func TestSettleForm_DetailFailureShowsErrorState(t *testing.T) {
	env := newTestEnv(t, 0, Options{}, fakePinger{})
	env.backend.EXPECT().PendingPayouts(gomock.Any()).Return(payouts(), nil)
	env.backend.EXPECT().PayoutDetail(gomock.Any(), "M1").Return(core.PayoutDetail{}, errors.New("connection reset"))

	rr := env.do(htmx(httptest.NewRequest(http.MethodGet, "/settlements/M1", nil)))
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Contains(t, rr.Body.String(), "connection reset")
}

func TestSettle_EmptyReferenceNeverReachesBackend(t *testing.T) {
	// No expectations: any backend call fails the test.
	env := newTestEnv(t, 0, Options{}, fakePinger{})

	for _, utr := range []string{"", "   ", "<b></b>"} {
		rr := env.do(settleRequest("M1", url.Values{"utr": {utr}, "payment_id": {"pay_P1"}}))
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code, "utr %q", utr)
		assert.Contains(t, rr.Body.String(), "Please enter a UTR/Reference")
		assert.Empty(t, rr.Header().Get("HX-Refresh"))
	}
}

func TestSettle_Success(t *testing.T) {
	env := newTestEnv(t, 0, Options{}, fakePinger{})
	env.backend.EXPECT().PendingPayouts(gomock.Any()).Return(payouts(), nil)
	env.backend.EXPECT().MarkPaid(gomock.Any(), core.PayoutRequest{
		MerchantID:      "M1",
		PaymentIDs:      []string{"pay_P1"},
		PayoutReference: "UTR123",
	}).Return(core.SettlementResult{InvoiceNumber: "INV-7", NetAmount: core.Money{Paise: 97640}, EmailSent: true}, nil)

	rr := env.do(settleRequest("M1", url.Values{"utr": {"  UTR123 "}, "payment_id": {"pay_P1"}}))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "true", rr.Header().Get("HX-Refresh"))
	trigger := rr.Header().Get("HX-Trigger")
	assert.Contains(t, trigger, "Settlement successful! 1 transactions marked as paid. Invoice INV-7.")
	assert.Contains(t, trigger, `"payout:settled"`)
	assert.Contains(t, trigger, `"modal:close"`)
}

func TestSettle_ReferenceIsSentAsTyped(t *testing.T) {
	env := newTestEnv(t, 0, Options{}, fakePinger{})
	env.backend.EXPECT().PendingPayouts(gomock.Any()).Return(payouts(), nil)
	env.backend.EXPECT().MarkPaid(gomock.Any(), core.PayoutRequest{
		MerchantID:      "M1",
		PaymentIDs:      []string{"pay_P1"},
		PayoutReference: "HDFC&ICICI/42 O'BRIEN",
	}).Return(core.SettlementResult{}, nil)

	rr := env.do(settleRequest("M1", url.Values{"utr": {"HDFC&ICICI/42 O'BRIEN"}, "payment_id": {"pay_P1"}}))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestSettle_WithoutShownIDsUsesPendingEntry(t *testing.T) {
	env := newTestEnv(t, 0, Options{}, fakePinger{})
	env.backend.EXPECT().PendingPayouts(gomock.Any()).Return(payouts(), nil)
	env.backend.EXPECT().MarkPaid(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req core.PayoutRequest) (core.SettlementResult, error) {
			assert.Equal(t, []string{"pay_P1"}, req.PaymentIDs)
			return core.SettlementResult{TransactionsUpdated: 1}, nil
		})

	rr := env.do(settleRequest("M1", url.Values{"utr": {"UTR9"}}))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestSettle_BackendFailureKeepsFormOpen(t *testing.T) {
	env := newTestEnv(t, 0, Options{}, fakePinger{})
	env.backend.EXPECT().PendingPayouts(gomock.Any()).Return(payouts(), nil)
	env.backend.EXPECT().MarkPaid(gomock.Any(), gomock.Any()).Return(core.SettlementResult{},
		&admin.StatusError{Method: http.MethodPost, Path: "/admin/payouts/mark-paid", StatusCode: 500, Message: "invoice service unavailable"})

	rr := env.do(settleRequest("M1", url.Values{"utr": {"UTR123"}, "payment_id": {"pay_P1"}}))
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Empty(t, rr.Header().Get("HX-Refresh"))
	assert.Contains(t, rr.Header().Get("HX-Trigger"), `"type":"error"`)
	assert.Contains(t, rr.Body.String(), "invoice service unavailable")
}

func TestSettle_ChangedPayoutIsRejected(t *testing.T) {
	env := newTestEnv(t, 0, Options{}, fakePinger{})
	env.backend.EXPECT().PendingPayouts(gomock.Any()).Return(payouts(), nil)

	rr := env.do(settleRequest("M1", url.Values{"utr": {"UTR123"}, "payment_id": {"pay_P1", "pay_P9"}}))
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "changed since it was displayed")
}

func TestSettle_UnknownMerchant(t *testing.T) {
	env := newTestEnv(t, 0, Options{}, fakePinger{})
	env.backend.EXPECT().PendingPayouts(gomock.Any()).Return(payouts(), nil)

	rr := env.do(settleRequest("ghost", url.Values{"utr": {"UTR123"}}))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSettle_PlainFormPostRedirects(t *testing.T) {
	env := newTestEnv(t, 0, Options{}, fakePinger{})
	env.backend.EXPECT().PendingPayouts(gomock.Any()).Return(payouts(), nil)
	env.backend.EXPECT().MarkPaid(gomock.Any(), gomock.Any()).Return(core.SettlementResult{}, nil)

	r := settleRequest("M1", url.Values{"utr": {"UTR123"}})
	r.Header.Del("HX-Request")
	rr := env.do(r)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/settlements", rr.Header().Get("Location"))
}

func TestMerchants(t *testing.T) {
	t.Run("filter", func(t *testing.T) {
		env := newTestEnv(t, 0, Options{}, fakePinger{})
		env.backend.EXPECT().AllMerchants(gomock.Any()).Return(merchants(), nil)

		rr := env.do(httptest.NewRequest(http.MethodGet, "/merchants?filter=has-pending", nil))
		require.Equal(t, http.StatusOK, rr.Code)
		body := rr.Body.String()
		assert.Contains(t, body, "Acme Stores")
		assert.NotContains(t, body, "Idle Traders")
		assert.Contains(t, body, "All Merchants (2)")
		assert.Contains(t, body, "Has Pending (1)")
	})

	t.Run("unknown filter", func(t *testing.T) {
		env := newTestEnv(t, 0, Options{}, fakePinger{})
		rr := env.do(httptest.NewRequest(http.MethodGet, "/merchants?filter=rich", nil))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestMerchantDetail(t *testing.T) {
	t.Run("paid filter", func(t *testing.T) {
		env := newTestEnv(t, 0, Options{}, fakePinger{})
		env.backend.EXPECT().AllMerchants(gomock.Any()).Return(merchants(), nil)
		env.backend.EXPECT().MerchantTransactions(gomock.Any(), "M1").Return(transactions(), nil)

		rr := env.do(httptest.NewRequest(http.MethodGet, "/merchants/M1?filter=paid", nil))
		require.Equal(t, http.StatusOK, rr.Code)
		body := rr.Body.String()
		assert.Contains(t, body, "HDFC0001234 | ****4455")
		assert.NotContains(t, body, "001122334455")
		assert.Contains(t, body, "pay_P3")
		assert.NotContains(t, body, "pay_P1")
		assert.Contains(t, body, "All Transactions (3)")
		assert.Contains(t, body, "Paid (1)")
		assert.Contains(t, body, "UTR0009")
	})

	t.Run("fee breakdown", func(t *testing.T) {
		env := newTestEnv(t, 0, Options{}, fakePinger{})
		env.backend.EXPECT().AllMerchants(gomock.Any()).Return(merchants(), nil)
		env.backend.EXPECT().MerchantTransactions(gomock.Any(), "M1").Return(transactions(), nil)

		rr := env.do(httptest.NewRequest(http.MethodGet, "/merchants/M1", nil))
		require.Equal(t, http.StatusOK, rr.Code)
		body := rr.Body.String()
		assert.Contains(t, body, "RZP: ₹20.00")
		assert.Contains(t, body, "Flux: ₹3.60")
		assert.Contains(t, body, "setl_1")
		assert.Contains(t, body, "Ready to Settle")
	})

	t.Run("unknown merchant", func(t *testing.T) {
		env := newTestEnv(t, 0, Options{}, fakePinger{})
		env.backend.EXPECT().AllMerchants(gomock.Any()).Return(merchants(), nil)
		env.backend.EXPECT().MerchantTransactions(gomock.Any(), "ghost").Return(nil, nil).AnyTimes()

		rr := env.do(httptest.NewRequest(http.MethodGet, "/merchants/ghost", nil))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("unknown filter", func(t *testing.T) {
		env := newTestEnv(t, 0, Options{}, fakePinger{})
		rr := env.do(httptest.NewRequest(http.MethodGet, "/merchants/M1?filter=bogus", nil))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestRefreshInvalidatesCache(t *testing.T) {
	env := newTestEnv(t, time.Minute, Options{}, fakePinger{})
	env.backend.EXPECT().PendingPayouts(gomock.Any()).Return(payouts(), nil).Times(2)

	env.do(httptest.NewRequest(http.MethodGet, "/settlements", nil))
	env.do(httptest.NewRequest(http.MethodGet, "/settlements", nil))

	rr := env.do(htmx(httptest.NewRequest(http.MethodPost, "/refresh", nil)))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "true", rr.Header().Get("HX-Refresh"))

	env.do(httptest.NewRequest(http.MethodGet, "/settlements", nil))
}

func TestRateLimitOnPost(t *testing.T) {
	env := newTestEnv(t, 0, Options{SettleRatePerMinute: 1}, fakePinger{})

	rr := env.do(htmx(httptest.NewRequest(http.MethodPost, "/refresh", nil)))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(htmx(httptest.NewRequest(http.MethodPost, "/refresh", nil)))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "60", rr.Header().Get("Retry-After"))
}

func TestHealthAndReady(t *testing.T) {
	env := newTestEnv(t, 0, Options{}, fakePinger{})
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := env.do(httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rr.Code, path)
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	}

	down := newTestEnv(t, 0, Options{}, fakePinger{err: errors.New("backend unreachable")})
	rr := down.do(httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "backend unreachable")
}

func TestMiddlewareStack(t *testing.T) {
	env := newTestEnv(t, 0, Options{}, fakePinger{})

	r := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	r.Header.Set("X-Request-ID", "op-42")
	rr := env.do(r)
	assert.Equal(t, "op-42", rr.Header().Get("X-Request-ID"))
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rr.Header().Get("Content-Security-Policy"))

	rr = env.do(httptest.NewRequest(http.MethodGet, "/static/style.css", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Cache-Control"), "max-age=3600")

	rr = env.do(httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = env.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "http_requests_total 4")
	assert.Contains(t, rr.Body.String(), `cache_entries{type="transactions"} 0`)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.ErrUnknownFilter, http.StatusBadRequest},
		{services.ErrMerchantNotFound, http.StatusNotFound},
		{&admin.StatusError{StatusCode: 404}, http.StatusNotFound},
		{services.ErrSettlementInProgress, http.StatusConflict},
		{core.ErrEmptyReference, http.StatusUnprocessableEntity},
		{&admin.StatusError{StatusCode: 500}, http.StatusBadGateway},
		{errors.New("timeout"), http.StatusBadGateway},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestSameIDs(t *testing.T) {
	assert.True(t, sameIDs([]string{"a", "b"}, []string{"b", "a"}))
	assert.False(t, sameIDs([]string{"a", "a"}, []string{"a", "b"}))
	assert.False(t, sameIDs([]string{"a"}, []string{"a", "b"}))
}
