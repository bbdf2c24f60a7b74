// Package admin is the HTTP client for the Flux backend admin API.
//
// Every call is a single request: no retries and no backoff. Non-2xx answers
// surface as *StatusError so callers can show the backend's own message.
package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fluxadmin/internal/core"
	applog "fluxadmin/internal/log"
	"fluxadmin/internal/middleware/trace"
)

const (
	DefaultTimeout  = 10 * time.Second
	userAgent       = "flux-admin/1.0"
	maxErrorMessage = 512
	maxBody         = 16 << 20
)

// Client talks to the backend admin endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *applog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used for request tracing at debug level.
func WithLogger(l *applog.Logger) Option {
	return func(c *Client) { c.logger = l.WithComponent(applog.ComponentAdmin) }
}

// NewClient returns a client for baseURL. A zero timeout means DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     applog.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend root this client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Stats fetches GET /admin/stats.
func (c *Client) Stats(ctx context.Context) (core.Stats, error) {
	var out core.Stats
	err := c.do(ctx, http.MethodGet, "/admin/stats", nil, &out)
	return out, err
}

// PendingPayouts fetches GET /admin/payouts.
func (c *Client) PendingPayouts(ctx context.Context) ([]core.PendingPayout, error) {
	var out []core.PendingPayout
	if err := c.do(ctx, http.MethodGet, "/admin/payouts", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AllMerchants fetches GET /admin/merchants/all.
func (c *Client) AllMerchants(ctx context.Context) ([]core.Merchant, error) {
	var out []core.Merchant
	if err := c.do(ctx, http.MethodGet, "/admin/merchants/all", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MerchantTransactions fetches GET /admin/merchants/{id}/transactions.
func (c *Client) MerchantTransactions(ctx context.Context, merchantID string) ([]core.Transaction, error) {
	if strings.TrimSpace(merchantID) == "" {
		return nil, core.ErrMissingMerchant
	}
	var out []core.Transaction
	path := "/admin/merchants/" + url.PathEscape(merchantID) + "/transactions"
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PayoutDetail fetches GET /admin/payouts/{id}.
func (c *Client) PayoutDetail(ctx context.Context, merchantID string) (core.PayoutDetail, error) {
	var out core.PayoutDetail
	if strings.TrimSpace(merchantID) == "" {
		return out, core.ErrMissingMerchant
	}
	err := c.do(ctx, http.MethodGet, "/admin/payouts/"+url.PathEscape(merchantID), nil, &out)
	return out, err
}

// MarkPaid posts the request to POST /admin/payouts/mark-paid.
// The request is validated first; an invalid one never reaches the network.
func (c *Client) MarkPaid(ctx context.Context, req core.PayoutRequest) (core.SettlementResult, error) {
	var out core.SettlementResult
	if err := req.Validate(); err != nil {
		return out, err
	}
	body, err := json.Marshal(req)
	if err != nil {
		return out, fmt.Errorf("encode payout request: %w", err)
	}
	err = c.do(ctx, http.MethodPost, "/admin/payouts/mark-paid", body, &out)
	return out, err
}

// Ping checks that the backend answers the stats endpoint.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/admin/stats", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := trace.GetRequestID(ctx); id != "" {
		req.Header.Set(trace.HeaderRequestID, id)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.DebugContext(ctx, "backend request failed",
			applog.FieldMethod, method, applog.FieldPath, path, applog.FieldError, err.Error())
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.logger.DebugContext(ctx, "backend request",
		applog.FieldMethod, method,
		applog.FieldPath, path,
		applog.FieldStatusCode, resp.StatusCode,
		applog.FieldDuration, time.Since(start).Milliseconds())

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return fmt.Errorf("%s %s: read body: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(data, resp.Status),
		}
	}

	if out == nil {
		return nil
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("%s %s: %w", method, path, ErrEmptyResponse)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

// ErrEmptyResponse is returned when a 2xx response carries no body where one is expected.
var ErrEmptyResponse = errors.New("empty response body")
