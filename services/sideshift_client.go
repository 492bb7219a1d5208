package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"shiftplay/metrics"
	"shiftplay/pkg/apperrors"
	"shiftplay/pkg/logger"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

const catalogTTL = 5 * time.Minute

type QuoteRequest struct {
	DepositCoin   string `json:"depositCoin"`
	SettleCoin    string `json:"settleCoin"`
	DepositAmount string `json:"depositAmount"`
}

type Quote struct {
	ID            string `json:"id"`
	DepositCoin   string `json:"depositCoin"`
	SettleCoin    string `json:"settleCoin"`
	DepositAmount string `json:"depositAmount"`
	SettleAmount  string `json:"settleAmount"`
	ExpiresAt     string `json:"expiresAt"`
	Rate          string `json:"rate"`
}

type Order struct {
	ID             string `json:"id"`
	DepositCoin    string `json:"depositCoin"`
	SettleCoin     string `json:"settleCoin"`
	DepositAddress string `json:"depositAddress"`
	SettleAddress  string `json:"settleAddress"`
	DepositAmount  string `json:"depositAmount"`
	SettleAmount   string `json:"settleAmount"`
	Status         string `json:"status"`
	CreatedAt      string `json:"createdAt,omitempty"`
	UpdatedAt      string `json:"updatedAt,omitempty"`
}

// StatusTime parses UpdatedAt, the time the order last changed status.
// It returns the zero time when the gateway did not send one.
func (o *Order) StatusTime() time.Time {
	t, err := time.Parse(time.RFC3339, o.UpdatedAt)
	if err != nil {
		return time.Time{}
	}
	return t
}

// GatewayError describes a failed call to the SideShift API.
type GatewayError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("sideshift %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("sideshift %s: status %d: %s", e.Op, e.StatusCode, e.Body)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// SideShiftClient talks to the SideShift v2 REST API. Every call is bounded
// by the HTTP client timeout and paced by a shared rate limiter.
type SideShiftClient struct {
	BaseURL     string
	Secret      string
	AffiliateID string
	HTTPClient  *http.Client

	limiter *rate.Limiter
	catalog *expirable.LRU[string, json.RawMessage]
}

func NewSideShiftClient(baseURL, secret, affiliateID string, timeout time.Duration, rps float64) *SideShiftClient {
	limit := rate.Inf
	burst := 1
	if rps > 0 {
		limit = rate.Limit(rps)
		if int(rps) > burst {
			burst = int(rps)
		}
	}
	return &SideShiftClient{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		Secret:      secret,
		AffiliateID: affiliateID,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(limit, burst),
		catalog: expirable.NewLRU[string, json.RawMessage](8, nil, catalogTTL),
	}
}

// Coins returns the raw coin list; cached for five minutes.
func (c *SideShiftClient) Coins(ctx context.Context) (json.RawMessage, error) {
	return c.cachedCatalog(ctx, "coins", "/coins")
}

// Pairs returns the raw pair list; cached for five minutes.
func (c *SideShiftClient) Pairs(ctx context.Context) (json.RawMessage, error) {
	return c.cachedCatalog(ctx, "pairs", "/pairs")
}

func (c *SideShiftClient) cachedCatalog(ctx context.Context, op, path string) (json.RawMessage, error) {
	if data, ok := c.catalog.Get(op); ok {
		return data, nil
	}
	var data json.RawMessage
	if err := c.do(ctx, op, http.MethodGet, path, nil, &data); err != nil {
		return nil, apperrors.Upstream("Failed to fetch "+op, err)
	}
	c.catalog.Add(op, data)
	return data, nil
}

func (c *SideShiftClient) RequestQuote(ctx context.Context, req QuoteRequest) (*Quote, error) {
	var quote Quote
	if err := c.do(ctx, "quote", http.MethodPost, "/quotes", req, &quote); err != nil {
		return nil, apperrors.Upstream("Failed to create quote", err)
	}
	return &quote, nil
}

// CreateFixedOrder confirms a quote into a fixed-rate shift.
func (c *SideShiftClient) CreateFixedOrder(ctx context.Context, quoteID, settleAddress string) (*Order, error) {
	body := map[string]string{
		"quoteId":       quoteID,
		"settleAddress": settleAddress,
	}
	if c.AffiliateID != "" {
		body["affiliateId"] = c.AffiliateID
	}
	var order Order
	if err := c.do(ctx, "order", http.MethodPost, "/shifts/fixed", body, &order); err != nil {
		return nil, apperrors.Upstream("Failed to create order", err)
	}
	return &order, nil
}

func (c *SideShiftClient) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	var order Order
	if err := c.do(ctx, "order_status", http.MethodGet, "/shifts/"+url.PathEscape(orderID), nil, &order); err != nil {
		return nil, apperrors.Upstream("Failed to fetch order", err)
	}
	return &order, nil
}

func (c *SideShiftClient) do(ctx context.Context, op, method, path string, in, out interface{}) (err error) {
	start := time.Now()
	defer func() { metrics.RecordGatewayCall(op, start, err) }()

	if err := c.limiter.Wait(ctx); err != nil {
		return &GatewayError{Op: op, Err: err}
	}

	var body io.Reader
	if in != nil {
		jsonData, err := json.Marshal(in)
		if err != nil {
			return &GatewayError{Op: op, Err: err}
		}
		body = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return &GatewayError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Secret != "" {
		req.Header.Set("x-sideshift-secret", c.Secret)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		logger.Warnf("[GATEWAY] %s %s failed: %v", method, path, err)
		return &GatewayError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return &GatewayError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := string(data)
		if len(snippet) > 1024 {
			snippet = snippet[:1024]
		}
		logger.Warnf("[GATEWAY] %s %s returned %d: %s", method, path, resp.StatusCode, snippet)
		return &GatewayError{Op: op, StatusCode: resp.StatusCode, Body: snippet}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return &GatewayError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
		}
	}
	return nil
}
