// Package gateway is the HTTP client for the remote data gateway that owns
// all portal data. It handles bearer authentication, retries and tracing.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ibportal/backend/internal/infrastructure/config"
	"github.com/ibportal/backend/internal/infrastructure/logger"
	"github.com/ibportal/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
)

const userAgent = "ib-portal/1.0"

// RetryConfig configures retry behavior.
type RetryConfig struct {
	MaxRetries  int
	RetryDelay  time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
	ShouldRetry func(resp *http.Response, err error) bool
}

// DefaultRetryConfig retries transport errors, 5xx and 429.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 2,
		RetryDelay: 200 * time.Millisecond,
		MaxDelay:   5 * time.Second,
		Multiplier: 2.0,
		ShouldRetry: func(resp *http.Response, err error) bool {
			if err != nil {
				return true
			}
			return resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		},
	}
}

// Client talks to the gateway.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	retry      RetryConfig
	logger     *zap.Logger
	cfg        config.GatewayConfig
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetryConfig replaces the retry policy.
func WithRetryConfig(rc RetryConfig) Option {
	return func(c *Client) { c.retry = rc }
}

// NewClient creates a gateway client.
func NewClient(cfg config.GatewayConfig, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}

	retry := DefaultRetryConfig()
	retry.MaxRetries = cfg.MaxRetries
	if cfg.RetryDelay > 0 {
		retry.RetryDelay = cfg.RetryDelay
	}

	c := &Client{
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
			Timeout: cfg.Timeout,
		},
		baseURL: base,
		retry:   retry,
		logger:  zap.NewNop(),
		cfg:     cfg,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Request is a single gateway call.
type Request struct {
	Method string
	Path   string
	Query  map[string]string
	Body   any
	Token  string // bearer token; empty for unauthenticated calls
}

// Response is a completed gateway call.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

// Do executes req with retries. Non-2xx responses are returned as *StatusError.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	if req.Method == "" {
		req.Method = http.MethodGet
	}
	u, err := c.buildURL(req.Path, req.Query)
	if err != nil {
		return nil, fmt.Errorf("building URL: %w", err)
	}

	var body []byte
	if req.Body != nil {
		body, err = json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
	}

	ctx, span := telemetry.StartGatewaySpan(ctx, strings.ToLower(req.Method), req.Path)
	defer span.End()

	log := logger.WithLogger(ctx, c.logger)

	var (
		resp    *Response
		lastErr error
	)
	for attempt := 0; attempt <= c.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := c.calculateBackoff(attempt)
			log.Warn("Retrying gateway request",
				zap.String("path", req.Path),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(lastErr))
			select {
			case <-ctx.Done():
				telemetry.RecordError(span, ctx.Err())
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		var httpResp *http.Response
		resp, httpResp, lastErr = c.roundTrip(ctx, req, u, body)
		telemetry.SetAttribute(span, telemetry.SpanAttrGatewayRetry, attempt)

		if attempt < c.retry.MaxRetries && c.retry.ShouldRetry(httpResp, lastErr) {
			continue
		}
		break
	}

	if lastErr != nil {
		telemetry.RecordError(span, lastErr)
		return nil, fmt.Errorf("%w: %s %s: %v", ErrUpstream, req.Method, req.Path, lastErr)
	}

	telemetry.SetAttribute(span, telemetry.SpanAttrGatewayStatus, resp.StatusCode)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := newStatusError(resp.StatusCode, req.Path, resp.Body)
		telemetry.RecordError(span, statusErr)
		log.Warn("Gateway request failed",
			zap.String("path", req.Path),
			zap.Int("status", resp.StatusCode),
			zap.Duration("duration", resp.Duration))
		return resp, statusErr
	}

	log.Debug("Gateway request completed",
		zap.String("method", req.Method),
		zap.String("path", req.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", resp.Duration))
	return resp, nil
}

func (c *Client) roundTrip(ctx context.Context, req Request, u *url.URL, body []byte) (*Response, *http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u.String(), bodyReader)
	if err != nil {
		return nil, nil, fmt.Errorf("creating HTTP request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", userAgent)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Token)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, nil, err
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("reading response body: %w", err)
	}
	return &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       data,
		Duration:   time.Since(start),
	}, httpResp, nil
}

// Get performs an authenticated GET.
func (c *Client) Get(ctx context.Context, token, path string, query map[string]string) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query, Token: token})
}

// Post performs a POST with a JSON body.
func (c *Client) Post(ctx context.Context, token, path string, body any) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body, Token: token})
}

// buildURL resolves path against the base URL, keeping the base path prefix.
func (c *Client) buildURL(path string, query map[string]string) (*url.URL, error) {
	rel, err := url.Parse(strings.TrimPrefix(path, "/"))
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	base := *c.baseURL
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	u := base.ResolveReference(rel)

	if len(query) > 0 {
		q := u.Query()
		for k, v := range query {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}
	return u, nil
}

// calculateBackoff calculates the backoff delay for the given attempt.
func (c *Client) calculateBackoff(attempt int) time.Duration {
	delay := float64(c.retry.RetryDelay) * math.Pow(c.retry.Multiplier, float64(attempt-1))
	if c.retry.MaxDelay > 0 && delay > float64(c.retry.MaxDelay) {
		delay = float64(c.retry.MaxDelay)
	}
	// ±25% jitter
	jitter := delay * 0.25
	delay += (rand.Float64()*2 - 1) * jitter
	return time.Duration(delay)
}

// BaseURL returns the gateway base URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}
