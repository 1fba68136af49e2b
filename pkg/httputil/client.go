package httputil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/AyushLimaye7/login-registration-dashboard/pkg/config"
	"github.com/AyushLimaye7/login-registration-dashboard/pkg/logger"
	"github.com/AyushLimaye7/login-registration-dashboard/pkg/metrics"
)

// RequestIDHeader carries the per-request correlation id
const RequestIDHeader = "X-Request-ID"

// ErrCircuitOpen is returned without touching the network while the breaker is open
var ErrCircuitOpen = errors.New("circuit breaker open")

// errServerStatus marks 5xx responses as breaker failures; it never leaves this package
var errServerStatus = errors.New("server error status")

// Client is an HTTP client wrapper with pacing, a circuit breaker and logging.
// It never retries: every request is attempted at most once.
// ⭐ SSOT: 모든 HTTP 요청은 이 클라이언트를 통해서만 수행
type Client struct {
	httpClient *http.Client
	logger     *logger.Logger
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[*http.Response]
	metrics    *metrics.Metrics
}

// New creates a new HTTP client from config
// ⭐ SSOT: http.Client 인스턴스는 여기서만 생성
func New(cfg *config.Config, log *logger.Logger) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: cfg.API.Timeout,
		},
		logger: log.Component("httputil"),
	}

	if cfg.API.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.API.RateLimit), cfg.API.RateLimit)
	}

	failures := uint32(cfg.API.BreakerFailures)
	if cfg.API.BreakerFailures <= 0 {
		failures = 5
	}

	c.breaker = gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        "mmm-api",
		MaxRequests: 1,
		Timeout:     cfg.API.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			// Caller cancellation says nothing about the server's health
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.WithFields(map[string]interface{}{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
			c.metrics.SetBreakerOpen(to == gobreaker.StateOpen)
		},
	})

	return c
}

// WithMetrics attaches prometheus collectors
func (c *Client) WithMetrics(m *metrics.Metrics) *Client {
	c.metrics = m
	return c
}

// WithTimeout overrides the per-request timeout
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.httpClient.Timeout = timeout
	return c
}

// BreakerOpen reports whether requests are currently being rejected
func (c *Client) BreakerOpen() bool {
	return c.breaker.State() == gobreaker.StateOpen
}

// Get performs a GET request
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create GET request: %w", err)
	}

	return c.Do(req)
}

// PostJSON performs a POST request with JSON body
func (c *Client) PostJSON(ctx context.Context, url string, data interface{}) (*http.Response, error) {
	req, err := NewJSONRequest(ctx, http.MethodPost, url, data)
	if err != nil {
		return nil, err
	}

	return c.Do(req)
}

// NewJSONRequest builds a request with a JSON encoded body
func NewJSONRequest(ctx context.Context, method, url string, data interface{}) (*http.Request, error) {
	var body io.Reader
	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal JSON: %w", err)
		}
		body = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", method, err)
	}
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	return req, nil
}

// Do executes the request once, through the rate limiter and circuit breaker
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	startTime := time.Now()
	url := req.URL.String()
	method := req.Method

	if req.Header.Get(RequestIDHeader) == "" {
		req.Header.Set(RequestIDHeader, uuid.NewString())
	}
	requestID := req.Header.Get(RequestIDHeader)

	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("rate limit wait failed: %w", err)
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"method":     method,
		"url":        url,
		"request_id": requestID,
	}).Debug("HTTP request started")

	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 500 {
			return resp, errServerStatus
		}
		return resp, nil
	})
	if errors.Is(err, errServerStatus) {
		err = nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = fmt.Errorf("%w: %v", ErrCircuitOpen, err)
	}

	duration := time.Since(startTime)

	if err != nil {
		c.metrics.IncOutbound(method, 0)
		c.logger.WithFields(map[string]interface{}{
			"method":     method,
			"url":        url,
			"request_id": requestID,
			"duration":   duration,
			"error":      err.Error(),
		}).Error("HTTP request failed")
		return nil, err
	}

	c.metrics.IncOutbound(method, resp.StatusCode)
	c.logger.WithFields(map[string]interface{}{
		"method":      method,
		"url":         url,
		"request_id":  requestID,
		"status_code": resp.StatusCode,
		"duration":    duration,
	}).Debug("HTTP request completed")

	return resp, nil
}
