package mmmapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/AyushLimaye7/login-registration-dashboard/internal/contracts"
	"github.com/AyushLimaye7/login-registration-dashboard/pkg/httputil"
	"github.com/AyushLimaye7/login-registration-dashboard/pkg/logger"
)

const maxBodyBytes = 10 << 20

// Client talks to the external MMM API
// ⭐ SSOT: MMM API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new MMM API client
func NewClient(baseURL string, httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.Component("mmmapi"),
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// BaseURL returns the API root
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do sends req and decodes a 2xx JSON body into out.
// Non-2xx answers become *contracts.UnauthorizedError or *contracts.ServiceError;
// transport failures become *contracts.ServiceError; undecodable bodies become
// *contracts.MalformedResponse.
func (c *Client) do(req *http.Request, token string, out interface{}) error {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &contracts.ServiceError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &contracts.ServiceError{StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &contracts.UnauthorizedError{StatusCode: resp.StatusCode, Detail: parseDetail(body)}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return &contracts.ServiceError{StatusCode: resp.StatusCode, Detail: parseDetail(body)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &contracts.MalformedResponse{Detail: "decode " + req.URL.Path, Err: err}
	}
	return nil
}

func (c *Client) get(ctx context.Context, path, token string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req, token, out)
}

func (c *Client) post(ctx context.Context, path, token string, in, out interface{}) error {
	req, err := httputil.NewJSONRequest(ctx, http.MethodPost, c.baseURL+path, in)
	if err != nil {
		return err
	}
	return c.do(req, token, out)
}

// parseDetail extracts a human readable message from an error body.
// The API answers {"detail": "..."} or, for request validation, {"detail": [{"msg": "..."}]}.
func parseDetail(body []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return ""
	}

	var msg string
	if err := json.Unmarshal(envelope.Detail, &msg); err == nil {
		return msg
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(envelope.Detail, &items); err == nil && len(items) > 0 {
		return items[0].Msg
	}
	return ""
}

// Health checks GET /health
func (c *Client) Health(ctx context.Context) (time.Duration, error) {
	start := time.Now()

	var body struct {
		Status string `json:"status"`
	}
	if err := c.get(ctx, "/health", "", &body); err != nil {
		return 0, err
	}
	if body.Status != "healthy" {
		return 0, &contracts.ServiceError{StatusCode: http.StatusOK, Detail: "status " + body.Status}
	}
	return time.Since(start), nil
}

// IsUnavailable reports whether err means the API could not be reached at all
func IsUnavailable(err error) bool {
	var svc *contracts.ServiceError
	return errors.As(err, &svc) && svc.StatusCode == 0
}
