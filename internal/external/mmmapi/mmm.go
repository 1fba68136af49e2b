package mmmapi

import (
	"context"
	"net/http"

	"github.com/AyushLimaye7/login-registration-dashboard/internal/contracts"
)

// FetchMMMData retrieves and validates the channel/summary dataset
func (c *Client) FetchMMMData(ctx context.Context, token string) (*contracts.Dataset, error) {
	if token == "" {
		return nil, contracts.ErrMissingToken
	}

	var dataset contracts.Dataset
	if err := c.get(ctx, "/api/mmm-data", token, &dataset); err != nil {
		return nil, err
	}

	if !dataset.Success {
		return nil, &contracts.ServiceError{StatusCode: http.StatusOK, Detail: "api reported success=false"}
	}
	if err := contracts.ValidateDataset(&dataset); err != nil {
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"channels": len(dataset.Channels),
		"user":     dataset.User,
	}).Debug("MMM dataset fetched")

	return &dataset, nil
}

// Contributions retrieves GET /api/mmm/contributions
func (c *Client) Contributions(ctx context.Context, token string) (*contracts.Contributions, error) {
	if token == "" {
		return nil, contracts.ErrMissingToken
	}

	var out contracts.Contributions
	if err := c.get(ctx, "/api/mmm/contributions", token, &out); err != nil {
		return nil, err
	}
	if err := contracts.ValidateStruct(&out); err != nil {
		return nil, &contracts.MalformedResponse{Detail: "contributions schema", Err: err}
	}
	return &out, nil
}

// ResponseCurves retrieves GET /api/mmm/response-curves
func (c *Client) ResponseCurves(ctx context.Context, token string) (*contracts.ResponseCurves, error) {
	if token == "" {
		return nil, contracts.ErrMissingToken
	}

	var out contracts.ResponseCurves
	if err := c.get(ctx, "/api/mmm/response-curves", token, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TimeSeries retrieves GET /api/mmm/time-series
func (c *Client) TimeSeries(ctx context.Context, token string) (*contracts.TimeSeries, error) {
	if token == "" {
		return nil, contracts.ErrMissingToken
	}

	var out contracts.TimeSeries
	if err := c.get(ctx, "/api/mmm/time-series", token, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Account retrieves GET /api/dashboard
func (c *Client) Account(ctx context.Context, token string) (*contracts.Account, error) {
	if token == "" {
		return nil, contracts.ErrMissingToken
	}

	var out contracts.Account
	if err := c.get(ctx, "/api/dashboard", token, &out); err != nil {
		return nil, err
	}
	if err := contracts.ValidateStruct(&out); err != nil {
		return nil, &contracts.MalformedResponse{Detail: "account schema", Err: err}
	}
	return &out, nil
}
