// Package mykaarma implements the remote booking-system collaborators: closed
// record extraction, slot availability, appointment creation, and customer
// messaging. All calls use basic auth and the rollout-stage cookie the remote
// system expects.
package mykaarma

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"nsa-scheduler/internal/common/config"
	apperrors "nsa-scheduler/internal/common/errors"
	commonhttp "nsa-scheduler/internal/common/http"
	"nsa-scheduler/internal/common/logger"
)

type Client struct {
	baseURL      string
	username     string
	password     string
	rolloutStage string
	httpClient   *commonhttp.Client
	logger       logger.Logger

	mu sync.Mutex
	// Per-dealer slot sizes and per-department default associates change
	// rarely; both are cached for the run.
	slotSizes         map[string]time.Duration
	defaultAssociates map[string]string
}

func NewClient(cfg config.ProviderConfig, log logger.Logger) *Client {
	return &Client{
		baseURL:           cfg.BaseURL,
		username:          cfg.Username,
		password:          cfg.Password,
		rolloutStage:      cfg.RolloutStage,
		httpClient:        commonhttp.NewClient(config.GetDuration(cfg.Timeout)),
		logger:            log.WithFields(map[string]interface{}{"component": "mykaarma"}),
		slotSizes:         make(map[string]time.Duration),
		defaultAssociates: make(map[string]string),
	}
}

// doJSON performs one authenticated round trip and decodes the response into
// out. Network failures and 5xx/429 responses come back as transient provider
// errors; other non-2xx statuses are permanent failures.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}, operation string) error {
	req, err := commonhttp.NewJSONRequest(ctx, method, c.baseURL+path, body)
	if err != nil {
		return apperrors.NewProviderFailureError(operation, err)
	}
	req.SetBasicAuth(c.username, c.password)
	if c.rolloutStage != "" {
		req.AddCookie(&http.Cookie{Name: "rollout.stage", Value: c.rolloutStage})
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.NewProviderTransientError(operation, err)
	}

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		resp.Body.Close()
		return apperrors.NewProviderTransientError(operation,
			fmt.Errorf("remote returned %s", resp.Status))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return apperrors.NewProviderFailureError(operation,
			fmt.Errorf("remote returned %s", resp.Status))
	}

	if err := commonhttp.DecodeJSON(resp, out); err != nil {
		return apperrors.NewProviderFailureError(operation,
			fmt.Errorf("decode response: %w", err))
	}
	return nil
}
