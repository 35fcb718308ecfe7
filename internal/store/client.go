package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/brizzai/agent-settings/internal/config"
	"github.com/brizzai/agent-settings/internal/logger"
	"github.com/brizzai/agent-settings/internal/profile"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const profilePath = "/v1/profile"

// HTTPClient talks to the profile service over HTTP
type HTTPClient struct {
	client     *http.Client
	serviceCfg *config.ProfileServiceConfig
	authMgr    AuthManager
}

type HTTPClientParams struct {
	fx.In

	ServiceConfig *config.ProfileServiceConfig
	AuthManager   AuthManager
}

// NewHTTPClient creates a new HTTPClient with the configured timeout
func NewHTTPClient(params HTTPClientParams) *HTTPClient {
	timeout := params.ServiceConfig.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		serviceCfg: params.ServiceConfig,
		authMgr:    params.AuthManager,
	}
}

// SetTimeout sets the timeout for the HTTP client
func (c *HTTPClient) SetTimeout(timeout time.Duration) {
	c.client.Timeout = timeout
}

// GetProfile fetches the user profile from the service
func (c *HTTPClient) GetProfile(ctx context.Context) (*profile.Profile, error) {
	req, err := c.newRequest(ctx, http.MethodGet, nil)
	if err != nil {
		return nil, err
	}
	return c.execute(req)
}

// UpdateProfile writes a partial profile update and returns the stored record.
// The merge with existing preferences happens before this call; the write
// itself is a single logical operation.
func (c *HTTPClient) UpdateProfile(ctx context.Context, update UpdateRequest) (*profile.Profile, error) {
	body, err := json.Marshal(update)
	if err != nil {
		return nil, fmt.Errorf("failed to encode profile update: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPatch, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.execute(req)
}

// newRequest builds a request against the profile endpoint with the
// configured headers and authentication applied
func (c *HTTPClient) newRequest(ctx context.Context, method string, body io.Reader) (*http.Request, error) {
	url := strings.TrimRight(c.serviceCfg.BaseURL, "/") + profilePath

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	for key, value := range c.serviceCfg.Headers {
		req.Header.Set(key, value)
	}
	if err := c.authMgr.ApplyAuth(req); err != nil {
		return nil, err
	}

	logger.Debug("profile service request",
		zap.String("method", method),
		zap.String("url", url),
	)
	return req, nil
}

// execute performs the actual HTTP request execution
func (c *HTTPClient) execute(req *http.Request) (*profile.Profile, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		logger.Error("profile service request failed", zap.Error(err))
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			logger.Warn("failed to close response body", zap.Error(closeErr))
		}
	}()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("profile service error %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var p profile.Profile
	if err := json.Unmarshal(bodyBytes, &p); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	return &p, nil
}
