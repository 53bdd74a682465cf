package horde

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

	"github.com/wb-go/wbf/zlog"
	"golang.org/x/time/rate"

	"github.com/yokitheyo/hordegen/internal/config"
	"github.com/yokitheyo/hordegen/internal/domain"
)

// Client talks to the AI Horde v2 REST API.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	clientAgent string
	limiter     *rate.Limiter
}

// NewClient creates a Horde API client. A zero rate limit disables throttling.
func NewClient(cfg *config.HordeConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		timeout := time.Duration(cfg.RequestTimeoutSec) * time.Second
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	limit := rate.Inf
	if cfg.RateLimitPerSec > 0 {
		limit = rate.Limit(cfg.RateLimitPerSec)
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		httpClient:  httpClient,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		clientAgent: cfg.ClientAgent,
		limiter:     rate.NewLimiter(limit, burst),
	}
}

// GenerateAsync submits a generation job.
func (c *Client) GenerateAsync(ctx context.Context, req GenerationRequest) (*AsyncResponse, error) {
	var resp AsyncResponse
	if err := c.do(ctx, http.MethodPost, "/generate/async", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CheckGeneration polls the lightweight job status.
func (c *Client) CheckGeneration(ctx context.Context, id string) (*CheckResponse, error) {
	var resp CheckResponse
	if err := c.do(ctx, http.MethodGet, "/generate/check/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GenerationStatus retrieves the finished job including image references.
func (c *Client) GenerationStatus(ctx context.Context, id string) (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.do(ctx, http.MethodGet, "/generate/status/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FindUser resolves the user that owns the configured API key.
func (c *Client) FindUser(ctx context.Context) (*UserResponse, error) {
	var resp UserResponse
	if err := c.do(ctx, http.MethodGet, "/find_user", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limiter: %w", domain.ErrTransport, err)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("apikey", c.apiKey)
	httpReq.Header.Set("Client-Agent", c.clientAgent)
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: send request: %w", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	zlog.Logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("horde request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: unexpected status code: %d, body: %s", domain.ErrTransport, resp.StatusCode, string(errBody))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %w", domain.ErrTransport, err)
	}

	return nil
}
