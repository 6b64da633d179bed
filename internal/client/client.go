// Package client reads listings from the tutor-api over HTTP.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/tutor-match-api/internal/models"
	appErrors "github.com/noah-isme/tutor-match-api/pkg/errors"
)

const defaultBaseURL = "http://localhost:8080/api/v1"

// Config holds the connection settings of a Client.
type Config struct {
	// BaseURL is the API root including its prefix, for example
	// http://localhost:8080/api/v1.
	BaseURL string
	// Token is an optional bearer token sent with every request.
	Token      string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client implements listing.Reader against the HTTP API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

type envelope struct {
	Data  json.RawMessage        `json:"data"`
	Error *appErrors.Error       `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

// New builds a Client from cfg.
func New(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid api url %q", cfg.BaseURL)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{baseURL: baseURL, token: cfg.Token, httpClient: httpClient, logger: logger}, nil
}

// FetchAll returns every listing of role. Filtering and ordering are left
// to the caller's pipeline.
func (c *Client) FetchAll(ctx context.Context, role models.Role) ([]models.Listing, error) {
	return c.listings(ctx, http.MethodGet, "/"+role.Plural())
}

// Refresh re-reads every listing of role, bypassing the server cache.
func (c *Client) Refresh(ctx context.Context, role models.Role) ([]models.Listing, error) {
	return c.listings(ctx, http.MethodPost, "/"+role.Plural()+"/refresh")
}

// Get returns one listing with its contact URL.
func (c *Client) Get(ctx context.Context, role models.Role, id string) (*models.ListingDetail, error) {
	var detail models.ListingDetail
	if _, err := c.do(ctx, http.MethodGet, "/"+role.Plural()+"/"+url.PathEscape(id), &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

func (c *Client) listings(ctx context.Context, method, path string) ([]models.Listing, error) {
	var records []models.Listing
	meta, err := c.do(ctx, method, path, &records)
	if err != nil {
		return nil, err
	}
	// the server answers 200 with an empty page when its store is down
	if status, _ := meta["status"].(string); status == models.BrowseStatusUnavailable {
		return nil, appErrors.Clone(appErrors.ErrUnavailable, "listing store unavailable")
	}
	if records == nil {
		records = []models.Listing{}
	}
	return records, nil
}

func (c *Client) do(ctx context.Context, method, path string, out interface{}) (map[string]interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, http.StatusServiceUnavailable, "api unreachable")
	}
	defer resp.Body.Close()

	c.logger.Debug("api call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)))

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return nil, appErrors.New(http.StatusText(resp.StatusCode), resp.StatusCode, strings.TrimSpace(string(body)))
		}
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		if env.Error != nil {
			env.Error.Status = resp.StatusCode
			return nil, env.Error
		}
		return nil, appErrors.New(http.StatusText(resp.StatusCode), resp.StatusCode, "request failed")
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, fmt.Errorf("decode data: %w", err)
		}
	}
	return env.Meta, nil
}
