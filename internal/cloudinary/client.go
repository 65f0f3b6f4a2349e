// Package cloudinary wraps the parts of the Cloudinary Admin and Upload APIs
// gymtrack uses: listing uploaded exercise images by search expression or by
// folder prefix, and uploading progress photos.
package cloudinary

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gymtrack/internal/logging"
	"gymtrack/internal/services"
)

const (
	defaultBaseURL     = "https://api.cloudinary.com"
	defaultHTTPTimeout = 60 * time.Second
	// PageSize is the max_results value sent with every listing request.
	PageSize = 500
)

// Config describes the Cloudinary client configuration.
type Config struct {
	CloudName  string
	APIKey     string
	APISecret  string
	BaseURL    string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client wraps the Cloudinary REST API for a single cloud.
type Client struct {
	cloudName string
	apiKey    string
	apiSecret string
	baseURL   *url.URL
	http      *http.Client
	logger    *slog.Logger
	now       func() time.Time
}

// Resource is one stored image as returned by the listing endpoints.
type Resource struct {
	PublicID  string `json:"public_id"`
	SecureURL string `json:"secure_url"`
}

// Page is one cursor-paginated listing response. An empty NextCursor marks the
// last page.
type Page struct {
	Resources  []Resource `json:"resources"`
	NextCursor string     `json:"next_cursor"`
}

// StatusError reports a non-2xx answer from the Cloudinary API.
type StatusError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("cloudinary %s error %d: %s", e.Operation, e.StatusCode, e.Body)
}

// Unwrap classifies every status failure as an external service error.
func (e *StatusError) Unwrap() error {
	return services.ErrExternalService
}

func newStatusError(operation string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &StatusError{
		Operation:  operation,
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
	}
}

// New creates a Client from the supplied configuration.
func New(cfg Config) (*Client, error) {
	cloud := strings.TrimSpace(cfg.CloudName)
	key := strings.TrimSpace(cfg.APIKey)
	secret := strings.TrimSpace(cfg.APISecret)
	if cloud == "" || key == "" || secret == "" {
		return nil, services.Wrap(services.ErrConfiguration, "cloudinary", "new client", "cloud name, api key and api secret are required", nil)
	}
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = defaultBaseURL
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("cloudinary: parse base url: %w", err)
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &Client{
		cloudName: cloud,
		apiKey:    key,
		apiSecret: secret,
		baseURL:   baseURL,
		http:      client,
		logger:    logging.NewComponentLogger(cfg.Logger, "cloudinary"),
		now:       time.Now,
	}, nil
}

// Search runs a search expression and returns one page of results.
func (c *Client) Search(ctx context.Context, expression, cursor string) (Page, error) {
	if c == nil {
		return Page{}, errors.New("cloudinary: client is nil")
	}
	body := map[string]any{
		"expression":  expression,
		"max_results": PageSize,
	}
	if cursor != "" {
		body["next_cursor"] = cursor
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return Page{}, fmt.Errorf("cloudinary: encode search body: %w", err)
	}

	endpoint := c.baseURL.JoinPath("v1_1", c.cloudName, "resources", "search")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(payload))
	if err != nil {
		return Page{}, fmt.Errorf("cloudinary: build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.doPage(req, "search")
}

// ListByPrefix lists uploaded images whose public id starts with prefix.
func (c *Client) ListByPrefix(ctx context.Context, prefix, cursor string) (Page, error) {
	if c == nil {
		return Page{}, errors.New("cloudinary: client is nil")
	}
	endpoint := c.baseURL.JoinPath("v1_1", c.cloudName, "resources", "image", "upload")
	params := url.Values{}
	params.Set("type", "upload")
	params.Set("prefix", prefix)
	params.Set("max_results", fmt.Sprint(PageSize))
	if cursor != "" {
		params.Set("next_cursor", cursor)
	}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return Page{}, fmt.Errorf("cloudinary: build prefix request: %w", err)
	}
	return c.doPage(req, "prefix")
}

func (c *Client) doPage(req *http.Request, operation string) (Page, error) {
	req.SetBasicAuth(c.apiKey, c.apiSecret)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Page{}, services.Wrap(services.ErrTransient, "cloudinary", operation, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Page{}, newStatusError(operation, resp)
	}

	var page Page
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return Page{}, services.Wrap(services.ErrExternalService, "cloudinary", operation, "decode response", err)
	}
	c.logger.Debug("cloudinary page fetched",
		logging.String("operation", operation),
		logging.Int("resources", len(page.Resources)),
		logging.Bool("has_more", page.NextCursor != ""),
	)
	return page, nil
}
