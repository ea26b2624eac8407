package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/guidebase/guidebase/internal/catalog"
)

// maxResponseSize caps response bodies to prevent OOM on a misbehaving server.
const maxResponseSize = 10 * 1024 * 1024 // 10MB

// Options configures a Client.
type Options struct {
	BaseURL   string
	Timeout   time.Duration // Per-request timeout (default: 10s)
	Retry     RetryConfig
	Breaker   CircuitBreakerConfig
	RPS       float64 // Client-side rate limit (default: 10)
	Burst     int     // Rate limit burst (default: 20)
	EnableLog bool
}

// GuideRequest is the create/update payload. Optional groups are omitted
// entirely when empty; the service treats absent fields as null.
type GuideRequest struct {
	Slug             string             `json:"slug"`
	Title            string             `json:"title"`
	Summary          string             `json:"summary"`
	Introduction     string             `json:"introduction"`
	Difficulty       string             `json:"difficulty"`
	EstimatedMinutes int                `json:"estimatedMinutes"`
	CategorySlug     string             `json:"categorySlug"`
	Prerequisites    string             `json:"prerequisites,omitempty"`
	Tags             []string           `json:"tags"`
	Sections         []catalog.Section  `json:"sections"`
	Resources        []catalog.Resource `json:"resources"`
}

// Client is the typed boundary to the remote guide service. It is stateless:
// credentials are passed per call by the session manager's consumers, never
// held here.
type Client struct {
	baseURL   string
	client    *http.Client
	limiter   *rate.Limiter
	retry     RetryConfig
	breaker   *CircuitBreaker
	enableLog bool
}

// NewClient creates a gateway client for the given base URL.
func NewClient(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("gateway: base URL is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("gateway: invalid base URL %q: %w", opts.BaseURL, err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	rps := opts.RPS
	if rps <= 0 {
		rps = 10
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 20
	}

	retry := opts.Retry
	if retry.MaxRetries == 0 && retry.BaseDelay == 0 {
		retry = DefaultRetryConfig()
		retry.EnableLog = opts.EnableLog
	}

	breaker := opts.Breaker
	if breaker.FailureThreshold == 0 {
		breaker = DefaultCircuitBreakerConfig()
		breaker.EnableLog = opts.EnableLog
	}

	return &Client{
		baseURL:   base,
		client:    &http.Client{Timeout: timeout},
		limiter:   rate.NewLimiter(rate.Limit(rps), burst),
		retry:     retry,
		breaker:   NewCircuitBreaker(breaker),
		enableLog: opts.EnableLog,
	}, nil
}

// BaseURL returns the configured service base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListGuides fetches the full guide collection (summaries).
func (c *Client) ListGuides(ctx context.Context) ([]catalog.GuideSummary, error) {
	var guides []catalog.GuideSummary
	err := c.read(ctx, "list guides", "/api/guides", &guides)
	if err != nil {
		return nil, err
	}
	return guides, nil
}

// GetGuide fetches a single guide's full detail record by id or slug.
func (c *Client) GetGuide(ctx context.Context, idOrSlug string) (*catalog.Guide, error) {
	var guide catalog.Guide
	path := "/api/guides/" + url.PathEscape(idOrSlug)
	if err := c.readKeyed(ctx, "get guide", path, "guide", idOrSlug, &guide); err != nil {
		return nil, err
	}
	return &guide, nil
}

// ListCategories fetches the category collection.
func (c *Client) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	var categories []catalog.Category
	if err := c.read(ctx, "list categories", "/api/guide-categories", &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// VerifyAdmin probes the admin endpoint with the given Basic token. It is
// never retried: a transient failure must stay distinguishable from a 401.
func (c *Client) VerifyAdmin(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodGet, "/api/admin/ping", token, nil, nil, "admin", "")
}

// CreateGuide creates a new guide and returns the canonical persisted record.
func (c *Client) CreateGuide(ctx context.Context, req GuideRequest, token string) (*catalog.Guide, error) {
	var guide catalog.Guide
	if err := c.do(ctx, http.MethodPost, "/api/guides", token, req, &guide, "guide", ""); err != nil {
		return nil, err
	}
	return &guide, nil
}

// UpdateGuide updates an existing guide by id.
func (c *Client) UpdateGuide(ctx context.Context, id string, req GuideRequest, token string) (*catalog.Guide, error) {
	var guide catalog.Guide
	path := "/api/guides/" + url.PathEscape(id)
	if err := c.do(ctx, http.MethodPut, path, token, req, &guide, "guide", id); err != nil {
		return nil, err
	}
	return &guide, nil
}

// DeleteGuide deletes a guide by id.
func (c *Client) DeleteGuide(ctx context.Context, id string, token string) error {
	path := "/api/guides/" + url.PathEscape(id)
	return c.do(ctx, http.MethodDelete, path, token, nil, nil, "guide", id)
}

// read performs an unauthorized GET with retry. Reads are idempotent, so
// transient failures are reissued; everything else goes straight up.
func (c *Client) read(ctx context.Context, operation, path string, out any) error {
	return withRetry(ctx, operation, c.retry, func(ctx context.Context) error {
		return c.do(ctx, http.MethodGet, path, "", nil, out, "resource", "")
	})
}

func (c *Client) readKeyed(ctx context.Context, operation, path, resource, key string, out any) error {
	return withRetry(ctx, operation, c.retry, func(ctx context.Context) error {
		return c.do(ctx, http.MethodGet, path, "", nil, out, resource, key)
	})
}

// do issues a single HTTP request through the rate limiter and circuit
// breaker, decoding a JSON response into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path, token string, body, out any, resource, key string) error {
	operation := method + " " + path

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	if !c.breaker.Allow() {
		return &CircuitOpenError{Operation: operation}
	}

	err := c.doOnce(ctx, method, path, token, body, out, resource, key)
	c.breaker.Record(err)
	return err
}

func (c *Client) doOnce(ctx context.Context, method, path, token string, body, out any, resource, key string) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("gateway: encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &ConnectionError{Operation: method + " " + path, Err: err}
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Basic "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if c.enableLog {
			log.Printf("[gateway] %s %s (%s) failed: %v", method, path, requestID, err)
		}
		return &ConnectionError{Operation: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := errorFromResponse(resp, resource, key)
		if c.enableLog {
			log.Printf("[gateway] %s %s (%s): %v", method, path, requestID, apiErr)
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return &ConnectionError{Operation: "read response", Err: err}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("gateway: decode %s %s: %w", method, path, err)
	}
	return nil
}
