package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nao1215/phishscan/internal/model"
	"github.com/tidwall/gjson"
)

const (
	// DefaultTimeout bounds one classifier round trip.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxResponseSize limits the response body that is read.
	DefaultMaxResponseSize = 1 << 20

	// analyzePath is the classification endpoint relative to the base URL.
	analyzePath = "analyze"

	// errorPreviewLength bounds the error body quoted in a status error.
	errorPreviewLength = 200
)

// Classifier turns a feature record into an analysis result.
// The orchestrator depends on this interface so tests can replace the remote
// service.
type Classifier interface {
	Analyze(ctx context.Context, features model.FeatureRecord) (*model.AnalysisResult, error)
}

// Client is the HTTP client of the remote classifier.
// It is safe for concurrent use.
type Client struct {
	// endpoint is the absolute URL of the analyze endpoint.
	endpoint string

	// httpClient performs the requests.
	httpClient *http.Client

	// timeout bounds each Analyze call. Zero disables it.
	timeout time.Duration

	// maxResponseSize limits the response body that is read.
	maxResponseSize int64

	// logger for structured logging.
	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client, for example one that dials through a
// proxy.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the per-call timeout. Zero disables it, which leaves a
// hung classifier suspending only the session that called it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithMaxResponseSize sets the maximum response body size.
func WithMaxResponseSize(size int64) Option {
	return func(c *Client) {
		c.maxResponseSize = size
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a client for the classifier at baseURL (for example
// "http://127.0.0.1:8000"). The analyze endpoint is resolved relative to it,
// so a base URL with a path prefix works too.
func New(baseURL string, opts ...Option) (*Client, error) {
	endpoint, err := analyzeEndpoint(baseURL)
	if err != nil {
		return nil, err
	}

	c := &Client{
		endpoint:        endpoint,
		httpClient:      http.DefaultClient,
		timeout:         DefaultTimeout,
		maxResponseSize: DefaultMaxResponseSize,
		logger:          slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// analyzeEndpoint validates the base URL and resolves the analyze path.
func analyzeEndpoint(baseURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidBaseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}

	u.RawQuery = ""
	u.Fragment = ""
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.ResolveReference(&url.URL{Path: analyzePath}).String(), nil
}

// Endpoint returns the absolute URL of the analyze endpoint.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Analyze submits the feature record and returns the classifier's answer.
// Every error wraps one of the package's sentinel errors.
func (c *Client) Analyze(ctx context.Context, features model.FeatureRecord) (*model.AnalysisResult, error) {
	body, err := json.Marshal(features)
	if err != nil {
		return nil, fmt.Errorf("failed to encode feature record: %w", err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", ErrRequestFailed, err)
	}

	c.logger.Debug("classifier responded",
		"status", resp.StatusCode,
		"bytes", len(data),
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(resp.StatusCode, data)
	}

	return ParseResponse(data)
}

// statusError builds the error for a non-2xx answer. The classifier reports
// failures as {"error": "..."}; that message is quoted when present.
func statusError(status int, body []byte) error {
	detail := ""
	if gjson.ValidBytes(body) {
		if msg := gjson.GetBytes(body, "error"); msg.Type == gjson.String {
			detail = msg.Str
		}
	}
	if len(detail) > errorPreviewLength {
		detail = detail[:errorPreviewLength] + "..."
	}

	if status == http.StatusTooManyRequests {
		return fmt.Errorf("%w %d: %w", ErrUnexpectedStatus, status, ErrRateLimited)
	}
	if detail != "" {
		return fmt.Errorf("%w %d: %s", ErrUnexpectedStatus, status, detail)
	}
	return fmt.Errorf("%w %d", ErrUnexpectedStatus, status)
}
