package capture

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nao1215/phishscan/internal/model"
	"github.com/nao1215/phishscan/internal/transport"
)

const (
	// DefaultTimeout bounds one page download.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxBodySize limits the downloaded document size.
	DefaultMaxBodySize = 5 * 1024 * 1024

	// DefaultUserAgent is sent with every request.
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0"
)

// Capturer downloads pages and turns them into snapshots.
// It is safe for concurrent use.
type Capturer struct {
	// client performs the requests.
	client *http.Client

	// maxBodySize limits the document that is read.
	maxBodySize int64

	// userAgent is sent with every request.
	userAgent string

	// logger for structured logging.
	logger *slog.Logger
}

// Option configures a Capturer.
type Option func(*Capturer)

// WithHTTPClient sets the HTTP client, for example one built by
// transport.NewHTTPClient with a proxy.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Capturer) {
		if client != nil {
			c.client = client
		}
	}
}

// WithMaxBodySize sets the maximum document size that is read.
func WithMaxBodySize(size int64) Option {
	return func(c *Capturer) {
		if size > 0 {
			c.maxBodySize = size
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Capturer) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Capturer) {
		c.logger = logger
	}
}

// New creates a Capturer. Without WithHTTPClient it uses a direct client
// with DefaultTimeout.
func New(opts ...Option) *Capturer {
	c := &Capturer{
		maxBodySize: DefaultMaxBodySize,
		userAgent:   DefaultUserAgent,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.client == nil {
		// A direct client cannot fail to build.
		c.client, _ = transport.NewHTTPClient("", DefaultTimeout) //nolint:errcheck
	}

	return c
}

// Capture downloads the page at rawURL and returns its snapshot.
// The snapshot's location is the final URL after redirects.
func (c *Capturer) Capture(ctx context.Context, rawURL string) (model.Snapshot, error) {
	u, err := parsePageURL(rawURL)
	if err != nil {
		return model.Snapshot{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	c.logger.Debug("fetching page", "url", u.String())

	resp, err := c.client.Do(req)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return model.Snapshot{}, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	final := u.String()
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL.String()
	}

	snap, err := Parse(final, io.LimitReader(resp.Body, c.maxBodySize))
	if err != nil {
		return model.Snapshot{}, err
	}

	c.logger.Debug("page captured",
		"url", snap.URL,
		"title", snap.Title,
		"links", len(snap.Links),
	)
	return snap, nil
}

// parsePageURL accepts absolute http and https URLs.
func parsePageURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Hostname() == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	return u, nil
}
