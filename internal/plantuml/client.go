// Package plantuml requests diagram rendering from a PlantUML server.
//
// The server is addressed as GET <base>/<format>/<token>, where token is the
// compressed encoding produced by the diagram package. One request is made per
// call and failures are never retried.
package plantuml

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultBaseURL is the public PlantUML server.
	DefaultBaseURL = "http://www.plantuml.com/plantuml"

	// DefaultFormat is the artifact format requested when none is configured.
	DefaultFormat = "png"

	// DefaultTimeout bounds a single render request.
	DefaultTimeout = 30 * time.Second
)

// Cache stores rendered artifacts by token and format.
// Implementations must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, token, format string) ([]byte, bool, error)
	Put(ctx context.Context, token, format string, artifact []byte) error
}

// RenderError reports a failed remote render: either a transport failure
// (Err set) or a non-200 response (StatusCode set).
type RenderError struct {
	StatusCode int
	Err        error
}

func (e *RenderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("render request failed: %v", e.Err)
	}
	return fmt.Sprintf("render request failed: server returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

func (e *RenderError) Unwrap() error { return e.Err }

// Client renders encoded diagrams through a PlantUML server.
type Client struct {
	BaseURL    string
	Format     string
	HTTPClient *http.Client
	Cache      Cache
	Logger     logrus.FieldLogger
}

// NewClient creates a client for baseURL with the default format and timeout.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:    baseURL,
		Format:     DefaultFormat,
		HTTPClient: &http.Client{Timeout: DefaultTimeout},
		Logger:     logrus.StandardLogger(),
	}
}

// URL returns the request URL for token.
func (c *Client) URL(token string) string {
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(c.BaseURL, "/"), c.format(), token)
}

// Render fetches the artifact for token. A cached artifact is returned without
// contacting the server; a fresh one is stored in the cache when present.
func (c *Client) Render(ctx context.Context, token string) ([]byte, error) {
	log := c.logger().WithField("format", c.format())

	if c.Cache != nil {
		artifact, ok, err := c.Cache.Get(ctx, token, c.format())
		if err != nil {
			log.WithError(err).Warn("render cache lookup failed")
		} else if ok {
			log.Debug("render cache hit")
			return artifact, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(token), nil)
	if err != nil {
		return nil, &RenderError{Err: err}
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, &RenderError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &RenderError{StatusCode: resp.StatusCode}
	}

	artifact, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RenderError{StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}
	log.WithField("bytes", len(artifact)).Debug("rendered diagram")

	if c.Cache != nil {
		if err := c.Cache.Put(ctx, token, c.format(), artifact); err != nil {
			log.WithError(err).Warn("failed to store rendered diagram")
		}
	}

	return artifact, nil
}

func (c *Client) format() string {
	if c.Format == "" {
		return DefaultFormat
	}
	return c.Format
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient == nil {
		return http.DefaultClient
	}
	return c.HTTPClient
}

func (c *Client) logger() logrus.FieldLogger {
	if c.Logger == nil {
		return logrus.StandardLogger()
	}
	return c.Logger
}
