// Package backend is the client for the attendance backend: face
// recognition, attendance marking and training sample upload.
package backend

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kozaktomas/rollcall/internal/constants"
)

// Client talks to the attendance backend REST API.
type Client struct {
	parsedURL *url.URL
	client    *http.Client
	logger    *slog.Logger
	now       func() time.Time
}

// NewClient creates a backend client for the API rooted at baseURL
// (e.g. http://localhost:8080/api).
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	parsed, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid backend URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid backend URL %q: scheme must be http or https", baseURL)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		parsedURL: parsed,
		client:    &http.Client{Timeout: timeout},
		logger:    logger,
		now:       time.Now,
	}, nil
}

// URL returns the API root.
func (c *Client) URL() string {
	return c.parsedURL.String()
}

// resolveURL builds a full URL from the API root, a path and optional query.
func (c *Client) resolveURL(path string, query url.Values) string {
	u := c.parsedURL.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// TransportError is a failed exchange with the backend: the request could
// not be sent or the response status was not 2xx.
type TransportError struct {
	Op         string
	StatusCode int // zero when no response was received
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		body := strings.TrimSpace(e.Body)
		if len(body) > 200 {
			body = body[:200] + "..."
		}
		return fmt.Sprintf("%s: backend returned status %d: %s", e.Op, e.StatusCode, body)
	}
	return fmt.Sprintf("%s: could not reach backend: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransportError reports whether err is a *TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// readErrorBody reads the response body for error messages.
// Returns a placeholder if reading fails (we're already in an error path).
func readErrorBody(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, constants.MaxErrorBody))
	if err != nil {
		return "(could not read error body)"
	}
	return string(body)
}
