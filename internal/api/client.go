package api

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/agajdosi/artificial-witness/internal/errors"
	"github.com/agajdosi/artificial-witness/internal/models"
	"io"
	"log/slog"
	"net/http"
	neturl "net/url"
	"strings"
	"time"
)

var (
	// ErrStatus reports a response outside of the 2xx range. Use [StatusCode] to read the status.
	ErrStatus = errors.NewSentinel("unexpected status")
	// ErrSchema reports a success response whose body does not match the expected shape.
	ErrSchema = errors.NewSentinel("malformed response")
)

// StatusError carries the failing status of a remote call.
type StatusError struct {
	Method     string
	Endpoint   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s returned %d %s", e.Method, e.Endpoint, e.StatusCode, http.StatusText(e.StatusCode))
}

func (e *StatusError) Unwrap() error {
	return ErrStatus
}

func (e *StatusError) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("method", e.Method),
		slog.String("endpoint", e.Endpoint),
		slog.Int("status", e.StatusCode),
	)
}

// StatusCode extracts the HTTP status from err if it was caused by an unexpected status.
func StatusCode(err error) (int, bool) {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode, true
	}
	return 0, false
}

// Client talks JSON over HTTP to the game server. Endpoints are query parameter driven.
type Client struct {
	client  *http.Client
	baseURL *neturl.URL
	logger  *slog.Logger
}

// NewClient creates a client for the game server at baseURL. A nil httpClient uses [http.DefaultClient], so the
// only timeouts are the transport defaults and the request context.
func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) (*Client, error) {
	parsed, err := neturl.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse base URL", slog.String("url", baseURL))
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, errors.New("base URL must be absolute", slog.String("url", baseURL))
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		client:  httpClient,
		baseURL: parsed,
		logger:  logger.With("source", "api"),
	}, nil
}

// Get calls endpoint with query and decodes the response into out unless out is nil.
func (c *Client) Get(ctx context.Context, endpoint string, query neturl.Values, out any) error {
	return c.do(ctx, http.MethodGet, endpoint, query, out)
}

// Post calls endpoint with query. The server expects parameters in the query, the body stays empty.
func (c *Client) Post(ctx context.Context, endpoint string, query neturl.Values, out any) error {
	return c.do(ctx, http.MethodPost, endpoint, query, out)
}

// WaitForReady calls the status endpoint until it gets a HTTP 200 Success
// response or until the context is cancelled or the timeout is reached.
func (c *Client) WaitForReady(ctx context.Context, timeout time.Duration) error {
	startTime := time.Now()
	for {
		err := c.Get(ctx, "status", nil, nil)
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "context cancelled")
		default:
			if time.Since(startTime) >= timeout {
				return errors.Wrap(err, "timeout waiting for server to be ready")
			}
			time.Sleep(100 * time.Millisecond) //nolint:mnd // 100ms
		}
	}
}

func (c *Client) do(ctx context.Context, method, endpoint string, query neturl.Values, out any) error {
	var (
		err  error
		req  *http.Request
		resp *http.Response
	)
	start := time.Now()
	if req, err = c.newRequestWithContext(ctx, method, endpoint, query); err != nil {
		return errors.Wrap(err, "create request with context")
	}
	if resp, err = c.client.Do(req); err != nil {
		return errors.Wrap(err, "do request", slog.String("method", method), slog.String("endpoint", endpoint))
	}
	defer func() {
		// Drain so that the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	c.logger.LogAttrs(ctx, slog.LevelDebug, "remote call",
		slog.String("method", method),
		slog.String("endpoint", endpoint),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)))

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &StatusError{Method: method, Endpoint: endpoint, StatusCode: resp.StatusCode}
	}
	if out == nil {
		return nil
	}
	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(errors.Mark(err, ErrSchema), "decode response", slog.String("endpoint", endpoint))
	}
	if v, ok := out.(models.Validator); ok {
		if err = v.Validate(); err != nil {
			return errors.Wrap(errors.Mark(err, ErrSchema), "validate response", slog.String("endpoint", endpoint))
		}
	}
	return nil
}

// newRequestWithContext creates a new HTTP request to the server that respects the given context.
func (c *Client) newRequestWithContext(
	ctx context.Context,
	method, endpoint string,
	query neturl.Values,
) (*http.Request, error) {
	u := c.baseURL.JoinPath(strings.TrimPrefix(endpoint, "/"))
	u.RawQuery = query.Encode()
	req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req, nil
}
