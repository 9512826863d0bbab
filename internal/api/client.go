// Package api is the HTTP client for the push-notifier backend. It owns the
// session credential obtained from /api/init and attaches it, plus a fresh
// request ID, to every call.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	otelpkg "github.com/ultradns/ultradns-push-notifier/internal/otel"
	"github.com/ultradns/ultradns-push-notifier/internal/shared"
)

// ErrInvalidPassword is returned by Login when the backend rejects the
// password. It is user-correctable and never escalated.
var ErrInvalidPassword = errors.New("invalid password")

// StatusError reports a non-2xx backend response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned status %d", e.Code)
}

// Options configures a Client. Zero values get sensible defaults.
type Options struct {
	Timeout time.Duration
	Logger  *slog.Logger
	Tracer  trace.Tracer
	Metrics *otelpkg.Metrics
}

// Client talks to the backend. Login state rides a session cookie, so the
// client keeps a jar; the API token is set once by Bootstrap and read-only
// afterwards (bootstrap completes before any dependent call is issued).
type Client struct {
	baseURL string
	hc      *http.Client
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *otelpkg.Metrics
	token   string
}

// New creates a client for the backend at baseURL (no trailing slash).
func New(baseURL string, opts Options) (*Client, error) {
	baseURL = strings.TrimSuffix(baseURL, "/")
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer(otelpkg.TracerName)
	}
	return &Client{
		baseURL: baseURL,
		hc:      &http.Client{Timeout: timeout, Jar: jar},
		logger:  logger,
		tracer:  tracer,
		metrics: opts.Metrics,
	}, nil
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Insecure reports whether the backend is reached over plain HTTP. The
// callback endpoints derive from the same origin, and UltraDNS requires
// push endpoints to be HTTPS.
func (c *Client) Insecure() bool {
	return strings.HasPrefix(c.baseURL, "http://")
}

// GuiDisabled asks the backend whether the interactive console is
// administratively disabled. The call is unauthenticated.
func (c *Client) GuiDisabled(ctx context.Context) (bool, error) {
	var out struct {
		GuiDisabled bool `json:"gui_disabled"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/gui-status", nil, &out); err != nil {
		return false, err
	}
	return out.GuiDisabled, nil
}

// Bootstrap fetches the session API token. It performs at most one request
// per client; calling it again after success is a no-op. On failure the
// token stays empty and later calls fail their own authorization check.
func (c *Client) Bootstrap(ctx context.Context) error {
	if c.token != "" {
		return nil
	}
	var out struct {
		APIToken string `json:"api_token"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/init", nil, &out); err != nil {
		return fmt.Errorf("session bootstrap: %w", err)
	}
	c.token = out.APIToken
	return nil
}

// FetchStatus returns the backend's current application snapshot.
func (c *Client) FetchStatus(ctx context.Context) (*Status, error) {
	var out Status
	if err := c.do(ctx, http.MethodGet, "/api/status", nil, &out); err != nil {
		return nil, fmt.Errorf("fetch status: %w", err)
	}
	return &out, nil
}

// Login sends the admin password. The same endpoint sets the initial
// password when none exists yet.
func (c *Client) Login(ctx context.Context, password string) error {
	body := map[string]string{"password": password}
	err := c.do(ctx, http.MethodPost, "/api/login", body, nil)
	var se *StatusError
	if errors.As(err, &se) && (se.Code == http.StatusUnauthorized || se.Code == http.StatusBadRequest) {
		return ErrInvalidPassword
	}
	return err
}

// Logout invalidates the server-side session.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/logout", nil, nil)
}

// CreateWebhook registers a destination URL for the given platform. The
// backend issues the callback token and fires a test message at the
// destination before verification begins.
func (c *Client) CreateWebhook(ctx context.Context, platform Platform, webhookURL string) (*SetupResult, error) {
	if !platform.Valid() {
		return nil, fmt.Errorf("unsupported platform %q", platform)
	}
	body := map[string]string{
		"webhook_url": webhookURL,
		"platform":    string(platform),
	}
	var out SetupResult
	err := c.do(ctx, http.MethodPost, "/api/setup", body, &out,
		otelpkg.AttrPlatform.String(string(platform)))
	if err != nil {
		return nil, fmt.Errorf("create %s webhook: %w", platform, err)
	}
	return &out, nil
}

// DeleteWebhook removes the webhook identified by token.
func (c *Client) DeleteWebhook(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodDelete, "/api/webhooks/"+url.PathEscape(token), nil, nil)
}

// CallbackEndpoint builds the URL the UltraDNS push provider must be
// configured to call: backend origin + /api/{platform}/{token}.
func (c *Client) CallbackEndpoint(platform Platform, token string) string {
	return fmt.Sprintf("%s/api/%s/%s", c.baseURL, platform, url.PathEscape(token))
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, attrs ...attribute.KeyValue) error {
	reqID := shared.NewRequestID()
	ctx = shared.WithRequestID(ctx, reqID)

	attrs = append(attrs,
		otelpkg.AttrEndpoint.String(path),
		otelpkg.AttrRequestID.String(reqID),
	)
	ctx, span := otelpkg.StartClientSpan(ctx, c.tracer, "api "+method+" "+path, attrs...)
	defer span.End()

	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		rdr = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("X-Api-Token", c.token)
	}
	req.Header.Set("X-Request-Id", reqID)

	start := time.Now()
	resp, err := c.hc.Do(req)
	elapsed := time.Since(start)
	if c.metrics != nil {
		c.metrics.RequestDuration.Record(ctx, elapsed.Seconds())
	}
	if err != nil {
		if c.metrics != nil {
			c.metrics.RequestErrors.Add(ctx, 1)
		}
		span.RecordError(err)
		c.logger.Debug("api request failed", "method", method, "endpoint", path, "request_id", reqID, "error", err)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(otelpkg.AttrHTTPCode.Int(resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if c.metrics != nil {
			c.metrics.RequestErrors.Add(ctx, 1)
		}
		c.logger.Debug("api request rejected", "method", method, "endpoint", path, "request_id", reqID, "status", resp.StatusCode)
		return &StatusError{Code: resp.StatusCode}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s response: %w", path, err)
		}
	}
	c.logger.Debug("api request ok", "method", method, "endpoint", path, "request_id", reqID, "duration_ms", elapsed.Milliseconds())
	return nil
}
