// Package storefront is the transport shared by every storefront backend adapter:
// it builds authenticated JSON requests and maps HTTP outcomes onto the
// apierror taxonomy.
package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"storefront-checkout/internal/core/apierror"
	"storefront-checkout/internal/core/config"
	"storefront-checkout/internal/core/httpclient"
	"storefront-checkout/internal/core/logger"
	"storefront-checkout/internal/core/metrics"

	"go.uber.org/zap"
)

const maxMessageLen = 256

// Request describes one backend call.
type Request struct {
	// Op names the operation for errors, logs and metrics.
	Op     string
	Method string
	Path   string
	// Token is the bearer token. Required unless Public is set.
	Token string
	// Public marks endpoints that take no token (login, register).
	Public bool
	// Body is encoded as JSON when non-nil.
	Body any
	// Header holds extra request headers.
	Header http.Header
}

// Client issues requests against the storefront REST backend.
type Client struct {
	baseURL string
	http    *http.Client
	metrics *metrics.Metrics
}

// NewClient creates a Client for the configured backend. m may be nil.
func NewClient(cfg config.StorefrontConfig, m *metrics.Metrics) *Client {
	var transport http.RoundTripper = http.DefaultTransport
	if cfg.Proxy.HasProxy() {
		transport = cfg.Proxy.Transport(http.DefaultTransport.(*http.Transport))
		logger.Get().Info("Storefront calls go through egress proxy", zap.String("proxy", cfg.Proxy.HostPort()))
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		http:    httpclient.NewClientWithTransport(cfg.Timeout(), transport),
		metrics: m,
	}
}

// Do performs req and decodes a 2xx JSON body into out (when out is non-nil).
// Failures are *apierror.Error values, except context cancellation which is
// returned as is so callers can tell it apart from a backend failure.
func (c *Client) Do(ctx context.Context, req Request, out any) (err error) {
	start := time.Now()
	defer func() { c.observe(req.Op, start, err) }()

	if !req.Public && req.Token == "" {
		return &apierror.Error{Op: req.Op, Kind: apierror.ErrUnauthenticated}
	}

	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return fmt.Errorf("%s: failed to encode request: %w", req.Op, err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.baseURL+req.Path, body)
	if err != nil {
		return fmt.Errorf("%s: failed to create request: %w", req.Op, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if !req.Public {
		httpReq.Header.Set("Authorization", "Bearer "+req.Token)
	}
	for k, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(k, v)
		}
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s: %w", req.Op, ctxErr)
		}
		return &apierror.Error{Op: req.Op, Kind: apierror.ErrTransient, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &apierror.Error{Op: req.Op, StatusCode: resp.StatusCode, Kind: apierror.ErrTransient, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &apierror.Error{
			Op:         req.Op,
			StatusCode: resp.StatusCode,
			Message:    extractMessage(raw),
			Kind:       kindForStatus(resp.StatusCode),
		}
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", req.Op, err)
	}
	return nil
}

// Ping reports whether the backend answers HTTP at all. Any status counts as
// reachable; only transport failures are errors.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("health check failed to create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("health check request failed: %w", err)
	}
	resp.Body.Close()
	return nil
}

func (c *Client) observe(op string, start time.Time, err error) {
	if c.metrics == nil || op == "" {
		return
	}
	kind := "ok"
	if err != nil {
		kind = string(apierror.KindOf(err))
	}
	c.metrics.BackendRequests.WithLabelValues(op, kind).Inc()
	c.metrics.BackendLatencyMS.WithLabelValues(op).Observe(float64(time.Since(start).Milliseconds()))
}

func kindForStatus(status int) error {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return apierror.ErrUnauthorized
	case status == http.StatusNotFound:
		return apierror.ErrNotFound
	case status == http.StatusRequestTimeout, status == http.StatusTooManyRequests, status >= 500:
		return apierror.ErrTransient
	default:
		return apierror.ErrConflict
	}
}

// extractMessage pulls the descriptive payload out of an error body. The
// backend answers {"message": "..."} or {"error": "..."}; anything else is
// returned as trimmed text.
func extractMessage(raw []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	msg := strings.TrimSpace(string(raw))
	if len(msg) > maxMessageLen {
		cut := maxMessageLen
		for cut > 0 && !utf8.RuneStart(msg[cut]) {
			cut--
		}
		msg = msg[:cut]
	}
	return msg
}

// MessageContains reports whether err is a backend error whose message
// mentions any of the given fragments (case-insensitive).
func MessageContains(err error, fragments ...string) bool {
	var apiErr *apierror.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	msg := strings.ToLower(apiErr.Message)
	for _, f := range fragments {
		if strings.Contains(msg, strings.ToLower(f)) {
			return true
		}
	}
	return false
}

// Reclassify returns a copy of err with its kind replaced, keeping status and
// message. Non-backend errors are returned unchanged.
func Reclassify(err error, kind error) error {
	var apiErr *apierror.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	copied := *apiErr
	copied.Kind = kind
	return &copied
}
