package httpclient

import (
	"context"
	"net/http"
	"time"

	"storefront-checkout/internal/core/logger"

	"go.uber.org/zap"
)

// RayIDHeader carries the inbound request id to the storefront backend.
const RayIDHeader = "X-Ray-ID"

type rayIDKey struct{}

// WithRayID stores a request id in ctx for outbound propagation.
func WithRayID(ctx context.Context, rayID string) context.Context {
	if rayID == "" {
		return ctx
	}
	return context.WithValue(ctx, rayIDKey{}, rayID)
}

// RayIDFrom returns the request id stored in ctx, if any.
func RayIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(rayIDKey{}).(string)
	return id
}

// LoggingRoundTripper captures request details for debugging and forwards the
// request id. Headers are never logged, so bearer tokens stay out of the logs.
type LoggingRoundTripper struct {
	// Proxied is the underlying RoundTripper to execute the request.
	Proxied http.RoundTripper
}

// RoundTrip executes the request and logs details.
func (lrt *LoggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	rayID := RayIDFrom(req.Context())

	if rayID != "" && req.Header.Get(RayIDHeader) == "" {
		req = req.Clone(req.Context())
		req.Header.Set(RayIDHeader, rayID)
	}

	log := logger.Named("httpclient").With(
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.String("ray_id", rayID),
	)
	log.Debug("HTTP Request Started")

	resp, err := lrt.Proxied.RoundTrip(req)
	duration := time.Since(start)

	if err != nil {
		log.Error("HTTP Request Failed", zap.Duration("duration", duration), zap.Error(err))
		return nil, err
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		log.Warn("HTTP Request Completed With Server Error",
			zap.Int("status_code", resp.StatusCode),
			zap.Duration("duration", duration),
		)
		return resp, nil
	}

	log.Debug("HTTP Request Completed",
		zap.Int("status_code", resp.StatusCode),
		zap.Duration("duration", duration),
	)

	return resp, nil
}

// NewClient returns an http.Client with logging middleware.
func NewClient(timeout time.Duration) *http.Client {
	return NewClientWithTransport(timeout, http.DefaultTransport)
}

// NewClientWithTransport wraps base with the logging middleware.
func NewClientWithTransport(timeout time.Duration, base http.RoundTripper) *http.Client {
	return &http.Client{
		Transport: &LoggingRoundTripper{
			Proxied: base,
		},
		Timeout: timeout,
	}
}
