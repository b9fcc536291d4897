package clients

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/game-price-gateway/internal/adapters/http/middleware"
	"github.com/jsamuelsen/game-price-gateway/internal/platform/logging"
)

const (
	// instrumentationName is used for OpenTelemetry tracer and meter.
	instrumentationName = "github.com/jsamuelsen/game-price-gateway/internal/adapters/clients"

	// httpStatusCategoryDivisor divides status code to get category (2xx, 4xx, 5xx).
	httpStatusCategoryDivisor = 100

	// DefaultTimeout is the per-call budget when FetchOptions.Timeout is unset.
	DefaultTimeout = 10 * time.Second

	// DefaultUserAgent is sent when Config.UserAgent is empty.
	DefaultUserAgent = "game-price-gateway/1.0.0"

	// transportMaxIdleConns is the maximum number of idle connections.
	transportMaxIdleConns = 100

	// transportMaxIdleConnsPerHost is the maximum idle connections per host.
	transportMaxIdleConnsPerHost = 10

	// transportIdleConnTimeout is the idle connection timeout.
	transportIdleConnTimeout = 90 * time.Second

	// drainLimit bounds how much of an error body is read before closing.
	drainLimit = 64 << 10
)

// Config configures a Client.
type Config struct {
	// UserAgent is sent on every request.
	UserAgent string

	// DefaultTimeout applies to calls that do not set their own timeout.
	DefaultTimeout time.Duration

	// MaxIdleConns, MaxIdleConnsPerHost and IdleConnTimeout tune the connection pool.
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration

	// Transport overrides the default pooled transport.
	Transport http.RoundTripper
}

// FetchOptions tunes a single call.
type FetchOptions struct {
	// Timeout is the wall-clock budget for the call, including reading headers.
	Timeout time.Duration

	// Header holds extra request headers. They override the defaults.
	Header http.Header
}

// Client is an instrumented HTTP client for upstream services.
// It provides:
//   - A per-call timeout that cancels the outbound request
//   - Classification of transport and status failures into domain errors
//   - OpenTelemetry tracing and metrics
//   - Request/correlation ID propagation
//
// Calls are made exactly once; nothing is retried.
type Client struct {
	http           *http.Client
	userAgent      string
	defaultTimeout time.Duration

	tracer trace.Tracer

	requestDuration metric.Float64Histogram
	requestTotal    metric.Int64Counter
}

// New creates a new instrumented HTTP client.
func New(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	defaultTimeout := cfg.DefaultTimeout
	if defaultTimeout <= 0 {
		defaultTimeout = DefaultTimeout
	}

	meter := otel.Meter(instrumentationName)

	requestDuration, err := meter.Float64Histogram(
		"http.client.request.duration",
		metric.WithDescription("Duration of HTTP client requests"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration metric: %w", err)
	}

	requestTotal, err := meter.Int64Counter(
		"http.client.request.total",
		metric.WithDescription("Total number of HTTP client requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating request counter: %w", err)
	}

	transport := cfg.Transport
	if transport == nil {
		transport = newTransport(cfg)
	}

	return &Client{
		// No client-level timeout: each call carries its own deadline.
		http:            &http.Client{Transport: transport},
		userAgent:       userAgent,
		defaultTimeout:  defaultTimeout,
		tracer:          otel.Tracer(instrumentationName),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
	}, nil
}

func newTransport(cfg *Config) *http.Transport {
	maxIdle := cfg.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = transportMaxIdleConns
	}

	maxIdlePerHost := cfg.MaxIdleConnsPerHost
	if maxIdlePerHost <= 0 {
		maxIdlePerHost = transportMaxIdleConnsPerHost
	}

	idleTimeout := cfg.IdleConnTimeout
	if idleTimeout <= 0 {
		idleTimeout = transportIdleConnTimeout
	}

	return &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        maxIdle,
		MaxIdleConnsPerHost: maxIdlePerHost,
		IdleConnTimeout:     idleTimeout,
	}
}

// FetchWithTimeout issues a GET to url bounded by opts.Timeout.
//
// A call that runs out of time fails with a network error naming the budget,
// which is the per-call timeout or the time left on ctx, whichever is shorter.
// Transport failures fail with a network error. Any other failure is returned
// unclassified. Non-2xx responses are returned as-is; the caller must close the body.
func (c *Client) FetchWithTimeout(ctx context.Context, url string, opts FetchOptions) (*http.Response, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = c.defaultTimeout
	}

	timeout = budgetWithin(ctx, timeout)

	callCtx, cancel := context.WithTimeout(ctx, timeout)

	req, err := http.NewRequestWithContext(callCtx, http.MethodGet, url, http.NoBody)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("creating request: %w", err)
	}

	c.injectHeaders(ctx, req, opts.Header)

	callCtx, span := c.tracer.Start(callCtx, "HTTP GET "+req.URL.Host,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("http.url", req.URL.String()),
			attribute.Int64("http.timeout_ms", timeout.Milliseconds()),
		),
	)
	defer span.End()

	otel.GetTextMapPropagator().Inject(callCtx, propagation.HeaderCarrier(req.Header))

	startTime := time.Now()
	resp, err := c.http.Do(req.WithContext(callCtx))
	duration := time.Since(startTime)

	if err != nil {
		timedOut := errors.Is(callCtx.Err(), context.DeadlineExceeded)
		cancel()

		classified := classifyTransportError(err, timedOut, timeout)

		span.RecordError(err)
		span.SetStatus(codes.Error, classified.Error())
		c.recordMetrics(ctx, req.Method, req.URL.Host, 0, duration, "error")

		logging.FromContext(ctx).WarnContext(callCtx, "upstream request failed",
			slog.String("url", url),
			slog.Duration("duration", duration),
			slog.Bool("timed_out", timedOut),
			slog.Any("error", err),
		)

		return nil, classified
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode >= http.StatusBadRequest {
		span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", resp.StatusCode))
	}

	statusCategory := fmt.Sprintf("%dxx", resp.StatusCode/httpStatusCategoryDivisor)
	c.recordMetrics(ctx, req.Method, req.URL.Host, resp.StatusCode, duration, statusCategory)

	logging.FromContext(ctx).DebugContext(callCtx, "upstream request completed",
		slog.String("url", url),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", duration),
	)

	// The deadline must outlive this call so the caller can read the body.
	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}

	return resp, nil
}

// budgetWithin shortens timeout to the time left on ctx, so a timeout error
// names the budget the call actually had.
func budgetWithin(ctx context.Context, timeout time.Duration) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return timeout
	}

	return max(min(timeout, time.Until(deadline)), 0)
}

// FetchWithErrorHandling calls FetchWithTimeout and classifies non-2xx responses.
// On error the response body has already been drained and closed.
func (c *Client) FetchWithErrorHandling(ctx context.Context, url, serviceName string, opts FetchOptions) (*http.Response, error) {
	resp, err := c.FetchWithTimeout(ctx, url, opts)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return resp, nil
	}

	classified := classifyStatus(resp, serviceName)
	drainAndClose(resp.Body)

	logging.FromContext(ctx).WarnContext(ctx, "upstream returned error status",
		slog.String("service", serviceName),
		slog.Int("status", resp.StatusCode),
		slog.String("error", classified.Error()),
	)

	return nil, classified
}

// injectHeaders adds defaults, request ID and correlation ID to the request.
func (c *Client) injectHeaders(ctx context.Context, req *http.Request, extra http.Header) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	// Propagate request ID
	if requestID := middleware.RequestIDFromContext(ctx); requestID != "" {
		req.Header.Set(middleware.HeaderRequestID, requestID)
	}

	// Propagate correlation ID
	if correlationID := middleware.CorrelationIDFromContext(ctx); correlationID != "" {
		req.Header.Set(middleware.HeaderCorrelationID, correlationID)
	}

	for key, values := range extra {
		req.Header.Del(key)

		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
}

// recordMetrics records request metrics.
func (c *Client) recordMetrics(ctx context.Context, method, peer string, statusCode int, duration time.Duration, result string) {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("peer.service", peer),
		attribute.String("result", result),
	}

	if statusCode > 0 {
		attrs = append(attrs, attribute.Int("http.status_code", statusCode))
	}

	c.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	c.requestTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// cancelOnClose releases the call's deadline when the body is closed.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelOnClose) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()

	return err
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, drainLimit))
	_ = body.Close()
}
