package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// instrumentation scope for traces and metrics emitted by the session.
const scopeName = "github.com/nanohub-go/results/session"

// Session is an HTTP transport for the results client. It satisfies the
// results.Transport interface: one blocking request-response cycle per call,
// no retries, no connection management beyond net/http defaults.
//
// Every request carries a generated X-Request-ID, is traced as one span, and
// is counted on the session's request counter.
//
// Thread-safety: all methods are safe for concurrent use.
type Session struct {
	httpClient *http.Client
	baseURL    *url.URL
	token      string
	userAgent  string
	logger     *slog.Logger
	tracer     trace.Tracer
	requests   metric.Int64Counter
}

// Option customizes a Session beyond what Config covers.
type Option func(*Session)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithHTTPClient replaces the underlying HTTP client, e.g. to share a
// transport or add a proxy. The Config request timeout is not applied to a
// caller-provided client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Session) {
		s.httpClient = client
	}
}

// WithTracerProvider sets the TracerProvider used to trace requests.
// Defaults to the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Session) {
		s.tracer = tp.Tracer(scopeName)
	}
}

// WithMeterProvider sets the MeterProvider used for the request counter.
// Defaults to the global provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *Session) {
		s.requests, _ = mp.Meter(scopeName).Int64Counter("nanohub.client.requests",
			metric.WithDescription("Number of API requests issued by the session"))
	}
}

// New creates a session from the provided configuration.
//
// Zero-value Config fields fall back to defaults: the production API root,
// a 30s request timeout, and the standard user agent.
func New(cfg Config, opts ...Option) (*Session, error) {
	base, err := url.Parse(cfg.GetBaseURL())
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", cfg.GetBaseURL(), err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: scheme and host are required", cfg.GetBaseURL())
	}

	s := &Session{
		baseURL:   base,
		token:     cfg.Token,
		userAgent: cfg.GetUserAgent(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.httpClient == nil {
		s.httpClient = &http.Client{Timeout: cfg.GetRequestTimeout()}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.tracer == nil {
		s.tracer = otel.GetTracerProvider().Tracer(scopeName)
	}
	if s.requests == nil {
		s.requests, _ = otel.GetMeterProvider().Meter(scopeName).Int64Counter(
			"nanohub.client.requests",
			metric.WithDescription("Number of API requests issued by the session"))
	}

	return s, nil
}

// Get issues a GET request with the given query parameters and returns the
// raw response payload.
func (s *Session) Get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	return s.do(ctx, http.MethodGet, path, params, nil)
}

// Post issues a form-encoded POST request and returns the raw response
// payload.
func (s *Session) Post(ctx context.Context, path string, form url.Values) ([]byte, error) {
	return s.do(ctx, http.MethodPost, path, nil, form)
}

// do performs one round trip. A non-2xx status is an error carrying the
// status code and the start of the response body.
func (s *Session) do(ctx context.Context, method, path string, params, form url.Values) ([]byte, error) {
	u := s.endpoint(path)
	if params != nil {
		u.RawQuery = params.Encode()
	}

	requestID := uuid.NewString()

	ctx, span := s.tracer.Start(ctx, "nanohub.request",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", u.Path),
			attribute.String("nanohub.request_id", requestID),
		))
	defer span.End()

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.count(ctx, method, u.Path, 0)
		return nil, fmt.Errorf("%s %s: %w", method, u.Path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.count(ctx, method, u.Path, resp.StatusCode)
		return nil, fmt.Errorf("%s %s: read response: %w", method, u.Path, err)
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	s.count(ctx, method, u.Path, resp.StatusCode)
	s.logger.DebugContext(ctx, "request completed",
		"method", method,
		"path", u.Path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
		"request_id", requestID)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		span.SetStatus(codes.Error, resp.Status)
		return nil, fmt.Errorf("%s %s: unexpected status %d: %s",
			method, u.Path, resp.StatusCode, truncate(payload, 256))
	}

	return payload, nil
}

// endpoint resolves a relative API path against the base URL.
func (s *Session) endpoint(path string) *url.URL {
	u := *s.baseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + strings.TrimPrefix(path, "/")
	return &u
}

func (s *Session) count(ctx context.Context, method, path string, status int) {
	if s.requests == nil {
		return
	}
	s.requests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("http.request.method", method),
		attribute.String("url.path", path),
		attribute.Int("http.response.status_code", status),
	))
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
