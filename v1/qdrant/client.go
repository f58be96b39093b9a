package qdrant

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"go.opentelemetry.io/otel/trace"
)

//
// ──────────────────────────────────────────────────────────────
//   QDRANT REST CLIENT
// ──────────────────────────────────────────────────────────────
//
// This file defines a thin HTTP transport for the Qdrant REST API. Request
// bodies are produced by EncodeRequest, so every request is validated before
// any bytes leave the process; responses are handed to the Decode* functions.
//
// Responsibilities:
//   • Build and send requests (auth header, timeout, optional gzip).
//   • Map non-2xx responses to *APIError.
//   • Report one log line, one metric observation and one span per call.
//

// Logger is the structured logger used by the client. *logger.Logger
// satisfies it.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Debug(msg string, err error, fields ...map[string]interface{})
	DebugWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	ErrorWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
}

// MetricsRecorder receives one observation per request. *metrics.Metrics
// satisfies it.
type MetricsRecorder interface {
	RecordRequest(operation, status string, start time.Time)
}

// Tracer opens one span per request and propagates it to the server as
// W3C trace headers. *tracer.Tracer satisfies it.
type Tracer interface {
	StartSpan(ctx context.Context, name string) (context.Context, trace.Span)
	RecordErrorOnSpan(span trace.Span, err error)
	SetAttributes(span trace.Span, attrs map[string]interface{})
	GetCarrier(ctx context.Context) map[string]string
}

// Request outcome labels reported to MetricsRecorder.
const (
	statusSuccess = "success"
	statusInvalid = "invalid"
	statusFailed  = "error"
)

const defaultMaxConcurrentSearches = 10

// QdrantClient talks to the Qdrant REST API. It is safe for concurrent use.
type QdrantClient struct {
	http    *http.Client
	cfg     *Config
	baseURL string
	logger  Logger
	metrics MetricsRecorder
	tracer  Tracer
}

// Option customizes a QdrantClient.
type Option func(*QdrantClient)

// WithLogger sets the logger.
func WithLogger(l Logger) Option { return func(c *QdrantClient) { c.logger = l } }

// WithMetrics sets the metrics recorder.
func WithMetrics(m MetricsRecorder) Option { return func(c *QdrantClient) { c.metrics = m } }

// WithTracer sets the tracer.
func WithTracer(t Tracer) Option { return func(c *QdrantClient) { c.tracer = t } }

// WithHTTPClient replaces the HTTP client. Config.Timeout still applies per request.
func WithHTTPClient(h *http.Client) Option { return func(c *QdrantClient) { c.http = h } }

// New builds a client without contacting the server.
//
// Example:
//
//	client, err := qdrant.New(qdrant.FromEndpoint("http://localhost:6333"),
//	    qdrant.WithLogger(log))
func New(cfg *Config, opts ...Option) (*QdrantClient, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &QdrantClient{
		http:    &http.Client{},
		cfg:     cfg,
		baseURL: strings.TrimRight(cfg.Endpoint, "/"),
		logger:  nopLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewQdrantClient constructs a client from injected dependencies and, when
// Config.CheckCompatibility is set, verifies the server answers.
//
// Example:
//
//	client, _ := qdrant.NewQdrantClient(qdrant.QdrantParams{Config: cfg})
func NewQdrantClient(p QdrantParams) (*QdrantClient, error) {
	var opts []Option
	if p.Logger != nil {
		opts = append(opts, WithLogger(p.Logger))
	}
	if p.Metrics != nil {
		opts = append(opts, WithMetrics(p.Metrics))
	}
	if p.Tracer != nil {
		opts = append(opts, WithTracer(p.Tracer))
	}

	c, err := New(p.Config, opts...)
	if err != nil {
		return nil, fmt.Errorf("[Qdrant] failed to initialize client: %w", err)
	}
	c.logger.Info("[Qdrant] client configured", nil, map[string]interface{}{"endpoint": c.baseURL})

	if c.cfg.CheckCompatibility {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if _, err := c.HealthCheck(ctx); err != nil {
			return nil, fmt.Errorf("[Qdrant] health check failed: %w", err)
		}
	}
	return c, nil
}

// ServerInfo is the answer of GET /.
type ServerInfo struct {
	Title   string `json:"title"`
	Version string `json:"version"`
}

// HealthCheck fetches the server title and version.
func (c *QdrantClient) HealthCheck(ctx context.Context) (*ServerInfo, error) {
	body, err := c.do(ctx, http.MethodGet, "/", nil)
	if err != nil {
		return nil, err
	}
	var info ServerInfo
	if err := unmarshalJSON(body, &info); err != nil {
		return nil, err
	}
	c.logger.Info("[Qdrant] health check passed", nil, map[string]interface{}{
		"title":    info.Title,
		"version":  info.Version,
		"endpoint": c.baseURL,
	})
	return &info, nil
}

// Close releases idle connections.
func (c *QdrantClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// call runs one REST operation: encode, send, observe.
func (c *QdrantClient) call(ctx context.Context, op, path string, req Request) ([]byte, error) {
	start := time.Now()
	ctx, span := c.startSpan(ctx, "qdrant."+op)
	defer span.End()
	if c.tracer != nil {
		c.tracer.SetAttributes(span, map[string]interface{}{"qdrant.operation": op, "qdrant.path": path})
	}

	body, err := EncodeRequest(req)
	if err != nil {
		c.finish(ctx, span, op, statusInvalid, start, err)
		return nil, err
	}

	resp, err := c.do(ctx, http.MethodPost, path, body)
	if err != nil {
		c.finish(ctx, span, op, statusFailed, start, err)
		return nil, err
	}
	c.finish(ctx, span, op, statusSuccess, start, nil)
	return resp, nil
}

// reject reports an operation refused before a request body was built.
func (c *QdrantClient) reject(ctx context.Context, op string, err error) error {
	start := time.Now()
	ctx, span := c.startSpan(ctx, "qdrant."+op)
	defer span.End()
	c.finish(ctx, span, op, statusInvalid, start, err)
	return err
}

func (c *QdrantClient) finish(ctx context.Context, span trace.Span, op, status string, start time.Time, err error) {
	if c.metrics != nil {
		c.metrics.RecordRequest(op, status, start)
	}
	fields := map[string]interface{}{
		"operation":   op,
		"status":      status,
		"duration_ms": time.Since(start).Milliseconds(),
	}
	if err != nil {
		if c.tracer != nil {
			c.tracer.RecordErrorOnSpan(span, err)
		}
		c.logger.ErrorWithContext(ctx, "[Qdrant] request failed", err, fields)
		return
	}
	c.logger.DebugWithContext(ctx, "[Qdrant] request completed", nil, fields)
}

func (c *QdrantClient) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if c.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return c.tracer.StartSpan(ctx, name)
}

// do sends one HTTP request and returns the body of a 2xx response.
func (c *QdrantClient) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	var reader io.Reader
	gzipped := false
	if body != nil {
		reader = bytes.NewReader(body)
		if c.cfg.Compression {
			compressed, err := gzipBytes(body)
			if err != nil {
				return nil, fmt.Errorf("[Qdrant] compress request: %w", err)
			}
			reader = bytes.NewReader(compressed)
			gzipped = true
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("[Qdrant] build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if gzipped {
		req.Header.Set("Content-Encoding", "gzip")
	}
	if c.cfg.ApiKey != "" {
		req.Header.Set("api-key", c.cfg.ApiKey)
	}
	if c.tracer != nil {
		for k, v := range c.tracer.GetCarrier(ctx) {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("[Qdrant] http error: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("[Qdrant] read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errorFromBody(resp.StatusCode, data)
	}
	return data, nil
}

func gzipBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type nopLogger struct{}

func (nopLogger) Info(string, error, ...map[string]interface{})  {}
func (nopLogger) Debug(string, error, ...map[string]interface{}) {}

func (nopLogger) DebugWithContext(context.Context, string, error, ...map[string]interface{}) {}
func (nopLogger) ErrorWithContext(context.Context, string, error, ...map[string]interface{}) {}
