package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net"
	"net/http"
	"net/http/httptrace"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/httptrace/otelhttptrace"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultDialKeepAlive         = 10 * time.Second
	defaultTimeout               = 10 * time.Second
	defaultMaxConnsPerHost       = 5
	defaultIdleConnTimeout       = 2 * time.Minute
	defaultExpectContinueTimeout = 100 * time.Millisecond
	defaultMaxBodyBytes          = 8 << 20

	metricRequests = "http_client_requests_total"
	metricLatency  = "http_client_request_latency_ms"
)

// ErrBodyTooLarge is returned when a response exceeds the configured cap.
var ErrBodyTooLarge = errors.New("httpclient: response body too large")

// StatusError is a response with a failing status code.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	body := string(e.Body)
	if len(body) > 128 {
		body = body[:128] + "..."
	}
	return fmt.Sprintf("httpclient: status %d: %s", e.StatusCode, body)
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Client issues instrumented GET requests.
type Client struct {
	http         *http.Client
	tracer       trace.Tracer
	requests     metric.Int64Counter
	latency      metric.Float64Histogram
	providerName string
	baseURL      string
	headers      map[string]string
	maxBodyBytes int64
}

// New creates a Client.
func New(opts ...Option) (*Client, error) {
	o := options{
		providerName: "default",
		timeout:      defaultTimeout,
		maxBodyBytes: defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(&o)
	}

	transport := o.transport
	if transport == nil {
		transport = &http.Transport{
			DialContext: (&net.Dialer{
				KeepAlive: defaultDialKeepAlive,
			}).DialContext,
			MaxConnsPerHost:       defaultMaxConnsPerHost,
			IdleConnTimeout:       defaultIdleConnTimeout,
			ExpectContinueTimeout: defaultExpectContinueTimeout,
		}
	}

	mp := o.meter
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter("httpclient",
		metric.WithInstrumentationAttributes(attribute.String("provider", o.providerName)))

	requests, err := meter.Int64Counter(metricRequests,
		metric.WithDescription("Total number of outbound HTTP requests"))
	if err != nil {
		return nil, err
	}
	latency, err := meter.Float64Histogram(metricLatency,
		metric.WithDescription("Outbound HTTP request latency"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}

	tracer := o.tracer
	if tracer == nil {
		tracer = otel.Tracer("httpclient")
	}

	return &Client{
		http: &http.Client{
			Timeout: o.timeout,
			Transport: otelhttp.NewTransport(transport,
				otelhttp.WithClientTrace(func(ctx context.Context) *httptrace.ClientTrace {
					return otelhttptrace.NewClientTrace(ctx)
				}),
			),
		},
		tracer:       tracer,
		requests:     requests,
		latency:      latency,
		providerName: o.providerName,
		baseURL:      o.baseURL,
		headers:      o.headers,
		maxBodyBytes: o.maxBodyBytes,
	}, nil
}

// GetJSON fetches url and decodes the body into out.
func (c *Client) GetJSON(ctx context.Context, url string, out any, opts ...RequestOption) (*Response, error) {
	resp, err := c.Get(ctx, url, append([]RequestOption{WithHeader("Accept", "application/json")}, opts...)...)
	if err != nil {
		return resp, err
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return resp, fmt.Errorf("httpclient: decode %s: %w", url, err)
	}
	return resp, nil
}

// Get fetches url. A status rejected by the error handler returns both the
// response and the error.
func (c *Client) Get(ctx context.Context, url string, opts ...RequestOption) (*Response, error) {
	var ro requestOptions
	for _, opt := range opts {
		opt(&ro)
	}

	full := c.resolve(url)
	if len(ro.query) > 0 {
		sep := "?"
		if strings.Contains(full, "?") {
			sep = "&"
		}
		full += sep + ro.query.Encode()
	}

	ctx, span := c.tracer.Start(ctx, "http.get",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.url", full),
			attribute.String("provider", c.providerName),
		),
	)
	defer span.End()

	start := time.Now()
	resp, err := c.do(ctx, full, ro.headers)
	c.record(ctx, start, resp, err, ro.labels)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	handler := ro.errorHandler
	if handler == nil {
		handler = defaultErrorHandler
	}
	if err := handler(resp.StatusCode, resp.Body); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return resp, err
	}
	return resp, nil
}

func (c *Client) do(ctx context.Context, url string, headers map[string]string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("httpclient: build request: %w", err)
	}

	all := maps.Clone(c.headers)
	if all == nil {
		all = make(map[string]string, len(headers))
	}
	maps.Copy(all, headers)
	for k, v := range all {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("httpclient: read body: %w", err)
	}
	if int64(len(body)) > c.maxBodyBytes {
		return nil, fmt.Errorf("%w: more than %d bytes from %s", ErrBodyTooLarge, c.maxBodyBytes, url)
	}

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

func (c *Client) resolve(url string) string {
	if c.baseURL == "" || strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return url
	}
	return strings.TrimSuffix(c.baseURL, "/") + "/" + strings.TrimPrefix(url, "/")
}

func (c *Client) record(ctx context.Context, start time.Time, resp *Response, err error, labels []attribute.KeyValue) {
	attrs := append([]attribute.KeyValue{
		attribute.String("provider", c.providerName),
		attribute.Bool("success", err == nil && resp.StatusCode < http.StatusBadRequest),
	}, labels...)

	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled):
		attrs = append(attrs, attribute.Bool("cancelled", true))
	case errors.As(err, &netErr) && netErr.Timeout():
		attrs = append(attrs, attribute.Bool("timeout", true))
	}

	set := metric.WithAttributes(attrs...)
	c.requests.Add(ctx, 1, set)
	c.latency.Record(ctx, float64(time.Since(start).Milliseconds()), set)
}

func defaultErrorHandler(statusCode int, body []byte) error {
	if statusCode >= http.StatusBadRequest {
		return &StatusError{StatusCode: statusCode, Body: body}
	}
	return nil
}
