// Package httpclient provides an OTEL-instrumented client for fetching
// JSON documents over HTTP.
package httpclient

import (
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type options struct {
	providerName string
	baseURL      string
	timeout      time.Duration
	headers      map[string]string
	transport    http.RoundTripper
	meter        metric.MeterProvider
	tracer       trace.Tracer
	maxBodyBytes int64
}

// Option configures a Client.
type Option func(*options)

// WithProviderName names the remote in metrics and spans.
func WithProviderName(name string) Option {
	return func(o *options) {
		o.providerName = name
	}
}

// WithBaseURL resolves relative request paths against url.
func WithBaseURL(url string) Option {
	return func(o *options) {
		o.baseURL = url
	}
}

// WithTimeout bounds each request, including reading the body.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithHeaders sets headers sent on every request.
func WithHeaders(headers map[string]string) Option {
	return func(o *options) {
		o.headers = headers
	}
}

// WithTransport replaces the pooled default transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) {
		o.transport = rt
	}
}

// WithMeterProvider sets the meter provider. Defaults to the global one.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) {
		o.meter = mp
	}
}

// WithTracer sets the tracer. Defaults to the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) {
		o.tracer = t
	}
}

// WithMaxBodyBytes caps how much of a response body is read.
func WithMaxBodyBytes(n int64) Option {
	return func(o *options) {
		o.maxBodyBytes = n
	}
}

type requestOptions struct {
	labels       []attribute.KeyValue
	query        url.Values
	headers      map[string]string
	errorHandler ResponseErrorHandler
}

// RequestOption configures a single request.
type RequestOption func(*requestOptions)

// ResponseErrorHandler decides whether a response is a failure. The default
// treats any status >= 400 as a *StatusError.
type ResponseErrorHandler func(statusCode int, body []byte) error

// WithResponseErrorHandler overrides the status check for one request.
func WithResponseErrorHandler(h ResponseErrorHandler) RequestOption {
	return func(o *requestOptions) {
		o.errorHandler = h
	}
}

// WithLabels adds attributes to the request metrics.
func WithLabels(labels ...attribute.KeyValue) RequestOption {
	return func(o *requestOptions) {
		o.labels = append(o.labels, labels...)
	}
}

// WithQuery adds query parameters to the request URL.
func WithQuery(q url.Values) RequestOption {
	return func(o *requestOptions) {
		o.query = q
	}
}

// WithHeader sets a header for one request.
func WithHeader(key, value string) RequestOption {
	return func(o *requestOptions) {
		if o.headers == nil {
			o.headers = make(map[string]string)
		}
		o.headers[key] = value
	}
}
