// Package httpapi exposes the quote service over JSON/HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/v2-router/business/routing/app"
	"github.com/fd1az/v2-router/business/routing/domain"
	"github.com/fd1az/v2-router/internal/apperror"
	"github.com/fd1az/v2-router/internal/logger"
	"github.com/fd1az/v2-router/internal/ratelimit"
)

const maxBodyBytes = 1 << 16

// QuoteService is the part of app.QuoteService the handlers use.
type QuoteService interface {
	Quote(ctx context.Context, req app.QuoteRequest) (*app.Quote, error)
	Pair(ctx context.Context, tokenA, tokenB string) (*domain.Pair, error)
}

// Handler serves the /v1 routes.
type Handler struct {
	service QuoteService
	limiter *ratelimit.Limiter
	logger  logger.LoggerInterface
}

// NewHandler creates a Handler. A nil limiter disables throttling.
func NewHandler(service QuoteService, limiter *ratelimit.Limiter, log logger.LoggerInterface) *Handler {
	if limiter == nil {
		limiter = ratelimit.Unlimited()
	}
	return &Handler{service: service, limiter: limiter, logger: log}
}

// Routes returns the instrumented, rate-limited mux.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/quote", h.handleQuoteQuery)
	mux.HandleFunc("POST /v1/quote", h.handleQuoteBody)
	mux.HandleFunc("GET /v1/pairs/{tokenA}/{tokenB}", h.handlePair)

	return otelhttp.NewHandler(h.limiter.Middleware(mux), "router.http",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

func (h *Handler) handleQuoteQuery(w http.ResponseWriter, r *http.Request) {
	req, err := parseQuery(r.URL.Query())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.quote(w, r, req)
}

func (h *Handler) handleQuoteBody(w http.ResponseWriter, r *http.Request) {
	var body QuoteRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		h.writeError(w, r, apperror.New(apperror.CodeInvalidFormat, apperror.WithCause(err)))
		return
	}
	h.quote(w, r, body)
}

func (h *Handler) quote(w http.ResponseWriter, r *http.Request, body QuoteRequest) {
	req, err := toAppRequest(body)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	q, err := h.service.Quote(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, NewQuoteResponse(q))
}

func (h *Handler) handlePair(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Pair(r.Context(), r.PathValue("tokenA"), r.PathValue("tokenB"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, NewPairResponse(p))
}

func parseQuery(q url.Values) (QuoteRequest, error) {
	req := QuoteRequest{
		TokenIn:   q.Get("tokenIn"),
		TokenOut:  q.Get("tokenOut"),
		Amount:    q.Get("amount"),
		TradeType: q.Get("tradeType"),
		Recipient: q.Get("recipient"),
	}

	var err error
	if req.MaxHops, err = intParam(q, "maxHops"); err != nil {
		return req, err
	}
	if req.MaxResults, err = intParam(q, "maxResults"); err != nil {
		return req, err
	}
	ttl, err := intParam(q, "ttlSeconds")
	if err != nil {
		return req, err
	}
	req.TTLSeconds = int64(ttl)

	if v := q.Get("slippageBps"); v != "" {
		bps, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return req, invalidParam("slippageBps", v)
		}
		req.SlippageBps = &bps
	}
	if v := q.Get("feeOnTransfer"); v != "" {
		if req.FeeOnTransfer, err = strconv.ParseBool(v); err != nil {
			return req, invalidParam("feeOnTransfer", v)
		}
	}
	return req, nil
}

func intParam(q url.Values, name string) (int, error) {
	v := q.Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, invalidParam(name, v)
	}
	return n, nil
}

func invalidParam(name, value string) error {
	return apperror.Validation(apperror.CodeInvalidInput, fmt.Sprintf("%s=%q", name, value))
}

// ParseTradeType accepts exact_input/exact_in/in and exact_output/exact_out/out.
// The empty string is exact input.
func ParseTradeType(s string) (domain.TradeType, error) {
	switch strings.ToLower(s) {
	case "", "exact_input", "exact_in", "in":
		return domain.ExactInput, nil
	case "exact_output", "exact_out", "out":
		return domain.ExactOutput, nil
	default:
		return 0, apperror.Validation(apperror.CodeInvalidInput, fmt.Sprintf("tradeType=%q", s))
	}
}

func toAppRequest(body QuoteRequest) (app.QuoteRequest, error) {
	required := []struct{ name, value string }{
		{"tokenIn", body.TokenIn},
		{"tokenOut", body.TokenOut},
		{"amount", body.Amount},
	}
	for _, f := range required {
		if f.value == "" {
			return app.QuoteRequest{}, apperror.New(apperror.CodeRequiredField, apperror.WithContext(f.name))
		}
	}
	if body.MaxHops < 0 || body.MaxResults < 0 || body.TTLSeconds < 0 {
		return app.QuoteRequest{}, apperror.Validation(apperror.CodeInvalidInput, "maxHops, maxResults and ttlSeconds must not be negative")
	}

	tradeType, err := ParseTradeType(body.TradeType)
	if err != nil {
		return app.QuoteRequest{}, err
	}

	return app.QuoteRequest{
		TokenIn:       body.TokenIn,
		TokenOut:      body.TokenOut,
		Amount:        body.Amount,
		TradeType:     tradeType,
		MaxHops:       body.MaxHops,
		MaxResults:    body.MaxResults,
		SlippageBps:   body.SlippageBps,
		TTL:           time.Duration(body.TTLSeconds) * time.Second,
		Recipient:     body.Recipient,
		FeeOnTransfer: body.FeeOnTransfer,
	}, nil
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		appErr = apperror.Wrap(err, apperror.CodeInternalError, "")
	}

	if sc := trace.SpanContextFromContext(r.Context()); sc.HasTraceID() {
		appErr.WithTraceID(sc.TraceID().String())
	}

	if appErr.StatusCode >= http.StatusInternalServerError {
		h.logger.Error(r.Context(), "request failed", append([]any{"path", r.URL.Path}, appErr.LogArgs()...)...)
	}

	writeJSON(w, appErr.StatusCode, appErr.ToResponse())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
