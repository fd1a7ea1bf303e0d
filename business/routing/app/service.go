package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/fd1az/v2-router/business/routing/domain"
	"github.com/fd1az/v2-router/internal/apm"
	"github.com/fd1az/v2-router/internal/apperror"
	"github.com/fd1az/v2-router/internal/asset"
	"github.com/fd1az/v2-router/internal/fraction"
	"github.com/fd1az/v2-router/internal/logger"
)

const (
	tracerName = "routing"
	meterName  = "routing"

	maxConcurrentFetches = 8
)

// Config holds the quoting defaults.
type Config struct {
	ChainID    uint64
	MaxHops    int
	MaxResults int
	// BaseTokens are symbols or addresses tried as intermediate hops.
	BaseTokens []string
	Slippage   fraction.Percent
	TTL        time.Duration
}

// QuoteRequest asks for the best trades between two currencies.
// Currencies are "ETH", a registered symbol, or a token address.
type QuoteRequest struct {
	TokenIn   string
	TokenOut  string
	Amount    string // whole units of the input (exact input) or output (exact output)
	TradeType domain.TradeType

	// Zero values take the service defaults.
	MaxHops     int
	MaxResults  int
	SlippageBps *int64
	TTL         time.Duration

	// Recipient, when set, makes the quote include router call parameters.
	Recipient     string
	FeeOnTransfer bool
}

// QuotedTrade is a ranked trade with its slippage-adjusted limit.
type QuotedTrade struct {
	Trade *domain.Trade
	// Limit is the minimum output for exact input trades and the maximum
	// input for exact output trades.
	Limit    asset.Amount
	Swap     *domain.SwapParameters
	Calldata []byte
}

// Quote is the result of a QuoteRequest.
type Quote struct {
	ID             string
	ChainID        uint64
	TradeType      domain.TradeType
	Slippage       fraction.Percent
	CandidatePairs int
	Trades         []QuotedTrade
}

// Best returns the top ranked trade.
func (q *Quote) Best() QuotedTrade {
	return q.Trades[0]
}

type serviceMetrics struct {
	quotesTotal    metric.Int64Counter
	quoteLatency   metric.Float64Histogram
	quoteErrors    metric.Int64Counter
	candidatePairs metric.Int64Histogram
}

// QuoteService enumerates candidate pairs, runs the best-trade search and
// prepares router calls.
type QuoteService struct {
	cfg      Config
	registry *asset.Registry
	reserves ReserveSource
	tokens   TokenSource     // optional
	encoder  CalldataEncoder // optional
	logger   logger.LoggerInterface

	tracer  apm.Tracer
	metrics *serviceMetrics
}

// NewQuoteService creates a QuoteService. tokens and encoder may be nil.
func NewQuoteService(
	cfg Config,
	registry *asset.Registry,
	reserves ReserveSource,
	tokens TokenSource,
	encoder CalldataEncoder,
	log logger.LoggerInterface,
) (*QuoteService, error) {
	if _, err := asset.WrappedNative(cfg.ChainID); err != nil {
		return nil, err
	}

	s := &QuoteService{
		cfg:      cfg,
		registry: registry,
		reserves: reserves,
		tokens:   tokens,
		encoder:  encoder,
		logger:   log,
		tracer:   apm.NewTracer(tracerName),
	}

	if err := s.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	return s, nil
}

func (s *QuoteService) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	s.metrics = &serviceMetrics{}

	s.metrics.quotesTotal, err = meter.Int64Counter(
		"router_quotes_total",
		metric.WithDescription("Total quote requests"),
	)
	if err != nil {
		return err
	}

	s.metrics.quoteLatency, err = meter.Float64Histogram(
		"router_quote_latency_ms",
		metric.WithDescription("Quote latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	s.metrics.quoteErrors, err = meter.Int64Counter(
		"router_quote_errors_total",
		metric.WithDescription("Total failed quotes"),
	)
	if err != nil {
		return err
	}

	s.metrics.candidatePairs, err = meter.Int64Histogram(
		"router_candidate_pairs",
		metric.WithDescription("Pairs with reserves considered per quote"),
		metric.WithUnit("{pair}"),
	)
	if err != nil {
		return err
	}

	return nil
}

// ChainID returns the chain the service quotes on.
func (s *QuoteService) ChainID() uint64 {
	return s.cfg.ChainID
}

// Quote returns the best trades for req. Errors are *apperror.AppError.
func (s *QuoteService) Quote(ctx context.Context, req QuoteRequest) (*Quote, error) {
	ctx, span := s.tracer.StartSpanFromContext(ctx, "routing.quote",
		trace.WithAttributes(
			attribute.String("token_in", req.TokenIn),
			attribute.String("token_out", req.TokenOut),
			attribute.String("amount", req.Amount),
			attribute.String("trade_type", req.TradeType.String()),
		),
	)
	defer span.End()

	start := time.Now()
	typeAttr := metric.WithAttributes(attribute.String("trade_type", req.TradeType.String()))
	s.metrics.quotesTotal.Add(ctx, 1, typeAttr)

	quote, err := s.quote(ctx, req)

	s.metrics.quoteLatency.Record(ctx, float64(time.Since(start).Milliseconds()), typeAttr)

	if err != nil {
		appErr := toAppError(err)
		s.metrics.quoteErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("code", string(appErr.Code))))
		span.NoticeError(appErr)
		s.logger.Debug(ctx, "quote failed", append([]any{"token_in", req.TokenIn, "token_out", req.TokenOut}, appErr.LogArgs()...)...)
		return nil, appErr
	}

	best := quote.Best().Trade
	span.SetAttributes(
		attribute.String("quote_id", quote.ID),
		attribute.Int("candidate_pairs", quote.CandidatePairs),
		attribute.Int("trades", len(quote.Trades)),
		attribute.String("route", best.Route().String()),
	)

	s.logger.Debug(ctx, "quote",
		"quote_id", quote.ID,
		"trade_type", req.TradeType.String(),
		"input", best.InputAmount().String(),
		"output", best.OutputAmount().String(),
		"route", best.Route().String(),
		"price_impact", best.PriceImpact().String(),
		"candidate_pairs", quote.CandidatePairs,
	)

	return quote, nil
}

func (s *QuoteService) quote(ctx context.Context, req QuoteRequest) (*Quote, error) {
	currencyIn, err := s.resolve(ctx, req.TokenIn)
	if err != nil {
		return nil, err
	}
	currencyOut, err := s.resolve(ctx, req.TokenOut)
	if err != nil {
		return nil, err
	}
	if sameToken(currencyIn, currencyOut, s.cfg.ChainID) {
		return nil, apperror.Validation(apperror.CodeInvalidInput, "input and output wrap to the same token")
	}

	fixed := currencyIn
	if req.TradeType == domain.ExactOutput {
		fixed = currencyOut
	}
	amount, err := asset.ParseString(fixed, req.Amount)
	if err != nil {
		return nil, apperror.New(apperror.CodeInvalidTradeSize, apperror.WithCause(err), apperror.WithContext(req.Amount))
	}
	if amount.IsZero() {
		return nil, apperror.Validation(apperror.CodeInvalidTradeSize, "amount must be positive")
	}

	slippage := s.cfg.Slippage
	if req.SlippageBps != nil {
		slippage = fraction.NewPercent(*req.SlippageBps, 10_000)
	}
	if slippage.Sign() < 0 {
		return nil, apperror.Wrap(domain.ErrNegativeSlippage, apperror.CodeInvalidSlippage, "")
	}

	pairs, err := s.CandidatePairs(ctx, currencyIn, currencyOut)
	if err != nil {
		return nil, err
	}
	s.metrics.candidatePairs.Record(ctx, int64(len(pairs)))
	if len(pairs) == 0 {
		return nil, apperror.New(apperror.CodeNoRouteFound,
			apperror.WithContext(fmt.Sprintf("no pools between %s and %s", currencyIn, currencyOut)))
	}

	opts := domain.BestTradeOptions{
		MaxNumResults: orDefault(req.MaxResults, s.cfg.MaxResults),
		MaxHops:       orDefault(req.MaxHops, s.cfg.MaxHops),
	}

	var trades []*domain.Trade
	if req.TradeType == domain.ExactOutput {
		trades, err = domain.BestTradeExactOut(pairs, currencyIn, amount, opts)
	} else {
		trades, err = domain.BestTradeExactIn(pairs, amount, currencyOut, opts)
	}
	if err != nil {
		return nil, err
	}
	if len(trades) == 0 {
		return nil, apperror.New(apperror.CodeNoRouteFound,
			apperror.WithContext(fmt.Sprintf("%s to %s within %d hops", currencyIn, currencyOut, opts.MaxHops)))
	}

	quote := &Quote{
		ID:             uuid.NewString(),
		ChainID:        s.cfg.ChainID,
		TradeType:      req.TradeType,
		Slippage:       slippage,
		CandidatePairs: len(pairs),
		Trades:         make([]QuotedTrade, 0, len(trades)),
	}

	for _, t := range trades {
		qt, err := s.prepare(t, req, slippage)
		if err != nil {
			return nil, err
		}
		quote.Trades = append(quote.Trades, qt)
	}

	return quote, nil
}

func (s *QuoteService) prepare(t *domain.Trade, req QuoteRequest, slippage fraction.Percent) (QuotedTrade, error) {
	qt := QuotedTrade{Trade: t}

	var err error
	if t.TradeType() == domain.ExactOutput {
		qt.Limit, err = t.MaximumAmountIn(slippage)
	} else {
		qt.Limit, err = t.MinimumAmountOut(slippage)
	}
	if err != nil {
		return QuotedTrade{}, err
	}

	if req.Recipient == "" {
		return qt, nil
	}

	params, err := domain.SwapCallParameters(t, domain.TradeOptions{
		AllowedSlippage: slippage,
		TTL:             orDefault(req.TTL, s.cfg.TTL),
		Recipient:       req.Recipient,
		FeeOnTransfer:   req.FeeOnTransfer,
	})
	if err != nil {
		return QuotedTrade{}, err
	}
	qt.Swap = &params

	if s.encoder != nil {
		qt.Calldata, err = s.encoder.Encode(params)
		if err != nil {
			return QuotedTrade{}, apperror.Internal(apperror.CodeInternalError, "encoding router call", err)
		}
	}

	return qt, nil
}

// Pair returns the pool of two currencies with its current reserves.
func (s *QuoteService) Pair(ctx context.Context, refA, refB string) (*domain.Pair, error) {
	ctx, span := s.tracer.StartSpanFromContext(ctx, "routing.pair")
	defer span.End()

	pair, err := s.pair(ctx, refA, refB)
	if err != nil {
		appErr := toAppError(err)
		span.NoticeError(appErr)
		return nil, appErr
	}
	return pair, nil
}

func (s *QuoteService) pair(ctx context.Context, refA, refB string) (*domain.Pair, error) {
	a, err := s.resolve(ctx, refA)
	if err != nil {
		return nil, err
	}
	b, err := s.resolve(ctx, refB)
	if err != nil {
		return nil, err
	}
	tokenA, err := asset.Wrap(a, s.cfg.ChainID)
	if err != nil {
		return nil, err
	}
	tokenB, err := asset.Wrap(b, s.cfg.ChainID)
	if err != nil {
		return nil, err
	}
	if tokenA.Equals(tokenB) {
		return nil, apperror.Validation(apperror.CodeInvalidInput, "a pair needs two distinct tokens")
	}
	return s.reserves.Pair(ctx, tokenA, tokenB)
}

func sameToken(a, b *asset.Currency, chainID uint64) bool {
	wa, errA := asset.Wrap(a, chainID)
	wb, errB := asset.Wrap(b, chainID)
	return errA == nil && errB == nil && wa.Equals(wb)
}

type pairKey struct {
	lo, hi common.Address
}

func keyOf(a, b *asset.Currency) pairKey {
	if before, _ := a.SortsBefore(b); before {
		return pairKey{a.Address(), b.Address()}
	}
	return pairKey{b.Address(), a.Address()}
}

// CandidatePairs returns every pool with reserves among the two currencies
// and the configured base tokens: the direct pair, each side against each
// base, and the bases against each other.
func (s *QuoteService) CandidatePairs(ctx context.Context, a, b *asset.Currency) ([]*domain.Pair, error) {
	tokenA, err := asset.Wrap(a, s.cfg.ChainID)
	if err != nil {
		return nil, err
	}
	tokenB, err := asset.Wrap(b, s.cfg.ChainID)
	if err != nil {
		return nil, err
	}

	bases := s.baseTokens(ctx)

	seen := mapset.NewThreadUnsafeSet[pairKey]()
	var combos [][2]*asset.Currency
	add := func(x, y *asset.Currency) {
		if x.Equals(y) {
			return
		}
		if seen.Add(keyOf(x, y)) {
			combos = append(combos, [2]*asset.Currency{x, y})
		}
	}

	add(tokenA, tokenB)
	for _, base := range bases {
		add(tokenA, base)
		add(tokenB, base)
	}
	for i, x := range bases {
		for _, y := range bases[i+1:] {
			add(x, y)
		}
	}

	return s.fetchPairs(ctx, combos)
}

// PairsAmong returns every pool with reserves between any two of refs.
// The native coin counts as its wrapped token.
func (s *QuoteService) PairsAmong(ctx context.Context, refs []string) ([]*domain.Pair, error) {
	ctx, span := s.tracer.StartSpanFromContext(ctx, "routing.pairs_among")
	defer span.End()

	tokens := make([]*asset.Currency, 0, len(refs))
	seen := mapset.NewThreadUnsafeSet[asset.ID]()
	for _, ref := range refs {
		c, err := s.resolve(ctx, ref)
		if err != nil {
			span.NoticeError(err)
			return nil, err
		}
		token, err := asset.Wrap(c, s.cfg.ChainID)
		if err != nil {
			return nil, toAppError(err)
		}
		if seen.Add(token.ID()) {
			tokens = append(tokens, token)
		}
	}

	var combos [][2]*asset.Currency
	for i, x := range tokens {
		for _, y := range tokens[i+1:] {
			combos = append(combos, [2]*asset.Currency{x, y})
		}
	}

	pairs, err := s.fetchPairs(ctx, combos)
	if err != nil {
		appErr := toAppError(err)
		span.NoticeError(appErr)
		return nil, appErr
	}
	return pairs, nil
}

// fetchPairs looks up every combination concurrently. Missing pools and
// failing lookups are skipped; only cancellation aborts.
func (s *QuoteService) fetchPairs(ctx context.Context, combos [][2]*asset.Currency) ([]*domain.Pair, error) {
	found := make([]*domain.Pair, len(combos))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	for i, combo := range combos {
		g.Go(func() error {
			pair, err := s.reserves.Pair(gctx, combo[0], combo[1])
			switch {
			case err == nil:
				found[i] = pair
			case errors.Is(err, ErrPairNotFound):
				s.logger.Debug(gctx, "no pool", "token_a", combo[0].String(), "token_b", combo[1].String())
			case gctx.Err() != nil:
				return gctx.Err()
			default:
				s.logger.Warn(gctx, "skipping pair", "token_a", combo[0].String(), "token_b", combo[1].String(), "error", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	pairs := make([]*domain.Pair, 0, len(found))
	for _, p := range found {
		if p != nil && p.HasReserves() {
			pairs = append(pairs, p)
		}
	}
	return pairs, nil
}

func (s *QuoteService) baseTokens(ctx context.Context) []*asset.Currency {
	bases := make([]*asset.Currency, 0, len(s.cfg.BaseTokens))
	for _, ref := range s.cfg.BaseTokens {
		c, err := s.resolve(ctx, ref)
		if err != nil {
			s.logger.Debug(ctx, "ignoring base token", "ref", ref, "error", err)
			continue
		}
		token, err := asset.Wrap(c, s.cfg.ChainID)
		if err != nil {
			continue
		}
		bases = append(bases, token)
	}
	return bases
}

// resolve looks a reference up in the registry, falling back to the token
// source for unknown addresses. Fetched tokens are registered.
func (s *QuoteService) resolve(ctx context.Context, ref string) (*asset.Currency, error) {
	c, err := s.registry.Resolve(s.cfg.ChainID, ref)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, asset.ErrUnknownCurrency) || s.tokens == nil || !common.IsHexAddress(ref) {
		return nil, apperror.New(apperror.CodeUnknownToken, apperror.WithCause(err), apperror.WithContext(ref))
	}

	c, err = s.tokens.Token(ctx, s.cfg.ChainID, common.HexToAddress(ref))
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeUnknownToken, ref)
	}
	if err := s.registry.Register(c); err != nil && !errors.Is(err, asset.ErrAlreadyRegistered) {
		return nil, err
	}
	return c, nil
}

func orDefault[T int | time.Duration](v, def T) T {
	if v == 0 {
		return def
	}
	return v
}

func toAppError(err error) *apperror.AppError {
	var appErr *apperror.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, ErrPairNotFound):
		return apperror.Wrap(err, apperror.CodePairNotFound, "")
	case domain.IsRecoverable(err):
		return apperror.Wrap(err, apperror.CodeInsufficientLiquidity, "")
	case errors.Is(err, asset.ErrUnknownCurrency):
		return apperror.Wrap(err, apperror.CodeUnknownToken, "")
	case errors.Is(err, domain.ErrNegativeSlippage):
		return apperror.Wrap(err, apperror.CodeInvalidSlippage, "")
	case domain.IsContractViolation(err):
		return apperror.Wrap(err, apperror.CodeContractViolation, "")
	case errors.Is(err, context.DeadlineExceeded):
		return apperror.Wrap(err, apperror.CodeServiceTimeout, "")
	default:
		return apperror.Wrap(err, apperror.CodeInternalError, "")
	}
}
