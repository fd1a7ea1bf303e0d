// Package uniswapv2 reads pair reserves and token metadata from a Uniswap V2
// deployment and encodes Router02 calls.
package uniswapv2

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/v2-router/business/routing/app"
	"github.com/fd1az/v2-router/business/routing/domain"
	"github.com/fd1az/v2-router/internal/apperror"
	"github.com/fd1az/v2-router/internal/asset"
	"github.com/fd1az/v2-router/internal/cache"
	"github.com/fd1az/v2-router/internal/circuitbreaker"
	"github.com/fd1az/v2-router/internal/logger"
	"github.com/fd1az/v2-router/internal/ratelimit"
)

const (
	tracerName = "uniswapv2"
	meterName  = "uniswapv2"
)

var (
	_ app.ReserveSource = (*Fetcher)(nil)
	_ app.TokenSource   = (*Fetcher)(nil)
)

// Config configures a Fetcher.
type Config struct {
	ChainID     uint64
	CallTimeout time.Duration
	// TokenTTL bounds how long token metadata is cached; zero keeps it forever.
	TokenTTL time.Duration
}

type fetcherMetrics struct {
	callsTotal  metric.Int64Counter
	callLatency metric.Float64Histogram
	callErrors  metric.Int64Counter
}

// Fetcher implements app.ReserveSource and app.TokenSource over eth_call.
type Fetcher struct {
	client  ethereum.ContractCaller
	factory *domain.PairFactory
	cfg     Config

	limiter *ratelimit.Limiter
	cb      *circuitbreaker.CircuitBreaker[[]byte]
	tokens  *cache.Cache[asset.ID, *asset.Currency]
	logger  logger.LoggerInterface

	tracer  trace.Tracer
	metrics *fetcherMetrics
}

// NewFetcher creates a Fetcher. A nil limiter means no throttling.
func NewFetcher(
	client ethereum.ContractCaller,
	factory *domain.PairFactory,
	cfg Config,
	limiter *ratelimit.Limiter,
	log logger.LoggerInterface,
) (*Fetcher, error) {
	if limiter == nil {
		limiter = ratelimit.Unlimited()
	}

	f := &Fetcher{
		client:  client,
		factory: factory,
		cfg:     cfg,
		limiter: limiter,
		tokens:  cache.New[asset.ID, *asset.Currency](time.Minute),
		logger:  log,
		tracer:  otel.Tracer(tracerName),
	}

	cbCfg := circuitbreaker.DefaultConfig("uniswapv2-rpc")
	// a revert is an answer from a healthy node
	cbCfg.IsSuccessful = func(err error) bool {
		var dataErr rpc.DataError
		return err == nil || errors.As(err, &dataErr)
	}
	cbCfg.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Warn(context.Background(), "circuit breaker state change",
			"breaker", name, "from", from.String(), "to", to.String())
	}
	f.cb = circuitbreaker.New[[]byte](cbCfg)

	if err := f.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	return f, nil
}

func (f *Fetcher) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	f.metrics = &fetcherMetrics{}

	f.metrics.callsTotal, err = meter.Int64Counter(
		"uniswapv2_calls_total",
		metric.WithDescription("Total eth_call requests"),
	)
	if err != nil {
		return err
	}

	f.metrics.callLatency, err = meter.Float64Histogram(
		"uniswapv2_call_latency_ms",
		metric.WithDescription("eth_call latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	f.metrics.callErrors, err = meter.Int64Counter(
		"uniswapv2_call_errors_total",
		metric.WithDescription("Total failed eth_call requests"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Close stops the token cache janitor.
func (f *Fetcher) Close() {
	f.tokens.Close()
}

// BreakerState reports the RPC circuit breaker state.
func (f *Fetcher) BreakerState() gobreaker.State {
	return f.cb.State()
}

// Check reports unhealthy while the breaker is open.
func (f *Fetcher) Check(_ context.Context) (bool, string) {
	state := f.cb.State()
	return state != gobreaker.StateOpen, "rpc breaker " + state.String()
}

// Pair reads the reserves of the pool of two tokens. A pool that was never
// created has no code, so the call returns nothing and the result is
// app.ErrPairNotFound.
func (f *Fetcher) Pair(ctx context.Context, tokenA, tokenB *asset.Currency) (*domain.Pair, error) {
	token0, token1, err := asset.Sort(tokenA, tokenB)
	if err != nil {
		return nil, err
	}
	addr, err := f.factory.Address(token0, token1)
	if err != nil {
		return nil, err
	}

	ctx, span := f.tracer.Start(ctx, "uniswapv2.pair",
		trace.WithAttributes(
			attribute.String("pair", addr.Hex()),
			attribute.String("token0", token0.Symbol()),
			attribute.String("token1", token1.Symbol()),
		),
	)
	defer span.End()

	reserves, err := f.reserves(ctx, addr)
	if err != nil {
		if !errors.Is(err, app.ErrPairNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "getReserves failed")
		}
		return nil, err
	}

	amount0, err := asset.NewAmount(token0, reserves.Reserve0)
	if err != nil {
		return nil, err
	}
	amount1, err := asset.NewAmount(token1, reserves.Reserve1)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.String("reserve0", reserves.Reserve0.String()),
		attribute.String("reserve1", reserves.Reserve1.String()),
	)

	f.logger.Debug(ctx, "pair reserves",
		"pair", addr.Hex(),
		"reserve0", amount0.String(),
		"reserve1", amount1.String(),
		"block_timestamp_last", reserves.BlockTimestampLast,
	)

	return f.factory.NewPair(amount0, amount1)
}

func (f *Fetcher) reserves(ctx context.Context, pair common.Address) (*Reserves, error) {
	data, err := pairABI.Pack("getReserves")
	if err != nil {
		return nil, err
	}

	result, err := f.call(ctx, pair, data)
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("%w: %s", app.ErrPairNotFound, pair.Hex())
	}

	var out Reserves
	if err := pairABI.UnpackIntoInterface(&out, "getReserves", result); err != nil {
		return nil, fmt.Errorf("failed to decode getReserves: %w", err)
	}
	return &out, nil
}

// Token reads decimals, symbol and name of an ERC20. Decimals are required;
// a token without a string symbol falls back to an address prefix.
func (f *Fetcher) Token(ctx context.Context, chainID uint64, address common.Address) (*asset.Currency, error) {
	if chainID != f.cfg.ChainID {
		return nil, apperror.New(apperror.CodeUnsupportedChain,
			apperror.WithContext(fmt.Sprintf("fetcher serves chain %d, not %d", f.cfg.ChainID, chainID)))
	}

	id := asset.NewTokenID(chainID, address)
	if t, ok := f.tokens.Get(ctx, id); ok {
		return t, nil
	}

	ctx, span := f.tracer.Start(ctx, "uniswapv2.token",
		trace.WithAttributes(attribute.String("token", address.Hex())))
	defer span.End()

	decimals, err := f.decimals(ctx, address)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "decimals failed")
		return nil, err
	}

	symbol, err := f.stringCall(ctx, address, "symbol")
	if err != nil || symbol == "" {
		symbol = address.Hex()[:8]
	}
	name, err := f.stringCall(ctx, address, "name")
	if err != nil {
		name = ""
	}

	token := asset.NewTokenFromAddress(chainID, address, decimals, symbol, name)
	f.tokens.Set(ctx, id, token, f.cfg.TokenTTL)

	f.logger.Debug(ctx, "token metadata",
		"token", address.Hex(),
		"symbol", symbol,
		"decimals", decimals,
	)
	return token, nil
}

func (f *Fetcher) decimals(ctx context.Context, token common.Address) (uint8, error) {
	data, err := erc20ABI.Pack("decimals")
	if err != nil {
		return 0, err
	}
	result, err := f.call(ctx, token, data)
	if err != nil {
		return 0, err
	}
	if len(result) == 0 {
		return 0, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithContext(token.Hex()+" is not an ERC20"))
	}

	outputs, err := erc20ABI.Unpack("decimals", result)
	if err != nil {
		return 0, fmt.Errorf("failed to decode decimals: %w", err)
	}
	d, ok := outputs[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("unexpected decimals type %T", outputs[0])
	}
	return d, nil
}

func (f *Fetcher) stringCall(ctx context.Context, token common.Address, method string) (string, error) {
	data, err := erc20ABI.Pack(method)
	if err != nil {
		return "", err
	}
	result, err := f.call(ctx, token, data)
	if err != nil {
		return "", err
	}

	outputs, err := erc20ABI.Unpack(method, result)
	if err != nil {
		return "", err
	}
	s, ok := outputs[0].(string)
	if !ok {
		return "", fmt.Errorf("unexpected %s type %T", method, outputs[0])
	}
	return s, nil
}

// call runs one eth_call through the rate limiter and the circuit breaker.
func (f *Fetcher) call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, apperror.New(apperror.CodeRateLimitExceeded, apperror.WithCause(err))
	}

	if f.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.cfg.CallTimeout)
		defer cancel()
	}

	start := time.Now()
	f.metrics.callsTotal.Add(ctx, 1)

	result, err := f.cb.Execute(func() ([]byte, error) {
		return f.client.CallContract(ctx, ethereum.CallMsg{
			To:   &to,
			Data: data,
		}, nil)
	})

	f.metrics.callLatency.Record(ctx, float64(time.Since(start).Milliseconds()))

	if err != nil {
		f.metrics.callErrors.Add(ctx, 1)
		if circuitbreaker.IsRejected(err) {
			return nil, apperror.New(apperror.CodeCircuitOpen, apperror.WithCause(err), apperror.WithContext(f.cb.Name()))
		}
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext(to.Hex()))
	}
	return result, nil
}
