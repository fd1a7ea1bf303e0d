package domain

import (
	"fmt"

	"github.com/fd1az/v2-router/internal/asset"
	"github.com/fd1az/v2-router/internal/fraction"
)

// TradeType fixes which side of a trade is known.
type TradeType int

const (
	ExactInput TradeType = iota
	ExactOutput
)

// String returns a human-readable trade type.
func (t TradeType) String() string {
	switch t {
	case ExactInput:
		return "exact_input"
	case ExactOutput:
		return "exact_output"
	default:
		return fmt.Sprintf("TradeType(%d)", int(t))
	}
}

// Trade is the simulated execution of one amount along a route, computed
// against the route's reserve snapshot.
type Trade struct {
	route          *Route
	tradeType      TradeType
	inputAmount    asset.Amount
	outputAmount   asset.Amount
	executionPrice asset.Price
	nextMidPrice   asset.Price
	priceImpact    fraction.Percent
}

// ExactIn simulates spending amountIn along route.
func ExactIn(route *Route, amountIn asset.Amount) (*Trade, error) {
	return NewTrade(route, amountIn, ExactInput)
}

// ExactOut simulates receiving amountOut along route.
func ExactOut(route *Route, amountOut asset.Amount) (*Trade, error) {
	return NewTrade(route, amountOut, ExactOutput)
}

// NewTrade propagates amount through the route hop by hop, forward for
// ExactInput and backward for ExactOutput.
func NewTrade(route *Route, amount asset.Amount, tradeType TradeType) (*Trade, error) {
	chainID := route.ChainID()
	pairs := route.Pairs()
	amounts := make([]asset.Amount, len(pairs)+1)
	nextPairs := make([]*Pair, len(pairs))

	var input, output asset.Amount
	switch tradeType {
	case ExactInput:
		if !amount.Currency().Equals(route.Input()) {
			return nil, fmt.Errorf("%w: %s is not route input %s", ErrTradeCurrency, amount.Currency(), route.Input())
		}
		wrapped, err := asset.WrapAmount(amount, chainID)
		if err != nil {
			return nil, err
		}
		amounts[0] = wrapped
		for i, p := range pairs {
			out, next, err := p.OutputAmount(amounts[i])
			if err != nil {
				return nil, err
			}
			amounts[i+1] = out
			nextPairs[i] = next
		}
		input = amount
		if output, err = unwrapAs(amounts[len(amounts)-1], route.Output()); err != nil {
			return nil, err
		}

	case ExactOutput:
		if !amount.Currency().Equals(route.Output()) {
			return nil, fmt.Errorf("%w: %s is not route output %s", ErrTradeCurrency, amount.Currency(), route.Output())
		}
		wrapped, err := asset.WrapAmount(amount, chainID)
		if err != nil {
			return nil, err
		}
		amounts[len(amounts)-1] = wrapped
		for i := len(pairs) - 1; i >= 0; i-- {
			in, next, err := pairs[i].InputAmount(amounts[i+1])
			if err != nil {
				return nil, err
			}
			amounts[i] = in
			nextPairs[i] = next
		}
		output = amount
		if input, err = unwrapAs(amounts[0], route.Input()); err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("%w: unknown trade type %d", ErrContractViolation, int(tradeType))
	}

	nextRoute, err := NewRoute(nextPairs, route.Input(), nil)
	if err != nil {
		return nil, err
	}

	return &Trade{
		route:          route,
		tradeType:      tradeType,
		inputAmount:    input,
		outputAmount:   output,
		executionPrice: asset.PriceFromAmounts(input, output),
		nextMidPrice:   nextRoute.MidPrice(),
		priceImpact:    priceImpact(route.MidPrice(), input, output),
	}, nil
}

// unwrapAs reports a wrapped amount in the route's currency, which may be native.
func unwrapAs(a asset.Amount, c *asset.Currency) (asset.Amount, error) {
	if c.IsNative() {
		return asset.NewAmount(asset.Ether, a.Raw())
	}
	return a, nil
}

// priceImpact is (mid*in - out) / (mid*in) in raw units.
func priceImpact(mid asset.Price, in, out asset.Amount) fraction.Percent {
	exact := mid.Raw().MulInt(in.Raw())
	return fraction.PercentFrom(exact.Sub(fraction.FromInt(out.Raw())).Div(exact))
}

// Route returns the route the trade executes along.
func (t *Trade) Route() *Route { return t.route }

// TradeType returns which side of the trade is fixed.
func (t *Trade) TradeType() TradeType { return t.tradeType }

// InputAmount returns the amount spent.
func (t *Trade) InputAmount() asset.Amount { return t.inputAmount }

// OutputAmount returns the amount received.
func (t *Trade) OutputAmount() asset.Amount { return t.outputAmount }

// ExecutionPrice returns output per input as realized by the trade.
func (t *Trade) ExecutionPrice() asset.Price { return t.executionPrice }

// NextMidPrice returns the route mid price after the trade settles.
func (t *Trade) NextMidPrice() asset.Price { return t.nextMidPrice }

// PriceImpact returns the shortfall against the pre-trade mid price.
func (t *Trade) PriceImpact() fraction.Percent { return t.priceImpact }

// MinimumAmountOut returns the least output accepted under the slippage
// tolerance. Exact-output trades return their output unchanged.
func (t *Trade) MinimumAmountOut(slippage fraction.Percent) (asset.Amount, error) {
	if slippage.Sign() < 0 {
		return asset.Amount{}, ErrNegativeSlippage
	}
	if t.tradeType == ExactOutput {
		return t.outputAmount, nil
	}
	adjusted := fraction.NewInt64(1, 1).Add(slippage.Fraction).Invert().MulInt(t.outputAmount.Raw())
	return asset.NewAmount(t.outputAmount.Currency(), adjusted.Quotient())
}

// MaximumAmountIn returns the most input spent under the slippage
// tolerance. Exact-input trades return their input unchanged.
func (t *Trade) MaximumAmountIn(slippage fraction.Percent) (asset.Amount, error) {
	if slippage.Sign() < 0 {
		return asset.Amount{}, ErrNegativeSlippage
	}
	if t.tradeType == ExactInput {
		return t.inputAmount, nil
	}
	adjusted := fraction.NewInt64(1, 1).Add(slippage.Fraction).MulInt(t.inputAmount.Raw())
	return asset.NewAmount(t.inputAmount.Currency(), adjusted.Quotient())
}

// String returns a one-line summary.
func (t *Trade) String() string {
	return fmt.Sprintf("%s %s -> %s via %s", t.tradeType, t.inputAmount, t.outputAmount, t.route)
}

// CompareInputOutput orders trades with more output first, then less input.
// It panics if the trades do not share input and output currencies.
func CompareInputOutput(a, b *Trade) int {
	if !a.inputAmount.Currency().Equals(b.inputAmount.Currency()) ||
		!a.outputAmount.Currency().Equals(b.outputAmount.Currency()) {
		panic(fmt.Errorf("%w: comparing %s and %s", ErrTradeCurrency, a, b))
	}

	if c := a.outputAmount.Raw().Cmp(b.outputAmount.Raw()); c != 0 {
		return -c
	}
	return a.inputAmount.Raw().Cmp(b.inputAmount.Raw())
}

// CompareTrades ranks trades: more output, then less input, then lower
// price impact, then fewer hops. Negative means a ranks before b.
func CompareTrades(a, b *Trade) int {
	if c := CompareInputOutput(a, b); c != 0 {
		return c
	}
	if c := a.priceImpact.Cmp(b.priceImpact.Fraction); c != 0 {
		return c
	}
	return len(a.route.path) - len(b.route.path)
}
