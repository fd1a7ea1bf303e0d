package domain

import (
	"fmt"
	"math/big"
	"time"

	"github.com/fd1az/v2-router/internal/asset"
	"github.com/fd1az/v2-router/internal/fraction"
)

// Router02 swap entry points.
const (
	MethodSwapExactETHForTokens                                 = "swapExactETHForTokens"
	MethodSwapExactETHForTokensSupportingFeeOnTransferTokens    = "swapExactETHForTokensSupportingFeeOnTransferTokens"
	MethodSwapExactTokensForETH                                 = "swapExactTokensForETH"
	MethodSwapExactTokensForETHSupportingFeeOnTransferTokens    = "swapExactTokensForETHSupportingFeeOnTransferTokens"
	MethodSwapExactTokensForTokens                              = "swapExactTokensForTokens"
	MethodSwapExactTokensForTokensSupportingFeeOnTransferTokens = "swapExactTokensForTokensSupportingFeeOnTransferTokens"
	MethodSwapETHForExactTokens                                 = "swapETHForExactTokens"
	MethodSwapTokensForExactETH                                 = "swapTokensForExactETH"
	MethodSwapTokensForExactTokens                              = "swapTokensForExactTokens"
)

// TradeOptions configures the router call built for a trade.
type TradeOptions struct {
	// AllowedSlippage bounds the minimum output or maximum input.
	AllowedSlippage fraction.Percent
	// TTL is added to Now to form the deadline; it must be at least a second.
	TTL time.Duration
	// Recipient receives the output; a hex address.
	Recipient string
	// FeeOnTransfer selects the SupportingFeeOnTransferTokens variants.
	FeeOnTransfer bool
	// Now defaults to time.Now.
	Now func() time.Time
}

// SwapParameters is a router method call. Integers are 0x-prefixed hex
// without padding, path is a []string of checksummed addresses.
type SwapParameters struct {
	MethodName string
	Args       []any
	Value      string
}

// SwapCallParameters maps a trade to the router method, arguments and
// native value to send.
func SwapCallParameters(trade *Trade, opts TradeOptions) (SwapParameters, error) {
	etherIn := trade.InputAmount().Currency().IsNative()
	etherOut := trade.OutputAmount().Currency().IsNative()
	if etherIn && etherOut {
		return SwapParameters{}, ErrEtherInOut
	}
	ttl := int64(opts.TTL / time.Second)
	if ttl <= 0 {
		return SwapParameters{}, fmt.Errorf("%w: %s", ErrInvalidTTL, opts.TTL)
	}
	to, err := asset.ParseAddress(opts.Recipient)
	if err != nil {
		return SwapParameters{}, err
	}

	maxIn, err := trade.MaximumAmountIn(opts.AllowedSlippage)
	if err != nil {
		return SwapParameters{}, err
	}
	minOut, err := trade.MinimumAmountOut(opts.AllowedSlippage)
	if err != nil {
		return SwapParameters{}, err
	}
	amountIn := toHex(maxIn.Raw())
	amountOut := toHex(minOut.Raw())

	path := make([]string, 0, len(trade.Route().Path()))
	for _, c := range trade.Route().Path() {
		path = append(path, c.Address().Hex())
	}

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	deadline := toHex(big.NewInt(now().Unix() + ttl))
	recipient := to.Hex()

	var params SwapParameters
	switch trade.TradeType() {
	case ExactInput:
		switch {
		case etherIn:
			params.MethodName = MethodSwapExactETHForTokens
			if opts.FeeOnTransfer {
				params.MethodName = MethodSwapExactETHForTokensSupportingFeeOnTransferTokens
			}
			params.Args = []any{amountOut, path, recipient, deadline}
			params.Value = amountIn
		case etherOut:
			params.MethodName = MethodSwapExactTokensForETH
			if opts.FeeOnTransfer {
				params.MethodName = MethodSwapExactTokensForETHSupportingFeeOnTransferTokens
			}
			params.Args = []any{amountIn, amountOut, path, recipient, deadline}
			params.Value = zeroHex
		default:
			params.MethodName = MethodSwapExactTokensForTokens
			if opts.FeeOnTransfer {
				params.MethodName = MethodSwapExactTokensForTokensSupportingFeeOnTransferTokens
			}
			params.Args = []any{amountIn, amountOut, path, recipient, deadline}
			params.Value = zeroHex
		}

	case ExactOutput:
		if opts.FeeOnTransfer {
			return SwapParameters{}, ErrExactOutFeeOnTransfer
		}
		switch {
		case etherIn:
			params.MethodName = MethodSwapETHForExactTokens
			params.Args = []any{amountOut, path, recipient, deadline}
			params.Value = amountIn
		case etherOut:
			params.MethodName = MethodSwapTokensForExactETH
			params.Args = []any{amountOut, amountIn, path, recipient, deadline}
			params.Value = zeroHex
		default:
			params.MethodName = MethodSwapTokensForExactTokens
			params.Args = []any{amountOut, amountIn, path, recipient, deadline}
			params.Value = zeroHex
		}
	}
	return params, nil
}

const zeroHex = "0x0"

func toHex(n *big.Int) string {
	return "0x" + n.Text(16)
}
