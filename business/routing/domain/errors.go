// Package domain contains the pricing and route-search engine for
// constant-product pairs. Everything here is pure: no I/O, no logging.
package domain

import (
	"errors"
	"fmt"

	"github.com/fd1az/v2-router/internal/asset"
)

// ErrContractViolation is wrapped by every error caused by a caller bug.
// Asset-level violations wrap asset.ErrContractViolation instead.
var ErrContractViolation = errors.New("routing: contract violation")

// Recoverable swap conditions. The search skips branches that raise them.
var (
	ErrInsufficientReserves    = errors.New("routing: insufficient reserves")
	ErrInsufficientInputAmount = errors.New("routing: insufficient input amount")
)

// Contract violations
var (
	ErrTokenNotInPair         = fmt.Errorf("%w: token not in pair", ErrContractViolation)
	ErrNotLiquidityToken      = fmt.Errorf("%w: amount is not in the liquidity token", ErrContractViolation)
	ErrLiquidityExceedsSupply = fmt.Errorf("%w: liquidity exceeds total supply", ErrContractViolation)
	ErrKLastRequired          = fmt.Errorf("%w: kLast required when fee is on", ErrContractViolation)
	ErrNoPairs                = fmt.Errorf("%w: no pairs", ErrContractViolation)
	ErrChainMismatch          = fmt.Errorf("%w: pairs span multiple chains", ErrContractViolation)
	ErrRouteInput             = fmt.Errorf("%w: input not in first pair", ErrContractViolation)
	ErrRouteOutput            = fmt.Errorf("%w: output not in last pair", ErrContractViolation)
	ErrBrokenPath             = fmt.Errorf("%w: pairs do not form a path", ErrContractViolation)
	ErrTradeCurrency          = fmt.Errorf("%w: amount currency does not match route", ErrContractViolation)
	ErrNegativeSlippage       = fmt.Errorf("%w: slippage tolerance is negative", ErrContractViolation)
	ErrMaxHops                = fmt.Errorf("%w: max hops must be positive", ErrContractViolation)
	ErrMaxResults             = fmt.Errorf("%w: max results must be positive", ErrContractViolation)
	ErrItemsSize              = fmt.Errorf("%w: collection larger than max size", ErrContractViolation)
	ErrInvalidRecursion       = fmt.Errorf("%w: invalid recursion", ErrContractViolation)
	ErrNoChainID              = fmt.Errorf("%w: cannot determine chain id", ErrContractViolation)
	ErrEtherInOut             = fmt.Errorf("%w: ether in and ether out", ErrContractViolation)
	ErrInvalidTTL             = fmt.Errorf("%w: ttl must be positive", ErrContractViolation)
	ErrExactOutFeeOnTransfer  = fmt.Errorf("%w: exact output does not support fee on transfer", ErrContractViolation)
)

// IsRecoverable reports whether err is a swap condition that only rules out
// the current path rather than a caller bug.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrInsufficientReserves) || errors.Is(err, ErrInsufficientInputAmount)
}

// IsContractViolation reports whether err signals a caller bug.
func IsContractViolation(err error) bool {
	return errors.Is(err, ErrContractViolation) || errors.Is(err, asset.ErrContractViolation)
}
