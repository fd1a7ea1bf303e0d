package domain

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/v2-router/internal/asset"
)

// Swap fee and liquidity constants of the pair contract.
const (
	MinimumLiquidity = 1000
	FeeNumerator     = 997
	FeeDenominator   = 1000
)

var (
	bigMinimumLiquidity = big.NewInt(MinimumLiquidity)
	bigFeeNumerator     = big.NewInt(FeeNumerator)
	bigFeeDenominator   = big.NewInt(FeeDenominator)
	bigFive             = big.NewInt(5)
)

// Pair is a reserve snapshot of a two-token constant-product pool.
// token0 always sorts before token1. A Pair is never mutated: swaps return
// a new Pair holding the post-trade reserves.
type Pair struct {
	liquidityToken *asset.Currency
	reserve0       asset.Amount
	reserve1       asset.Amount
}

// Address returns the pair contract address.
func (p *Pair) Address() common.Address {
	return p.liquidityToken.Address()
}

// LiquidityToken returns the pool share token.
func (p *Pair) LiquidityToken() *asset.Currency {
	return p.liquidityToken
}

// ChainID returns the chain of both tokens.
func (p *Pair) ChainID() uint64 {
	return p.Token0().ChainID()
}

// Token0 returns the token that sorts first.
func (p *Pair) Token0() *asset.Currency {
	return p.reserve0.Currency()
}

// Token1 returns the token that sorts second.
func (p *Pair) Token1() *asset.Currency {
	return p.reserve1.Currency()
}

// Reserve0 returns the reserve of token0.
func (p *Pair) Reserve0() asset.Amount {
	return p.reserve0
}

// Reserve1 returns the reserve of token1.
func (p *Pair) Reserve1() asset.Amount {
	return p.reserve1
}

// InvolvesToken reports whether c is one of the two tokens.
func (p *Pair) InvolvesToken(c *asset.Currency) bool {
	return c.Equals(p.Token0()) || c.Equals(p.Token1())
}

// HasReserves reports whether both reserves are non-zero.
func (p *Pair) HasReserves() bool {
	return !p.reserve0.IsZero() && !p.reserve1.IsZero()
}

// ReserveOf returns the reserve of the given token.
func (p *Pair) ReserveOf(c *asset.Currency) (asset.Amount, error) {
	switch {
	case c.Equals(p.Token0()):
		return p.reserve0, nil
	case c.Equals(p.Token1()):
		return p.reserve1, nil
	}
	return asset.Amount{}, fmt.Errorf("%w: %s", ErrTokenNotInPair, c)
}

// OtherToken returns the token of the pair that is not c.
func (p *Pair) OtherToken(c *asset.Currency) (*asset.Currency, error) {
	switch {
	case c.Equals(p.Token0()):
		return p.Token1(), nil
	case c.Equals(p.Token1()):
		return p.Token0(), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrTokenNotInPair, c)
}

// Token0Price is the price of token0 in terms of token1.
func (p *Pair) Token0Price() asset.Price {
	return asset.NewPrice(p.Token0(), p.Token1(), p.reserve0.Raw(), p.reserve1.Raw())
}

// Token1Price is the price of token1 in terms of token0.
func (p *Pair) Token1Price() asset.Price {
	return asset.NewPrice(p.Token1(), p.Token0(), p.reserve1.Raw(), p.reserve0.Raw())
}

// PriceOf returns the price of c in terms of the other token.
func (p *Pair) PriceOf(c *asset.Currency) (asset.Price, error) {
	switch {
	case c.Equals(p.Token0()):
		return p.Token0Price(), nil
	case c.Equals(p.Token1()):
		return p.Token1Price(), nil
	}
	return asset.Price{}, fmt.Errorf("%w: %s", ErrTokenNotInPair, c)
}

// OutputAmount returns the amount received for swapping in, after the fee,
// together with the pair state after the swap.
func (p *Pair) OutputAmount(in asset.Amount) (asset.Amount, *Pair, error) {
	outToken, err := p.OtherToken(in.Currency())
	if err != nil {
		return asset.Amount{}, nil, err
	}
	if !p.HasReserves() {
		return asset.Amount{}, nil, ErrInsufficientReserves
	}

	inReserve, _ := p.ReserveOf(in.Currency())
	outReserve, _ := p.ReserveOf(outToken)

	inWithFee := new(big.Int).Mul(in.Raw(), bigFeeNumerator)
	num := new(big.Int).Mul(inWithFee, outReserve.Raw())
	den := new(big.Int).Mul(inReserve.Raw(), bigFeeDenominator)
	den.Add(den, inWithFee)

	outRaw := num.Quo(num, den)
	if outRaw.Sign() == 0 {
		return asset.Amount{}, nil, ErrInsufficientInputAmount
	}

	out, err := asset.NewAmount(outToken, outRaw)
	if err != nil {
		return asset.Amount{}, nil, err
	}
	next, err := p.afterSwap(inReserve, in, outReserve, out)
	if err != nil {
		return asset.Amount{}, nil, err
	}
	return out, next, nil
}

// InputAmount returns the amount required to receive out, rounded up by one
// unit, together with the pair state after the swap.
func (p *Pair) InputAmount(out asset.Amount) (asset.Amount, *Pair, error) {
	inToken, err := p.OtherToken(out.Currency())
	if err != nil {
		return asset.Amount{}, nil, err
	}

	outReserve, _ := p.ReserveOf(out.Currency())
	inReserve, _ := p.ReserveOf(inToken)
	if !p.HasReserves() || out.Raw().Cmp(outReserve.Raw()) >= 0 {
		return asset.Amount{}, nil, ErrInsufficientReserves
	}

	num := new(big.Int).Mul(inReserve.Raw(), out.Raw())
	num.Mul(num, bigFeeDenominator)
	den := new(big.Int).Sub(outReserve.Raw(), out.Raw())
	den.Mul(den, bigFeeNumerator)

	inRaw := num.Quo(num, den)
	inRaw.Add(inRaw, big.NewInt(1))

	in, err := asset.NewAmount(inToken, inRaw)
	if err != nil {
		return asset.Amount{}, nil, err
	}
	next, err := p.afterSwap(inReserve, in, outReserve, out)
	if err != nil {
		return asset.Amount{}, nil, err
	}
	return in, next, nil
}

func (p *Pair) afterSwap(inReserve, in, outReserve, out asset.Amount) (*Pair, error) {
	newIn, err := inReserve.Add(in)
	if err != nil {
		return nil, err
	}
	newOut, err := outReserve.Sub(out)
	if err != nil {
		return nil, err
	}
	return p.withReserves(newIn, newOut), nil
}

// withReserves returns a copy of p with the given reserves, in either order.
func (p *Pair) withReserves(a, b asset.Amount) *Pair {
	if !a.Currency().Equals(p.Token0()) {
		a, b = b, a
	}
	return &Pair{
		liquidityToken: p.liquidityToken,
		reserve0:       a,
		reserve1:       b,
	}
}

// LiquidityMinted returns the pool shares minted for depositing a and b.
func (p *Pair) LiquidityMinted(totalSupply, a, b asset.Amount) (asset.Amount, error) {
	if !totalSupply.Currency().Equals(p.liquidityToken) {
		return asset.Amount{}, ErrNotLiquidityToken
	}
	before, err := a.Currency().SortsBefore(b.Currency())
	if err != nil {
		return asset.Amount{}, err
	}
	if !before {
		a, b = b, a
	}
	if !a.Currency().Equals(p.Token0()) || !b.Currency().Equals(p.Token1()) {
		return asset.Amount{}, ErrTokenNotInPair
	}

	var liquidity *big.Int
	if totalSupply.IsZero() {
		liquidity = new(big.Int).Mul(a.Raw(), b.Raw())
		liquidity.Sqrt(liquidity)
		liquidity.Sub(liquidity, bigMinimumLiquidity)
	} else {
		if !p.HasReserves() {
			return asset.Amount{}, ErrInsufficientReserves
		}
		ts := totalSupply.Raw()
		amount0 := new(big.Int).Mul(a.Raw(), ts)
		amount0.Quo(amount0, p.reserve0.Raw())
		amount1 := new(big.Int).Mul(b.Raw(), ts)
		amount1.Quo(amount1, p.reserve1.Raw())
		liquidity = amount0
		if amount1.Cmp(amount0) < 0 {
			liquidity = amount1
		}
	}

	if liquidity.Sign() <= 0 {
		return asset.Amount{}, ErrInsufficientInputAmount
	}
	return asset.NewAmount(p.liquidityToken, liquidity)
}

// LiquidityValue returns the amount of token that liquidity shares redeem.
// With feeOn, kLast is the pool invariant recorded at the last liquidity
// event and the supply is diluted by the protocol fee accrued since.
func (p *Pair) LiquidityValue(token *asset.Currency, totalSupply, liquidity asset.Amount, feeOn bool, kLast *big.Int) (asset.Amount, error) {
	reserve, err := p.ReserveOf(token)
	if err != nil {
		return asset.Amount{}, err
	}
	if !totalSupply.Currency().Equals(p.liquidityToken) || !liquidity.Currency().Equals(p.liquidityToken) {
		return asset.Amount{}, ErrNotLiquidityToken
	}
	if liquidity.Raw().Cmp(totalSupply.Raw()) > 0 {
		return asset.Amount{}, ErrLiquidityExceedsSupply
	}

	adjusted := totalSupply.Raw()
	if feeOn {
		if kLast == nil || kLast.Sign() < 0 {
			return asset.Amount{}, ErrKLastRequired
		}
		if kLast.Sign() != 0 {
			rootK := new(big.Int).Mul(p.reserve0.Raw(), p.reserve1.Raw())
			rootK.Sqrt(rootK)
			rootKLast := new(big.Int).Sqrt(kLast)
			if rootK.Cmp(rootKLast) > 0 {
				num := new(big.Int).Sub(rootK, rootKLast)
				num.Mul(num, totalSupply.Raw())
				den := new(big.Int).Mul(rootK, bigFive)
				den.Add(den, rootKLast)
				adjusted.Add(adjusted, num.Quo(num, den))
			}
		}
	}

	if adjusted.Sign() == 0 {
		return asset.Zero(token), nil
	}
	value := new(big.Int).Mul(liquidity.Raw(), reserve.Raw())
	return asset.NewAmount(token, value.Quo(value, adjusted))
}

// String returns "TOKEN0/TOKEN1 (address)".
func (p *Pair) String() string {
	return fmt.Sprintf("%s/%s (%s)", p.Token0().Symbol(), p.Token1().Symbol(), p.Address().Hex())
}
