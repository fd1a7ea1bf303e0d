package domain_test

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"pgregory.net/rapid"

	"github.com/fd1az/v2-router/business/routing/domain"
	"github.com/fd1az/v2-router/internal/asset"
	"github.com/fd1az/v2-router/internal/fraction"
)

var (
	usdc = asset.MustNewToken(asset.ChainIDEthereum, "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", 18, "USDC", "USD Coin")
	dai  = asset.MustNewToken(asset.ChainIDEthereum, "0x6B175474E89094C44Da98b954EedeAC495271d0F", 18, "DAI", "DAI Stablecoin")
)

func TestPairFactory_Address(t *testing.T) {
	f := domain.NewPairFactory(
		common.HexToAddress("0x5C69bEe701ef814a2B6a3EDD4B1652CB9cc5aA6f"),
		common.HexToHash("0x96e8ac4277198ff8b6f785478aa9a39f403cb768dd02cbee326c3e7da348845f"),
	)
	want := common.HexToAddress("0xAE461cA67B15dc8dc81CE7615e0320dA1A9aB8D5")

	got, err := f.Address(usdc, dai)
	if err != nil {
		t.Fatalf("Address: %v", err)
	}
	if got != want {
		t.Errorf("Address(USDC, DAI) = %s, want %s", got.Hex(), want.Hex())
	}

	reversed, err := f.Address(dai, usdc)
	if err != nil {
		t.Fatalf("Address: %v", err)
	}
	if reversed != want {
		t.Errorf("Address(DAI, USDC) = %s, want %s", reversed.Hex(), want.Hex())
	}
	if f.CachedAddresses() != 1 {
		t.Errorf("CachedAddresses = %d, want 1", f.CachedAddresses())
	}
}

func TestPairFactory_NewPair(t *testing.T) {
	p, err := factory.NewPair(amount(usdc, 100), amount(dai, 101))
	if err != nil {
		t.Fatalf("NewPair: %v", err)
	}
	if !p.Token0().Equals(dai) || !p.Token1().Equals(usdc) {
		t.Errorf("tokens = %s/%s, want DAI/USDC", p.Token0(), p.Token1())
	}
	assertRaw(t, "Reserve0", p.Reserve0(), 101)
	assertRaw(t, "Reserve1", p.Reserve1(), 100)

	lt := p.LiquidityToken()
	if lt.Symbol() != "UNI-V2" || lt.Name() != "Uniswap V2" || lt.Decimals() != 18 {
		t.Errorf("liquidity token = %s %q %d", lt.Symbol(), lt.Name(), lt.Decimals())
	}
	if lt.Address() != p.Address() || lt.ChainID() != asset.ChainIDEthereum {
		t.Errorf("liquidity token identity = %s", lt.ID())
	}

	otherChain := asset.MustNewToken(asset.ChainIDGoerli, "0x0000000000000000000000000000000000000009", 18, "X", "X")

	tests := []struct {
		name    string
		a, b    asset.Amount
		wantErr error
	}{
		{"same_token", amount(dai, 1), amount(dai, 2), asset.ErrSameAddress},
		{"cross_chain", amount(dai, 1), amount(otherChain, 2), asset.ErrChainMismatch},
		{"native", amount(asset.Ether, 1), amount(dai, 2), asset.ErrNotToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := factory.NewPair(tt.a, tt.b); !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPair_Prices(t *testing.T) {
	p := mustPair(t, usdc, 100, dai, 101)

	if !p.Token0Price().Raw().EqualTo(fraction.NewInt64(100, 101)) {
		t.Errorf("Token0Price = %s, want 100/101", p.Token0Price().Raw())
	}
	if !p.Token1Price().Raw().EqualTo(fraction.NewInt64(101, 100)) {
		t.Errorf("Token1Price = %s, want 101/100", p.Token1Price().Raw())
	}

	daiPrice, err := p.PriceOf(dai)
	if err != nil || !daiPrice.Base().Equals(dai) {
		t.Errorf("PriceOf(DAI) = %v, %v", daiPrice, err)
	}
	if _, err := p.PriceOf(asset.WETHEthereum); !errors.Is(err, domain.ErrTokenNotInPair) {
		t.Errorf("PriceOf(WETH) err = %v, want ErrTokenNotInPair", err)
	}
	if _, err := p.ReserveOf(asset.WETHEthereum); !errors.Is(err, domain.ErrTokenNotInPair) {
		t.Errorf("ReserveOf(WETH) err = %v, want ErrTokenNotInPair", err)
	}
}

func TestPair_OutputAmount(t *testing.T) {
	p := mustPair(t, token0, 1000, token1, 1000)

	out, next, err := p.OutputAmount(amount(token0, 100))
	if err != nil {
		t.Fatalf("OutputAmount: %v", err)
	}
	// floor(100*997*1000 / (1000*1000 + 100*997))
	assertRaw(t, "output", out, 90)
	if !out.Currency().Equals(token1) {
		t.Errorf("output currency = %s, want t1", out.Currency())
	}

	assertRaw(t, "next reserve0", next.Reserve0(), 1100)
	assertRaw(t, "next reserve1", next.Reserve1(), 910)
	assertRaw(t, "original reserve0", p.Reserve0(), 1000)
	assertRaw(t, "original reserve1", p.Reserve1(), 1000)
	if next.Address() != p.Address() {
		t.Error("next pair must keep the address")
	}
}

func TestPair_OutputAmountErrors(t *testing.T) {
	p := mustPair(t, token0, 1000, token1, 1000)

	if _, _, err := p.OutputAmount(amount(token0, 1)); !errors.Is(err, domain.ErrInsufficientInputAmount) {
		t.Errorf("dust input err = %v, want ErrInsufficientInputAmount", err)
	}
	if _, _, err := p.OutputAmount(amount(token2, 100)); !errors.Is(err, domain.ErrTokenNotInPair) {
		t.Errorf("foreign token err = %v, want ErrTokenNotInPair", err)
	}
	if !domain.IsRecoverable(domain.ErrInsufficientInputAmount) || domain.IsRecoverable(domain.ErrTokenNotInPair) {
		t.Error("IsRecoverable misclassifies swap errors")
	}
}

func TestPair_InputAmount(t *testing.T) {
	p := mustPair(t, token0, 1000, token1, 1000)

	in, next, err := p.InputAmount(amount(token1, 90))
	if err != nil {
		t.Fatalf("InputAmount: %v", err)
	}
	// floor(1000*90*1000 / (910*997)) + 1
	assertRaw(t, "input", in, 100)
	assertRaw(t, "next reserve0", next.Reserve0(), 1100)
	assertRaw(t, "next reserve1", next.Reserve1(), 910)

	for _, raw := range []int64{1000, 5000} {
		if _, _, err := p.InputAmount(amount(token1, raw)); !errors.Is(err, domain.ErrInsufficientReserves) {
			t.Errorf("InputAmount(%d) err = %v, want ErrInsufficientReserves", raw, err)
		}
	}
}

func TestPair_ZeroReserves(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		r := rapid.Int64Range(0, 1_000_000).Draw(t, "reserve")
		zeroSide := rapid.Bool().Draw(t, "zeroToken0")
		in := rapid.Int64Range(1, 1_000_000_000).Draw(t, "input")

		r0, r1 := int64(0), r
		if !zeroSide {
			r0, r1 = r, 0
		}
		p := mustPair(t, token0, r0, token1, r1)

		if _, _, err := p.OutputAmount(amount(token0, in)); !errors.Is(err, domain.ErrInsufficientReserves) {
			t.Fatalf("OutputAmount err = %v, want ErrInsufficientReserves", err)
		}
		if _, _, err := p.InputAmount(amount(token1, in)); !errors.Is(err, domain.ErrInsufficientReserves) {
			t.Fatalf("InputAmount err = %v, want ErrInsufficientReserves", err)
		}
	})
}

func TestPair_SwapRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		r := rapid.Int64Range(1_000, 1_000_000_000_000_000).Draw(t, "reserve")
		x := rapid.Int64Range(2, 1_000_000_000_000_000).Draw(t, "input")
		p := mustPair(t, token0, r, token1, r)

		out, _, err := p.OutputAmount(amount(token0, x))
		if err != nil {
			t.Fatalf("OutputAmount(%d): %v", x, err)
		}
		if out.Raw().Cmp(big.NewInt(x)) >= 0 {
			t.Fatalf("output %s must be below input %d with equal reserves", out.Raw(), x)
		}

		in, _, err := p.InputAmount(out)
		if err != nil {
			t.Fatalf("InputAmount(%s): %v", out.Raw(), err)
		}
		if in.Raw().Cmp(big.NewInt(x+1)) > 0 {
			t.Fatalf("quoted input %s exceeds original %d by more than one unit", in.Raw(), x)
		}

		back, _, err := p.OutputAmount(in)
		if err != nil {
			t.Fatalf("OutputAmount(%s): %v", in.Raw(), err)
		}
		if back.Raw().Cmp(out.Raw()) < 0 {
			t.Fatalf("quoted input %s yields %s, less than %s", in.Raw(), back.Raw(), out.Raw())
		}
	})
}

func TestPair_LiquidityMinted(t *testing.T) {
	empty := mustPair(t, token0, 0, token1, 0)
	zeroSupply := amount(empty.LiquidityToken(), 0)

	if _, err := empty.LiquidityMinted(zeroSupply, amount(token0, 1000), amount(token1, 1000)); !errors.Is(err, domain.ErrInsufficientInputAmount) {
		t.Errorf("minimum liquidity err = %v, want ErrInsufficientInputAmount", err)
	}

	minted, err := empty.LiquidityMinted(zeroSupply, amount(token0, 1_000_000), amount(token1, 1_000_000))
	if err != nil {
		t.Fatalf("LiquidityMinted: %v", err)
	}
	assertRaw(t, "first mint", minted, 999_000)

	minted, err = empty.LiquidityMinted(zeroSupply, amount(token1, 1001), amount(token0, 1001))
	if err != nil {
		t.Fatalf("LiquidityMinted: %v", err)
	}
	assertRaw(t, "first mint unordered", minted, 1)

	p := mustPair(t, token0, 10000, token1, 1000)
	minted, err = p.LiquidityMinted(amount(p.LiquidityToken(), 10000), amount(token0, 2000), amount(token1, 200))
	if err != nil {
		t.Fatalf("LiquidityMinted: %v", err)
	}
	assertRaw(t, "proportional mint", minted, 2000)

	if _, err := p.LiquidityMinted(amount(token0, 10000), amount(token0, 2000), amount(token1, 200)); !errors.Is(err, domain.ErrNotLiquidityToken) {
		t.Errorf("wrong supply token err = %v, want ErrNotLiquidityToken", err)
	}
}

func TestPair_LiquidityValue(t *testing.T) {
	p := mustPair(t, token0, 1000, token1, 1000)
	lt := p.LiquidityToken()

	tests := []struct {
		name      string
		token     *asset.Currency
		supply    int64
		liquidity int64
		feeOn     bool
		kLast     *big.Int
		want      int64
	}{
		{"all_shares", token0, 1000, 1000, false, nil, 1000},
		{"half_shares", token0, 1000, 500, false, nil, 500},
		{"other_token", token1, 1000, 1000, false, nil, 1000},
		{"fee_on", token0, 500, 500, true, big.NewInt(250_000), 917},
		{"fee_on_zero_klast", token0, 1000, 500, true, big.NewInt(0), 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.LiquidityValue(tt.token, amount(lt, tt.supply), amount(lt, tt.liquidity), tt.feeOn, tt.kLast)
			if err != nil {
				t.Fatalf("LiquidityValue: %v", err)
			}
			if !got.Currency().Equals(tt.token) {
				t.Errorf("currency = %s, want %s", got.Currency(), tt.token)
			}
			assertRaw(t, "value", got, tt.want)
		})
	}

	if _, err := p.LiquidityValue(token0, amount(lt, 500), amount(lt, 501), false, nil); !errors.Is(err, domain.ErrLiquidityExceedsSupply) {
		t.Errorf("excess liquidity err = %v, want ErrLiquidityExceedsSupply", err)
	}
	if _, err := p.LiquidityValue(token0, amount(lt, 500), amount(lt, 500), true, nil); !errors.Is(err, domain.ErrKLastRequired) {
		t.Errorf("missing kLast err = %v, want ErrKLastRequired", err)
	}
}
