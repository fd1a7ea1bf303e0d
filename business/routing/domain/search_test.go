package domain_test

import (
	"errors"
	"testing"

	"pgregory.net/rapid"

	"github.com/fd1az/v2-router/business/routing/domain"
	"github.com/fd1az/v2-router/internal/asset"
)

type searchFixture struct {
	p01, p02, p03, p12, p13, pw0, empty01 *domain.Pair
}

func newSearchFixture(t tb) searchFixture {
	return searchFixture{
		p01:     mustPair(t, token0, 1000, token1, 1000),
		p02:     mustPair(t, token0, 1000, token2, 1100),
		p03:     mustPair(t, token0, 1000, token3, 900),
		p12:     mustPair(t, token1, 1200, token2, 1000),
		p13:     mustPair(t, token1, 1200, token3, 1300),
		pw0:     mustPair(t, weth, 1000, token0, 1000),
		empty01: mustPair(t, token0, 0, token1, 0),
	}
}

func TestBestTradeExactIn(t *testing.T) {
	f := newSearchFixture(t)

	t.Run("contract", func(t *testing.T) {
		if _, err := domain.BestTradeExactIn(nil, amount(token0, 100), token2, domain.BestTradeOptions{}); !errors.Is(err, domain.ErrNoPairs) {
			t.Errorf("no pairs err = %v, want ErrNoPairs", err)
		}
		if _, err := domain.BestTradeExactIn([]*domain.Pair{f.p01}, amount(token0, 100), token2, domain.BestTradeOptions{MaxHops: -1}); !errors.Is(err, domain.ErrMaxHops) {
			t.Errorf("max hops err = %v, want ErrMaxHops", err)
		}
		if _, err := domain.BestTradeExactIn([]*domain.Pair{f.p01}, amount(token0, 100), token2, domain.BestTradeOptions{MaxNumResults: -1}); !errors.Is(err, domain.ErrMaxResults) {
			t.Errorf("max results err = %v, want ErrMaxResults", err)
		}
	})

	t.Run("best_route", func(t *testing.T) {
		trades, err := domain.BestTradeExactIn([]*domain.Pair{f.p01, f.p02, f.p12}, amount(token0, 100), token2, domain.BestTradeOptions{})
		if err != nil {
			t.Fatalf("BestTradeExactIn: %v", err)
		}
		if len(trades) != 2 {
			t.Fatalf("len = %d, want 2", len(trades))
		}
		assertPath(t, trades[0].Route().Path(), token0, token2)
		assertRaw(t, "trades[0] input", trades[0].InputAmount(), 100)
		assertRaw(t, "trades[0] output", trades[0].OutputAmount(), 99)
		assertPath(t, trades[1].Route().Path(), token0, token1, token2)
		assertRaw(t, "trades[1] input", trades[1].InputAmount(), 100)
		assertRaw(t, "trades[1] output", trades[1].OutputAmount(), 69)
	})

	t.Run("zero_liquidity", func(t *testing.T) {
		trades, err := domain.BestTradeExactIn([]*domain.Pair{f.empty01}, amount(token0, 100), token1, domain.BestTradeOptions{})
		if err != nil {
			t.Fatalf("BestTradeExactIn: %v", err)
		}
		if len(trades) != 0 {
			t.Errorf("len = %d, want 0", len(trades))
		}
	})

	t.Run("max_hops", func(t *testing.T) {
		trades, err := domain.BestTradeExactIn([]*domain.Pair{f.p01, f.p02, f.p12}, amount(token0, 10), token2, domain.BestTradeOptions{MaxHops: 1})
		if err != nil {
			t.Fatalf("BestTradeExactIn: %v", err)
		}
		if len(trades) != 1 {
			t.Fatalf("len = %d, want 1", len(trades))
		}
		assertPath(t, trades[0].Route().Path(), token0, token2)
	})

	t.Run("insufficient_input_for_one_pair", func(t *testing.T) {
		trades, err := domain.BestTradeExactIn([]*domain.Pair{f.p01, f.p02, f.p12}, amount(token0, 1), token2, domain.BestTradeOptions{})
		if err != nil {
			t.Fatalf("BestTradeExactIn: %v", err)
		}
		if len(trades) != 1 {
			t.Fatalf("len = %d, want 1", len(trades))
		}
		assertPath(t, trades[0].Route().Path(), token0, token2)
		assertRaw(t, "output", trades[0].OutputAmount(), 1)
	})

	t.Run("max_results", func(t *testing.T) {
		trades, err := domain.BestTradeExactIn([]*domain.Pair{f.p01, f.p02, f.p12}, amount(token0, 10), token2, domain.BestTradeOptions{MaxNumResults: 1})
		if err != nil {
			t.Fatalf("BestTradeExactIn: %v", err)
		}
		if len(trades) != 1 {
			t.Fatalf("len = %d, want 1", len(trades))
		}
	})

	t.Run("no_path", func(t *testing.T) {
		trades, err := domain.BestTradeExactIn([]*domain.Pair{f.p01, f.p03, f.p13}, amount(token0, 10), token2, domain.BestTradeOptions{})
		if err != nil {
			t.Fatalf("BestTradeExactIn: %v", err)
		}
		if len(trades) != 0 {
			t.Errorf("len = %d, want 0", len(trades))
		}
	})

	t.Run("native_input", func(t *testing.T) {
		trades, err := domain.BestTradeExactIn([]*domain.Pair{f.pw0, f.p01, f.p03, f.p13}, amount(asset.Ether, 100), token3, domain.BestTradeOptions{})
		if err != nil {
			t.Fatalf("BestTradeExactIn: %v", err)
		}
		if len(trades) != 2 {
			t.Fatalf("len = %d, want 2", len(trades))
		}
		if !trades[0].InputAmount().Currency().IsNative() {
			t.Errorf("input currency = %s, want native", trades[0].InputAmount().Currency())
		}
		assertPath(t, trades[0].Route().Path(), weth, token0, token1, token3)
		assertPath(t, trades[1].Route().Path(), weth, token0, token3)
	})

	t.Run("native_output", func(t *testing.T) {
		trades, err := domain.BestTradeExactIn([]*domain.Pair{f.pw0, f.p01, f.p03, f.p13}, amount(token3, 100), asset.Ether, domain.BestTradeOptions{})
		if err != nil {
			t.Fatalf("BestTradeExactIn: %v", err)
		}
		if len(trades) != 2 {
			t.Fatalf("len = %d, want 2", len(trades))
		}
		if !trades[0].OutputAmount().Currency().IsNative() {
			t.Errorf("output currency = %s, want native", trades[0].OutputAmount().Currency())
		}
		assertPath(t, trades[0].Route().Path(), token3, token0, weth)
		assertPath(t, trades[1].Route().Path(), token3, token1, token0, weth)
	})
}

func TestBestTradeExactIn_DirectVersusTwoHop(t *testing.T) {
	a, b, c := token0, token1, token2
	ab := mustPair(t, a, 1000, b, 1000)
	bc := mustPair(t, b, 1000, c, 1000)
	ac := mustPair(t, a, 1000, c, 1000)
	opts := domain.BestTradeOptions{MaxNumResults: 1, MaxHops: 3}

	trades, err := domain.BestTradeExactIn([]*domain.Pair{ab, bc, ac}, amount(a, 100), c, opts)
	if err != nil {
		t.Fatalf("BestTradeExactIn: %v", err)
	}
	if len(trades) != 1 {
		t.Fatalf("len = %d, want 1", len(trades))
	}
	assertPath(t, trades[0].Route().Path(), a, c)
	assertRaw(t, "output", trades[0].OutputAmount(), 90)
	if trades[0].Route().Hops() > opts.MaxHops {
		t.Errorf("hops = %d exceeds %d", trades[0].Route().Hops(), opts.MaxHops)
	}
}

func TestBestTradeExactOut(t *testing.T) {
	f := newSearchFixture(t)

	t.Run("contract", func(t *testing.T) {
		if _, err := domain.BestTradeExactOut(nil, token0, amount(token2, 100), domain.BestTradeOptions{}); !errors.Is(err, domain.ErrNoPairs) {
			t.Errorf("no pairs err = %v, want ErrNoPairs", err)
		}
		if _, err := domain.BestTradeExactOut([]*domain.Pair{f.p01}, token0, amount(token2, 100), domain.BestTradeOptions{MaxHops: -1}); !errors.Is(err, domain.ErrMaxHops) {
			t.Errorf("max hops err = %v, want ErrMaxHops", err)
		}
	})

	t.Run("best_route", func(t *testing.T) {
		trades, err := domain.BestTradeExactOut([]*domain.Pair{f.p01, f.p02, f.p12}, token0, amount(token2, 100), domain.BestTradeOptions{})
		if err != nil {
			t.Fatalf("BestTradeExactOut: %v", err)
		}
		if len(trades) != 2 {
			t.Fatalf("len = %d, want 2", len(trades))
		}
		assertPath(t, trades[0].Route().Path(), token0, token2)
		assertRaw(t, "trades[0] input", trades[0].InputAmount(), 101)
		assertRaw(t, "trades[0] output", trades[0].OutputAmount(), 100)
		assertPath(t, trades[1].Route().Path(), token0, token1, token2)
		assertRaw(t, "trades[1] input", trades[1].InputAmount(), 156)
		assertRaw(t, "trades[1] output", trades[1].OutputAmount(), 100)
	})

	t.Run("insufficient_liquidity", func(t *testing.T) {
		trades, err := domain.BestTradeExactOut([]*domain.Pair{f.p01, f.p02, f.p12}, token0, amount(token2, 1200), domain.BestTradeOptions{})
		if err != nil {
			t.Fatalf("BestTradeExactOut: %v", err)
		}
		if len(trades) != 0 {
			t.Errorf("len = %d, want 0", len(trades))
		}
	})

	t.Run("insufficient_liquidity_in_one_pair", func(t *testing.T) {
		trades, err := domain.BestTradeExactOut([]*domain.Pair{f.p01, f.p02, f.p12}, token0, amount(token2, 1050), domain.BestTradeOptions{})
		if err != nil {
			t.Fatalf("BestTradeExactOut: %v", err)
		}
		if len(trades) != 1 {
			t.Errorf("len = %d, want 1", len(trades))
		}
	})

	t.Run("max_hops", func(t *testing.T) {
		trades, err := domain.BestTradeExactOut([]*domain.Pair{f.p01, f.p02, f.p12}, token0, amount(token2, 10), domain.BestTradeOptions{MaxHops: 1})
		if err != nil {
			t.Fatalf("BestTradeExactOut: %v", err)
		}
		if len(trades) != 1 {
			t.Fatalf("len = %d, want 1", len(trades))
		}
		assertPath(t, trades[0].Route().Path(), token0, token2)
	})

	t.Run("native_input", func(t *testing.T) {
		trades, err := domain.BestTradeExactOut([]*domain.Pair{f.pw0, f.p01, f.p03, f.p13}, asset.Ether, amount(token3, 100), domain.BestTradeOptions{})
		if err != nil {
			t.Fatalf("BestTradeExactOut: %v", err)
		}
		if len(trades) != 2 {
			t.Fatalf("len = %d, want 2", len(trades))
		}
		if !trades[0].InputAmount().Currency().IsNative() {
			t.Errorf("input currency = %s, want native", trades[0].InputAmount().Currency())
		}
		assertPath(t, trades[0].Route().Path(), weth, token0, token1, token3)
		assertPath(t, trades[1].Route().Path(), weth, token0, token3)
	})

	t.Run("native_output", func(t *testing.T) {
		trades, err := domain.BestTradeExactOut([]*domain.Pair{f.pw0, f.p01, f.p03, f.p13}, token3, amount(asset.Ether, 100), domain.BestTradeOptions{})
		if err != nil {
			t.Fatalf("BestTradeExactOut: %v", err)
		}
		if len(trades) != 2 {
			t.Fatalf("len = %d, want 2", len(trades))
		}
		if !trades[0].OutputAmount().Currency().IsNative() {
			t.Errorf("output currency = %s, want native", trades[0].OutputAmount().Currency())
		}
		assertPath(t, trades[0].Route().Path(), token3, token0, weth)
		assertPath(t, trades[1].Route().Path(), token3, token1, token0, weth)
	})
}

func TestBestTradeExactIn_Ranked(t *testing.T) {
	tokens := []*asset.Currency{token0, token1, token2, token3}

	rapid.Check(t, func(t *rapid.T) {
		var pairs []*domain.Pair
		for i := range tokens {
			for j := i + 1; j < len(tokens); j++ {
				if !rapid.Bool().Draw(t, "include") {
					continue
				}
				r0 := rapid.Int64Range(0, 1_000_000).Draw(t, "r0")
				r1 := rapid.Int64Range(0, 1_000_000).Draw(t, "r1")
				pairs = append(pairs, mustPair(t, tokens[i], r0, tokens[j], r1))
			}
		}
		if len(pairs) == 0 {
			t.Skip("no pairs")
		}
		opts := domain.BestTradeOptions{
			MaxNumResults: rapid.IntRange(1, 4).Draw(t, "maxNumResults"),
			MaxHops:       rapid.IntRange(1, 3).Draw(t, "maxHops"),
		}
		in := rapid.Int64Range(1, 100_000).Draw(t, "amountIn")

		trades, err := domain.BestTradeExactIn(pairs, amount(token0, in), token3, opts)
		if err != nil {
			t.Fatalf("BestTradeExactIn: %v", err)
		}
		if len(trades) > opts.MaxNumResults {
			t.Fatalf("len = %d exceeds %d", len(trades), opts.MaxNumResults)
		}
		for i, tr := range trades {
			if tr.Route().Hops() > opts.MaxHops {
				t.Fatalf("trade %d has %d hops, max %d", i, tr.Route().Hops(), opts.MaxHops)
			}
			if i > 0 && domain.CompareTrades(trades[i-1], tr) > 0 {
				t.Fatalf("trades %d and %d out of order", i-1, i)
			}
		}
	})
}

func BenchmarkBestTradeExactIn(b *testing.B) {
	tokens := []*asset.Currency{token0, token1, token2, token3, weth}
	var pairs []*domain.Pair
	for i := range tokens {
		for j := i + 1; j < len(tokens); j++ {
			pairs = append(pairs, mustPair(b, tokens[i], int64(1_000_000+i*1000), tokens[j], int64(1_000_000+j*1000)))
		}
	}
	in := amount(token0, 10_000)

	b.ResetTimer()
	for b.Loop() {
		if _, err := domain.BestTradeExactIn(pairs, in, token3, domain.BestTradeOptions{}); err != nil {
			b.Fatal(err)
		}
	}
}
