package domain_test

import (
	"math/big"

	"github.com/fd1az/v2-router/business/routing/domain"
	"github.com/fd1az/v2-router/internal/asset"
)

var (
	factory = domain.DefaultPairFactory()

	token0 = asset.MustNewToken(asset.ChainIDMainnet, "0x0000000000000000000000000000000000000001", 18, "t0", "token0")
	token1 = asset.MustNewToken(asset.ChainIDMainnet, "0x0000000000000000000000000000000000000002", 18, "t1", "token1")
	token2 = asset.MustNewToken(asset.ChainIDMainnet, "0x0000000000000000000000000000000000000003", 18, "t2", "token2")
	token3 = asset.MustNewToken(asset.ChainIDMainnet, "0x0000000000000000000000000000000000000004", 18, "t3", "token3")
	weth   = asset.WETHMainnet
)

// tb is satisfied by *testing.T, *testing.B and *rapid.T.
type tb interface {
	Helper()
	Errorf(format string, args ...any)
	Fatalf(format string, args ...any)
}

func amount(c *asset.Currency, raw int64) asset.Amount {
	return asset.MustAmount(c, big.NewInt(raw))
}

func mustPair(t tb, a *asset.Currency, ra int64, b *asset.Currency, rb int64) *domain.Pair {
	t.Helper()
	p, err := factory.NewPair(amount(a, ra), amount(b, rb))
	if err != nil {
		t.Fatalf("NewPair(%s, %s): %v", a, b, err)
	}
	return p
}

func mustRoute(t tb, pairs []*domain.Pair, in, out *asset.Currency) *domain.Route {
	t.Helper()
	r, err := domain.NewRoute(pairs, in, out)
	if err != nil {
		t.Fatalf("NewRoute: %v", err)
	}
	return r
}

func assertPath(t tb, got []*asset.Currency, want ...*asset.Currency) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("path = %v, want %v", symbols(got), symbols(want))
	}
	for i := range want {
		if !got[i].Equals(want[i]) {
			t.Fatalf("path = %v, want %v", symbols(got), symbols(want))
		}
	}
}

func symbols(cs []*asset.Currency) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.String()
	}
	return out
}

func assertRaw(t tb, name string, a asset.Amount, want int64) {
	t.Helper()
	if a.Raw().Cmp(big.NewInt(want)) != 0 {
		t.Errorf("%s = %s, want %d", name, a.Raw(), want)
	}
}
