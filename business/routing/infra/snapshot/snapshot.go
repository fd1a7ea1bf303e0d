// Package snapshot serves pairs and tokens from a reserves file.
//
// The file is read with viper, so YAML, JSON and TOML all work:
//
//	chain_id: 56709
//	tokens:
//	  - address: "0x..."
//	    decimals: 18
//	    symbol: DAI
//	    name: Dai Stablecoin
//	pairs:
//	  - token_a: DAI
//	    token_b: WETH
//	    reserve_a: "1000000000000000000000"
//	    reserve_b: "500000000000000000"
//
// Reserves are raw integers and must be quoted.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"

	"github.com/fd1az/v2-router/business/routing/app"
	"github.com/fd1az/v2-router/business/routing/domain"
	"github.com/fd1az/v2-router/internal/asset"
	"github.com/fd1az/v2-router/internal/logger"
)

var (
	_ app.ReserveSource = (*Source)(nil)
	_ app.TokenSource   = (*Source)(nil)
)

// File is the decoded reserves file.
type File struct {
	ChainID uint64       `mapstructure:"chain_id"`
	Tokens  []TokenEntry `mapstructure:"tokens"`
	Pairs   []PairEntry  `mapstructure:"pairs"`
}

// TokenEntry describes one token.
type TokenEntry struct {
	Address  string `mapstructure:"address"`
	Decimals uint8  `mapstructure:"decimals"`
	Symbol   string `mapstructure:"symbol"`
	Name     string `mapstructure:"name"`
}

// PairEntry holds the reserves of one pool. Tokens are symbols or addresses.
type PairEntry struct {
	TokenA   string `mapstructure:"token_a"`
	TokenB   string `mapstructure:"token_b"`
	ReserveA string `mapstructure:"reserve_a"`
	ReserveB string `mapstructure:"reserve_b"`
}

// Source is an in-memory ReserveSource built from a File.
type Source struct {
	chainID uint64
	factory *domain.PairFactory
	pairs   map[common.Address]*domain.Pair
}

// ReadFile decodes a reserves file without interpreting it.
func ReadFile(path string) (*File, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var f File
	if err := v.Unmarshal(&f); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &f, nil
}

// Load reads path and builds a Source. Tokens listed in the file are added
// to registry; pair tokens are resolved against it.
func Load(path string, chainID uint64, factory *domain.PairFactory, registry *asset.Registry, log logger.LoggerInterface) (*Source, error) {
	f, err := ReadFile(path)
	if err != nil {
		return nil, err
	}

	s, err := New(f, chainID, factory, registry)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	log.Info(context.Background(), "snapshot loaded",
		"path", path,
		"tokens", len(f.Tokens),
		"pairs", len(s.pairs),
	)
	return s, nil
}

// New builds a Source from a decoded File.
func New(f *File, chainID uint64, factory *domain.PairFactory, registry *asset.Registry) (*Source, error) {
	if f.ChainID != 0 && f.ChainID != chainID {
		return nil, fmt.Errorf("snapshot is for chain %d, configured chain is %d", f.ChainID, chainID)
	}

	for i, t := range f.Tokens {
		token, err := asset.NewToken(chainID, t.Address, t.Decimals, t.Symbol, t.Name)
		if err != nil {
			return nil, fmt.Errorf("tokens[%d]: %w", i, err)
		}
		if err := registry.Register(token); err != nil && !errors.Is(err, asset.ErrAlreadyRegistered) {
			return nil, fmt.Errorf("tokens[%d]: %w", i, err)
		}
	}

	s := &Source{
		chainID: chainID,
		factory: factory,
		pairs:   make(map[common.Address]*domain.Pair, len(f.Pairs)),
	}

	for i, p := range f.Pairs {
		pair, err := s.buildPair(p, registry)
		if err != nil {
			return nil, fmt.Errorf("pairs[%d]: %w", i, err)
		}
		if _, dup := s.pairs[pair.Address()]; dup {
			return nil, fmt.Errorf("pairs[%d]: duplicate pool %s", i, pair)
		}
		s.pairs[pair.Address()] = pair
	}

	return s, nil
}

func (s *Source) buildPair(p PairEntry, registry *asset.Registry) (*domain.Pair, error) {
	a, err := s.token(registry, p.TokenA)
	if err != nil {
		return nil, err
	}
	b, err := s.token(registry, p.TokenB)
	if err != nil {
		return nil, err
	}

	reserveA, err := parseReserve(a, p.ReserveA)
	if err != nil {
		return nil, err
	}
	reserveB, err := parseReserve(b, p.ReserveB)
	if err != nil {
		return nil, err
	}

	return s.factory.NewPair(reserveA, reserveB)
}

func (s *Source) token(registry *asset.Registry, ref string) (*asset.Currency, error) {
	c, err := registry.Resolve(s.chainID, ref)
	if err != nil {
		return nil, err
	}
	return asset.Wrap(c, s.chainID)
}

func parseReserve(c *asset.Currency, raw string) (asset.Amount, error) {
	n, ok := new(big.Int).SetString(raw, 0)
	if !ok {
		return asset.Amount{}, fmt.Errorf("invalid reserve %q for %s", raw, c.Symbol())
	}
	return asset.NewAmount(c, n)
}

// Pair returns the pool of two tokens or app.ErrPairNotFound.
func (s *Source) Pair(_ context.Context, tokenA, tokenB *asset.Currency) (*domain.Pair, error) {
	addr, err := s.factory.Address(tokenA, tokenB)
	if err != nil {
		return nil, err
	}
	p, ok := s.pairs[addr]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", app.ErrPairNotFound, tokenA.Symbol(), tokenB.Symbol())
	}
	return p, nil
}

// Token only knows tokens that appear in a pool of the snapshot.
func (s *Source) Token(_ context.Context, chainID uint64, address common.Address) (*asset.Currency, error) {
	if chainID == s.chainID {
		for _, p := range s.pairs {
			for _, t := range []*asset.Currency{p.Token0(), p.Token1()} {
				if t.Address() == address {
					return t, nil
				}
			}
		}
	}
	return nil, fmt.Errorf("%w: %s on chain %d", asset.ErrUnknownCurrency, address.Hex(), chainID)
}

// Pairs returns every pool ordered by address.
func (s *Source) Pairs() []*domain.Pair {
	out := make([]*domain.Pair, 0, len(s.pairs))
	for _, p := range s.pairs {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Address().Cmp(out[j].Address()) < 0
	})
	return out
}

// Len returns the number of pools.
func (s *Source) Len() int {
	return len(s.pairs)
}

// Check reports unhealthy when the file holds no pools.
func (s *Source) Check(_ context.Context) (bool, string) {
	return len(s.pairs) > 0, fmt.Sprintf("%d pairs", len(s.pairs))
}

// FromPairs describes pools as a File, listing each pool token once.
func FromPairs(chainID uint64, pairs []*domain.Pair) *File {
	f := &File{ChainID: chainID}
	seen := make(map[common.Address]bool)

	for _, p := range pairs {
		for _, t := range []*asset.Currency{p.Token0(), p.Token1()} {
			if seen[t.Address()] {
				continue
			}
			seen[t.Address()] = true
			f.Tokens = append(f.Tokens, TokenEntry{
				Address:  t.Address().Hex(),
				Decimals: t.Decimals(),
				Symbol:   t.Symbol(),
				Name:     t.Name(),
			})
		}
		f.Pairs = append(f.Pairs, PairEntry{
			TokenA:   p.Token0().Address().Hex(),
			TokenB:   p.Token1().Address().Hex(),
			ReserveA: p.Reserve0().Raw().String(),
			ReserveB: p.Reserve1().Raw().String(),
		})
	}
	return f
}

// Write stores f at path. The extension picks the format.
func Write(path string, f *File) error {
	tokens := make([]map[string]any, 0, len(f.Tokens))
	for _, t := range f.Tokens {
		tokens = append(tokens, map[string]any{
			"address":  t.Address,
			"decimals": t.Decimals,
			"symbol":   t.Symbol,
			"name":     t.Name,
		})
	}
	pairs := make([]map[string]any, 0, len(f.Pairs))
	for _, p := range f.Pairs {
		pairs = append(pairs, map[string]any{
			"token_a":   p.TokenA,
			"token_b":   p.TokenB,
			"reserve_a": p.ReserveA,
			"reserve_b": p.ReserveB,
		})
	}

	v := viper.New()
	v.Set("chain_id", f.ChainID)
	v.Set("tokens", tokens)
	v.Set("pairs", pairs)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}
