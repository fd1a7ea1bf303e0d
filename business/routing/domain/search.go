package domain

import (
	"errors"

	"github.com/bits-and-blooms/bitset"

	"github.com/fd1az/v2-router/internal/asset"
)

// Search defaults.
const (
	DefaultMaxNumResults = 3
	DefaultMaxHops       = 3
)

// BestTradeOptions bounds the search. Zero values take the defaults.
type BestTradeOptions struct {
	MaxNumResults int
	MaxHops       int
}

func (o BestTradeOptions) withDefaults() BestTradeOptions {
	if o.MaxNumResults == 0 {
		o.MaxNumResults = DefaultMaxNumResults
	}
	if o.MaxHops == 0 {
		o.MaxHops = DefaultMaxHops
	}
	return o
}

// search holds the state shared across one best-trade enumeration.
// used marks pairs already on the current path, indexed into pairs.
type search struct {
	pairs         []*Pair
	used          *bitset.BitSet
	maxNumResults int
	best          []*Trade
}

func newSearch(pairs []*Pair, opts BestTradeOptions) (*search, error) {
	if len(pairs) == 0 {
		return nil, ErrNoPairs
	}
	if opts.MaxHops <= 0 {
		return nil, ErrMaxHops
	}
	if opts.MaxNumResults <= 0 {
		return nil, ErrMaxResults
	}
	return &search{
		pairs:         pairs,
		used:          bitset.New(uint(len(pairs))),
		maxNumResults: opts.MaxNumResults,
	}, nil
}

func (s *search) remaining() int {
	return len(s.pairs) - int(s.used.Count())
}

func (s *search) insert(t *Trade) error {
	best, _, err := SortedInsert(s.best, t, s.maxNumResults, CompareTrades)
	if err != nil {
		return err
	}
	s.best = best
	return nil
}

func searchChainID(amount asset.Amount, other *asset.Currency) (uint64, error) {
	switch {
	case amount.Currency() != nil && amount.Currency().IsToken():
		return amount.Currency().ChainID(), nil
	case other != nil && other.IsToken():
		return other.ChainID(), nil
	}
	return 0, ErrNoChainID
}

// BestTradeExactIn returns up to MaxNumResults trades spending amountIn for
// currencyOut over simple paths of at most MaxHops pairs, best first.
// Pairs that cannot absorb the input are skipped.
func BestTradeExactIn(pairs []*Pair, amountIn asset.Amount, currencyOut *asset.Currency, opts BestTradeOptions) ([]*Trade, error) {
	opts = opts.withDefaults()
	s, err := newSearch(pairs, opts)
	if err != nil {
		return nil, err
	}
	chainID, err := searchChainID(amountIn, currencyOut)
	if err != nil {
		return nil, err
	}
	tokenOut, err := asset.Wrap(currencyOut, chainID)
	if err != nil {
		return nil, err
	}
	start, err := asset.WrapAmount(amountIn, chainID)
	if err != nil {
		return nil, err
	}

	if err := s.exactIn(start, tokenOut, currencyOut, opts.MaxHops, nil, amountIn); err != nil {
		return nil, err
	}
	return s.best, nil
}

func (s *search) exactIn(amountIn asset.Amount, tokenOut, currencyOut *asset.Currency, maxHops int, current []*Pair, original asset.Amount) error {
	if maxHops <= 0 {
		return ErrMaxHops
	}
	if len(current) == 0 && amountIn.Raw().Cmp(original.Raw()) != 0 {
		return ErrInvalidRecursion
	}

	for i, p := range s.pairs {
		if s.used.Test(uint(i)) {
			continue
		}
		if !p.InvolvesToken(amountIn.Currency()) || !p.HasReserves() {
			continue
		}

		amountOut, _, err := p.OutputAmount(amountIn)
		if err != nil {
			if errors.Is(err, ErrInsufficientInputAmount) {
				continue
			}
			return err
		}

		path := append(current[:len(current):len(current)], p)
		if amountOut.Currency().Equals(tokenOut) {
			route, err := NewRoute(path, original.Currency(), currencyOut)
			if err != nil {
				return err
			}
			trade, err := ExactIn(route, original)
			if err != nil {
				return err
			}
			if err := s.insert(trade); err != nil {
				return err
			}
		} else if maxHops > 1 && s.remaining() > 1 {
			s.used.Set(uint(i))
			err := s.exactIn(amountOut, tokenOut, currencyOut, maxHops-1, path, original)
			s.used.Clear(uint(i))
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// BestTradeExactOut returns up to MaxNumResults trades receiving amountOut
// for currencyIn, walking back from the output, best first.
// Pairs whose reserves cannot cover the output are skipped.
func BestTradeExactOut(pairs []*Pair, currencyIn *asset.Currency, amountOut asset.Amount, opts BestTradeOptions) ([]*Trade, error) {
	opts = opts.withDefaults()
	s, err := newSearch(pairs, opts)
	if err != nil {
		return nil, err
	}
	chainID, err := searchChainID(amountOut, currencyIn)
	if err != nil {
		return nil, err
	}
	tokenIn, err := asset.Wrap(currencyIn, chainID)
	if err != nil {
		return nil, err
	}
	start, err := asset.WrapAmount(amountOut, chainID)
	if err != nil {
		return nil, err
	}

	if err := s.exactOut(currencyIn, tokenIn, start, opts.MaxHops, nil, amountOut); err != nil {
		return nil, err
	}
	return s.best, nil
}

func (s *search) exactOut(currencyIn, tokenIn *asset.Currency, amountOut asset.Amount, maxHops int, current []*Pair, original asset.Amount) error {
	if maxHops <= 0 {
		return ErrMaxHops
	}
	if len(current) == 0 && amountOut.Raw().Cmp(original.Raw()) != 0 {
		return ErrInvalidRecursion
	}

	for i, p := range s.pairs {
		if s.used.Test(uint(i)) {
			continue
		}
		if !p.InvolvesToken(amountOut.Currency()) || !p.HasReserves() {
			continue
		}

		amountIn, _, err := p.InputAmount(amountOut)
		if err != nil {
			if errors.Is(err, ErrInsufficientReserves) {
				continue
			}
			return err
		}

		path := make([]*Pair, 0, len(current)+1)
		path = append(append(path, p), current...)
		if amountIn.Currency().Equals(tokenIn) {
			route, err := NewRoute(path, currencyIn, original.Currency())
			if err != nil {
				return err
			}
			trade, err := ExactOut(route, original)
			if err != nil {
				return err
			}
			if err := s.insert(trade); err != nil {
				return err
			}
		} else if maxHops > 1 && s.remaining() > 1 {
			s.used.Set(uint(i))
			err := s.exactOut(currencyIn, tokenIn, amountIn, maxHops-1, path, original)
			s.used.Clear(uint(i))
			if err != nil {
				return err
			}
		}
	}
	return nil
}
