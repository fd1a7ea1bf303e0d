package domain

import (
	"fmt"

	"github.com/fd1az/v2-router/internal/asset"
)

// Route is a validated chain of pairs from an input to an output currency.
// The native coin is accepted at either end and is routed through the
// chain's wrapped native token.
type Route struct {
	pairs    []*Pair
	path     []*asset.Currency
	input    *asset.Currency
	output   *asset.Currency
	midPrice asset.Price
}

// NewRoute validates pairs and builds the token path. A nil output means
// the last token of the path.
func NewRoute(pairs []*Pair, input, output *asset.Currency) (*Route, error) {
	if len(pairs) == 0 {
		return nil, ErrNoPairs
	}
	chainID := pairs[0].ChainID()
	for _, p := range pairs[1:] {
		if p.ChainID() != chainID {
			return nil, fmt.Errorf("%w: %d vs %d", ErrChainMismatch, chainID, p.ChainID())
		}
	}

	wrappedIn, err := asset.Wrap(input, chainID)
	if err != nil {
		return nil, err
	}
	if !pairs[0].InvolvesToken(wrappedIn) {
		return nil, fmt.Errorf("%w: %s", ErrRouteInput, input)
	}
	if output != nil {
		wrappedOut, err := asset.Wrap(output, chainID)
		if err != nil {
			return nil, err
		}
		if !pairs[len(pairs)-1].InvolvesToken(wrappedOut) {
			return nil, fmt.Errorf("%w: %s", ErrRouteOutput, output)
		}
	}

	path := make([]*asset.Currency, 0, len(pairs)+1)
	path = append(path, wrappedIn)
	prices := make([]asset.Price, 0, len(pairs))
	for i, p := range pairs {
		current := path[i]
		next, err := p.OtherToken(current)
		if err != nil {
			return nil, fmt.Errorf("%w: hop %d does not contain %s", ErrBrokenPath, i, current)
		}
		path = append(path, next)
		if current.Equals(p.Token0()) {
			prices = append(prices, p.Token0Price())
		} else {
			prices = append(prices, p.Token1Price())
		}
	}

	if output == nil {
		output = path[len(path)-1]
	}

	mid := prices[0]
	for _, pr := range prices[1:] {
		if mid, err = mid.Multiply(pr); err != nil {
			return nil, err
		}
	}
	raw := mid.Raw()

	return &Route{
		pairs:    pairs,
		path:     path,
		input:    input,
		output:   output,
		midPrice: asset.NewPrice(input, output, raw.Denominator(), raw.Numerator()),
	}, nil
}

// Pairs returns the pairs of the route in order.
func (r *Route) Pairs() []*Pair {
	return r.pairs
}

// Path returns the tokens visited, wrapped, from input to output.
func (r *Route) Path() []*asset.Currency {
	return r.path
}

// Input returns the input currency as given (possibly native).
func (r *Route) Input() *asset.Currency {
	return r.input
}

// Output returns the output currency as given (possibly native).
func (r *Route) Output() *asset.Currency {
	return r.output
}

// ChainID returns the chain all pairs live on.
func (r *Route) ChainID() uint64 {
	return r.pairs[0].ChainID()
}

// MidPrice is the product of the per-hop spot prices at construction time.
func (r *Route) MidPrice() asset.Price {
	return r.midPrice
}

// Hops returns the number of pairs.
func (r *Route) Hops() int {
	return len(r.pairs)
}

// String returns the path symbols joined by arrows.
func (r *Route) String() string {
	s := ""
	for i, c := range r.path {
		if i > 0 {
			s += " -> "
		}
		s += c.Symbol()
	}
	return s
}
