package asset

import (
	"fmt"
)

// Chain IDs
const (
	ChainIDMainnet  = 56709
	ChainIDRopsten  = 3
	ChainIDRinkeby  = 4
	ChainIDGoerli   = 5
	ChainIDKovan    = 42
	ChainIDEthereum = 1
)

// Wrapped native tokens, one per supported chain.
var (
	WETHMainnet  = MustNewToken(ChainIDMainnet, "0xacA2c8c66db0EEaBC18Eb60C114F67def14ff5D5", 18, "WETH", "Wrapped Ether")
	WETHRopsten  = MustNewToken(ChainIDRopsten, "0xc778417E063141139Fce010982780140Aa0cD5Ab", 18, "WETH", "Wrapped Ether")
	WETHRinkeby  = MustNewToken(ChainIDRinkeby, "0xc778417E063141139Fce010982780140Aa0cD5Ab", 18, "WETH", "Wrapped Ether")
	WETHGoerli   = MustNewToken(ChainIDGoerli, "0xB4FBF271143F4FBf7B91A5ded31805e42b2208d6", 18, "WETH", "Wrapped Ether")
	WETHKovan    = MustNewToken(ChainIDKovan, "0xd0A1E359811322d97991E03f863a0C30C2cF029C", 18, "WETH", "Wrapped Ether")
	WETHEthereum = MustNewToken(ChainIDEthereum, "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", 18, "WETH", "Wrapped Ether")
)

var wrappedNative = map[uint64]*Currency{
	ChainIDMainnet:  WETHMainnet,
	ChainIDRopsten:  WETHRopsten,
	ChainIDRinkeby:  WETHRinkeby,
	ChainIDGoerli:   WETHGoerli,
	ChainIDKovan:    WETHKovan,
	ChainIDEthereum: WETHEthereum,
}

// WrappedNative returns the wrapped native token of a chain.
func WrappedNative(chainID uint64) (*Currency, error) {
	w, ok := wrappedNative[chainID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNoWrappedNative, chainID)
	}
	return w, nil
}

// Wrap returns the token form of a currency: tokens as-is, the native coin
// as the chain's wrapped native token.
func Wrap(c *Currency, chainID uint64) (*Currency, error) {
	if c == nil {
		return nil, ErrNilCurrency
	}
	if c.IsToken() {
		return c, nil
	}
	return WrappedNative(chainID)
}

// WrapAmount converts a native amount into the wrapped token amount.
func WrapAmount(a Amount, chainID uint64) (Amount, error) {
	if a.currency == nil {
		return Amount{}, ErrNilCurrency
	}
	if a.currency.IsToken() {
		return a, nil
	}
	w, err := WrappedNative(chainID)
	if err != nil {
		return Amount{}, err
	}
	return NewAmount(w, a.raw)
}

// DefaultRegistry returns a registry pre-populated with the wrapped natives.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, w := range wrappedNative {
		_ = r.Register(w) // distinct IDs, cannot collide
	}
	return r
}
