package domain

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/fd1az/v2-router/internal/asset"
)

// Protocol constants of the deployed factory.
var (
	FactoryAddress = common.HexToAddress("0x78ebE685961Fcbe72671c819c0F011d5B60B782a")
	InitCodeHash   = common.HexToHash("0x467d41f67eee0008df1487cb8493d243faa23e4abe5d6149a41c7ad048d43249")
)

type pairKey struct {
	chainID uint64
	token0  common.Address
	token1  common.Address
}

// PairFactory derives pair addresses with CREATE2 and builds Pair values.
// Derived addresses are memoized for the lifetime of the factory; entries
// are never invalidated since the derivation is deterministic.
type PairFactory struct {
	factory      common.Address
	initCodeHash common.Hash

	mu        sync.RWMutex
	addresses map[pairKey]common.Address
}

// NewPairFactory creates a factory for the given deployer and pair init code hash.
func NewPairFactory(factory common.Address, initCodeHash common.Hash) *PairFactory {
	return &PairFactory{
		factory:      factory,
		initCodeHash: initCodeHash,
		addresses:    make(map[pairKey]common.Address),
	}
}

// DefaultPairFactory uses FactoryAddress and InitCodeHash.
func DefaultPairFactory() *PairFactory {
	return NewPairFactory(FactoryAddress, InitCodeHash)
}

// FactoryAddress returns the deployer address.
func (f *PairFactory) FactoryAddress() common.Address {
	return f.factory
}

// Address returns the pair address for two tokens in any order.
func (f *PairFactory) Address(a, b *asset.Currency) (common.Address, error) {
	t0, t1, err := asset.Sort(a, b)
	if err != nil {
		return common.Address{}, err
	}
	key := pairKey{chainID: t0.ChainID(), token0: t0.Address(), token1: t1.Address()}

	f.mu.RLock()
	addr, ok := f.addresses[key]
	f.mu.RUnlock()
	if ok {
		return addr, nil
	}

	salt := crypto.Keccak256Hash(key.token0.Bytes(), key.token1.Bytes())
	addr = crypto.CreateAddress2(f.factory, salt, f.initCodeHash.Bytes())

	f.mu.Lock()
	f.addresses[key] = addr
	f.mu.Unlock()
	return addr, nil
}

// CachedAddresses returns the number of memoized pair addresses.
func (f *PairFactory) CachedAddresses() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.addresses)
}

// NewPair creates a pair from two reserve amounts in any order.
func (f *PairFactory) NewPair(a, b asset.Amount) (*Pair, error) {
	if a.Currency() == nil || b.Currency() == nil {
		return nil, asset.ErrNilCurrency
	}
	if !a.Currency().IsToken() || !b.Currency().IsToken() {
		return nil, fmt.Errorf("%w: pair reserves must be tokens", asset.ErrNotToken)
	}

	before, err := a.Currency().SortsBefore(b.Currency())
	if err != nil {
		return nil, err
	}
	if !before {
		a, b = b, a
	}

	addr, err := f.Address(a.Currency(), b.Currency())
	if err != nil {
		return nil, err
	}

	return &Pair{
		liquidityToken: asset.NewTokenFromAddress(a.Currency().ChainID(), addr, 18, "UNI-V2", "Uniswap V2"),
		reserve0:       a,
		reserve1:       b,
	}, nil
}
