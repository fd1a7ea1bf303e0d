package asset

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Registry errors
var (
	ErrAlreadyRegistered = errors.New("asset: currency already registered")
	ErrUnknownCurrency   = errors.New("asset: unknown currency")
)

// Registry is a thread-safe registry of known tokens.
type Registry struct {
	byID     map[ID]*Currency
	bySymbol map[string][]*Currency // upper-cased symbol -> tokens (one per chain)
	mu       sync.RWMutex
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:     make(map[ID]*Currency),
		bySymbol: make(map[string][]*Currency),
	}
}

// Register adds a token to the registry.
func (r *Registry) Register(c *Currency) error {
	if c == nil {
		return ErrNilCurrency
	}
	if !c.IsToken() {
		return ErrNotToken
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := c.ID()
	if _, exists := r.byID[id]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, id)
	}

	r.byID[id] = c
	key := strings.ToUpper(c.Symbol())
	r.bySymbol[key] = append(r.bySymbol[key], c)
	return nil
}

// Get retrieves a token by its ID.
func (r *Registry) Get(id ID) (*Currency, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.byID[id]
	return c, ok
}

// GetToken retrieves a token by chain and address.
func (r *Registry) GetToken(chainID uint64, address common.Address) (*Currency, bool) {
	return r.Get(NewTokenID(chainID, address))
}

// GetBySymbolAndChain retrieves a token by symbol (case-insensitive) and chain.
func (r *Registry) GetBySymbolAndChain(symbol string, chainID uint64) (*Currency, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.bySymbol[strings.ToUpper(symbol)] {
		if c.ChainID() == chainID {
			return c, true
		}
	}
	return nil, false
}

// Resolve maps a user reference to a currency: "ETH" is the native coin,
// a hex address or a symbol is looked up on the given chain.
func (r *Registry) Resolve(chainID uint64, ref string) (*Currency, error) {
	if strings.EqualFold(ref, Ether.Symbol()) {
		return Ether, nil
	}
	if common.IsHexAddress(ref) {
		if c, ok := r.GetToken(chainID, common.HexToAddress(ref)); ok {
			return c, nil
		}
		return nil, fmt.Errorf("%w: %s on chain %d", ErrUnknownCurrency, ref, chainID)
	}
	if c, ok := r.GetBySymbolAndChain(ref, chainID); ok {
		return c, nil
	}
	return nil, fmt.Errorf("%w: %s on chain %d", ErrUnknownCurrency, ref, chainID)
}

// Tokens returns all registered tokens of a chain.
func (r *Registry) Tokens(chainID uint64) []*Currency {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Currency, 0, len(r.byID))
	for id, c := range r.byID {
		if id.ChainID() == chainID {
			result = append(result, c)
		}
	}
	return result
}

// Count returns the number of registered tokens.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
