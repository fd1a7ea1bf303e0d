package asset

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// ErrContractViolation is wrapped by every error caused by a caller bug
// rather than by market state.
var ErrContractViolation = errors.New("asset: contract violation")

// Common errors
var (
	ErrNilCurrency     = fmt.Errorf("%w: nil currency", ErrContractViolation)
	ErrInvalidAddress  = fmt.Errorf("%w: invalid address", ErrContractViolation)
	ErrChainMismatch   = fmt.Errorf("%w: currencies are on different chains", ErrContractViolation)
	ErrSameAddress     = fmt.Errorf("%w: tokens have the same address", ErrContractViolation)
	ErrNotToken        = fmt.Errorf("%w: currency is not a token", ErrContractViolation)
	ErrNoWrappedNative = fmt.Errorf("%w: no wrapped native token for chain", ErrContractViolation)
)

// Kind tags the Currency variant.
type Kind uint8

const (
	KindNative Kind = iota
	KindToken
)

// Currency is either the native coin of a chain or an ERC20 token.
// It is immutable once constructed; compare with Equals, never by pointer.
type Currency struct {
	kind     Kind
	id       ID
	symbol   string
	name     string
	decimals uint8
}

// Ether is the native coin singleton.
var Ether = &Currency{kind: KindNative, id: NativeID, symbol: "ETH", name: "Ether", decimals: 18}

// NewToken creates a token from a hex address. The stored address is the
// EIP-55 checksum form; malformed addresses are rejected.
func NewToken(chainID uint64, address string, decimals uint8, symbol, name string) (*Currency, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	return NewTokenFromAddress(chainID, common.HexToAddress(address), decimals, symbol, name), nil
}

// NewTokenFromAddress creates a token from an already parsed address.
func NewTokenFromAddress(chainID uint64, address common.Address, decimals uint8, symbol, name string) *Currency {
	return &Currency{
		kind:     KindToken,
		id:       NewTokenID(chainID, address),
		symbol:   symbol,
		name:     name,
		decimals: decimals,
	}
}

// MustNewToken is NewToken that panics on a malformed address.
func MustNewToken(chainID uint64, address string, decimals uint8, symbol, name string) *Currency {
	t, err := NewToken(chainID, address, decimals, symbol, name)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseAddress validates a hex address and returns it.
func ParseAddress(address string) (common.Address, error) {
	if !common.IsHexAddress(address) {
		return common.Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	return common.HexToAddress(address), nil
}

// Kind returns the variant tag.
func (c *Currency) Kind() Kind {
	return c.kind
}

// ID returns the unique identifier for this currency.
func (c *Currency) ID() ID {
	return c.id
}

// IsNative returns true for the native coin.
func (c *Currency) IsNative() bool {
	return c.kind == KindNative
}

// IsToken returns true for ERC20 tokens.
func (c *Currency) IsToken() bool {
	return c.kind == KindToken
}

// ChainID returns the chain of a token (0 for the native coin).
func (c *Currency) ChainID() uint64 {
	return c.id.ChainID()
}

// Address returns the token contract address (zero for the native coin).
func (c *Currency) Address() common.Address {
	return c.id.Address()
}

// Symbol returns the ticker symbol (e.g., "ETH", "USDC").
func (c *Currency) Symbol() string {
	return c.symbol
}

// Name returns the human-readable name, falling back to the symbol.
func (c *Currency) Name() string {
	if c.name == "" {
		return c.symbol
	}
	return c.name
}

// Decimals returns the number of decimal places.
func (c *Currency) Decimals() uint8 {
	return c.decimals
}

// String returns a human-readable representation.
func (c *Currency) String() string {
	if c.symbol != "" {
		return c.symbol
	}
	return c.id.String()
}

// Equals reports identity: same chain and address for tokens, or both native.
func (c *Currency) Equals(other *Currency) bool {
	if c == nil || other == nil {
		return c == other
	}
	if c == other {
		return true
	}
	if c.kind != other.kind {
		return false
	}
	return c.id.Equals(other.id)
}

// SortsBefore reports whether c's address orders before other's.
// Both must be tokens on the same chain with different addresses.
func (c *Currency) SortsBefore(other *Currency) (bool, error) {
	if c == nil || other == nil {
		return false, ErrNilCurrency
	}
	if !c.IsToken() || !other.IsToken() {
		return false, ErrNotToken
	}
	if c.ChainID() != other.ChainID() {
		return false, fmt.Errorf("%w: %d vs %d", ErrChainMismatch, c.ChainID(), other.ChainID())
	}
	a, b := c.Address(), other.Address()
	if a == b {
		return false, fmt.Errorf("%w: %s", ErrSameAddress, a.Hex())
	}
	// byte order equals case-insensitive hex order
	return bytes.Compare(a.Bytes(), b.Bytes()) < 0, nil
}

// Sort returns the two tokens ordered by address.
func Sort(a, b *Currency) (*Currency, *Currency, error) {
	before, err := a.SortsBefore(b)
	if err != nil {
		return nil, nil, err
	}
	if before {
		return a, b, nil
	}
	return b, a, nil
}
