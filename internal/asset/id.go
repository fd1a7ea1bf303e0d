// Package asset provides the currency identity model used by the router:
// the native coin, ERC20 tokens, amounts and prices between them.
// The core uses big.Int and fraction.Fraction for exact representation.
// decimal.Decimal is only used at boundaries (UI, parsing, display).
package asset

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// ID uniquely identifies a currency by chain and contract address.
// The native coin has a zero chain and a zero address.
// This is the TRUE identity - not the symbol.
type ID struct {
	chainID uint64
	address common.Address
}

// NativeID is the identity of the native coin.
var NativeID = ID{}

// NewTokenID creates an ID for an ERC20 token.
func NewTokenID(chainID uint64, addr common.Address) ID {
	return ID{chainID: chainID, address: addr}
}

// ChainID returns the chain ID (0 for the native coin).
func (id ID) ChainID() uint64 {
	return id.chainID
}

// Address returns the token contract address (zero for the native coin).
func (id ID) Address() common.Address {
	return id.address
}

// IsNative returns true for the native coin.
func (id ID) IsNative() bool {
	return id == NativeID
}

// String returns a human-readable representation.
func (id ID) String() string {
	if id.IsNative() {
		return "native"
	}
	return fmt.Sprintf("chain:%d/%s", id.chainID, id.address.Hex())
}

// Equals compares two IDs for equality.
func (id ID) Equals(other ID) bool {
	return id == other
}
