// Package app contains the quoting service and the ports it depends on.
package app

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/v2-router/business/routing/domain"
	"github.com/fd1az/v2-router/internal/asset"
)

// ErrPairNotFound is returned by a ReserveSource when no pool exists for two tokens.
var ErrPairNotFound = errors.New("routing: pair not found")

// ReserveSource provides pair snapshots.
type ReserveSource interface {
	// Pair returns the pair of two tokens with its current reserves, or
	// ErrPairNotFound.
	Pair(ctx context.Context, tokenA, tokenB *asset.Currency) (*domain.Pair, error)
}

// TokenSource resolves token metadata for addresses missing from the registry.
type TokenSource interface {
	Token(ctx context.Context, chainID uint64, address common.Address) (*asset.Currency, error)
}

// CalldataEncoder turns swap parameters into router calldata.
type CalldataEncoder interface {
	Encode(params domain.SwapParameters) ([]byte, error)
}

// Backend is a ReserveSource that also resolves tokens and reports its own
// health, as the snapshot file and node readers do.
type Backend interface {
	ReserveSource
	TokenSource
	Check(ctx context.Context) (bool, string)
}
