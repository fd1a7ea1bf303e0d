// Package tokenlist loads token-list documents into the asset registry.
package tokenlist

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/fd1az/v2-router/internal/asset"
	"github.com/fd1az/v2-router/internal/httpclient"
	"github.com/fd1az/v2-router/internal/logger"
)

const maxConcurrentLists = 4

// List is a token-list document.
type List struct {
	Name   string  `json:"name"`
	Tokens []Entry `json:"tokens"`
}

// Entry is one token of a list.
type Entry struct {
	ChainID  uint64 `json:"chainId"`
	Address  string `json:"address"`
	Decimals int    `json:"decimals"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
}

// Result counts what a list contributed.
type Result struct {
	Name       string
	Added      int
	Duplicates int
	OtherChain int
	Invalid    int
}

// Loader fetches lists and registers the tokens of one chain.
type Loader struct {
	client   *httpclient.Client
	registry *asset.Registry
	chainID  uint64
	logger   logger.LoggerInterface
}

// NewLoader creates a Loader.
func NewLoader(client *httpclient.Client, registry *asset.Registry, chainID uint64, log logger.LoggerInterface) *Loader {
	return &Loader{client: client, registry: registry, chainID: chainID, logger: log}
}

// Load fetches url and registers its tokens.
func (l *Loader) Load(ctx context.Context, url string) (Result, error) {
	var list List
	_, err := l.client.GetJSON(ctx, url, &list,
		httpclient.WithLabels(attribute.String("resource", "tokenlist")))
	if err != nil {
		return Result{}, fmt.Errorf("tokenlist %s: %w", url, err)
	}

	res := l.Register(list)
	l.logger.Info(ctx, "token list loaded",
		"url", url,
		"name", res.Name,
		"added", res.Added,
		"duplicates", res.Duplicates,
		"other_chain", res.OtherChain,
		"invalid", res.Invalid,
	)
	return res, nil
}

// Register adds the list's tokens for the loader's chain. Malformed entries
// are counted and skipped.
func (l *Loader) Register(list List) Result {
	res := Result{Name: list.Name}
	for _, e := range list.Tokens {
		if e.ChainID != l.chainID {
			res.OtherChain++
			continue
		}
		token, err := e.token()
		if err != nil {
			l.logger.Debug(context.Background(), "skipping token", "list", list.Name, "address", e.Address, "error", err)
			res.Invalid++
			continue
		}
		switch err := l.registry.Register(token); {
		case err == nil:
			res.Added++
		case errors.Is(err, asset.ErrAlreadyRegistered):
			res.Duplicates++
		default:
			res.Invalid++
		}
	}
	return res
}

// LoadAll fetches every url concurrently. A failing list does not stop the
// others; the failures are joined into the returned error.
func (l *Loader) LoadAll(ctx context.Context, urls []string) (int, error) {
	var (
		added atomic.Int64
		errs  = make([]error, len(urls))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLists)
	for i, url := range urls {
		g.Go(func() error {
			res, err := l.Load(gctx, url)
			if err != nil {
				errs[i] = err
				return nil
			}
			added.Add(int64(res.Added))
			return nil
		})
	}
	_ = g.Wait()

	return int(added.Load()), errors.Join(errs...)
}

func (e Entry) token() (*asset.Currency, error) {
	if e.Decimals < 0 || e.Decimals > 255 {
		return nil, fmt.Errorf("decimals %d out of range", e.Decimals)
	}
	if e.Symbol == "" {
		return nil, errors.New("missing symbol")
	}
	return asset.NewToken(e.ChainID, e.Address, uint8(e.Decimals), e.Symbol, e.Name)
}
