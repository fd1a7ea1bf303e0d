// Package routing implements the routing bounded context: pair snapshots,
// best-trade search and swap call parameters.
package routing

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/fd1az/v2-router/business/routing/app"
	routingDI "github.com/fd1az/v2-router/business/routing/di"
	"github.com/fd1az/v2-router/business/routing/domain"
	"github.com/fd1az/v2-router/business/routing/infra/snapshot"
	"github.com/fd1az/v2-router/business/routing/infra/tokenlist"
	"github.com/fd1az/v2-router/business/routing/infra/uniswapv2"
	"github.com/fd1az/v2-router/internal/asset"
	"github.com/fd1az/v2-router/internal/config"
	"github.com/fd1az/v2-router/internal/di"
	"github.com/fd1az/v2-router/internal/httpclient"
	"github.com/fd1az/v2-router/internal/logger"
	"github.com/fd1az/v2-router/internal/monolith"
	"github.com/fd1az/v2-router/internal/ratelimit"
)

// Module implements the routing bounded context.
type Module struct{}

// RegisterServices registers all routing services with the DI container.
// The backend is built here so that a bad snapshot file fails registration.
func (m *Module) RegisterServices(c di.Container) error {
	cfg := c.Get(monolith.ConfigKey).(*config.Config)
	log := c.Get(monolith.LoggerKey).(logger.LoggerInterface)
	registry := c.Get(monolith.AssetRegistryKey).(*asset.Registry)

	factory := domain.NewPairFactory(cfg.Uniswap.FactoryAddressHex(), cfg.Uniswap.InitCodeHashHex())
	c.Register(routingDI.PairFactory.Name(), factory)

	backend, err := newBackend(c, cfg, factory, registry, log)
	if err != nil {
		return err
	}
	c.Register(routingDI.Backend.Name(), backend)

	di.RegisterToken(c, routingDI.CalldataEncoder, func(di.ServiceRegistry) app.CalldataEncoder {
		return uniswapv2.Encoder{}
	})

	di.RegisterToken(c, routingDI.TokenLoader, func(sr di.ServiceRegistry) *tokenlist.Loader {
		client, err := httpclient.New(
			httpclient.WithProviderName("tokenlist"),
			httpclient.WithTimeout(cfg.Tokens.FetchTimeout),
		)
		if err != nil {
			panic("failed to create token list client: " + err.Error())
		}
		return tokenlist.NewLoader(client, registry, cfg.Ethereum.ChainID, log)
	})

	// Register QuoteService (public - exposed to other modules)
	di.RegisterToken(c, routingDI.QuoteService, func(sr di.ServiceRegistry) *app.QuoteService {
		backend := routingDI.GetBackend(sr)
		encoder := di.GetToken(sr, routingDI.CalldataEncoder)

		svc, err := app.NewQuoteService(app.Config{
			ChainID:    cfg.Ethereum.ChainID,
			MaxHops:    cfg.Search.MaxHops,
			MaxResults: cfg.Search.MaxResults,
			BaseTokens: cfg.Search.BaseTokens,
			Slippage:   cfg.Swap.SlippagePercent(),
			TTL:        cfg.Swap.TTL(),
		}, registry, backend, backend, encoder, log)
		if err != nil {
			panic("failed to create quote service: " + err.Error())
		}
		return svc
	})

	return nil
}

func newBackend(
	sr di.ServiceRegistry,
	cfg *config.Config,
	factory *domain.PairFactory,
	registry *asset.Registry,
	log logger.LoggerInterface,
) (app.Backend, error) {
	if cfg.Snapshot.Path != "" {
		return snapshot.Load(cfg.Snapshot.Path, cfg.Ethereum.ChainID, factory, registry, log)
	}

	client, _ := sr.Get(monolith.EthClientKey).(*ethclient.Client)
	if client == nil {
		return nil, fmt.Errorf("routing: no snapshot path and no ethereum client")
	}

	return uniswapv2.NewFetcher(client, factory, uniswapv2.Config{
		ChainID:     cfg.Ethereum.ChainID,
		CallTimeout: cfg.Ethereum.CallTimeout,
		TokenTTL:    cfg.Ethereum.TokenCacheTTL,
	}, ratelimit.New(cfg.Ethereum.RequestsPerMinute), log)
}

// Startup loads the configured token lists.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	cfg := mono.Config()

	// a failing list only costs its tokens; quotes by address still work
	if urls := cfg.Tokens.ListURLs; len(urls) > 0 {
		added, err := routingDI.GetTokenLoader(mono.Services()).LoadAll(ctx, urls)
		if err != nil {
			log.Warn(ctx, "token lists partially loaded", "error", err)
		}
		log.Info(ctx, "token lists loaded", "lists", len(urls), "tokens_added", added)
	}

	log.Info(ctx, "routing module started",
		"chain_id", cfg.Ethereum.ChainID,
		"tokens", len(mono.AssetRegistry().Tokens(cfg.Ethereum.ChainID)),
		"snapshot", cfg.Snapshot.Path != "",
	)
	return nil
}
