// Package monolith provides the application container and module interface.
package monolith

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/fd1az/v2-router/internal/asset"
	"github.com/fd1az/v2-router/internal/config"
	"github.com/fd1az/v2-router/internal/di"
	"github.com/fd1az/v2-router/internal/logger"
)

// Monolith is the main application container providing access to shared infrastructure.
type Monolith interface {
	Config() *config.Config
	Logger() logger.LoggerInterface
	EthClient() *ethclient.Client
	AssetRegistry() *asset.Registry
	Services() di.ServiceRegistry
}

// Module represents a bounded context module that can register services and start up.
type Module interface {
	RegisterServices(di.Container) error
	Startup(context.Context, Monolith) error
}

// Service keys for the shared infrastructure.
const (
	ConfigKey        = "config"
	LoggerKey        = "logger"
	EthClientKey     = "ethClient"
	AssetRegistryKey = "assetRegistry"
)

// App implements the Monolith interface.
type App struct {
	config        *config.Config
	logger        logger.LoggerInterface
	ethClient     *ethclient.Client
	assetRegistry *asset.Registry
	container     di.Container
}

// New creates a new Monolith instance. The Ethereum client is only dialed
// when an RPC URL is configured.
func New(ctx context.Context, cfg *config.Config, log logger.LoggerInterface) (*App, error) {
	var ethClient *ethclient.Client
	if cfg.Ethereum.HTTPURL != "" {
		c, err := ethclient.DialContext(ctx, cfg.Ethereum.HTTPURL)
		if err != nil {
			return nil, fmt.Errorf("dialing ethereum node: %w", err)
		}
		ethClient = c
	}

	return NewWithClient(cfg, log, ethClient), nil
}

// NewWithClient creates a Monolith around an existing (possibly nil) client.
func NewWithClient(cfg *config.Config, log logger.LoggerInterface, ethClient *ethclient.Client) *App {
	// Pre-populated with the wrapped native tokens
	assetRegistry := asset.DefaultRegistry()

	container := di.NewContainer()

	// Register global services
	container.Register(ConfigKey, cfg)
	container.Register(LoggerKey, log)
	container.Register(EthClientKey, ethClient)
	container.Register(AssetRegistryKey, assetRegistry)

	return &App{
		config:        cfg,
		logger:        log,
		ethClient:     ethClient,
		assetRegistry: assetRegistry,
		container:     container,
	}
}

func (a *App) Config() *config.Config {
	return a.config
}

func (a *App) Logger() logger.LoggerInterface {
	return a.logger
}

// EthClient returns nil when no RPC URL is configured.
func (a *App) EthClient() *ethclient.Client {
	return a.ethClient
}

func (a *App) AssetRegistry() *asset.Registry {
	return a.assetRegistry
}

func (a *App) Services() di.ServiceRegistry {
	return a.container
}

// Container returns the DI container for module registration.
func (a *App) Container() di.Container {
	return a.container
}

// RegisterModules registers all provided modules.
func (a *App) RegisterModules(modules ...Module) error {
	for _, m := range modules {
		if err := m.RegisterServices(a.container); err != nil {
			return err
		}
	}
	return nil
}

// StartModules starts all provided modules.
func (a *App) StartModules(ctx context.Context, modules ...Module) error {
	for _, m := range modules {
		if err := m.Startup(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// Close closes all resources.
func (a *App) Close() error {
	if a.ethClient != nil {
		a.ethClient.Close()
	}
	return nil
}
