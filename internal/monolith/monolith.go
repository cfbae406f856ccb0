// Package monolith provides the application container and module interface.
package monolith

import (
	"context"

	"github.com/benbjohnson/clock"

	"github.com/fd1az/token-deployer/internal/asset"
	"github.com/fd1az/token-deployer/internal/config"
	"github.com/fd1az/token-deployer/internal/di"
	"github.com/fd1az/token-deployer/internal/logger"
)

// Global service names registered by New.
const (
	ServiceConfig        = "config"
	ServiceLogger        = "logger"
	ServiceClock         = "clock"
	ServiceAssetRegistry = "assetRegistry"
)

// Monolith is the main application container providing access to shared infrastructure.
type Monolith interface {
	Config() *config.Config
	Logger() logger.LoggerInterface
	Clock() clock.Clock
	AssetRegistry() *asset.Registry
	Services() di.ServiceRegistry
}

// Module represents a bounded context module that can register services and start up.
type Module interface {
	RegisterServices(di.Container) error
	Startup(context.Context, Monolith) error
}

// Closer is implemented by modules holding resources to release on exit.
type Closer interface {
	Close() error
}

type app struct {
	config        *config.Config
	logger        logger.LoggerInterface
	clock         clock.Clock
	assetRegistry *asset.Registry
	container     di.Container
	modules       []Module
}

// New creates a new Monolith instance. A nil clk means the wall clock.
func New(cfg *config.Config, log logger.LoggerInterface, clk clock.Clock) *app {
	if clk == nil {
		clk = clock.New()
	}

	assetRegistry := asset.DefaultRegistry()
	container := di.NewContainer()

	container.Register(ServiceConfig, cfg)
	container.Register(ServiceLogger, log)
	container.Register(ServiceClock, clk)
	container.Register(ServiceAssetRegistry, assetRegistry)

	return &app{
		config:        cfg,
		logger:        log,
		clock:         clk,
		assetRegistry: assetRegistry,
		container:     container,
	}
}

func (a *app) Config() *config.Config {
	return a.config
}

func (a *app) Logger() logger.LoggerInterface {
	return a.logger
}

func (a *app) Clock() clock.Clock {
	return a.clock
}

func (a *app) AssetRegistry() *asset.Registry {
	return a.assetRegistry
}

func (a *app) Services() di.ServiceRegistry {
	return a.container
}

// RegisterModules registers all provided modules.
func (a *app) RegisterModules(modules ...Module) error {
	for _, m := range modules {
		if err := m.RegisterServices(a.container); err != nil {
			return err
		}
		a.modules = append(a.modules, m)
	}
	return nil
}

// StartModules starts all provided modules in order.
func (a *app) StartModules(ctx context.Context, modules ...Module) error {
	for _, m := range modules {
		if err := m.Startup(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// Close closes registered modules in reverse order.
func (a *app) Close() error {
	var firstErr error
	for i := len(a.modules) - 1; i >= 0; i-- {
		if c, ok := a.modules[i].(Closer); ok {
			if err := c.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
