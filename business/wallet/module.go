// Package wallet implements the signing identity and network readiness checks.
package wallet

import (
	"context"

	"github.com/benbjohnson/clock"

	networkDI "github.com/fd1az/token-deployer/business/network/di"
	"github.com/fd1az/token-deployer/business/wallet/app"
	walletDI "github.com/fd1az/token-deployer/business/wallet/di"
	"github.com/fd1az/token-deployer/business/wallet/domain"
	"github.com/fd1az/token-deployer/internal/asset"
	"github.com/fd1az/token-deployer/internal/config"
	"github.com/fd1az/token-deployer/internal/di"
	"github.com/fd1az/token-deployer/internal/logger"
	"github.com/fd1az/token-deployer/internal/monolith"
	"github.com/fd1az/token-deployer/internal/pause"
)

// Module implements the wallet bounded context.
type Module struct {
	// PrivateKey is the hex signing key, parsed in RegisterServices.
	PrivateKey string
}

// RegisterServices registers all wallet services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	identity, err := domain.NewIdentity(m.PrivateKey)
	if err != nil {
		return err
	}
	m.PrivateKey = ""

	di.RegisterToken(c, walletDI.Identity, func(di.ServiceRegistry) *domain.Identity {
		return identity
	})

	di.RegisterToken(c, walletDI.ConnectionFactory, func(sr di.ServiceRegistry) *app.ConnectionFactory {
		return app.NewConnectionFactory(
			networkDI.GetSelector(sr),
			networkDI.GetDialer(sr),
			walletDI.GetIdentity(sr),
		)
	})

	di.RegisterToken(c, walletDI.ReadinessMonitor, func(sr di.ServiceRegistry) *app.ReadinessMonitor {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)
		clk := sr.Get(monolith.ServiceClock).(clock.Clock)
		registry := sr.Get(monolith.ServiceAssetRegistry).(*asset.Registry)

		readyCfg := app.DefaultReadinessConfig()
		readyCfg.MinBalance = cfg.Wallet.MinBalanceDecimal()
		readyCfg.MaxWait = cfg.Wallet.MaxWait
		if cfg.Wallet.PollInterval > 0 {
			readyCfg.PollInterval = cfg.Wallet.PollInterval
		}
		if cfg.Network.MaxBlockAge > 0 {
			readyCfg.MaxBlockAge = cfg.Network.MaxBlockAge
		}

		monitor, err := app.NewReadinessMonitor(
			readyCfg,
			walletDI.GetConnectionFactory(sr),
			asset.NativeFor(registry, cfg.Network.ChainID),
			clk,
			pause.WithClock(clk),
			log,
		)
		if err != nil {
			panic("failed to create readiness monitor: " + err.Error())
		}
		return monitor
	})

	return nil
}

// Startup logs the wallet address.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	identity := walletDI.GetIdentity(mono.Services())
	mono.Logger().Info(ctx, "wallet loaded", "address", identity)
	return nil
}
