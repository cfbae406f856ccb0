// Package network implements RPC endpoint probing and stable selection.
package network

import (
	"context"

	"github.com/benbjohnson/clock"

	"github.com/fd1az/token-deployer/business/network/app"
	networkDI "github.com/fd1az/token-deployer/business/network/di"
	"github.com/fd1az/token-deployer/business/network/domain"
	"github.com/fd1az/token-deployer/business/network/infra/ethereum"
	"github.com/fd1az/token-deployer/internal/config"
	"github.com/fd1az/token-deployer/internal/di"
	"github.com/fd1az/token-deployer/internal/logger"
	"github.com/fd1az/token-deployer/internal/monolith"
)

// Module implements the network bounded context.
type Module struct {
	pool     *ethereum.ClientPool
	selector *app.Selector
}

// RegisterServices registers all network services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, networkDI.Dialer, func(sr di.ServiceRegistry) app.Dialer {
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)
		m.pool = ethereum.NewClientPool(log)
		return m.pool
	})

	di.RegisterToken(c, networkDI.Prober, func(sr di.ServiceRegistry) app.EndpointProber {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)
		clk := sr.Get(monolith.ServiceClock).(clock.Clock)

		proberCfg := app.DefaultProberConfig()
		if cfg.Network.ProbeTimeout > 0 {
			proberCfg.Timeout = cfg.Network.ProbeTimeout
		}
		if cfg.Network.MaxBlockAge > 0 {
			proberCfg.MaxBlockAge = cfg.Network.MaxBlockAge
		}

		p, err := app.NewProber(proberCfg, networkDI.GetDialer(sr), clk, log)
		if err != nil {
			panic("failed to create endpoint prober: " + err.Error())
		}
		return p
	})

	di.RegisterToken(c, networkDI.Selector, func(sr di.ServiceRegistry) *app.Selector {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)
		clk := sr.Get(monolith.ServiceClock).(clock.Clock)

		selCfg := app.DefaultSelectorConfig()
		if cfg.Network.SelectionTTL > 0 {
			selCfg.TTL = cfg.Network.SelectionTTL
		}
		if cfg.Network.MaxBlockAge > 0 {
			selCfg.MaxBlockAge = cfg.Network.MaxBlockAge
		}

		s, err := app.NewSelector(selCfg, domain.Endpoints(cfg.Network.Endpoints()), networkDI.GetProber(sr), clk, log)
		if err != nil {
			panic("failed to create endpoint selector: " + err.Error())
		}
		m.selector = s
		return s
	})

	return nil
}

// Startup selects the initial endpoint and checks that it serves the
// configured chain. Failures are logged; every operation selects again.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	cfg := mono.Config()

	selector := networkDI.GetSelector(mono.Services())
	endpoint, err := selector.SelectStable(ctx)
	if err != nil {
		return err
	}

	client, err := networkDI.GetDialer(mono.Services()).Client(ctx, endpoint)
	if err != nil {
		log.Warn(ctx, "could not connect to selected endpoint", "endpoint", endpoint.Host(), "error", err)
		return nil
	}

	chainID, err := client.ChainID(ctx)
	switch {
	case err != nil:
		log.Warn(ctx, "could not read chain id", "endpoint", endpoint.Host(), "error", err)
	case chainID.Uint64() != cfg.Network.ChainID:
		log.Warn(ctx, "endpoint serves a different chain than configured",
			"endpoint", endpoint.Host(),
			"chain_id", chainID.Uint64(),
			"configured", cfg.Network.ChainID)
	}

	log.Info(ctx, "network module started", "endpoints", len(selector.Endpoints()))
	return nil
}

// Close releases pooled RPC clients.
func (m *Module) Close() error {
	if m.selector != nil {
		m.selector.Close()
	}
	if m.pool != nil {
		m.pool.Close()
	}
	return nil
}
