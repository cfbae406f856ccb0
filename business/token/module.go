// Package token implements token deployment and transfers.
package token

import (
	"context"

	"github.com/benbjohnson/clock"

	"github.com/fd1az/token-deployer/business/token/app"
	tokenDI "github.com/fd1az/token-deployer/business/token/di"
	"github.com/fd1az/token-deployer/business/token/infra/envstore"
	"github.com/fd1az/token-deployer/business/token/infra/explorer"
	"github.com/fd1az/token-deployer/business/token/infra/solc"
	txDI "github.com/fd1az/token-deployer/business/transaction/di"
	walletDI "github.com/fd1az/token-deployer/business/wallet/di"
	"github.com/fd1az/token-deployer/internal/asset"
	"github.com/fd1az/token-deployer/internal/config"
	"github.com/fd1az/token-deployer/internal/di"
	"github.com/fd1az/token-deployer/internal/httpclient"
	"github.com/fd1az/token-deployer/internal/logger"
	"github.com/fd1az/token-deployer/internal/monolith"
	"github.com/fd1az/token-deployer/internal/pause"
	"github.com/fd1az/token-deployer/internal/ratelimit"
)

// Module implements the token bounded context.
type Module struct{}

// RegisterServices registers all token services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, tokenDI.Compiler, func(sr di.ServiceRegistry) app.Compiler {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)

		return solc.NewCompiler(solc.Config{
			SolcPath:     cfg.Compiler.SolcPath,
			ContractName: cfg.Compiler.ContractName,
			Optimize:     cfg.Compiler.Optimize,
			OptimizeRuns: cfg.Compiler.OptimizeRuns,
		}, nil, log)
	})

	di.RegisterToken(c, tokenDI.Verifier, func(sr di.ServiceRegistry) app.Verifier {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)
		clk := sr.Get(monolith.ServiceClock).(clock.Clock)

		client, err := httpclient.NewInstrumentedClient(
			httpclient.WithProviderName("explorer"),
			httpclient.WithRateLimiter(ratelimit.New(cfg.Verifier.RequestsPerSec)),
			httpclient.WithRequestTimeout(cfg.Verifier.RequestTimeout),
		)
		if err != nil {
			panic("failed to create explorer http client: " + err.Error())
		}

		return explorer.NewVerifier(
			explorer.DefaultConfig(cfg.Verifier.APIURL, cfg.Verifier.APIKey, cfg.Network.ChainID),
			client,
			pause.WithClock(clk),
			log,
		)
	})

	di.RegisterToken(c, tokenDI.ConfigStore, func(sr di.ServiceRegistry) app.ConfigStore {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		return envstore.New(cfg.App.EnvFile)
	})

	di.RegisterToken(c, tokenDI.Service, func(sr di.ServiceRegistry) *app.Service {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)
		clk := sr.Get(monolith.ServiceClock).(clock.Clock)
		registry := sr.Get(monolith.ServiceAssetRegistry).(*asset.Registry)

		svcCfg := app.Config{
			ChainID:         cfg.Network.ChainID,
			ExplorerURL:     cfg.Network.ExplorerURL,
			ContractSource:  cfg.Compiler.ContractSource,
			ContractName:    cfg.Compiler.ContractName,
			Optimize:        cfg.Compiler.Optimize,
			OptimizeRuns:    cfg.Compiler.OptimizeRuns,
			CompilerVersion: cfg.Verifier.CompilerVersion,
			VerifyEnabled:   cfg.Verifier.Enabled,
			VerifyAttempts:  cfg.Verifier.Attempts,
			VerifyDelay:     cfg.Verifier.Delay,
		}
		if addr, ok := cfg.Token.ContractAddressHex(); ok {
			svcCfg.Contract = &addr
		}

		return app.NewService(svcCfg, app.Deps{
			Compiler:  tokenDI.GetCompiler(sr),
			Verifier:  tokenDI.GetVerifier(sr),
			Store:     tokenDI.GetConfigStore(sr),
			Submitter: txDI.GetSubmitter(sr),
			Readiness: walletDI.GetReadinessMonitor(sr),
			Connector: walletDI.GetConnectionFactory(sr),
			Registry:  registry,
			Pause:     pause.WithClock(clk),
			Logger:    log,
		})
	})

	return nil
}

// Startup logs the configured token, if any.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	svc := tokenDI.GetService(mono.Services())
	if addr, ok := svc.Contract(); ok {
		mono.Logger().Info(ctx, "token contract configured", "address", addr.Hex())
	} else {
		mono.Logger().Info(ctx, "no token contract configured; deploy one first")
	}
	return nil
}
