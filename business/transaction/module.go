// Package transaction implements transaction submission with retries.
package transaction

import (
	"context"

	"github.com/benbjohnson/clock"

	"github.com/fd1az/token-deployer/business/transaction/app"
	txDI "github.com/fd1az/token-deployer/business/transaction/di"
	"github.com/fd1az/token-deployer/business/transaction/domain"
	walletDI "github.com/fd1az/token-deployer/business/wallet/di"
	"github.com/fd1az/token-deployer/internal/config"
	"github.com/fd1az/token-deployer/internal/di"
	"github.com/fd1az/token-deployer/internal/logger"
	"github.com/fd1az/token-deployer/internal/monolith"
	"github.com/fd1az/token-deployer/internal/pause"
)

// ErrTransactionFailed matches errors returned after all retries failed.
var ErrTransactionFailed = domain.ErrTransactionFailed

// Module implements the transaction bounded context.
type Module struct{}

// RegisterServices registers all transaction services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, txDI.Submitter, func(sr di.ServiceRegistry) *app.Submitter {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)
		clk := sr.Get(monolith.ServiceClock).(clock.Clock)

		subCfg := app.DefaultSubmitterConfig()
		subCfg.MaxRetries = cfg.Tx.MaxRetries
		if cfg.Tx.ReceiptTimeout > 0 {
			subCfg.ReceiptTimeout = cfg.Tx.ReceiptTimeout
		}
		if cfg.Tx.ReceiptPoll > 0 {
			subCfg.ReceiptPoll = cfg.Tx.ReceiptPoll
		}
		if cfg.Tx.NonceWait > 0 {
			subCfg.NonceWait = cfg.Tx.NonceWait
		}
		if cfg.Tx.TransportWait > 0 {
			subCfg.TransportWait = cfg.Tx.TransportWait
		}
		if cfg.Tx.FeeBumpPercent > 0 {
			subCfg.FeeBumpPercent = cfg.Tx.FeeBumpPercent
		}

		s, err := app.NewSubmitter(subCfg, walletDI.GetConnectionFactory(sr), clk, pause.WithClock(clk), log)
		if err != nil {
			panic("failed to create submitter: " + err.Error())
		}
		return s
	})

	return nil
}

// Startup initializes the transaction module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	mono.Logger().Debug(ctx, "transaction module started", "max_retries", mono.Config().Tx.MaxRetries)
	return nil
}
