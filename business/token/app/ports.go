// Package app implements token deployment and native and token transfers.
package app

import (
	"context"

	"github.com/fd1az/token-deployer/business/token/domain"
	txdomain "github.com/fd1az/token-deployer/business/transaction/domain"
	walletapp "github.com/fd1az/token-deployer/business/wallet/app"
)

// Compiler turns a source file into deployable bytecode.
type Compiler interface {
	Compile(ctx context.Context, sourcePath string) (domain.Artifact, error)
}

// Verifier publishes contract source on a block explorer.
type Verifier interface {
	Verify(ctx context.Context, req domain.VerifyRequest) (bool, error)
}

// ConfigStore persists a configuration value.
type ConfigStore interface {
	Set(key, value string) error
}

// Submitter sends a transaction and waits for its receipt.
type Submitter interface {
	Submit(ctx context.Context, req txdomain.Request) (*txdomain.Outcome, error)
}

// Readiness gates transactions on network health.
type Readiness interface {
	WaitUntilReady(ctx context.Context) error
	Check(ctx context.Context) (walletapp.Readiness, error)
}
