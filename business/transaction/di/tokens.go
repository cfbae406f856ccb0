// Package di contains dependency injection tokens for the transaction context.
package di

import (
	"github.com/fd1az/token-deployer/business/transaction/app"
	"github.com/fd1az/token-deployer/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Submitter = di.NewToken[*app.Submitter]("transaction.Submitter")
)

func GetSubmitter(c di.ServiceRegistry) *app.Submitter {
	return di.GetToken(c, Submitter)
}
