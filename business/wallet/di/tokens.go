// Package di contains dependency injection tokens for the wallet context.
package di

import (
	"github.com/fd1az/token-deployer/business/wallet/app"
	"github.com/fd1az/token-deployer/business/wallet/domain"
	"github.com/fd1az/token-deployer/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Identity          = di.NewToken[*domain.Identity]("wallet.Identity")
	ConnectionFactory = di.NewToken[*app.ConnectionFactory]("wallet.ConnectionFactory")
	ReadinessMonitor  = di.NewToken[*app.ReadinessMonitor]("wallet.ReadinessMonitor")
)

func GetIdentity(c di.ServiceRegistry) *domain.Identity {
	return di.GetToken(c, Identity)
}

func GetConnectionFactory(c di.ServiceRegistry) *app.ConnectionFactory {
	return di.GetToken(c, ConnectionFactory)
}

func GetReadinessMonitor(c di.ServiceRegistry) *app.ReadinessMonitor {
	return di.GetToken(c, ReadinessMonitor)
}
