// Package di contains dependency injection tokens for the network context.
package di

import (
	"github.com/fd1az/token-deployer/business/network/app"
	"github.com/fd1az/token-deployer/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Selector = di.NewToken[*app.Selector]("network.Selector")
	Dialer   = di.NewToken[app.Dialer]("network.Dialer")
)

// Private dependency tokens - internal to network module
var (
	Prober = di.NewToken[app.EndpointProber]("network:prober")
)

func GetSelector(c di.ServiceRegistry) *app.Selector {
	return di.GetToken(c, Selector)
}

func GetDialer(c di.ServiceRegistry) app.Dialer {
	return di.GetToken(c, Dialer)
}

func GetProber(c di.ServiceRegistry) app.EndpointProber {
	return di.GetToken(c, Prober)
}
