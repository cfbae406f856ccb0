// Package di contains dependency injection tokens for the token context.
package di

import (
	"github.com/fd1az/token-deployer/business/token/app"
	"github.com/fd1az/token-deployer/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Service = di.NewToken[*app.Service]("token.Service")
)

// Private dependency tokens - internal to token module
var (
	Compiler    = di.NewToken[app.Compiler]("token:compiler")
	Verifier    = di.NewToken[app.Verifier]("token:verifier")
	ConfigStore = di.NewToken[app.ConfigStore]("token:configStore")
)

func GetService(c di.ServiceRegistry) *app.Service {
	return di.GetToken(c, Service)
}

func GetCompiler(c di.ServiceRegistry) app.Compiler {
	return di.GetToken(c, Compiler)
}

func GetVerifier(c di.ServiceRegistry) app.Verifier {
	return di.GetToken(c, Verifier)
}

func GetConfigStore(c di.ServiceRegistry) app.ConfigStore {
	return di.GetToken(c, ConfigStore)
}
