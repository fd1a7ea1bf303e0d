// Package di contains dependency injection tokens for the routing context.
package di

import (
	"github.com/fd1az/v2-router/business/routing/app"
	"github.com/fd1az/v2-router/business/routing/domain"
	"github.com/fd1az/v2-router/business/routing/infra/tokenlist"
	"github.com/fd1az/v2-router/internal/di"
)

// Public service tokens - exposed to other modules
var (
	QuoteService = di.NewToken[*app.QuoteService]("routing.QuoteService")
	Backend      = di.NewToken[app.Backend]("routing.Backend")
)

// Private dependency tokens - internal to routing module
var (
	PairFactory     = di.NewToken[*domain.PairFactory]("routing:pairFactory")
	CalldataEncoder = di.NewToken[app.CalldataEncoder]("routing:calldataEncoder")
	TokenLoader     = di.NewToken[*tokenlist.Loader]("routing:tokenLoader")
)

func GetQuoteService(c di.ServiceRegistry) *app.QuoteService {
	return di.GetToken(c, QuoteService)
}

func GetBackend(c di.ServiceRegistry) app.Backend {
	return di.GetToken(c, Backend)
}

func GetPairFactory(c di.ServiceRegistry) *domain.PairFactory {
	return di.GetToken(c, PairFactory)
}

func GetTokenLoader(c di.ServiceRegistry) *tokenlist.Loader {
	return di.GetToken(c, TokenLoader)
}
