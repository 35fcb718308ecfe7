package store

import (
	"go.uber.org/fx"
)

// Module provides the store module dependencies
var Module = fx.Options(
	fx.Provide(
		fx.Annotate(
			NewHTTPClient,
			fx.As(new(Client)),
		),
		fx.Annotate(
			NewHTTPAuthManager,
			fx.As(new(AuthManager)),
		),
		NewCache,
	),
)
