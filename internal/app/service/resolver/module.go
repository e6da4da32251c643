package resolver

import "go.uber.org/fx"

// Module exposes the lifecycle resolver via Fx.
var Module = fx.Options(
	fx.Provide(NewService),
)
