package verifier

import "go.uber.org/fx"

// Module exposes the signature verifier via Fx.
var Module = fx.Options(
	fx.Provide(New),
)
