package lifecyclelog

import "go.uber.org/fx"

// Module exposes the lifecycle log via Fx.
var Module = fx.Options(
	fx.Provide(New),
)
