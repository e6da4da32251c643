package processor

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/studyflow/billing/internal/app/service/ledger"
	"github.com/studyflow/billing/internal/app/service/lifecyclelog"
	"github.com/studyflow/billing/internal/app/service/purchases"
	"github.com/studyflow/billing/internal/app/service/resolver"
	"github.com/studyflow/billing/internal/platform/notifier"
)

func newProcessor(
	led *ledger.Service,
	life *lifecyclelog.Service,
	purch *purchases.Service,
	res *resolver.Service,
	disp notifier.Dispatcher,
	log *zap.SugaredLogger,
) *Processor {
	return New(Deps{
		Ledger:     led,
		Lifecycle:  life,
		Purchases:  purch,
		Resolver:   res,
		Dispatcher: disp,
	}, log)
}

// registerDrain gives in-flight detached work a bounded chance to finish on
// shutdown. A drain timeout is not an error: cut-off work surfaces in the
// lifecycle log gap and provider redelivery, not as a failed stop.
func registerDrain(lc fx.Lifecycle, p *Processor, log *zap.SugaredLogger) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			drainCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()
			if err := p.Wait(drainCtx); err != nil {
				log.Warnw("webhook_drain_timeout", "error", err.Error())
			}
			return nil
		},
	})
}

var Module = fx.Options(
	fx.Provide(newProcessor),
	fx.Invoke(registerDrain),
)
