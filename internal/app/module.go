package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/studyflow/billing/internal/app/api/server"
	"github.com/studyflow/billing/internal/app/service/ledger"
	"github.com/studyflow/billing/internal/app/service/lifecyclelog"
	"github.com/studyflow/billing/internal/app/service/processor"
	"github.com/studyflow/billing/internal/app/service/purchases"
	"github.com/studyflow/billing/internal/app/service/resolver"
	"github.com/studyflow/billing/internal/app/service/verifier"
	"github.com/studyflow/billing/internal/platform/db"
	"github.com/studyflow/billing/internal/platform/notifier"
	"github.com/studyflow/billing/internal/platform/stripeapi"
	"github.com/studyflow/billing/pkg/config"
	"github.com/studyflow/billing/pkg/logger"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	db.Module,
	stripeapi.Module,
	notifier.Module,
	verifier.Module,
	ledger.Module,
	lifecyclelog.Module,
	purchases.Module,
	resolver.Module,
	processor.Module,
	server.Module,
)
