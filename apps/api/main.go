package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/ulule/limiter/v3"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"

	echoapi "github.com/ftad-ncr/tapmonitor/apps/api/echo"
	"github.com/ftad-ncr/tapmonitor/apps/shared"
	"github.com/ftad-ncr/tapmonitor/core"
	"github.com/ftad-ncr/tapmonitor/core/account"
	"github.com/ftad-ncr/tapmonitor/core/dashboard"
	"github.com/ftad-ncr/tapmonitor/core/feed"
	"github.com/ftad-ncr/tapmonitor/core/override"
	"github.com/ftad-ncr/tapmonitor/services/insights"
	logsvc "github.com/ftad-ncr/tapmonitor/services/logger"
	"github.com/ftad-ncr/tapmonitor/services/sheets"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()
	ctx := context.Background()

	// set up loggers
	zl, err := logsvc.NewZap(conf)
	if err != nil {
		return errors.Wrap(err, "setting up zap")
	}
	base := logsvc.NewRollbarLogger(zl, conf)
	base.Enable(!conf.Debug)
	defer func() { _ = base.Sync() }()

	logger := base.Named("API")
	dbLogger := base.Named("DB")
	feedLogger := base.Named("FEED")

	// set up storage
	backends, err := shared.OpenBackends(ctx, conf, shared.BackendOptions{Migrate: true})
	if err != nil {
		dbLogger.Fatal(fmt.Sprintf("setting up storage: %v", err), err)
		return err
	}
	defer func() {
		if err := backends.Close(); err != nil {
			dbLogger.Error("Failed to close", err)
		}
	}()

	accountRepo, err := backends.AccountRepository()
	if err != nil {
		dbLogger.Fatal(fmt.Sprintf("setting up account storage: %v", err), err)
		return err
	}
	overrideRepo, err := backends.OverrideRepository()
	if err != nil {
		dbLogger.Fatal(fmt.Sprintf("setting up override storage: %v", err), err)
		return err
	}

	// set up services
	accountSvc := account.NewService(accountRepo, logger, conf.Auth.Timeout)
	overrideSvc := override.NewService(overrideRepo, dbLogger, conf.Overrides.Timeout)
	dash := dashboard.NewService(
		sheets.NewClient(conf.Feed, nil),
		overrideSvc,
		feedLogger,
		dashboard.Options{
			Parser:      feed.Parser{StrictHeaders: conf.Feed.StrictHeaders},
			FeedTimeout: conf.Feed.Timeout,
			Metrics:     dashboard.NewMetrics(prometheus.DefaultRegisterer),
		},
	)

	gen, err := insights.NewGenerator(ctx, conf.Insights)
	if err != nil {
		logger.Error(fmt.Sprintf("insights disabled: %v", err), err)
	}
	insightsSvc := insights.NewService(gen, logger)

	var rateStore limiter.Store
	if backends.Redis != nil {
		rateStore, err = sredis.NewStoreWithOptions(backends.Redis, limiter.StoreOptions{Prefix: conf.Redis.Prefix + ":ratelimit"})
		if err != nil {
			logger.Error(fmt.Sprintf("rate limit store: %v", err), err)
		}
	}

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate, translator := shared.NewValidator()

	if conf.Feed.URL == "" {
		feedLogger.Warn("feed.url is not set; the dashboard will stay empty")
	} else if _, err := dash.Refresh(ctx); err != nil {
		feedLogger.Error(fmt.Sprintf("initial refresh: %v", err), err)
	}

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("overrides").Set(conf.Overrides.Backend)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:        conf,
			Logger:      logger,
			AccountSvc:  accountSvc,
			OverrideSvc: overrideSvc,
			Dashboard:   dash,
			InsightsSvc: insightsSvc,
			Validate:    validate,
			Translator:  translator,
			RateStore:   rateStore,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Error(fmt.Sprintf("server error: %v", err), err)
		return err

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(ctx, conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Error(fmt.Sprintf("could not force stop server: %v", err), err)
				return err
			}
		}
	}
	return nil
}
