package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"

	"github.com/ftad-ncr/tapmonitor/apps/shared"
	"github.com/ftad-ncr/tapmonitor/core"
	"github.com/ftad-ncr/tapmonitor/core/account"
	"github.com/ftad-ncr/tapmonitor/core/override"
	logsvc "github.com/ftad-ncr/tapmonitor/services/logger"
	"github.com/ftad-ncr/tapmonitor/storage/database"
)

func main() {
	os.Exit(start())
}

func start() int {
	conf := core.NewConfig()
	ctx := context.Background()

	zl, err := logsvc.NewZap(conf)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	base := logsvc.NewRollbarLogger(zl, conf)
	base.Enable(false)
	defer func() { _ = base.Sync() }()
	logger := base.Named("ADMIN")

	// set up storage
	backends, err := shared.OpenBackends(ctx, conf, shared.BackendOptions{})
	if err != nil {
		logger.Error(fmt.Sprintf("setting up storage: %v", err), err)
		return 1
	}
	defer func() { _ = backends.Close() }()

	db := backends.DB
	if db == nil {
		// migrations target the relational database even when no backend reads from it
		if db, err = database.Open(conf); err != nil {
			logger.Error(fmt.Sprintf("opening database: %v", err), err)
			return 1
		}
		defer func(db *sqlx.DB) { _ = db.Close() }(db)
	}

	accountRepo, err := backends.AccountRepository()
	if err != nil {
		logger.Error(fmt.Sprintf("setting up account storage: %v", err), err)
		return 1
	}
	overrideRepo, err := backends.OverrideRepository()
	if err != nil {
		logger.Error(fmt.Sprintf("setting up override storage: %v", err), err)
		return 1
	}

	validate, translator := shared.NewValidator()

	// start CLI
	cli := commandLine{
		db:          db,
		accountSvc:  account.NewService(accountRepo, logger, conf.Auth.Timeout),
		overrideSvc: override.NewService(overrideRepo, logger, conf.Overrides.Timeout),
		validate:    validate,
		translator:  translator,
		out:         os.Stdout,
	}
	if err := cli.run(os.Args[1:]); err != nil {
		if err != errHelp {
			_, _ = fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		return 1
	}
	return 0
}
