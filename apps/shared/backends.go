// Package shared holds the wiring common to the API and admin processes.
package shared

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/ftad-ncr/tapmonitor/core"
	"github.com/ftad-ncr/tapmonitor/core/account"
	"github.com/ftad-ncr/tapmonitor/core/override"
	"github.com/ftad-ncr/tapmonitor/storage/database"
	inmemdb "github.com/ftad-ncr/tapmonitor/storage/database/inmem"
	"github.com/ftad-ncr/tapmonitor/storage/database/sqlxdb"
	"github.com/ftad-ncr/tapmonitor/storage/kv/redisdb"
)

const (
	BackendStatic   = "static"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

var ErrUnknownBackend = errors.New("unknown storage backend")

type (
	BackendOptions struct {
		// Migrate creates and migrates the relational database when it is used.
		Migrate bool
		// Redis replaces the client opened from the configuration.
		Redis *redis.Client
		// DB replaces the database opened from the configuration.
		DB *sqlx.DB
	}

	// Backends opens the stores named by auth.backends and overrides.backend, and only those.
	Backends struct {
		conf  *core.Config
		DB    *sqlx.DB
		Redis *redis.Client
		Mem   *inmemdb.DB

		ownDB, ownRedis bool
	}
)

// OpenBackends connects every store the configuration refers to.
func OpenBackends(ctx context.Context, conf *core.Config, opts BackendOptions) (*Backends, error) {
	b := &Backends{conf: conf, DB: opts.DB, Redis: opts.Redis}

	used := make(map[string]bool, len(conf.Auth.Backends)+1)
	for _, name := range append([]string{conf.Overrides.Backend}, conf.Auth.Backends...) {
		switch name {
		case BackendStatic, BackendPostgres, BackendRedis, BackendMemory:
			used[name] = true
		default:
			return nil, errors.Wrap(ErrUnknownBackend, name)
		}
	}

	if used[BackendPostgres] && b.DB == nil {
		var err error
		if opts.Migrate {
			b.DB, err = database.Setup(ctx, conf)
		} else {
			b.DB, err = database.Open(conf)
		}
		if err != nil {
			return nil, errors.Wrap(err, "setting up database")
		}
		b.ownDB = true
	}
	if used[BackendRedis] && b.Redis == nil {
		client, err := redisdb.Open(ctx, conf)
		if err != nil {
			_ = b.Close()
			return nil, errors.Wrap(err, "setting up redis")
		}
		b.Redis = client
		b.ownRedis = true
	}
	if used[BackendMemory] {
		b.Mem = inmemdb.Open()
	}
	return b, nil
}

func (b *Backends) accountRepository(name string) (account.Repository, error) {
	switch name {
	case BackendStatic:
		return account.NewStaticRepository(b.conf.Auth.Admins), nil
	case BackendPostgres:
		return sqlxdb.NewAccountRepository(b.DB), nil
	case BackendRedis:
		return redisdb.NewAccountRepository(b.Redis, b.conf.Redis.Prefix), nil
	case BackendMemory:
		return inmemdb.NewAccountRepository(b.Mem), nil
	}
	return nil, errors.Wrap(ErrUnknownBackend, name)
}

// AccountRepository chains the account stores in the configured lookup order.
func (b *Backends) AccountRepository() (account.Repository, error) {
	if len(b.conf.Auth.Backends) == 0 {
		return nil, errors.Wrap(ErrUnknownBackend, "no account backend configured")
	}
	repos := make([]account.Repository, 0, len(b.conf.Auth.Backends))
	for _, name := range b.conf.Auth.Backends {
		repo, err := b.accountRepository(name)
		if err != nil {
			return nil, err
		}
		repos = append(repos, repo)
	}
	return account.NewChainRepository(repos...), nil
}

func (b *Backends) OverrideRepository() (override.Repository, error) {
	switch name := b.conf.Overrides.Backend; name {
	case BackendPostgres:
		return sqlxdb.NewOverrideRepository(b.DB), nil
	case BackendRedis:
		return redisdb.NewOverrideRepository(b.Redis, b.conf.Redis.Prefix), nil
	case BackendMemory:
		return inmemdb.NewOverrideRepository(b.Mem), nil
	default:
		return nil, errors.Wrap(ErrUnknownBackend, name)
	}
}

// Close releases the connections opened by OpenBackends.
func (b *Backends) Close() error {
	var err error
	if b.ownDB && b.DB != nil {
		err = errors.Wrap(b.DB.Close(), "closing database")
	}
	if b.ownRedis && b.Redis != nil {
		if rerr := b.Redis.Close(); rerr != nil && err == nil {
			err = errors.Wrap(rerr, "closing redis")
		}
	}
	return err
}
