package core

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// DBExecutor is satisfied by *sqlx.DB and *sqlx.Tx.
type DBExecutor interface {
	sqlx.ExtContext

	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}
