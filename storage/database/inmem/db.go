package inmemdb

import (
	"sync"

	"github.com/ftad-ncr/tapmonitor/core/account"
	"github.com/ftad-ncr/tapmonitor/core/override"
)

type (
	// DB is a process-local store used by tests and the "memory" backend.
	DB struct {
		account  *accountTable
		override *overrideTable
	}

	accountTable struct {
		sync.RWMutex
		table map[string]*account.Account // {username: account}
	}

	overrideTable struct {
		sync.RWMutex
		table map[override.Key]*override.Override
		order []override.Key // insertion order
	}
)

func Open() *DB {
	return &DB{
		account:  &accountTable{table: make(map[string]*account.Account)},
		override: &overrideTable{table: make(map[override.Key]*override.Override)},
	}
}
