package inmemdb

import (
	"context"

	"github.com/ftad-ncr/tapmonitor/core/override"
)

type overrideRepository struct {
	db *overrideTable
}

var _ override.Repository = (*overrideRepository)(nil)

func NewOverrideRepository(db *DB) override.Repository {
	return &overrideRepository{db: db.override}
}

func (repo *overrideRepository) ListOverrides(context.Context) ([]override.Override, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	overrides := make([]override.Override, 0, len(repo.db.order))
	for _, key := range repo.db.order {
		overrides = append(overrides, *repo.db.table[key])
	}
	return overrides, nil
}

func (repo *overrideRepository) UpsertOverride(_ context.Context, o override.Override, ifStatus *string) (override.Override, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	key := o.Key()
	stored, exists := repo.db.table[key]
	if ifStatus != nil {
		var current string
		if exists {
			current = stored.Status
		}
		if current != *ifStatus {
			return override.Override{}, override.ErrStatusConflict
		}
	}

	if !exists {
		repo.db.order = append(repo.db.order, key)
	}
	repo.db.table[key] = &o
	return o, nil
}
