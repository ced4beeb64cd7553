package sqlxdb

import (
	"context"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/ftad-ncr/tapmonitor/core"
	"github.com/ftad-ncr/tapmonitor/core/override"
)

const (
	selectOverrides = "SELECT office, division, period, target_index, status, updated_by, updated_at FROM tap_status_updates ORDER BY id"
	upsertOverride  = `INSERT INTO tap_status_updates (office, division, period, target_index, status, updated_by, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (office, division, period, target_index)
DO UPDATE SET status = EXCLUDED.status, updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at`
	// the stored status must equal $8; a missing row matches only an empty $8
	upsertOverrideIfEmpty = upsertOverride + " WHERE tap_status_updates.status = $8"
	updateOverrideIf      = `UPDATE tap_status_updates SET status = $5, updated_by = $6, updated_at = $7
WHERE office = $1 AND division = $2 AND period = $3 AND target_index = $4 AND status = $8`
)

type overrideRow struct {
	Office      string      `db:"office"`
	Division    string      `db:"division"`
	Period      string      `db:"period"`
	TargetIndex int         `db:"target_index"`
	Status      string      `db:"status"`
	UpdatedBy   null.String `db:"updated_by"`
	UpdatedAt   null.Time   `db:"updated_at"`
}

func (r overrideRow) override() override.Override {
	return override.Override{
		Office:      r.Office,
		Division:    r.Division,
		Period:      r.Period,
		TargetIndex: r.TargetIndex,
		Status:      r.Status,
		UpdatedBy:   r.UpdatedBy.String,
		UpdatedAt:   r.UpdatedAt.Time.UTC(),
	}
}

// overrideRepository reads and writes the tap_status_updates table.
type overrideRepository struct {
	exec core.DBExecutor
}

var _ override.Repository = (*overrideRepository)(nil) // interface compliance check

func NewOverrideRepository(exec core.DBExecutor) override.Repository {
	return &overrideRepository{exec: exec}
}

func (repo *overrideRepository) ListOverrides(ctx context.Context) ([]override.Override, error) {
	var rows []overrideRow
	if err := repo.exec.SelectContext(ctx, &rows, selectOverrides); err != nil {
		return nil, errors.Wrap(err, "selecting overrides")
	}
	overrides := make([]override.Override, 0, len(rows))
	for _, r := range rows {
		overrides = append(overrides, r.override())
	}
	return overrides, nil
}

func (repo *overrideRepository) UpsertOverride(ctx context.Context, o override.Override, ifStatus *string) (override.Override, error) {
	args := []interface{}{
		o.Office,
		o.Division,
		o.Period,
		o.TargetIndex,
		o.Status,
		null.NewString(o.UpdatedBy, o.UpdatedBy != ""),
		o.UpdatedAt.UTC(),
	}

	query := upsertOverride
	if ifStatus != nil {
		if *ifStatus == "" {
			query = upsertOverrideIfEmpty
		} else {
			query = updateOverrideIf
		}
		args = append(args, *ifStatus)
	}

	res, err := repo.exec.ExecContext(ctx, query, args...)
	if err != nil {
		return override.Override{}, errors.Wrap(err, "upserting override")
	}
	if ifStatus != nil {
		n, err := res.RowsAffected()
		if err != nil {
			return override.Override{}, errors.Wrap(err, "upserting override")
		}
		if n == 0 {
			return override.Override{}, override.ErrStatusConflict
		}
	}
	return o, nil
}
