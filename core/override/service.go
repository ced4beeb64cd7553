package override

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/ftad-ncr/tapmonitor/core"
)

var (
	// errors
	ErrMissingIdentity = errors.New("missing identifying data for status update")
	ErrStatusConflict  = errors.New("status was changed by someone else")
)

type (
	Repository interface {
		ListOverrides(ctx context.Context) ([]Override, error)
		// UpsertOverride inserts or replaces the override stored under o.Key().
		// When ifStatus is not nil the write only happens if the stored status (or "" when absent)
		// equals *ifStatus; ErrStatusConflict is returned otherwise.
		UpsertOverride(ctx context.Context, o Override, ifStatus *string) (Override, error)
	}

	Service struct {
		repo    Repository
		logger  core.Logger
		timeout time.Duration
		now     func() time.Time
	}
)

// NewService returns the status sync service. Every repository call is bounded by timeout (0 = unbounded).
func NewService(repo Repository, logger core.Logger, timeout time.Duration) *Service {
	return &Service{
		repo:    repo,
		logger:  logger,
		timeout: timeout,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (svc *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if svc.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, svc.timeout)
}

// List returns every stored override. A failing store degrades to an empty set; the failure is only logged.
func (svc *Service) List(ctx context.Context) []Override {
	ctx, cancel := svc.withTimeout(ctx)
	defer cancel()

	overrides, err := svc.repo.ListOverrides(ctx)
	if err != nil {
		svc.logger.Error("listing overrides", errors.Wrap(err, "listing overrides"))
		return []Override{}
	}
	if overrides == nil {
		overrides = []Override{}
	}
	return overrides
}

// Upsert persists a validated status edit.
func (svc *Service) Upsert(ctx context.Context, no NewOverride) (Override, error) {
	ctx, cancel := svc.withTimeout(ctx)
	defer cancel()

	o, err := svc.repo.UpsertOverride(ctx, no.override(svc.now()), no.IfStatus)
	if err != nil {
		if errors.Cause(err) == ErrStatusConflict {
			return Override{}, ErrStatusConflict
		}
		return Override{}, errors.Wrap(err, "upserting override")
	}
	return o, nil
}
