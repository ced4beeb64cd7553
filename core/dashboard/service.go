// Package dashboard keeps the merged record snapshot served to operators.
package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/ftad-ncr/tapmonitor/core"
	"github.com/ftad-ncr/tapmonitor/core/feed"
	"github.com/ftad-ncr/tapmonitor/core/override"
)

const defaultFeedTimeout = 15 * time.Second

// ErrSyncFailed is returned when the feed could not be fetched; the previous snapshot is kept.
var ErrSyncFailed = errors.New("sync failed")

type (
	FeedSource interface {
		FetchRows(ctx context.Context) ([]feed.Row, error)
	}

	// OverrideLister never fails: an unavailable store yields an empty set.
	OverrideLister interface {
		List(ctx context.Context) []override.Override
	}

	Snapshot struct {
		Records     []feed.Record
		Orphans     []override.Override
		RefreshedAt time.Time
	}

	Options struct {
		Parser      feed.Parser
		FeedTimeout time.Duration
		Metrics     *Metrics
	}

	Service struct {
		feed        FeedSource
		overrides   OverrideLister
		parser      feed.Parser
		feedTimeout time.Duration
		logger      core.Logger
		metrics     *Metrics

		group singleflight.Group

		mu   sync.RWMutex
		snap Snapshot
	}
)

func NewService(src FeedSource, overrides OverrideLister, logger core.Logger, opts Options) *Service {
	if opts.FeedTimeout <= 0 {
		opts.FeedTimeout = defaultFeedTimeout
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics(nil)
	}
	return &Service{
		feed:        src,
		overrides:   overrides,
		parser:      opts.Parser,
		feedTimeout: opts.FeedTimeout,
		logger:      logger,
		metrics:     opts.Metrics,
		snap:        Snapshot{Records: []feed.Record{}},
	}
}

// Snapshot returns the current records. Callers must not mutate them.
func (svc *Service) Snapshot() Snapshot {
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	return svc.snap
}

// Apply merges a stored override into the current snapshot so reads reflect it before the next refresh.
func (svc *Service) Apply(o override.Override) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	merged, _ := override.Merge(svc.snap.Records, []override.Override{o})
	svc.snap.Records = merged
}

// Refresh fetches the feed and the overrides concurrently, merges them and replaces the snapshot.
// Concurrent callers share one refresh. On feed failure the previous snapshot is returned with ErrSyncFailed.
func (svc *Service) Refresh(ctx context.Context) (Snapshot, error) {
	v, err, _ := svc.group.Do("refresh", func() (interface{}, error) {
		// a joined caller must not be cancelled by the one that started the refresh
		return svc.refresh(context.WithoutCancel(ctx))
	})
	if err != nil {
		return svc.Snapshot(), err
	}
	return v.(Snapshot), nil
}

func (svc *Service) refresh(ctx context.Context) (Snapshot, error) {
	start := time.Now()
	defer func() { svc.metrics.refreshDuration.Observe(time.Since(start).Seconds()) }()

	var (
		rows      []feed.Row
		overrides []override.Override
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		fctx, cancel := context.WithTimeout(gctx, svc.feedTimeout)
		defer cancel()
		r, err := svc.feed.FetchRows(fctx)
		if err != nil {
			return err
		}
		rows = r
		return nil
	})
	g.Go(func() error {
		overrides = svc.overrides.List(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		svc.metrics.refreshTotal.WithLabelValues("failure").Inc()
		svc.logger.Error("refreshing feed", err)
		return Snapshot{}, ErrSyncFailed
	}

	records, err := svc.parser.Parse(rows)
	if err != nil {
		// malformed feed: empty result, not a failure
		svc.logger.Warn("parsing feed", err, map[string]interface{}{"rows": len(rows)})
	}
	merged, orphans := override.Merge(records, overrides)
	for _, o := range orphans {
		svc.logger.Warn("override target index has no parsed target", map[string]interface{}{
			"office":      o.Office,
			"division":    o.Division,
			"period":      o.Period,
			"targetIndex": o.TargetIndex,
		})
	}

	snap := Snapshot{Records: merged, Orphans: orphans, RefreshedAt: time.Now().UTC()}
	svc.mu.Lock()
	svc.snap = snap
	svc.mu.Unlock()

	svc.metrics.refreshTotal.WithLabelValues("success").Inc()
	svc.metrics.records.Set(float64(len(merged)))
	svc.metrics.orphans.Set(float64(len(orphans)))
	svc.metrics.lastSuccess.Set(float64(snap.RefreshedAt.Unix()))
	return snap, nil
}
