package dashboard_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ftad-ncr/tapmonitor/core/dashboard"
	"github.com/ftad-ncr/tapmonitor/core/feed"
	"github.com/ftad-ncr/tapmonitor/core/override"
	inmemdb "github.com/ftad-ncr/tapmonitor/storage/database/inmem"
	tu "github.com/ftad-ncr/tapmonitor/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type stubFeed struct {
	mu    sync.Mutex
	text  string
	err   error
	calls int32
	gate  chan struct{}
}

func (f *stubFeed) FetchRows(ctx context.Context) ([]feed.Row, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return feed.Tokenize(f.text), nil
}

func (f *stubFeed) set(text string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.text, f.err = text, err
}

var feedText = tu.FeedCSV(
	[]string{"OFFICE", "DISTRICT", "DIVISION/SCHOOL", "PERIOD", "OBJECTIVE1", "STATUSCOMPLETION1", "OBJECTIVE2", "STATUSCOMPLETION2"},
	[]string{"SDO-A", "D1", "School A", "Q1", "Improve reading", "Ongoing", "Train teachers", "Partial"},
	[]string{"SDO-B", "D2", "School B", "Q2", "Reduce dropouts", "", "", ""},
)

func newService(t *testing.T, src dashboard.FeedSource, reg prometheus.Registerer) (*dashboard.Service, *tu.Logger, override.Repository) {
	t.Helper()
	logger := tu.NewLogger()
	repo := inmemdb.NewOverrideRepository(inmemdb.Open())
	overrides := override.NewService(repo, logger, time.Second)
	svc := dashboard.NewService(src, overrides, logger, dashboard.Options{
		FeedTimeout: time.Second,
		Metrics:     dashboard.NewMetrics(reg),
	})
	return svc, logger, repo
}

func TestService_Refresh(t *testing.T) {
	reg := prometheus.NewRegistry()
	svc, logger, repo := newService(t, &stubFeed{text: feedText}, reg)
	tu.CreateOverride(t, repo, "SDO-A", "School A", "Q1", 1, "Accomplished")
	tu.CreateOverride(t, repo, "SDO-B", "School B", "Q2", 3, "Done")

	assert.Empty(t, svc.Snapshot().Records)

	snap, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Records, 2)
	assert.Equal(t, "Accomplished", snap.Records[0].Targets[1].TAPStatus)
	assert.Equal(t, "Train teachers", snap.Records[0].Targets[1].Objective)
	assert.Equal(t, "", snap.Records[0].Targets[0].TAPStatus)
	require.Len(t, snap.Orphans, 1)
	assert.Equal(t, 3, snap.Orphans[0].TargetIndex)
	assert.Len(t, logger.Entries("warn"), 1)
	assert.Equal(t, snap, svc.Snapshot())

	assert.Equal(t, float64(1), gathered(t, reg, "tapmonitor_refresh_total"))
	assert.Equal(t, float64(2), gathered(t, reg, "tapmonitor_records"))
	assert.Equal(t, float64(1), gathered(t, reg, "tapmonitor_orphaned_overrides"))
}

func gathered(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		m := mf.GetMetric()[0]
		if c := m.GetCounter(); c != nil {
			return c.GetValue()
		}
		return m.GetGauge().GetValue()
	}
	t.Fatalf("%s not gathered", name)
	return 0
}

func TestService_Apply(t *testing.T) {
	svc, _, _ := newService(t, &stubFeed{text: feedText}, nil)

	first, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	svc.Apply(override.Override{Office: "SDO-A", Division: "School A", Period: "Q1", TargetIndex: 0, Status: "Completed"})
	svc.Apply(override.Override{Office: "SDO-Z", Division: "School Z", Period: "Q1", TargetIndex: 0, Status: "Completed"})

	snap := svc.Snapshot()
	assert.Equal(t, "Completed", snap.Records[0].Targets[0].TAPStatus)
	assert.Equal(t, "Ongoing", snap.Records[0].Targets[0].Status)
	assert.Equal(t, "", snap.Records[0].Targets[1].TAPStatus)
	assert.Equal(t, first.RefreshedAt, snap.RefreshedAt)
	assert.Equal(t, first.Orphans, snap.Orphans)

	// snapshots handed out earlier are not rewritten
	assert.Equal(t, "", first.Records[0].Targets[0].TAPStatus)
}

func TestService_Refresh_staleOnFailure(t *testing.T) {
	src := &stubFeed{text: feedText}
	svc, logger, _ := newService(t, src, nil)

	first, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	src.set("", errors.New("dial tcp: i/o timeout"))
	snap, err := svc.Refresh(context.Background())
	assert.Equal(t, dashboard.ErrSyncFailed, err)
	assert.Equal(t, first, snap)
	assert.Equal(t, first, svc.Snapshot())
	assert.Len(t, logger.Entries("error"), 1)
}

func TestService_Refresh_malformedFeed(t *testing.T) {
	src := &stubFeed{text: feedText}
	svc, logger, _ := newService(t, src, nil)

	_, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	src.set("just,some\nnotes,here\n", nil)
	snap, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Records)
	assert.Len(t, logger.Entries("warn"), 1)
}

func TestService_Refresh_timeout(t *testing.T) {
	src := &stubFeed{text: feedText, gate: make(chan struct{})}
	logger := tu.NewLogger()
	svc := dashboard.NewService(src, override.NewService(inmemdb.NewOverrideRepository(inmemdb.Open()), logger, 0), logger,
		dashboard.Options{FeedTimeout: 20 * time.Millisecond})

	_, err := svc.Refresh(context.Background())
	assert.Equal(t, dashboard.ErrSyncFailed, err)
}

func TestService_Refresh_singleFlight(t *testing.T) {
	src := &stubFeed{text: feedText, gate: make(chan struct{})}
	svc, _, _ := newService(t, src, nil)

	const callers = 5
	var wg sync.WaitGroup
	results := make([]int, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			snap, err := svc.Refresh(context.Background())
			if err == nil {
				results[i] = len(snap.Records)
			}
		}(i)
	}

	// wait for the leading refresh to reach the feed before releasing it
	require.Eventually(t, func() bool { return atomic.LoadInt32(&src.calls) >= 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(src.gate)
	wg.Wait()

	assert.Equal(t, []int{2, 2, 2, 2, 2}, results)
	assert.LessOrEqual(t, atomic.LoadInt32(&src.calls), int32(callers))
}

func TestService_Refresh_leaderCancelled(t *testing.T) {
	src := &stubFeed{text: feedText, gate: make(chan struct{})}
	svc, _, _ := newService(t, src, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := svc.Refresh(ctx)
		done <- err
	}()
	require.Eventually(t, func() bool { return atomic.LoadInt32(&src.calls) == 1 }, time.Second, time.Millisecond)
	cancel()
	close(src.gate)

	require.NoError(t, <-done)
	assert.Len(t, svc.Snapshot().Records, 2)
}
