package sampler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"droidmon/app/internal/alerts"
	"droidmon/app/internal/database"
	"droidmon/app/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock only moves when a test advances it. Every sleep request is
// reported on sleeps and released by Fire.
type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	pending []chan time.Time
	sleeps  chan time.Duration
}

func newFakeClock(ms int64) *fakeClock {
	return &fakeClock{now: time.UnixMilli(ms), sleeps: make(chan time.Duration, 64)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	c.mu.Lock()
	c.pending = append(c.pending, ch)
	c.mu.Unlock()
	c.sleeps <- d
	return ch
}

// Fire advances the clock by d and wakes every sleeper
func (c *fakeClock) Fire(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now, pending := c.now, c.pending
	c.pending = nil
	c.mu.Unlock()
	for _, ch := range pending {
		ch <- now
	}
}

func nextSleep(t *testing.T, c *fakeClock) time.Duration {
	t.Helper()
	select {
	case d := <-c.sleeps:
		return d
	case <-time.After(2 * time.Second):
		t.Fatal("cadence never went to sleep")
		return 0
	}
}

// stubSource returns canned snapshots; each call costs cost on the clock
type stubSource struct {
	clock *fakeClock
	cost  time.Duration
	load  float64

	mu    sync.Mutex
	errs  []error
	calls int
}

func (s *stubSource) Collect(ctx context.Context) (models.Snapshot, error) {
	s.mu.Lock()
	s.calls++
	cost := s.cost
	var err error
	if len(s.errs) > 0 {
		err, s.errs = s.errs[0], s.errs[1:]
	}
	s.mu.Unlock()

	ts := s.clock.Now().UnixMilli()
	s.clock.Advance(cost)
	if err != nil {
		return models.Snapshot{}, err
	}
	return models.Snapshot{
		Timestamp: ts,
		CPU:       models.CPUStats{SystemLoad: s.load, LoadLevel: models.LoadLow, CoreFreqMHz: []int{}},
		Battery:   models.BatteryStats{LevelPct: 77},
	}, nil
}

func (s *stubSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// blockingSource finishes its snapshot only after ctx is cancelled
type blockingSource struct {
	entered chan struct{}
}

func (s *blockingSource) Collect(ctx context.Context) (models.Snapshot, error) {
	close(s.entered)
	<-ctx.Done()
	return models.Snapshot{Timestamp: 1}, nil
}

func openStore(t *testing.T) *database.Store {
	t.Helper()
	s, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

type countingNotifier struct {
	mu    sync.Mutex
	loads []float64
}

func (n *countingNotifier) Name() string { return "counting" }

func (n *countingNotifier) Notify(_ context.Context, a alerts.Alert) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.loads = append(n.loads, a.Value)
	return nil
}

func (n *countingNotifier) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.loads)
}

func TestNextDelay(t *testing.T) {
	const period, floor = 30 * time.Second, time.Second
	tests := []struct {
		elapsed time.Duration
		want    time.Duration
	}{
		{0, 30 * time.Second},
		{4 * time.Second, 26 * time.Second},
		{29 * time.Second, floor},
		{29500 * time.Millisecond, floor},
		{30 * time.Second, floor},
		{45 * time.Second, floor},
	}
	for _, tt := range tests {
		got := nextDelay(period, tt.elapsed, floor)
		assert.Equal(t, tt.want, got, "elapsed %v", tt.elapsed)
		if tt.elapsed < period {
			assert.GreaterOrEqual(t, got, period-tt.elapsed)
			assert.LessOrEqual(t, got, period-tt.elapsed+floor)
		}
	}
}

func TestRing_KeepsNewestOldestFirst(t *testing.T) {
	r := NewRing[int](DefaultRingSize)
	for i := 0; i < 45; i++ {
		r.Push(i)
	}

	items := r.Items()
	require.Len(t, items, 40)
	assert.Equal(t, 5, items[0])
	assert.Equal(t, 44, items[39])
	for i := 1; i < len(items); i++ {
		assert.Equal(t, items[i-1]+1, items[i])
	}
}

func TestRing_PartialAndClear(t *testing.T) {
	r := NewRing[string](3)
	assert.Empty(t, r.Items())

	r.Push("a")
	r.Push("b")
	assert.Equal(t, []string{"a", "b"}, r.Items())
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, 3, r.Cap())

	r.Clear()
	assert.Equal(t, 0, r.Len())
	r.Push("c")
	assert.Equal(t, []string{"c"}, r.Items())
}

func TestRing_DefaultCapacity(t *testing.T) {
	assert.Equal(t, DefaultRingSize, NewRing[int](0).Cap())
}

func TestFeed_ReplaysLastAndDeliversUpdates(t *testing.T) {
	f := NewFeed[string]()
	f.Publish("first")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := f.Subscribe(ctx)

	assert.Equal(t, "first", <-ch)
	f.Publish("second")
	assert.Equal(t, "second", <-ch)

	last, ok := f.Last()
	assert.True(t, ok)
	assert.Equal(t, "second", last)
}

func TestFeed_SlowSubscriberSeesNewest(t *testing.T) {
	f := NewFeed[int]()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := f.Subscribe(ctx)

	for i := 1; i <= 100; i++ {
		f.Publish(i)
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case v := <-ch:
			if v == 100 {
				return
			}
		case <-deadline:
			t.Fatal("newest value never delivered")
		}
	}
}

func TestFeed_ClosesOnCancel(t *testing.T) {
	f := NewFeed[int]()
	ctx, cancel := context.WithCancel(context.Background())
	ch := f.Subscribe(ctx)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed")
	}
	assert.Eventually(t, func() bool { return f.Subscribers() == 0 }, time.Second, 10*time.Millisecond)
}

func TestLive_PublishesAndBuffers(t *testing.T) {
	clk := newFakeClock(1000)
	src := &stubSource{clock: clk, cost: 200 * time.Millisecond, load: 0.4}
	l := NewLive(src, LiveOptions{Clock: clk})
	assert.Nil(t, l.Current())

	l.Start(context.Background())
	l.Start(context.Background())
	defer l.Stop()

	assert.Equal(t, 800*time.Millisecond, nextSleep(t, clk))
	require.NotNil(t, l.Current())
	assert.Equal(t, int64(1000), l.Current().Timestamp)

	clk.Fire(800 * time.Millisecond)
	nextSleep(t, clk)
	recent := l.Recent()
	require.Len(t, recent, 2)
	assert.Less(t, recent[0].Timestamp, recent[1].Timestamp)
	assert.Equal(t, recent[1].Timestamp, l.Current().Timestamp)
	assert.Equal(t, 2, src.Calls())
	assert.True(t, l.Running())
}

func TestLive_RingBoundedAcrossTicks(t *testing.T) {
	clk := newFakeClock(0)
	src := &stubSource{clock: clk}
	l := NewLive(src, LiveOptions{Clock: clk, BufferSize: 5})
	l.Start(context.Background())
	defer l.Stop()

	for i := 0; i < 8; i++ {
		nextSleep(t, clk)
		clk.Fire(time.Second)
	}
	nextSleep(t, clk)

	recent := l.Recent()
	require.Len(t, recent, 5)
	assert.Equal(t, int64(4000), recent[0].Timestamp)
	assert.Equal(t, int64(8000), recent[4].Timestamp)
}

func TestLive_CancelledSnapshotNotPublished(t *testing.T) {
	src := &blockingSource{entered: make(chan struct{})}
	l := NewLive(src, LiveOptions{Clock: newFakeClock(0)})
	l.Start(context.Background())

	<-src.entered
	l.Stop()

	assert.Nil(t, l.Current())
	assert.Empty(t, l.Recent())
	assert.False(t, l.Running())
}

func TestLive_FailureKeepsLoopAlive(t *testing.T) {
	clk := newFakeClock(0)
	src := &stubSource{clock: clk, errs: []error{errors.New("proc unavailable")}}
	l := NewLive(src, LiveOptions{Clock: clk})
	l.Start(context.Background())
	defer l.Stop()

	nextSleep(t, clk)
	assert.Nil(t, l.Current())

	clk.Fire(time.Second)
	nextSleep(t, clk)
	assert.NotNil(t, l.Current())
}

func TestBackground_TimingCompensatesForWork(t *testing.T) {
	ctx := context.Background()
	clk := newFakeClock(0)
	src := &stubSource{clock: clk, cost: 4 * time.Second}
	b := NewBackground(src, openStore(t), BackgroundOptions{Clock: clk})
	require.NoError(t, b.Start(ctx))
	defer b.Shutdown()

	assert.Equal(t, 26*time.Second, nextSleep(t, clk))

	src.mu.Lock()
	src.cost = 45 * time.Second
	src.mu.Unlock()
	clk.Fire(26 * time.Second)
	assert.Equal(t, DefaultMinSleep, nextSleep(t, clk))
}

func TestBackground_StartStoresAndStops(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	clk := newFakeClock(1700000000000)
	src := &stubSource{clock: clk, load: 1.5}
	b := NewBackground(src, store, BackgroundOptions{Clock: clk})
	assert.Equal(t, StatusIdle, b.StatusText())

	require.NoError(t, b.Start(ctx))
	require.NoError(t, b.Start(ctx))
	nextSleep(t, clk)

	st := b.State()
	assert.True(t, st.Running)
	assert.Equal(t, "session_1700000000000", st.SessionID)
	assert.Equal(t, 1, st.SampleCount)
	assert.Equal(t, "Sample #1 | CPU load: 1.50 | Battery: 77%", b.StatusText())

	persisted, err := store.LoadMonitorState(ctx)
	require.NoError(t, err)
	assert.Equal(t, st, persisted)

	recs, err := store.BySession(ctx, st.SessionID)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
	assert.Equal(t, 1, src.Calls())

	require.NoError(t, b.Stop(ctx))
	assert.Equal(t, models.MonitorState{}, b.State())
	assert.Equal(t, StatusIdle, b.StatusText())
	running, _ := b.RunningState().Last()
	assert.False(t, running)

	persisted, err = store.LoadMonitorState(ctx)
	require.NoError(t, err)
	assert.False(t, persisted.Running)
	assert.Empty(t, persisted.SessionID)
	assert.Zero(t, persisted.SampleCount)

	events, err := store.Events(ctx, 10, "", database.CategoryMonitoring)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

// gateStore blocks the first call to method until release is closed
type gateStore struct {
	*database.Store
	method  string
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func newGateStore(t *testing.T, method string) *gateStore {
	return &gateStore{
		Store:   openStore(t),
		method:  method,
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (g *gateStore) gate(method string) {
	if method != g.method {
		return
	}
	g.once.Do(func() {
		close(g.entered)
		<-g.release
	})
}

func (g *gateStore) SaveMonitorState(ctx context.Context, st models.MonitorState) error {
	g.gate("SaveMonitorState")
	return g.Store.SaveMonitorState(ctx, st)
}

func (g *gateStore) ClearMonitorState(ctx context.Context) error {
	g.gate("ClearMonitorState")
	return g.Store.ClearMonitorState(ctx)
}

func TestBackground_StopWithCancelledContextClearsState(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	clk := newFakeClock(1000)
	b := NewBackground(&stubSource{clock: clk}, store, BackgroundOptions{Clock: clk})
	require.NoError(t, b.Start(ctx))
	nextSleep(t, clk)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	require.NoError(t, b.Stop(cancelled))

	persisted, err := store.LoadMonitorState(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.MonitorState{}, persisted)

	resumed, err := NewBackground(&stubSource{clock: clk}, store, BackgroundOptions{Clock: clk}).Resume(ctx)
	require.NoError(t, err)
	assert.False(t, resumed)
}

func TestBackground_StartDuringStopRunsAfterIt(t *testing.T) {
	ctx := context.Background()
	store := newGateStore(t, "ClearMonitorState")
	clk := newFakeClock(1000)
	b := NewBackground(&stubSource{clock: clk}, store, BackgroundOptions{Clock: clk})
	require.NoError(t, b.Start(ctx))
	nextSleep(t, clk)

	stopped := make(chan error, 1)
	go func() { stopped <- b.Stop(ctx) }()
	<-store.entered

	clk.Advance(time.Second)
	started := make(chan error, 1)
	go func() { started <- b.Start(ctx) }()

	select {
	case <-started:
		t.Fatal("start completed while stop was still tearing down")
	case <-time.After(50 * time.Millisecond):
	}

	close(store.release)
	require.NoError(t, <-stopped)
	require.NoError(t, <-started)
	nextSleep(t, clk)
	defer b.Shutdown()

	st := b.State()
	assert.True(t, st.Running)
	assert.Equal(t, "session_2000", st.SessionID)
	assert.Equal(t, 1, st.SampleCount)
	running, _ := b.RunningState().Last()
	assert.True(t, running)

	persisted, err := store.LoadMonitorState(ctx)
	require.NoError(t, err)
	assert.Equal(t, st, persisted)

	recs, err := store.BySession(ctx, "session_2000")
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestBackground_StateReadableWhileStartPersists(t *testing.T) {
	ctx := context.Background()
	store := newGateStore(t, "SaveMonitorState")
	clk := newFakeClock(0)
	b := NewBackground(&stubSource{clock: clk}, store, BackgroundOptions{Clock: clk})

	started := make(chan error, 1)
	go func() { started <- b.Start(ctx) }()
	<-store.entered

	read := make(chan models.MonitorState, 1)
	go func() { read <- b.State() }()
	select {
	case st := <-read:
		assert.False(t, st.Running)
	case <-time.After(time.Second):
		t.Fatal("State blocked behind Start")
	}

	close(store.release)
	require.NoError(t, <-started)
	nextSleep(t, clk)
	b.Shutdown()
}

func TestBackground_ResumesPersistedSession(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	require.NoError(t, store.SaveMonitorState(ctx, models.MonitorState{Running: true, SessionID: "session_100", SampleCount: 7}))

	clk := newFakeClock(5000)
	b := NewBackground(&stubSource{clock: clk, load: 0.7}, store, BackgroundOptions{Clock: clk})
	resumed, err := b.Resume(ctx)
	require.NoError(t, err)
	require.True(t, resumed)

	nextSleep(t, clk)
	st := b.State()
	assert.Equal(t, "session_100", st.SessionID)
	assert.Equal(t, 8, st.SampleCount)
	assert.Equal(t, "Sample #8 | CPU load: 0.70 | Battery: 77%", b.StatusText())

	sessions, err := store.Sessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"session_100"}, sessions)

	b.Shutdown()
	persisted, err := store.LoadMonitorState(ctx)
	require.NoError(t, err)
	assert.True(t, persisted.Running)
	assert.Equal(t, "session_100", persisted.SessionID)
	assert.Equal(t, 8, persisted.SampleCount)
}

func TestBackground_ResumeWithoutPersistedRun(t *testing.T) {
	clk := newFakeClock(0)
	b := NewBackground(&stubSource{clock: clk}, openStore(t), BackgroundOptions{Clock: clk})
	resumed, err := b.Resume(context.Background())
	require.NoError(t, err)
	assert.False(t, resumed)
	assert.False(t, b.State().Running)
}

func TestBackground_IterationErrorIsTransient(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	clk := newFakeClock(0)
	src := &stubSource{clock: clk, load: 2, errs: []error{errors.New("boom")}}
	b := NewBackground(src, store, BackgroundOptions{Clock: clk})
	require.NoError(t, b.Start(ctx))
	defer b.Shutdown()

	nextSleep(t, clk)
	assert.Equal(t, "Error: boom", b.StatusText())
	assert.Zero(t, b.State().SampleCount)

	clk.Fire(30 * time.Second)
	nextSleep(t, clk)
	assert.Equal(t, "Sample #1 | CPU load: 2.00 | Battery: 77%", b.StatusText())

	events, err := store.Events(ctx, 10, database.EventError, database.CategoryMonitoring)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestBackground_StoreFailureSurfacesAsStatus(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	clk := newFakeClock(0)
	b := NewBackground(&stubSource{clock: clk}, store, BackgroundOptions{Clock: clk})
	require.NoError(t, b.Start(ctx))
	nextSleep(t, clk)

	store.Close()
	clk.Fire(30 * time.Second)
	nextSleep(t, clk)
	assert.Contains(t, b.StatusText(), "Error: ")
	assert.True(t, b.State().Running)
	b.Shutdown()
}

func TestBackground_AlertFiresOnHighLoad(t *testing.T) {
	ctx := context.Background()
	clk := newFakeClock(0)
	notifier := &countingNotifier{}
	mgr := alerts.NewManager(alerts.DefaultCPUThreshold, notifier)
	b := NewBackground(&stubSource{clock: clk, load: 85}, openStore(t), BackgroundOptions{Clock: clk, Alerts: mgr})
	require.NoError(t, b.Start(ctx))
	nextSleep(t, clk)
	b.Shutdown()
	mgr.Wait()

	assert.Equal(t, 1, notifier.Count())
}

func TestBackground_NoAlertBelowThreshold(t *testing.T) {
	clk := newFakeClock(0)
	notifier := &countingNotifier{}
	mgr := alerts.NewManager(alerts.DefaultCPUThreshold, notifier)
	b := NewBackground(&stubSource{clock: clk, load: 3.9}, openStore(t), BackgroundOptions{Clock: clk, Alerts: mgr})
	require.NoError(t, b.Start(context.Background()))
	nextSleep(t, clk)
	b.Shutdown()
	mgr.Wait()

	assert.Zero(t, notifier.Count())
}

func TestBackground_StatsFeed(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	clk := newFakeClock(0)
	b := NewBackground(&stubSource{clock: clk, load: 1}, openStore(t), BackgroundOptions{Clock: clk})
	updates := b.Stats().Subscribe(ctx)

	require.NoError(t, b.Start(ctx))
	defer b.Shutdown()

	select {
	case u := <-updates:
		assert.Equal(t, 1, u.SampleCount)
		assert.Equal(t, b.State().SessionID, u.SessionID)
	case <-time.After(2 * time.Second):
		t.Fatal("no stats update")
	}
}

func TestFormatStatus(t *testing.T) {
	snap := models.Snapshot{CPU: models.CPUStats{SystemLoad: 1.234}, Battery: models.BatteryStats{LevelPct: -1}}
	assert.Equal(t, "Sample #3 | CPU load: 1.23 | Battery: -1%", FormatStatus(3, snap))
}

func TestRetention_RunOnce(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	now := time.UnixMilli(100 * 24 * 3600 * 1000)
	day := int64(24 * 3600 * 1000)

	for _, ts := range []int64{now.UnixMilli() - 10*day, now.UnixMilli() - 8*day, now.UnixMilli() - day} {
		_, err := store.Insert(ctx, database.NewRecord(models.Snapshot{Timestamp: ts}, "s"))
		require.NoError(t, err)
	}

	clk := newFakeClock(now.UnixMilli())
	r := &Retention{Store: store, Days: 7, Clock: clk}
	n, err := r.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	events, err := store.Events(ctx, 10, "", database.CategoryRetention)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestRetention_DisabledKeepsRecords(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	_, err := store.Insert(ctx, database.NewRecord(models.Snapshot{Timestamp: 1}, ""))
	require.NoError(t, err)

	n, err := (&Retention{Store: store}).RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	count, _ := store.Count(ctx)
	assert.Equal(t, 1, count)
}

func TestRetention_RunReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Retention{Store: openStore(t), Days: 30, Interval: time.Hour}

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Run(ctx)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("retention loop kept running after cancel")
	}
}

func TestController_CollectNowDoesNotStore(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	clk := newFakeClock(42)
	src := &stubSource{clock: clk, load: 0.3}
	c := NewController(src, store, nil, NewBackground(src, store, BackgroundOptions{Clock: clk}), clk)

	snap, err := c.CollectNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(42), snap.Timestamp)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestController_CollectAndStoreUsesManualSession(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	clk := newFakeClock(1234)
	src := &stubSource{clock: clk, load: 0.3}
	c := NewController(src, store, nil, NewBackground(src, store, BackgroundOptions{Clock: clk}), clk)

	rec, err := c.CollectAndStore(ctx)
	require.NoError(t, err)
	assert.Positive(t, rec.ID)
	require.NotNil(t, rec.SessionID)
	assert.Equal(t, "manual_1234", *rec.SessionID)

	got, err := store.Get(ctx, rec.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "manual_1234", *got.SessionID)
}

func TestController_CollectAndStoreError(t *testing.T) {
	store := openStore(t)
	clk := newFakeClock(0)
	src := &stubSource{clock: clk, errs: []error{errors.New("nope")}}
	c := NewController(src, store, nil, NewBackground(src, store, BackgroundOptions{Clock: clk}), clk)

	_, err := c.CollectAndStore(context.Background())
	assert.Error(t, err)
	count, _ := store.Count(context.Background())
	assert.Zero(t, count)
}

func TestController_StartStopBackground(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	clk := newFakeClock(0)
	src := &stubSource{clock: clk}
	live := NewLive(src, LiveOptions{Clock: clk})
	c := NewController(src, store, live, NewBackground(src, store, BackgroundOptions{Clock: clk}), clk)

	require.NoError(t, c.StartBackground(ctx))
	assert.True(t, c.Background().State().Running)
	nextSleep(t, clk)
	require.NoError(t, c.StopBackground(ctx))
	assert.False(t, c.Background().State().Running)
	assert.Same(t, live, c.Live())
	c.Shutdown()
}
