package sampler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"droidmon/app/internal/database"
	"droidmon/app/internal/logger"
	"droidmon/app/internal/models"
	"droidmon/app/internal/monitor"

	"go.uber.org/zap"
)

const (
	DefaultBackgroundInterval = 30 * time.Second
	DefaultMinSleep           = time.Second
	backgroundKey             = "background"
)

// Status surface texts
const (
	StatusIdle     = "Idle"
	StatusStarting = "Starting monitoring..."
)

// Store is the persistence the background cadence needs
type Store interface {
	Insert(ctx context.Context, rec models.Record) (int64, error)
	LoadMonitorState(ctx context.Context) (models.MonitorState, error)
	SaveMonitorState(ctx context.Context, st models.MonitorState) error
	ClearMonitorState(ctx context.Context) error
	InsertEvent(ctx context.Context, level, category, message, details string) error
}

// AlertChecker is evaluated against every stored snapshot
type AlertChecker interface {
	Check(ctx context.Context, snap models.Snapshot, sessionID string) bool
}

// StatsUpdate is published after each stored sample
type StatsUpdate struct {
	SampleCount int             `json:"sample_count"`
	SessionID   string          `json:"session_id"`
	Snapshot    models.Snapshot `json:"snapshot"`
}

// BackgroundOptions configures NewBackground. Zero values take defaults.
type BackgroundOptions struct {
	Interval time.Duration
	MinSleep time.Duration
	Clock    Clock
	Alerts   AlertChecker
	Failures *monitor.FailureTracker
}

// Background is the slow persisted cadence. It moves between Idle and
// Running; the running flag, session id and sample count are persisted so a
// killed process can resume the same session.
type Background struct {
	source   SnapshotSource
	store    Store
	clock    Clock
	interval time.Duration
	minSleep time.Duration
	alerts   AlertChecker
	failures *monitor.FailureTracker

	status  *Feed[string]
	running *Feed[bool]
	stats   *Feed[StatsUpdate]

	// lifecycle serializes Start, Resume, Stop and Shutdown; mu guards the fields
	lifecycle sync.Mutex
	mu        sync.Mutex
	state     models.MonitorState
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewBackground creates an idle background cadence
func NewBackground(source SnapshotSource, store Store, opts BackgroundOptions) *Background {
	if opts.Interval <= 0 {
		opts.Interval = DefaultBackgroundInterval
	}
	if opts.MinSleep <= 0 {
		opts.MinSleep = DefaultMinSleep
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock
	}
	if opts.Failures == nil {
		opts.Failures = monitor.NewFailureTracker()
	}
	b := &Background{
		source:   source,
		store:    store,
		clock:    opts.Clock,
		interval: opts.Interval,
		minSleep: opts.MinSleep,
		alerts:   opts.Alerts,
		failures: opts.Failures,
		status:   NewFeed[string](),
		running:  NewFeed[bool](),
		stats:    NewFeed[StatsUpdate](),
	}
	b.status.Publish(StatusIdle)
	b.running.Publish(false)
	return b
}

// Status streams the human readable status line
func (b *Background) Status() *Feed[string] { return b.status }

// RunningState streams running/not-running transitions
func (b *Background) RunningState() *Feed[bool] { return b.running }

// Stats streams each stored sample
func (b *Background) Stats() *Feed[StatsUpdate] { return b.stats }

// State returns the in-memory cadence state
func (b *Background) State() models.MonitorState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// StatusText returns the current status line
func (b *Background) StatusText() string {
	s, _ := b.status.Last()
	return s
}

// Start begins a new session. Starting a running cadence is a no-op.
func (b *Background) Start(ctx context.Context) error {
	b.lifecycle.Lock()
	defer b.lifecycle.Unlock()
	if b.active() {
		return nil
	}

	st := models.MonitorState{
		Running:   true,
		SessionID: fmt.Sprintf("session_%d", b.clock.Now().UnixMilli()),
	}
	if err := b.store.SaveMonitorState(ctx, st); err != nil {
		return fmt.Errorf("start monitoring: %w", err)
	}
	b.status.Publish(StatusStarting)
	b.launch(st)
	b.event(ctx, database.EventInfo, "Monitoring started", st.SessionID)
	return nil
}

// Resume restarts the loop from the persisted state if it was running when
// the process died. It reports whether a session was resumed.
func (b *Background) Resume(ctx context.Context) (bool, error) {
	b.lifecycle.Lock()
	defer b.lifecycle.Unlock()
	if b.active() {
		return false, nil
	}

	st, err := b.store.LoadMonitorState(ctx)
	if err != nil {
		return false, fmt.Errorf("load monitor state: %w", err)
	}
	if !st.Running || st.SessionID == "" {
		return false, nil
	}

	b.launch(st)
	logger.Info("monitoring resumed",
		zap.String("session_id", st.SessionID),
		zap.Int("sample_count", st.SampleCount))
	b.event(ctx, database.EventInfo, "Monitoring resumed", st.SessionID)
	return true, nil
}

func (b *Background) active() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cancel != nil
}

// launch starts the loop goroutine. Callers hold b.lifecycle.
func (b *Background) launch(st models.MonitorState) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	b.mu.Lock()
	b.state, b.cancel, b.done = st, cancel, done
	b.mu.Unlock()
	b.running.Publish(true)

	go func() {
		defer close(done)
		b.run(ctx)
	}()
}

// halt cancels the loop and waits for it. It returns the state it ran with.
// Callers hold b.lifecycle.
func (b *Background) halt() (models.MonitorState, bool) {
	b.mu.Lock()
	cancel, done := b.cancel, b.done
	b.cancel, b.done = nil, nil
	st := b.state
	b.mu.Unlock()

	if cancel == nil {
		return st, false
	}
	cancel()
	<-done
	return st, true
}

// Stop ends the session: the loop is cancelled and the persisted running
// flag, session id and count are cleared so the next start is fresh.
func (b *Background) Stop(ctx context.Context) error {
	b.lifecycle.Lock()
	defer b.lifecycle.Unlock()
	st, wasRunning := b.halt()

	b.mu.Lock()
	b.state = models.MonitorState{}
	b.mu.Unlock()

	// a dropped caller must not leave the session resumable
	ctx = context.WithoutCancel(ctx)
	err := b.store.ClearMonitorState(ctx)
	b.failures.Reset(backgroundKey)
	b.status.Publish(StatusIdle)
	if wasRunning {
		b.running.Publish(false)
		logger.Info("monitoring stopped",
			zap.String("session_id", st.SessionID),
			zap.Int("sample_count", st.SampleCount))
		b.event(ctx, database.EventInfo, "Monitoring stopped", st.SessionID)
	}
	if err != nil {
		return fmt.Errorf("stop monitoring: %w", err)
	}
	return nil
}

// Shutdown stops the loop for process exit. The persisted state is kept so
// the next cold start resumes the session.
func (b *Background) Shutdown() {
	b.lifecycle.Lock()
	defer b.lifecycle.Unlock()
	if st, ok := b.halt(); ok {
		b.mu.Lock()
		b.state.Running = false
		b.mu.Unlock()
		b.running.Publish(false)
		logger.Info("monitoring suspended", zap.String("session_id", st.SessionID))
	}
}

func (b *Background) run(ctx context.Context) {
	for {
		start := b.clock.Now()
		b.iterate(ctx)
		if ctx.Err() != nil {
			return
		}

		select {
		case <-b.clock.After(nextDelay(b.interval, b.clock.Now().Sub(start), b.minSleep)):
		case <-ctx.Done():
			return
		}
	}
}

// iterate captures, stores and reports one sample. Failures become the
// status line and never end the loop.
func (b *Background) iterate(ctx context.Context) {
	snap, err := b.source.Collect(ctx)
	if ctx.Err() != nil {
		return
	}

	b.mu.Lock()
	st := b.state
	b.mu.Unlock()

	if err == nil {
		// the write and the counter update finish even if a stop arrives meanwhile
		wctx := context.WithoutCancel(ctx)
		if _, err = b.store.Insert(wctx, database.NewRecord(snap, st.SessionID)); err == nil {
			st.SampleCount++
			err = b.store.SaveMonitorState(wctx, st)

			b.mu.Lock()
			if b.state.SessionID == st.SessionID {
				b.state.SampleCount = st.SampleCount
			}
			b.mu.Unlock()
		}
	}

	n := b.failures.Update(backgroundKey, err)
	if err != nil {
		b.status.Publish("Error: " + err.Error())
		if monitor.Escalate(n, 10) {
			logger.Warn("background sample failed",
				zap.String("session_id", st.SessionID),
				zap.Int("consecutive", n),
				zap.Error(err))
			b.event(ctx, database.EventError, "Sample failed: "+err.Error(), st.SessionID)
		}
		return
	}

	if b.alerts != nil {
		b.alerts.Check(ctx, snap, st.SessionID)
	}
	b.status.Publish(FormatStatus(st.SampleCount, snap))
	b.stats.Publish(StatsUpdate{SampleCount: st.SampleCount, SessionID: st.SessionID, Snapshot: snap})
	logger.Debug("background sample stored",
		zap.String("session_id", st.SessionID),
		zap.Int("sample", st.SampleCount))
}

// FormatStatus renders the status line for a stored sample
func FormatStatus(count int, snap models.Snapshot) string {
	return fmt.Sprintf("Sample #%d | CPU load: %.2f | Battery: %d%%", count, snap.CPU.SystemLoad, snap.Battery.LevelPct)
}

func (b *Background) event(ctx context.Context, level, message, sessionID string) {
	if err := b.store.InsertEvent(context.WithoutCancel(ctx), level, database.CategoryMonitoring, message, sessionID); err != nil {
		logger.Warn("failed to record event", zap.String("message", message), zap.Error(err))
	}
}
