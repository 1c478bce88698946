package sampler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"droidmon/app/internal/logger"
	"droidmon/app/internal/models"
	"droidmon/app/internal/monitor"

	"go.uber.org/zap"
)

// SnapshotSource produces one snapshot per call
type SnapshotSource interface {
	Collect(ctx context.Context) (models.Snapshot, error)
}

const (
	DefaultLiveInterval = time.Second
	liveFloor           = 100 * time.Millisecond
	liveKey             = "live"
)

// Live is the fast in-memory cadence. It keeps the newest snapshot and a
// short trend window; nothing is persisted.
type Live struct {
	source   SnapshotSource
	clock    Clock
	interval time.Duration
	failures *monitor.FailureTracker

	ring    *Ring[models.Snapshot]
	current atomic.Pointer[models.Snapshot]
	updates *Feed[models.Snapshot]

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// LiveOptions configures NewLive. Zero values take defaults.
type LiveOptions struct {
	Interval   time.Duration
	BufferSize int
	Clock      Clock
	Failures   *monitor.FailureTracker
}

// NewLive creates a stopped live cadence
func NewLive(source SnapshotSource, opts LiveOptions) *Live {
	if opts.Interval <= 0 {
		opts.Interval = DefaultLiveInterval
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock
	}
	if opts.Failures == nil {
		opts.Failures = monitor.NewFailureTracker()
	}
	return &Live{
		source:   source,
		clock:    opts.Clock,
		interval: opts.Interval,
		failures: opts.Failures,
		ring:     NewRing[models.Snapshot](opts.BufferSize),
		updates:  NewFeed[models.Snapshot](),
	}
}

// Start launches the loop. Starting a running cadence is a no-op.
func (l *Live) Start(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	l.cancel, l.done = cancel, done
	go func() {
		defer close(done)
		l.run(ctx)
	}()
	logger.Info("live sampling started", zap.Duration("interval", l.interval))
}

// Stop cancels the loop and waits for it to exit
func (l *Live) Stop() {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.cancel, l.done = nil, nil
	l.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	logger.Info("live sampling stopped")
}

// Running reports whether the loop is active
func (l *Live) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cancel != nil
}

// Current returns the newest snapshot, nil before the first one
func (l *Live) Current() *models.Snapshot {
	return l.current.Load()
}

// Recent returns the trend window, oldest first
func (l *Live) Recent() []models.Snapshot {
	return l.ring.Items()
}

// Updates streams each published snapshot
func (l *Live) Updates() *Feed[models.Snapshot] {
	return l.updates
}

func (l *Live) run(ctx context.Context) {
	for {
		start := l.clock.Now()
		l.tick(ctx)

		select {
		case <-l.clock.After(nextDelay(l.interval, l.clock.Now().Sub(start), liveFloor)):
		case <-ctx.Done():
			return
		}
	}
}

// tick captures and publishes one snapshot. A snapshot finished after
// cancellation is dropped.
func (l *Live) tick(ctx context.Context) {
	snap, err := l.source.Collect(ctx)
	if ctx.Err() != nil {
		return
	}
	n := l.failures.Update(liveKey, err)
	if err != nil {
		if monitor.Escalate(n, 30) {
			logger.Warn("live sample failed", zap.Int("consecutive", n), zap.Error(err))
		}
		return
	}

	l.ring.Push(snap)
	l.current.Store(&snap)
	l.updates.Publish(snap)
}
