package alerts

import (
	"context"
	"fmt"
	"sync"
	"time"

	"droidmon/app/internal/logger"
	"droidmon/app/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultCPUThreshold is compared against the 1-minute load average.
// NOTE: load averages rarely exceed the core count, so 80 is effectively
// unreachable on phones; it is kept configurable rather than reinterpreted.
const DefaultCPUThreshold = 80.0

// Alert is one threshold breach
type Alert struct {
	ID        string          `json:"id"`
	Timestamp int64           `json:"timestamp"` // ms since epoch, from the snapshot
	Metric    string          `json:"metric"`
	Value     float64         `json:"value"`
	Threshold float64         `json:"threshold"`
	SessionID string          `json:"session_id,omitempty"`
	Message   string          `json:"message"`
	Snapshot  models.Snapshot `json:"snapshot"`
}

// Notifier delivers alerts to one side channel
type Notifier interface {
	Name() string
	Notify(ctx context.Context, a Alert) error
}

// Manager checks snapshots against the CPU load threshold and fans breaches
// out to its notifiers. The check itself is stateless; there is no debounce
// beyond the cadence that calls it.
type Manager struct {
	threshold float64
	notifiers []Notifier
	timeout   time.Duration

	wg sync.WaitGroup
}

// NewManager creates a manager with the given threshold and notifiers
func NewManager(threshold float64, notifiers ...Notifier) *Manager {
	return &Manager{
		threshold: threshold,
		notifiers: notifiers,
		timeout:   15 * time.Second,
	}
}

// Threshold returns the configured CPU load threshold
func (m *Manager) Threshold() float64 {
	return m.threshold
}

// Breached reports whether snap's load exceeds the threshold
func (m *Manager) Breached(snap models.Snapshot) bool {
	return snap.CPU.SystemLoad > m.threshold
}

// Check evaluates snap and, on breach, dispatches an alert to every notifier
// in the background. It reports whether the threshold was breached. Notifier
// failures are logged and never reach the caller.
func (m *Manager) Check(ctx context.Context, snap models.Snapshot, sessionID string) bool {
	if !m.Breached(snap) {
		return false
	}

	a := Alert{
		ID:        uuid.NewString(),
		Timestamp: snap.Timestamp,
		Metric:    "cpu.system_load",
		Value:     snap.CPU.SystemLoad,
		Threshold: m.threshold,
		SessionID: sessionID,
		Message:   fmt.Sprintf("CPU load %.2f exceeds %.2f (%s)", snap.CPU.SystemLoad, m.threshold, snap.CPU.LoadLevel),
		Snapshot:  snap,
	}
	m.dispatchAll(context.WithoutCancel(ctx), a)
	return true
}

// dispatchAll sends an alert across all notifiers
func (m *Manager) dispatchAll(ctx context.Context, a Alert) {
	for _, n := range m.notifiers {
		m.wg.Add(1)
		go func(n Notifier) {
			defer m.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					logger.Error("alert notifier panicked", zap.String("notifier", n.Name()), zap.Any("panic", r))
				}
			}()

			nctx, cancel := context.WithTimeout(ctx, m.timeout)
			defer cancel()
			if err := n.Notify(nctx, a); err != nil {
				logger.Warn("alert notification failed",
					zap.String("notifier", n.Name()),
					zap.String("alert_id", a.ID),
					zap.Error(err))
			}
		}(n)
	}
}

// Wait blocks until in-flight notifications finish
func (m *Manager) Wait() {
	m.wg.Wait()
}
