package sampler

import (
	"context"
	"fmt"

	"droidmon/app/internal/database"
	"droidmon/app/internal/models"
)

// RecordInserter stores a record and returns its id
type RecordInserter interface {
	Insert(ctx context.Context, rec models.Record) (int64, error)
}

// Controller is the command surface the foreground host drives: one-off
// collection plus the two named monitoring actions.
type Controller struct {
	source     SnapshotSource
	store      RecordInserter
	clock      Clock
	live       *Live
	background *Background
}

// NewController wires the cadences behind one facade. live may be nil.
func NewController(source SnapshotSource, store RecordInserter, live *Live, background *Background, clock Clock) *Controller {
	if clock == nil {
		clock = SystemClock
	}
	return &Controller{source: source, store: store, clock: clock, live: live, background: background}
}

// CollectNow captures one snapshot without storing it
func (c *Controller) CollectNow(ctx context.Context) (models.Snapshot, error) {
	return c.source.Collect(ctx)
}

// CollectAndStore captures one snapshot and stores it under a manual session
func (c *Controller) CollectAndStore(ctx context.Context) (models.Record, error) {
	snap, err := c.source.Collect(ctx)
	if err != nil {
		return models.Record{}, err
	}
	rec := database.NewRecord(snap, fmt.Sprintf("manual_%d", c.clock.Now().UnixMilli()))
	id, err := c.store.Insert(ctx, rec)
	if err != nil {
		return models.Record{}, err
	}
	rec.ID = id
	return rec, nil
}

// StartBackground is the start-monitoring action
func (c *Controller) StartBackground(ctx context.Context) error {
	return c.background.Start(ctx)
}

// StopBackground is the stop-monitoring action
func (c *Controller) StopBackground(ctx context.Context) error {
	return c.background.Stop(ctx)
}

// Background returns the persisted cadence
func (c *Controller) Background() *Background { return c.background }

// Live returns the in-memory cadence, nil when disabled
func (c *Controller) Live() *Live { return c.live }

// Shutdown stops both cadences for process exit, keeping the persisted
// running state
func (c *Controller) Shutdown() {
	if c.live != nil {
		c.live.Stop()
	}
	c.background.Shutdown()
}
