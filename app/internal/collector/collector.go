package collector

import (
	"context"
	"fmt"
	"time"

	"droidmon/app/internal/logger"
	"droidmon/app/internal/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Collector assembles snapshots from the counter readers. It holds no mutable
// state and is safe for concurrent use by both cadences.
type Collector struct {
	readers *Readers
	now     func() time.Time

	// LocationPermission gates the Wi-Fi signal read
	LocationPermission func() bool
}

// New creates a collector over the given sources
func New(src Sources) *Collector {
	return &Collector{
		readers:            NewReaders(src),
		now:                time.Now,
		LocationPermission: func() bool { return false },
	}
}

// Readers exposes the underlying counter readers
func (c *Collector) Readers() *Readers {
	return c.readers
}

// Collect reads every metric group concurrently and returns one snapshot
// stamped with a single capture time. A group that panics is replaced by its
// all-defaults value; the only error is context cancellation.
func (c *Collector) Collect(ctx context.Context) (models.Snapshot, error) {
	snap := models.Snapshot{Timestamp: c.now().UnixMilli()}
	permitted := c.LocationPermission != nil && c.LocationPermission()

	var (
		cpu     models.CPUStats
		memory  models.MemoryStats
		battery models.BatteryStats
		storage models.StorageStats
		network models.NetworkStats
	)

	g, gctx := errgroup.WithContext(ctx)
	group(g, "cpu", &cpu, defaultCPU, func() models.CPUStats {
		return c.readers.CPU(gctx)
	})
	group(g, "memory", &memory, models.MemoryStats{}, func() models.MemoryStats {
		return c.readers.Memory(gctx)
	})
	group(g, "battery", &battery, defaultBattery, c.readers.Battery)
	group(g, "storage", &storage, models.StorageStats{}, func() models.StorageStats {
		return c.readers.Storage().Value
	})
	group(g, "network", &network, models.NetworkStats{}, func() models.NetworkStats {
		return c.readers.Network(gctx, permitted)
	})
	if err := g.Wait(); err != nil {
		return models.Snapshot{}, err
	}
	if err := ctx.Err(); err != nil {
		return models.Snapshot{}, err
	}

	snap.CPU = cpu
	snap.Memory = memory
	snap.Battery = battery
	snap.Storage = storage
	snap.Network = network
	return snap, nil
}

var defaultCPU = models.CPUStats{
	LoadLevel:   models.LoadLow,
	CoreFreqMHz: []int{},
}

var defaultBattery = models.BatteryStats{LevelPct: models.BatteryLevelUnknown}

// group runs read on the errgroup, writing its result to dst. A panic inside
// read is logged and replaced by def.
func group[T any](g *errgroup.Group, name string, dst *T, def T, read func() T) {
	g.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("metric group failed, using defaults",
					zap.String("group", name),
					zap.String("panic", fmt.Sprint(r)))
				*dst = def
			}
		}()
		*dst = read()
		return nil
	})
}
