package collector

import (
	"bufio"
	"context"
	"errors"
	"os"
	"strconv"
	"strings"

	"droidmon/app/internal/models"
)

// TrafficTotals is the cumulative byte count since boot, split by interface class
type TrafficTotals struct {
	TotalRx, TotalTx   uint64
	MobileRx, MobileTx uint64
}

// Traffic sums per-interface counters. Loopback is excluded from the totals;
// interfaces matching a cellular prefix are also counted as mobile.
func (r *Readers) Traffic(ctx context.Context) Reading[TrafficTotals] {
	counters, err := r.netCounters(ctx, true)
	if err != nil {
		return fallback(TrafficTotals{}, err)
	}
	var t TrafficTotals
	for _, c := range counters {
		if c.Name == "lo" {
			continue
		}
		t.TotalRx += c.BytesRecv
		t.TotalTx += c.BytesSent
		if r.isCellular(c.Name) {
			t.MobileRx += c.BytesRecv
			t.MobileTx += c.BytesSent
		}
	}
	return ok(t)
}

func (r *Readers) isCellular(name string) bool {
	for _, p := range r.src.CellularPrefixes {
		if p != "" && strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// WifiRSSI reads the signal level of the first wireless interface in
// /proc/net/wireless. Nil without location permission.
func (r *Readers) WifiRSSI(permitted bool) Reading[*int] {
	if !permitted {
		return ok[*int](nil)
	}
	f, err := os.Open(r.proc("net", "wireless"))
	if err != nil {
		return fallback[*int](nil, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		// iface: status link level noise ...
		if len(fields) < 4 || !strings.HasSuffix(fields[0], ":") {
			continue
		}
		level, err := strconv.ParseFloat(strings.TrimSuffix(fields[3], "."), 64)
		if err != nil {
			continue
		}
		dbm := int(level)
		return ok(&dbm)
	}
	if err := sc.Err(); err != nil {
		return fallback[*int](nil, err)
	}
	return fallback[*int](nil, errors.New("no wireless interface"))
}

func toMB(b uint64) int64 {
	return int64(b / mib)
}

// Network reads the network group
func (r *Readers) Network(ctx context.Context, locationPermission bool) models.NetworkStats {
	t := r.Traffic(ctx).Value
	return models.NetworkStats{
		WifiRssiDbm: r.WifiRSSI(locationPermission).Value,
		MobileRxMB:  toMB(t.MobileRx),
		MobileTxMB:  toMB(t.MobileTx),
		TotalRxMB:   toMB(t.TotalRx),
		TotalTxMB:   toMB(t.TotalTx),
	}
}
