package collector

import (
	"bufio"
	"context"
	"os"
	"strconv"
	"strings"

	"droidmon/app/internal/models"
)

const mib = 1024 * 1024

// MemInfo holds the cached and swap figures of /proc/meminfo in MB
type MemInfo struct {
	CachedMB    int64
	SwapTotalMB int64
	SwapFreeMB  int64
}

// ParseMemInfo parses cached and swap figures from /proc/meminfo. Lines that fail
// to parse leave their field at 0.
func (r *Readers) ParseMemInfo() Reading[MemInfo] {
	f, err := os.Open(r.proc("meminfo"))
	if err != nil {
		return fallback(MemInfo{}, err)
	}
	defer f.Close()

	var mi MemInfo
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		var dst *int64
		switch {
		case strings.HasPrefix(line, "Cached:"):
			dst = &mi.CachedMB
		case strings.HasPrefix(line, "SwapTotal:"):
			dst = &mi.SwapTotalMB
		case strings.HasPrefix(line, "SwapFree:"):
			dst = &mi.SwapFreeMB
		default:
			continue
		}
		if kb, err := strconv.ParseInt(digitsOnly(line), 10, 64); err == nil {
			*dst = kb / 1024
		}
	}
	if err := sc.Err(); err != nil {
		return fallback(mi, err)
	}
	return ok(mi)
}

// Memory reads the memory group. Used is always derived as total - free.
func (r *Readers) Memory(ctx context.Context) models.MemoryStats {
	var stats models.MemoryStats
	if vm, err := r.virtualMemory(ctx); err == nil {
		stats.TotalMB = int64(vm.Total / mib)
		stats.FreeMB = int64(vm.Available / mib)
	}
	stats.UsedMB = stats.TotalMB - stats.FreeMB

	mi := r.ParseMemInfo().Value
	stats.CachedMB = mi.CachedMB
	stats.SwapTotalMB = mi.SwapTotalMB
	stats.SwapUsedMB = max(0, mi.SwapTotalMB-mi.SwapFreeMB)
	return stats
}
