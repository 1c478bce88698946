package collector

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"droidmon/app/internal/models"
)

// ClassifyLoad buckets the per-core load average. A core count of zero or
// less classifies the raw load.
func ClassifyLoad(load float64, cores int) models.LoadLevel {
	perCore := load
	if cores > 0 {
		perCore = load / float64(cores)
	}
	switch {
	case perCore < 0.5:
		return models.LoadLow
	case perCore < 0.8:
		return models.LoadModerate
	case perCore < 1.5:
		return models.LoadHigh
	default:
		return models.LoadCritical
	}
}

// SystemLoad reads the 1-minute load average; 0.0 on failure
func (r *Readers) SystemLoad() Reading[float64] {
	s, err := readTrimmed(r.proc("loadavg"))
	if err != nil {
		return fallback(0.0, err)
	}
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return fallback(0.0, errors.New("loadavg is empty"))
	}
	load, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return fallback(0.0, fmt.Errorf("parse loadavg: %w", err))
	}
	return ok(load)
}

// RunningProcesses reads the "processes" counter from /proc/stat, falling back
// to counting numeric /proc entries. 0 when neither is available.
func (r *Readers) RunningProcesses() Reading[int] {
	fields, err := findLine(r.proc("stat"), "processes ")
	if err == nil && len(fields) < 2 {
		err = errors.New("processes line has no value")
	}
	if err == nil {
		var n int
		if n, err = strconv.Atoi(fields[1]); err == nil {
			return ok(n)
		}
	}

	entries, derr := os.ReadDir(r.src.ProcRoot)
	if derr != nil {
		return fallback(0, errors.Join(err, derr))
	}
	count := 0
	for _, e := range entries {
		if e.IsDir() && isNumeric(e.Name()) {
			count++
		}
	}
	return Reading[int]{Value: count, Fallback: true, Err: err}
}

// ContextSwitches reads the "ctxt" counter from /proc/stat; 0 when absent
func (r *Readers) ContextSwitches() Reading[uint64] {
	fields, err := findLine(r.proc("stat"), "ctxt ")
	if err != nil {
		return fallback(uint64(0), err)
	}
	if len(fields) < 2 {
		return fallback(uint64(0), errors.New("ctxt line has no value"))
	}
	n, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return fallback(uint64(0), fmt.Errorf("parse ctxt: %w", err))
	}
	return ok(n)
}

// CoreFrequencies returns the current scaling frequency of each core in MHz,
// ordered by core index. Cores without a readable value are skipped.
func (r *Readers) CoreFrequencies() Reading[[]int] {
	dir := r.sys("devices", "system", "cpu")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fallback([]int{}, err)
	}

	type core struct {
		index int
		name  string
	}
	var cores []core
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, "cpu") || !isNumeric(name[3:]) {
			continue
		}
		idx, _ := strconv.Atoi(name[3:])
		cores = append(cores, core{index: idx, name: name})
	}
	sort.Slice(cores, func(i, j int) bool { return cores[i].index < cores[j].index })

	freqs := make([]int, 0, len(cores))
	for _, c := range cores {
		khz, err := readInt64(filepath.Join(dir, c.name, "cpufreq", "scaling_cur_freq"))
		if err != nil {
			continue
		}
		freqs = append(freqs, int(khz/1000))
	}
	return ok(freqs)
}

// Temperature returns the hottest thermal zone in degrees C, nil when no zone
// reports a value.
func (r *Readers) Temperature() Reading[*float64] {
	dir := r.sys("class", "thermal")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fallback[*float64](nil, err)
	}

	var hottest *float64
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "thermal_zone") {
			continue
		}
		milli, err := readInt64(filepath.Join(dir, e.Name(), "temp"))
		if err != nil {
			continue
		}
		c := float64(milli) / 1000
		if hottest == nil || c > *hottest {
			hottest = &c
		}
	}
	if hottest == nil {
		return fallback[*float64](nil, errors.New("no readable thermal zones"))
	}
	return ok(hottest)
}

// OnlineCores returns the logical processor count; 0 on failure
func (r *Readers) OnlineCores(ctx context.Context) Reading[int] {
	n, err := r.cpuCounts(ctx, true)
	if err != nil {
		return fallback(0, err)
	}
	return ok(n)
}

// CPU reads the whole CPU group
func (r *Readers) CPU(ctx context.Context) models.CPUStats {
	load := r.SystemLoad().Value
	cores := r.OnlineCores(ctx).Value
	return models.CPUStats{
		SystemLoad:       load,
		LoadLevel:        ClassifyLoad(load, cores),
		RunningProcesses: r.RunningProcesses().Value,
		CoreFreqMHz:      r.CoreFrequencies().Value,
		TemperatureC:     r.Temperature().Value,
		OnlineCores:      cores,
		ContextSwitches:  r.ContextSwitches().Value,
	}
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
