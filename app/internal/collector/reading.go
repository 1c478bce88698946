package collector

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"
	"golang.org/x/sys/unix"
)

// Reading is the result of one counter read. When Fallback is set, Value holds
// the documented default for that counter and Err explains why.
type Reading[T any] struct {
	Value    T
	Fallback bool
	Err      error
}

func ok[T any](v T) Reading[T] {
	return Reading[T]{Value: v}
}

func fallback[T any](def T, err error) Reading[T] {
	return Reading[T]{Value: def, Fallback: true, Err: err}
}

// Sources locates the OS counter files. Roots are overridable so tests can
// point the readers at a fake tree.
type Sources struct {
	ProcRoot         string
	SysRoot          string
	DataDir          string
	BatterySupply    string // power_supply entry name; empty means discover
	CellularPrefixes []string
}

// DefaultSources returns the paths of a stock Linux/Android device
func DefaultSources() Sources {
	return Sources{
		ProcRoot:         "/proc",
		SysRoot:          "/sys",
		DataDir:          "/",
		BatterySupply:    "battery",
		CellularPrefixes: []string{"rmnet", "ccmni", "wwan", "pdp"},
	}
}

// Readers reads individual counters. The host-level queries go through
// gopsutil and statfs; all of them are swappable for tests.
type Readers struct {
	src Sources

	virtualMemory func(ctx context.Context) (*mem.VirtualMemoryStat, error)
	cpuCounts     func(ctx context.Context, logical bool) (int, error)
	netCounters   func(ctx context.Context, pernic bool) ([]net.IOCountersStat, error)
	statfs        func(path string, st *unix.Statfs_t) error
}

// NewReaders returns readers over the given sources
func NewReaders(src Sources) *Readers {
	return &Readers{
		src:           src,
		virtualMemory: mem.VirtualMemoryWithContext,
		cpuCounts:     cpu.CountsWithContext,
		netCounters:   net.IOCountersWithContext,
		statfs:        unix.Statfs,
	}
}

func (r *Readers) proc(elem ...string) string {
	return joinPath(r.src.ProcRoot, elem...)
}

func (r *Readers) sys(elem ...string) string {
	return joinPath(r.src.SysRoot, elem...)
}

func joinPath(root string, elem ...string) string {
	return strings.TrimSuffix(root, "/") + "/" + strings.Join(elem, "/")
}

func readTrimmed(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(bytes.TrimSpace(b)), nil
}

func readInt64(path string) (int64, error) {
	s, err := readTrimmed(path)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}
	return n, nil
}

// findLine returns the fields of the first line starting with prefix
func findLine(path, prefix string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, prefix) {
			return strings.Fields(line), nil
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%s: no %q line", path, strings.TrimSpace(prefix))
}

// digitsOnly keeps the decimal digits of s, so "Cached:   1024 kB" becomes "1024"
func digitsOnly(s string) string {
	var b strings.Builder
	for _, c := range s {
		if c >= '0' && c <= '9' {
			b.WriteRune(c)
		}
	}
	return b.String()
}
