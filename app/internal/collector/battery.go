package collector

import (
	"bufio"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"droidmon/app/internal/models"
)

// Power supply health codes
const (
	healthUnknown            = 1
	healthGood               = 2
	healthOverheat           = 3
	healthDead               = 4
	healthOverVoltage        = 5
	healthUnspecifiedFailure = 6
	healthCold               = 7
)

// Power supply status codes
const (
	statusUnknown     = 1
	statusCharging    = 2
	statusDischarging = 3
	statusNotCharging = 4
	statusFull        = 5
)

// HealthName maps a health code to its name; unmapped codes are UNKNOWN
func HealthName(code int) string {
	switch code {
	case healthGood:
		return models.HealthGood
	case healthOverheat:
		return models.HealthOverheat
	case healthDead:
		return models.HealthDead
	case healthOverVoltage:
		return models.HealthOverVoltage
	case healthUnspecifiedFailure:
		return models.HealthFailure
	case healthCold:
		return models.HealthCold
	default:
		return models.HealthUnknown
	}
}

// StatusName maps a status code to its name; unmapped codes are UNKNOWN
func StatusName(code int) string {
	switch code {
	case statusCharging:
		return models.StatusCharging
	case statusDischarging:
		return models.StatusDischarging
	case statusFull:
		return models.StatusFull
	case statusNotCharging:
		return models.StatusNotCharging
	default:
		return models.StatusUnknown
	}
}

var healthCodes = map[string]int{
	"Unknown":             healthUnknown,
	"Good":                healthGood,
	"Overheat":            healthOverheat,
	"Dead":                healthDead,
	"Over voltage":        healthOverVoltage,
	"Unspecified failure": healthUnspecifiedFailure,
	"Cold":                healthCold,
}

var statusCodes = map[string]int{
	"Unknown":      statusUnknown,
	"Charging":     statusCharging,
	"Discharging":  statusDischarging,
	"Not charging": statusNotCharging,
	"Full":         statusFull,
}

// BatteryStatus is the power supply's own status report
type BatteryStatus struct {
	Level     int // -1 when not reported
	Health    int // -1 when not reported
	Status    int // -1 when not reported
	VoltageMV int // -1 when not reported
}

func codeOf(table map[string]int, name string) int {
	if code, found := table[name]; found {
		return code
	}
	return -1
}

// supplyDir resolves the battery's power_supply directory. The configured name
// wins; otherwise the first supply whose type is Battery.
func (r *Readers) supplyDir() (string, error) {
	base := r.sys("class", "power_supply")
	if name := r.src.BatterySupply; name != "" {
		dir := filepath.Join(base, name)
		if _, err := os.Stat(dir); err == nil {
			return dir, nil
		}
	}

	entries, err := os.ReadDir(base)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		dir := filepath.Join(base, e.Name())
		if t, err := readTrimmed(filepath.Join(dir, "type")); err == nil && t == "Battery" {
			return dir, nil
		}
	}
	return "", errors.New("no battery power supply found")
}

// Status reads the supply's uevent report
func (r *Readers) Status() Reading[BatteryStatus] {
	st := BatteryStatus{Level: -1, Health: -1, Status: -1, VoltageMV: -1}
	dir, err := r.supplyDir()
	if err != nil {
		return fallback(st, err)
	}
	f, err := os.Open(filepath.Join(dir, "uevent"))
	if err != nil {
		return fallback(st, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		key, val, found := strings.Cut(sc.Text(), "=")
		if !found {
			continue
		}
		switch strings.TrimPrefix(key, "POWER_SUPPLY_") {
		case "CAPACITY":
			if n, err := strconv.Atoi(val); err == nil {
				st.Level = n
			}
		case "HEALTH":
			st.Health = codeOf(healthCodes, val)
		case "STATUS":
			st.Status = codeOf(statusCodes, val)
		case "VOLTAGE_NOW":
			if uv, err := strconv.Atoi(val); err == nil && uv >= 0 {
				st.VoltageMV = uv / 1000
			}
		}
	}
	if err := sc.Err(); err != nil {
		return fallback(st, err)
	}
	return ok(st)
}

// BatteryTemperature reads the supply's temp file. Raw values above 1000 are
// treated as tenths of a degree, anything else as millidegrees.
func (r *Readers) BatteryTemperature() Reading[*float64] {
	dir, err := r.supplyDir()
	if err != nil {
		return fallback[*float64](nil, err)
	}
	raw, err := readInt64(filepath.Join(dir, "temp"))
	if err != nil {
		return fallback[*float64](nil, err)
	}
	var c float64
	if raw > 1000 {
		c = float64(raw) / 10
	} else {
		c = float64(raw) / 1000
	}
	return ok(&c)
}

// BatteryVoltage reads voltage_now in mV, nil when the file is absent
func (r *Readers) BatteryVoltage() Reading[*int] {
	dir, err := r.supplyDir()
	if err != nil {
		return fallback[*int](nil, err)
	}
	uv, err := readInt64(filepath.Join(dir, "voltage_now"))
	if err != nil {
		return fallback[*int](nil, err)
	}
	mv := int(uv / 1000)
	return ok(&mv)
}

// Battery reads the battery group. The sysfs voltage file takes precedence
// over the status report.
func (r *Readers) Battery() models.BatteryStats {
	status := r.Status()
	stats := models.BatteryStats{
		LevelPct:         models.BatteryLevelUnknown,
		TemperatureC:     r.BatteryTemperature().Value,
		VoltageMillivolt: r.BatteryVoltage().Value,
	}
	if status.Fallback {
		return stats
	}

	st := status.Value
	if st.Level >= 0 {
		stats.LevelPct = st.Level
	}
	stats.Health = models.StringPtr(HealthName(st.Health))
	stats.Status = models.StringPtr(StatusName(st.Status))
	if stats.VoltageMillivolt == nil && st.VoltageMV >= 0 {
		mv := st.VoltageMV
		stats.VoltageMillivolt = &mv
	}
	return stats
}
