package models

// LoadLevel is a qualitative bucket derived from the per-core load average
type LoadLevel string

const (
	LoadLow      LoadLevel = "LOW"
	LoadModerate LoadLevel = "MODERATE"
	LoadHigh     LoadLevel = "HIGH"
	LoadCritical LoadLevel = "CRITICAL"
)

// Battery health values
const (
	HealthGood        = "GOOD"
	HealthOverheat    = "OVERHEAT"
	HealthDead        = "DEAD"
	HealthOverVoltage = "OVER_VOLTAGE"
	HealthFailure     = "FAILURE"
	HealthCold        = "COLD"
	HealthUnknown     = "UNKNOWN"
)

// Battery charging status values
const (
	StatusCharging    = "CHARGING"
	StatusDischarging = "DISCHARGING"
	StatusFull        = "FULL"
	StatusNotCharging = "NOT_CHARGING"
	StatusUnknown     = "UNKNOWN"
)

// BatteryLevelUnknown is reported when no level could be read
const BatteryLevelUnknown = -1

// CPUStats holds load and activity counters
type CPUStats struct {
	SystemLoad       float64   `json:"system_load"` // 1-minute load average
	LoadLevel        LoadLevel `json:"load_level"`
	RunningProcesses int       `json:"running_processes"`
	CoreFreqMHz      []int     `json:"core_freq_mhz"`
	TemperatureC     *float64  `json:"temperature_c,omitempty"`
	OnlineCores      int       `json:"online_cores"`
	ContextSwitches  uint64    `json:"context_switches"`
}

// MemoryStats holds RAM and swap figures in MB. UsedMB is always TotalMB - FreeMB.
type MemoryStats struct {
	TotalMB     int64 `json:"total_mb"`
	UsedMB      int64 `json:"used_mb"`
	FreeMB      int64 `json:"free_mb"`
	CachedMB    int64 `json:"cached_mb"`
	SwapTotalMB int64 `json:"swap_total_mb"`
	SwapUsedMB  int64 `json:"swap_used_mb"`
}

// BatteryStats holds power supply state. LevelPct is -1 when unknown.
type BatteryStats struct {
	LevelPct         int      `json:"level_pct"`
	TemperatureC     *float64 `json:"temperature_c,omitempty"`
	VoltageMillivolt *int     `json:"voltage_mv,omitempty"`
	Health           *string  `json:"health,omitempty"`
	Status           *string  `json:"status,omitempty"`
}

// StorageStats holds data partition capacity in GB
type StorageStats struct {
	InternalFreeGB  float64 `json:"internal_free_gb"`
	InternalTotalGB float64 `json:"internal_total_gb"`
}

// NetworkStats holds cumulative traffic since boot in MB
type NetworkStats struct {
	WifiRssiDbm *int  `json:"wifi_rssi_dbm,omitempty"`
	MobileRxMB  int64 `json:"mobile_rx_mb"`
	MobileTxMB  int64 `json:"mobile_tx_mb"`
	TotalRxMB   int64 `json:"total_rx_mb"`
	TotalTxMB   int64 `json:"total_tx_mb"`
}

// Snapshot is one point-in-time capture of every metric group.
// Snapshots are values; nothing mutates one after the collector returns it.
type Snapshot struct {
	Timestamp int64        `json:"timestamp"` // ms since epoch
	CPU       CPUStats     `json:"cpu"`
	Memory    MemoryStats  `json:"memory"`
	Battery   BatteryStats `json:"battery"`
	Storage   StorageStats `json:"storage"`
	Network   NetworkStats `json:"network"`
}

// Record is a persisted snapshot
type Record struct {
	ID        int64   `json:"id"`
	SessionID *string `json:"session_id,omitempty"`
	Snapshot
}

// AverageStats is the result of an aggregate query over a time range
type AverageStats struct {
	AvgCPULoad      float64 `json:"avg_cpu_load"`
	AvgMemUsedMB    float64 `json:"avg_mem_used_mb"`
	AvgBatteryLevel float64 `json:"avg_battery_level"`
	Samples         int     `json:"samples"`
}

// SessionSummary describes one monitoring run, derived from its records
type SessionSummary struct {
	SessionID string `json:"session_id"`
	Records   int    `json:"records"`
	StartedAt int64  `json:"started_at"`
	EndedAt   int64  `json:"ended_at"`
}

// DatabaseInfo summarizes the store for display
type DatabaseInfo struct {
	TotalRecords    int     `json:"total_records"`
	LatestTimestamp *int64  `json:"latest_timestamp,omitempty"`
	SizeEstimateKB  float64 `json:"size_estimate_kb"`
}

// MonitorState is the background cadence state persisted across restarts
type MonitorState struct {
	Running     bool   `json:"running"`
	SessionID   string `json:"session_id"`
	SampleCount int    `json:"sample_count"`
}

// Event is an entry in the event log
type Event struct {
	ID        int64  `json:"id"`
	Timestamp int64  `json:"timestamp"`
	Level     string `json:"level"`
	Category  string `json:"category"`
	Message   string `json:"message"`
	Details   string `json:"details,omitempty"`
}

// StringPtr returns a pointer to s
func StringPtr(s string) *string { return &s }
