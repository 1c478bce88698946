package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	// Storage
	DBPath        string `yaml:"db_path"`
	RetentionDays int    `yaml:"retention_days"` // 0 disables automatic pruning

	// Control API
	ListenAddr string `yaml:"listen_addr"`

	// Cadences
	EnableLive         bool          `yaml:"enable_live"`
	LiveInterval       time.Duration `yaml:"live_interval"`
	BackgroundInterval time.Duration `yaml:"background_interval"`
	MinSleep           time.Duration `yaml:"min_sleep"`
	LiveBufferSize     int           `yaml:"live_buffer_size"`

	// Alerts
	CPUAlertThreshold float64 `yaml:"cpu_alert_threshold"`
	WebhookURL        string  `yaml:"webhook_url"`
	WebhookSecret     string  `yaml:"webhook_secret"`

	// Counter sources
	ProcRoot           string   `yaml:"proc_root"`
	SysRoot            string   `yaml:"sys_root"`
	DataDir            string   `yaml:"data_dir"`
	BatterySupply      string   `yaml:"battery_supply"`
	CellularPrefixes   []string `yaml:"cellular_prefixes"`
	LocationPermission bool     `yaml:"location_permission"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogOutput string `yaml:"log_output"`
	LogFile   string `yaml:"log_file"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		DBPath:             "./droidmon.db",
		ListenAddr:         "127.0.0.1:4556",
		EnableLive:         true,
		LiveInterval:       time.Second,
		BackgroundInterval: 30 * time.Second,
		MinSleep:           time.Second,
		LiveBufferSize:     40,
		CPUAlertThreshold:  80.0,
		ProcRoot:           "/proc",
		SysRoot:            "/sys",
		DataDir:            "/",
		BatterySupply:      "battery",
		CellularPrefixes:   []string{"rmnet", "ccmni", "wwan", "pdp"},
		LogLevel:           "info",
		LogOutput:          "console",
		LogFile:            "./logs/droidmon.log",
	}
}

// Load builds the configuration from defaults, an optional YAML file named by
// CONFIG_PATH, and environment variables (a .env file is loaded first if present).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path := getenv("CONFIG_PATH", ""); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.DBPath = getenv("DB_PATH", c.DBPath)
	c.RetentionDays = envInt("RETENTION_DAYS", c.RetentionDays)
	c.ListenAddr = getenv("LISTEN_ADDR", c.ListenAddr)

	c.EnableLive = envBool("ENABLE_LIVE", c.EnableLive)
	c.LiveInterval = envDurMillis("LIVE_INTERVAL_MS", c.LiveInterval)
	c.BackgroundInterval = envDurSecs("BACKGROUND_INTERVAL_SECONDS", c.BackgroundInterval)
	c.MinSleep = envDurMillis("MIN_SLEEP_MS", c.MinSleep)
	c.LiveBufferSize = envInt("LIVE_BUFFER_SIZE", c.LiveBufferSize)

	c.CPUAlertThreshold = envFloat("CPU_ALERT_THRESHOLD", c.CPUAlertThreshold)
	c.WebhookURL = strings.TrimSpace(getenv("ALERT_WEBHOOK_URL", c.WebhookURL))
	c.WebhookSecret = getenv("ALERT_WEBHOOK_SECRET", c.WebhookSecret)

	c.ProcRoot = strings.TrimSuffix(getenv("PROC_ROOT", c.ProcRoot), "/")
	c.SysRoot = strings.TrimSuffix(getenv("SYS_ROOT", c.SysRoot), "/")
	c.DataDir = getenv("DATA_DIR", c.DataDir)
	c.BatterySupply = getenv("BATTERY_SUPPLY", c.BatterySupply)
	if v := getenv("CELLULAR_IFACE_PREFIXES", ""); v != "" {
		c.CellularPrefixes = splitList(v)
	}
	c.LocationPermission = envBool("LOCATION_PERMISSION", c.LocationPermission)

	c.LogLevel = strings.ToLower(getenv("LOG_LEVEL", c.LogLevel))
	c.LogOutput = strings.ToLower(getenv("LOG_OUTPUT", c.LogOutput))
	c.LogFile = getenv("LOG_FILE", c.LogFile)
}

// Validate rejects settings the cadences cannot run with
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH must not be empty")
	}
	if c.LiveInterval <= 0 {
		return fmt.Errorf("live interval must be positive, got %v", c.LiveInterval)
	}
	if c.BackgroundInterval <= 0 {
		return fmt.Errorf("background interval must be positive, got %v", c.BackgroundInterval)
	}
	if c.MinSleep <= 0 {
		return fmt.Errorf("minimum sleep must be positive, got %v", c.MinSleep)
	}
	if c.LiveBufferSize <= 0 {
		return fmt.Errorf("live buffer size must be positive, got %d", c.LiveBufferSize)
	}
	if c.RetentionDays < 0 {
		return fmt.Errorf("retention days must not be negative, got %d", c.RetentionDays)
	}
	return nil
}

// Helper functions
func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envBool(k string, def bool) bool {
	v := strings.ToLower(getenv(k, ""))
	if v == "" {
		return def
	}
	return v == "1" || v == "true" || v == "yes"
}

func envDurSecs(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Second
		}
	}
	return def
}

func envDurMillis(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Millisecond
		}
	}
	return def
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
