package database

import (
	"context"
	"fmt"
	"strings"
)

// migration is one additive schema step. Steps are applied in order and
// recorded in schema_version; a released step is never edited, only followed
// by a new one.
type migration struct {
	version int
	name    string
	stmts   []string
}

var migrations = []migration{
	{
		version: 1,
		name:    "system stats",
		stmts: []string{`
CREATE TABLE IF NOT EXISTS system_stats (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  timestamp INTEGER NOT NULL,
  session_id TEXT,
  cpu_system_load REAL NOT NULL DEFAULT 0,
  cpu_load_level TEXT NOT NULL DEFAULT 'LOW',
  cpu_running_processes INTEGER NOT NULL DEFAULT 0,
  cpu_online_cores INTEGER NOT NULL DEFAULT 0,
  cpu_temperature_c REAL,
  cpu_context_switches INTEGER NOT NULL DEFAULT 0,
  cpu_freq_mhz_json TEXT NOT NULL DEFAULT '[]',
  mem_total_mb INTEGER NOT NULL DEFAULT 0,
  mem_used_mb INTEGER NOT NULL DEFAULT 0,
  mem_free_mb INTEGER NOT NULL DEFAULT 0,
  mem_cached_mb INTEGER NOT NULL DEFAULT 0,
  mem_swap_total_mb INTEGER NOT NULL DEFAULT 0,
  mem_swap_used_mb INTEGER NOT NULL DEFAULT 0,
  battery_level_pct INTEGER NOT NULL DEFAULT -1,
  battery_temperature_c REAL,
  battery_voltage_mv INTEGER,
  battery_health TEXT,
  battery_status TEXT,
  storage_internal_free_gb REAL NOT NULL DEFAULT 0,
  storage_internal_total_gb REAL NOT NULL DEFAULT 0,
  network_wifi_rssi_dbm INTEGER,
  network_mobile_rx_mb INTEGER NOT NULL DEFAULT 0,
  network_mobile_tx_mb INTEGER NOT NULL DEFAULT 0,
  network_total_rx_mb INTEGER NOT NULL DEFAULT 0,
  network_total_tx_mb INTEGER NOT NULL DEFAULT 0
)`,
			`CREATE INDEX IF NOT EXISTS idx_system_stats_timestamp ON system_stats(timestamp)`,
			`CREATE INDEX IF NOT EXISTS idx_system_stats_session ON system_stats(session_id)`,
		},
	},
	{
		version: 2,
		name:    "monitor state",
		stmts: []string{`
CREATE TABLE IF NOT EXISTS monitor_state (
  id INTEGER PRIMARY KEY CHECK (id = 1),
  running INTEGER NOT NULL DEFAULT 0,
  session_id TEXT,
  sample_count INTEGER NOT NULL DEFAULT 0,
  updated_at INTEGER NOT NULL
)`},
	},
	{
		version: 3,
		name:    "event log",
		stmts: []string{`
CREATE TABLE IF NOT EXISTS events (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  timestamp INTEGER NOT NULL,
  level TEXT NOT NULL,
  category TEXT NOT NULL,
  message TEXT NOT NULL,
  details TEXT
)`,
			`CREATE INDEX IF NOT EXISTS idx_events_timestamp ON events(timestamp)`,
		},
	},
}

// Migrate brings the schema up to date. Running it again is a no-op.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.check(); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_version (
  version INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  applied_at INTEGER NOT NULL
)`); err != nil {
		return fmt.Errorf("create schema_version: %w", err)
	}

	current, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := s.apply(ctx, m); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
	}
	return nil
}

func (s *Store) apply(ctx context.Context, m migration) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range m.stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			// ADD COLUMN has no IF NOT EXISTS; a column left by a partial
			// earlier run is fine.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return err
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_version (version, name, applied_at) VALUES (?, ?, strftime('%s','now'))`,
		m.version, m.name); err != nil {
		return err
	}
	return tx.Commit()
}

// SchemaVersion returns the highest applied migration, 0 for a fresh database
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}
