package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"droidmon/app/internal/models"
)

const recordColumns = `id, timestamp, session_id,
  cpu_system_load, cpu_load_level, cpu_running_processes, cpu_online_cores,
  cpu_temperature_c, cpu_context_switches, cpu_freq_mhz_json,
  mem_total_mb, mem_used_mb, mem_free_mb, mem_cached_mb, mem_swap_total_mb, mem_swap_used_mb,
  battery_level_pct, battery_temperature_c, battery_voltage_mv, battery_health, battery_status,
  storage_internal_free_gb, storage_internal_total_gb,
  network_wifi_rssi_dbm, network_mobile_rx_mb, network_mobile_tx_mb, network_total_rx_mb, network_total_tx_mb`

var insertRecordSQL = `INSERT OR REPLACE INTO system_stats (` + recordColumns + `)
VALUES (` + strings.TrimSuffix(strings.Repeat("?, ", 28), ", ") + `)`

// NewRecord wraps a snapshot for storage. An empty session id stores NULL.
func NewRecord(snap models.Snapshot, sessionID string) models.Record {
	rec := models.Record{Snapshot: snap}
	if sessionID != "" {
		rec.SessionID = models.StringPtr(sessionID)
	}
	return rec
}

// encodeFreqs serializes the per-core frequency list; nil stores as "[]"
func encodeFreqs(freqs []int) string {
	if len(freqs) == 0 {
		return "[]"
	}
	b, err := json.Marshal(freqs)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// decodeFreqs parses a stored frequency list. Corrupt values decode to an empty list.
func decodeFreqs(s string) []int {
	freqs := []int{}
	if err := json.Unmarshal([]byte(s), &freqs); err != nil || freqs == nil {
		return []int{}
	}
	return freqs
}

func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

func recordArgs(rec models.Record) []any {
	var id any
	if rec.ID > 0 {
		id = rec.ID
	}
	c, m, b, st, n := rec.CPU, rec.Memory, rec.Battery, rec.Storage, rec.Network
	return []any{
		id, rec.Timestamp, nullable(rec.SessionID),
		c.SystemLoad, string(c.LoadLevel), c.RunningProcesses, c.OnlineCores,
		nullable(c.TemperatureC), int64(c.ContextSwitches), encodeFreqs(c.CoreFreqMHz),
		m.TotalMB, m.UsedMB, m.FreeMB, m.CachedMB, m.SwapTotalMB, m.SwapUsedMB,
		b.LevelPct, nullable(b.TemperatureC), nullable(b.VoltageMillivolt), nullable(b.Health), nullable(b.Status),
		st.InternalFreeGB, st.InternalTotalGB,
		nullable(n.WifiRssiDbm), n.MobileRxMB, n.MobileTxMB, n.TotalRxMB, n.TotalTxMB,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (models.Record, error) {
	var (
		rec                       models.Record
		sessionID, health, status sql.NullString
		cpuTemp, batteryTemp      sql.NullFloat64
		voltage, rssi             sql.NullInt64
		loadLevel, freqs          string
		contextSwitches           int64
	)
	c, m, b, st, n := &rec.CPU, &rec.Memory, &rec.Battery, &rec.Storage, &rec.Network
	err := row.Scan(
		&rec.ID, &rec.Timestamp, &sessionID,
		&c.SystemLoad, &loadLevel, &c.RunningProcesses, &c.OnlineCores,
		&cpuTemp, &contextSwitches, &freqs,
		&m.TotalMB, &m.UsedMB, &m.FreeMB, &m.CachedMB, &m.SwapTotalMB, &m.SwapUsedMB,
		&b.LevelPct, &batteryTemp, &voltage, &health, &status,
		&st.InternalFreeGB, &st.InternalTotalGB,
		&rssi, &n.MobileRxMB, &n.MobileTxMB, &n.TotalRxMB, &n.TotalTxMB,
	)
	if err != nil {
		return rec, err
	}

	if sessionID.Valid {
		rec.SessionID = &sessionID.String
	}
	c.LoadLevel = models.LoadLevel(loadLevel)
	c.ContextSwitches = uint64(contextSwitches)
	c.CoreFreqMHz = decodeFreqs(freqs)
	if cpuTemp.Valid {
		c.TemperatureC = &cpuTemp.Float64
	}
	if batteryTemp.Valid {
		b.TemperatureC = &batteryTemp.Float64
	}
	if voltage.Valid {
		v := int(voltage.Int64)
		b.VoltageMillivolt = &v
	}
	if health.Valid {
		b.Health = &health.String
	}
	if status.Valid {
		b.Status = &status.String
	}
	if rssi.Valid {
		v := int(rssi.Int64)
		n.WifiRssiDbm = &v
	}
	return rec, nil
}

// Insert stores one record and returns its id. A record carrying an existing
// id replaces that row.
func (s *Store) Insert(ctx context.Context, rec models.Record) (int64, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, insertRecordSQL, recordArgs(rec)...)
	if err != nil {
		return 0, fmt.Errorf("insert record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert record: %w", err)
	}
	s.changed()
	return id, nil
}

// InsertMany stores records in one transaction and returns their ids in order
func (s *Store) InsertMany(ctx context.Context, recs []models.Record) ([]int64, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("insert records: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertRecordSQL)
	if err != nil {
		return nil, fmt.Errorf("insert records: %w", err)
	}
	defer stmt.Close()

	ids := make([]int64, 0, len(recs))
	for _, rec := range recs {
		res, err := stmt.ExecContext(ctx, recordArgs(rec)...)
		if err != nil {
			return nil, fmt.Errorf("insert records: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("insert records: %w", err)
		}
		ids = append(ids, id)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("insert records: %w", err)
	}
	s.changed()
	return ids, nil
}

func (s *Store) queryRecords(ctx context.Context, where string, args ...any) ([]models.Record, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+recordColumns+` FROM system_stats `+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recs := []models.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// All returns every record, newest first
func (s *Store) All(ctx context.Context) ([]models.Record, error) {
	return s.queryRecords(ctx, `ORDER BY timestamp DESC, id DESC`)
}

// Recent returns the newest n records, newest first
func (s *Store) Recent(ctx context.Context, n int) ([]models.Record, error) {
	return s.queryRecords(ctx, `ORDER BY timestamp DESC, id DESC LIMIT ?`, n)
}

// Range returns records with from <= timestamp <= to, newest first
func (s *Store) Range(ctx context.Context, from, to int64) ([]models.Record, error) {
	return s.queryRecords(ctx, `WHERE timestamp >= ? AND timestamp <= ? ORDER BY timestamp DESC, id DESC`, from, to)
}

// BySession returns the records of one session, newest first
func (s *Store) BySession(ctx context.Context, sessionID string) ([]models.Record, error) {
	return s.queryRecords(ctx, `WHERE session_id = ? ORDER BY timestamp DESC, id DESC`, sessionID)
}

// Get returns one record by id, nil when it does not exist
func (s *Store) Get(ctx context.Context, id int64) (*models.Record, error) {
	recs, err := s.queryRecords(ctx, `WHERE id = ?`, id)
	if err != nil || len(recs) == 0 {
		return nil, err
	}
	return &recs[0], nil
}

// Latest returns the newest record, nil when the store is empty
func (s *Store) Latest(ctx context.Context) (*models.Record, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM system_stats ORDER BY timestamp DESC, id DESC LIMIT 1`)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Sessions returns the distinct session ids, most recently active first
func (s *Store) Sessions(ctx context.Context) ([]string, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT session_id FROM system_stats
		WHERE session_id IS NOT NULL
		GROUP BY session_id
		ORDER BY MAX(timestamp) DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Count returns the number of stored records
func (s *Store) Count(ctx context.Context) (int, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM system_stats`).Scan(&n)
	return n, err
}

func (s *Store) deleteWhere(ctx context.Context, where string, args ...any) (int, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM system_stats `+where, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.changed()
	}
	return int(n), nil
}

// DeleteOld removes records with timestamp < cutoff and returns how many
func (s *Store) DeleteOld(ctx context.Context, cutoff int64) (int, error) {
	return s.deleteWhere(ctx, `WHERE timestamp < ?`, cutoff)
}

// DeleteOlderThanDays removes records captured more than days ago
func (s *Store) DeleteOlderThanDays(ctx context.Context, days int, now time.Time) (int, error) {
	return s.DeleteOld(ctx, now.Add(-time.Duration(days)*24*time.Hour).UnixMilli())
}

// DeleteSession removes the records of one session and returns how many
func (s *Store) DeleteSession(ctx context.Context, sessionID string) (int, error) {
	return s.deleteWhere(ctx, `WHERE session_id = ?`, sessionID)
}

// DeleteAll removes every record and returns how many
func (s *Store) DeleteAll(ctx context.Context) (int, error) {
	return s.deleteWhere(ctx, ``)
}
