package database

import (
	"context"
	"database/sql"
	"fmt"

	"droidmon/app/internal/models"
)

// recordSizeKB is the rough on-disk footprint of one stored record
const recordSizeKB = 0.5

// Averages returns the mean CPU load, memory used and battery level over
// from <= timestamp <= to, computed by SQLite. Nil when the range is empty.
// Results are cached until the next write.
func (s *Store) Averages(ctx context.Context, from, to int64) (*models.AverageStats, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	key := fmt.Sprintf("avg:%d:%d:%d", s.generation.Load(), from, to)
	return s.averages.GetOrLoad(key, func() (*models.AverageStats, error) {
		var (
			cpu, memUsed, battery sql.NullFloat64
			samples               int
		)
		err := s.db.QueryRowContext(ctx, `SELECT AVG(cpu_system_load), AVG(mem_used_mb), AVG(battery_level_pct), COUNT(*)
			FROM system_stats WHERE timestamp >= ? AND timestamp <= ?`, from, to).
			Scan(&cpu, &memUsed, &battery, &samples)
		if err != nil {
			return nil, fmt.Errorf("average stats: %w", err)
		}
		if samples == 0 {
			return nil, nil
		}
		return &models.AverageStats{
			AvgCPULoad:      cpu.Float64,
			AvgMemUsedMB:    memUsed.Float64,
			AvgBatteryLevel: battery.Float64,
			Samples:         samples,
		}, nil
	})
}

// Info summarizes the store for display
func (s *Store) Info(ctx context.Context) (models.DatabaseInfo, error) {
	var info models.DatabaseInfo
	if err := s.check(); err != nil {
		return info, err
	}
	var latest sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*), MAX(timestamp) FROM system_stats`).
		Scan(&info.TotalRecords, &latest)
	if err != nil {
		return info, fmt.Errorf("database info: %w", err)
	}
	if latest.Valid {
		info.LatestTimestamp = &latest.Int64
	}
	info.SizeEstimateKB = float64(info.TotalRecords) * recordSizeKB
	return info, nil
}

// SessionSummaries describes every session from its records, most recently
// active first
func (s *Store) SessionSummaries(ctx context.Context) ([]models.SessionSummary, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT session_id, COUNT(*), MIN(timestamp), MAX(timestamp)
		FROM system_stats
		WHERE session_id IS NOT NULL
		GROUP BY session_id
		ORDER BY MAX(timestamp) DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.SessionSummary{}
	for rows.Next() {
		var sum models.SessionSummary
		if err := rows.Scan(&sum.SessionID, &sum.Records, &sum.StartedAt, &sum.EndedAt); err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}
