package database

import (
	"context"
	"fmt"
	"time"

	"droidmon/app/internal/models"
)

// Event levels
const (
	EventInfo  = "info"
	EventWarn  = "warn"
	EventError = "error"
)

// Event categories
const (
	CategoryMonitoring = "monitoring"
	CategoryAlert      = "alert"
	CategoryRetention  = "retention"
	CategorySystem     = "system"
)

// InsertEvent appends an entry to the event log
func (s *Store) InsertEvent(ctx context.Context, level, category, message, details string) error {
	if err := s.check(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO events (timestamp, level, category, message, details)
		VALUES (?, ?, ?, ?, ?)`,
		time.Now().UnixMilli(), level, category, message, details)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// Events returns the newest entries first, optionally filtered by level and category
func (s *Store) Events(ctx context.Context, limit int, level, category string) ([]models.Event, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	query := `SELECT id, timestamp, level, category, message, COALESCE(details, '')
		FROM events WHERE 1=1`
	args := []any{}

	if level != "" {
		query += " AND level = ?"
		args = append(args, level)
	}
	if category != "" {
		query += " AND category = ?"
		args = append(args, category)
	}

	query += " ORDER BY timestamp DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Level, &e.Category, &e.Message, &e.Details); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// PruneEvents keeps only the newest keep entries
func (s *Store) PruneEvents(ctx context.Context, keep int) (int, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE id NOT IN (
		SELECT id FROM events ORDER BY timestamp DESC, id DESC LIMIT ?
	)`, keep)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}
