package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"droidmon/app/internal/models"
)

// LoadMonitorState reads the persisted background cadence state. A store that
// never saved one reports the idle zero value.
func (s *Store) LoadMonitorState(ctx context.Context) (models.MonitorState, error) {
	var st models.MonitorState
	if err := s.check(); err != nil {
		return st, err
	}
	var (
		running   int
		sessionID sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `SELECT running, session_id, sample_count FROM monitor_state WHERE id = 1`).
		Scan(&running, &sessionID, &st.SampleCount)
	if errors.Is(err, sql.ErrNoRows) {
		return models.MonitorState{}, nil
	}
	if err != nil {
		return st, fmt.Errorf("load monitor state: %w", err)
	}
	st.Running = running == 1
	st.SessionID = sessionID.String
	return st, nil
}

// SaveMonitorState persists the background cadence state
func (s *Store) SaveMonitorState(ctx context.Context, st models.MonitorState) error {
	if err := s.check(); err != nil {
		return err
	}
	running := 0
	if st.Running {
		running = 1
	}
	var sessionID any
	if st.SessionID != "" {
		sessionID = st.SessionID
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO monitor_state (id, running, session_id, sample_count, updated_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		running = excluded.running,
		session_id = excluded.session_id,
		sample_count = excluded.sample_count,
		updated_at = excluded.updated_at`,
		running, sessionID, st.SampleCount, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("save monitor state: %w", err)
	}
	return nil
}

// ClearMonitorState resets the persisted state to idle
func (s *Store) ClearMonitorState(ctx context.Context) error {
	return s.SaveMonitorState(ctx, models.MonitorState{})
}
