package alerts

import (
	"context"
	"encoding/json"

	"droidmon/app/internal/database"
	"droidmon/app/internal/logger"

	"go.uber.org/zap"
)

// LogNotifier writes alerts to the process log
type LogNotifier struct{}

func (LogNotifier) Name() string { return "log" }

func (LogNotifier) Notify(_ context.Context, a Alert) error {
	logger.Warn("CPU load alert",
		zap.String("alert_id", a.ID),
		zap.Float64("load", a.Value),
		zap.Float64("threshold", a.Threshold),
		zap.String("session_id", a.SessionID))
	return nil
}

// EventWriter is the part of the store the event notifier needs
type EventWriter interface {
	InsertEvent(ctx context.Context, level, category, message, details string) error
}

// EventNotifier records alerts in the event log
type EventNotifier struct {
	Events EventWriter
}

func (n EventNotifier) Name() string { return "event-log" }

func (n EventNotifier) Notify(ctx context.Context, a Alert) error {
	details, err := json.Marshal(map[string]any{
		"alert_id":   a.ID,
		"value":      a.Value,
		"threshold":  a.Threshold,
		"session_id": a.SessionID,
		"timestamp":  a.Timestamp,
	})
	if err != nil {
		return err
	}
	return n.Events.InsertEvent(ctx, database.EventWarn, database.CategoryAlert, a.Message, string(details))
}
