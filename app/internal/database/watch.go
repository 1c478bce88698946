package database

import (
	"context"

	"droidmon/app/internal/logger"
	"droidmon/app/internal/models"

	"go.uber.org/zap"
)

// watch emits the query result once, then again after every write to the
// store, until ctx is done. Writes that land while a result is being
// delivered coalesce into one re-query. The channel closes when ctx ends.
func watch[T any](ctx context.Context, s *Store, name string, query func(context.Context) (T, error)) <-chan T {
	out := make(chan T)
	wake := s.subscribe()

	go func() {
		defer close(out)
		defer s.unsubscribe(wake)

		for {
			v, err := query(ctx)
			switch {
			case ctx.Err() != nil:
				return
			case err != nil:
				logger.Warn("subscription query failed", zap.String("query", name), zap.Error(err))
			default:
				select {
				case out <- v:
				case <-ctx.Done():
					return
				}
			}

			select {
			case <-wake:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// WatchAll re-emits every record, newest first, whenever the data changes
func (s *Store) WatchAll(ctx context.Context) <-chan []models.Record {
	return watch(ctx, s, "all", s.All)
}

// WatchRecent re-emits the newest n records
func (s *Store) WatchRecent(ctx context.Context, n int) <-chan []models.Record {
	return watch(ctx, s, "recent", func(ctx context.Context) ([]models.Record, error) {
		return s.Recent(ctx, n)
	})
}

// WatchRange re-emits the records in [from, to]
func (s *Store) WatchRange(ctx context.Context, from, to int64) <-chan []models.Record {
	return watch(ctx, s, "range", func(ctx context.Context) ([]models.Record, error) {
		return s.Range(ctx, from, to)
	})
}

// WatchSession re-emits the records of one session
func (s *Store) WatchSession(ctx context.Context, sessionID string) <-chan []models.Record {
	return watch(ctx, s, "session", func(ctx context.Context) ([]models.Record, error) {
		return s.BySession(ctx, sessionID)
	})
}

// WatchSessions re-emits the distinct session ids
func (s *Store) WatchSessions(ctx context.Context) <-chan []string {
	return watch(ctx, s, "sessions", s.Sessions)
}

// WatchCount re-emits the record count
func (s *Store) WatchCount(ctx context.Context) <-chan int {
	return watch(ctx, s, "count", s.Count)
}

// WatchLatest re-emits the newest record (nil when empty)
func (s *Store) WatchLatest(ctx context.Context) <-chan *models.Record {
	return watch(ctx, s, "latest", s.Latest)
}
