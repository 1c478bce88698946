package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"droidmon/app/internal/cache"
	"droidmon/app/internal/models"

	_ "modernc.org/sqlite"
)

// ErrClosed is returned by every operation after Close
var ErrClosed = errors.New("database: store is closed")

// Store is the embedded SQLite store for stored records, monitor state and
// the event log. All methods are safe for concurrent use; SQLite runs on a
// single connection so writes are serialized and readers never see a
// half-written row.
type Store struct {
	db     *sql.DB
	closed atomic.Bool

	averages   *cache.Cache[*models.AverageStats]
	generation atomic.Uint64 // bumped on every write; part of the cache key

	mu      sync.Mutex
	waiters map[chan struct{}]struct{}
}

// Open opens (or creates) the database at path and applies pending migrations.
// Use ":memory:" for a throwaway store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{
		db:       db,
		averages: cache.New[*models.AverageStats](30 * time.Second),
		waiters:  make(map[chan struct{}]struct{}),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err = db.ExecContext(ctx, `PRAGMA busy_timeout = 5000`); err != nil {
		err = fmt.Errorf("configure database: %w", err)
	} else {
		err = s.Migrate(ctx)
	}
	if err != nil {
		s.averages.Stop()
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the database. Pending subscriptions end when their contexts do.
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.averages.Stop()
	return s.db.Close()
}

func (s *Store) check() error {
	if s.closed.Load() {
		return ErrClosed
	}
	return nil
}

// changed invalidates cached aggregates and wakes every subscription
func (s *Store) changed() {
	s.generation.Add(1)
	s.averages.Clear()

	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.waiters {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (s *Store) subscribe() chan struct{} {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	s.waiters[ch] = struct{}{}
	s.mu.Unlock()
	return ch
}

func (s *Store) unsubscribe(ch chan struct{}) {
	s.mu.Lock()
	delete(s.waiters, ch)
	s.mu.Unlock()
}
