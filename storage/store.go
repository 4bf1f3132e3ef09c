package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/LdDl/perimeter-go/events"
	"github.com/LdDl/perimeter-go/internal/log"
)

// DefaultRecentLimit is used by RecentEvents for non-positive limits
const DefaultRecentLimit = 10

// StoredEvent is an event row
type StoredEvent struct {
	ID        int64  `json:"id"`
	EventUID  string `json:"event_id,omitempty"`
	Timestamp string `json:"timestamp"`
	EventType string `json:"event_type"`
	Value     int    `json:"value"`
}

// Store persists events in SQLite. It is safe for concurrent use.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) database at path and applies migrations.
// Use ":memory:" for a throwaway database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows a single writer; in-memory databases are per connection
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set pragmas: %w", err)
	}
	s := &Store{db: db}
	if err := s.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	log.Info("database initialized", "path", path)
	return s, nil
}

// InsertEvent stores event and returns its row id.
// Events with an already stored event_id are not inserted twice: id of the existing row is returned.
func (s *Store) InsertEvent(ctx context.Context, event events.Event) (int64, error) {
	if err := event.Validate(); err != nil {
		return 0, err
	}
	var uid sql.NullString
	if event.ID != "" {
		uid = sql.NullString{String: event.ID, Valid: true}
		var existing int64
		err := s.db.QueryRowContext(ctx, `SELECT id FROM events WHERE event_uid = ?`, uid).Scan(&existing)
		if err == nil {
			return existing, nil
		}
		if err != sql.ErrNoRows {
			return 0, fmt.Errorf("failed to look up event: %w", err)
		}
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO events (event_uid, timestamp, event_type, value) VALUES (?, ?, ?, ?)`,
		uid, event.Timestamp, event.EventType, event.Value,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert event: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get event id: %w", err)
	}
	log.Debug("event stored", "event_type", event.EventType, "timestamp", event.Timestamp, "id", id)
	return id, nil
}

// Submit makes Store usable as events.Sink
func (s *Store) Submit(ctx context.Context, event events.Event) error {
	_, err := s.InsertEvent(ctx, event)
	return err
}

// RecentEvents returns up to limit most recent events, newest first
func (s *Store) RecentEvents(ctx context.Context, limit int) ([]StoredEvent, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, event_uid, timestamp, event_type, value FROM events ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	result := make([]StoredEvent, 0, limit)
	for rows.Next() {
		var (
			e   StoredEvent
			uid sql.NullString
		)
		if err := rows.Scan(&e.ID, &uid, &e.Timestamp, &e.EventType, &e.Value); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e.EventUID = uid.String
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}
	return result, nil
}

// Close closes database connection
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return err
	}
	log.Info("database connection closed")
	return nil
}
