package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LdDl/perimeter-go/events"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "events.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenAppliesMigrations(t *testing.T) {
	s := openTestStore(t)
	version, dirty, err := s.MigrateVersion()
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(2), version)

	// Running again is a no-op
	require.NoError(t, s.MigrateUp())
}

func TestReopenKeepsEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.db")
	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.InsertEvent(context.Background(), events.NewIntrusionEvent(time.Now()))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.RecentEvents(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestInsertAndRecentEvents(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		_, err := s.InsertEvent(ctx, events.NewIntrusionEvent(base.Add(time.Duration(i)*time.Second)))
		require.NoError(t, err)
	}
	_, err := s.InsertEvent(ctx, events.Event{Timestamp: "2024-01-01T00:00:10.000000Z", EventType: events.EventTypeMotion, Value: 7})
	require.NoError(t, err)

	got, err := s.RecentEvents(ctx, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)

	want := StoredEvent{ID: 6, Timestamp: "2024-01-01T00:00:10.000000Z", EventType: events.EventTypeMotion, Value: 7}
	if diff := cmp.Diff(want, got[0]); diff != "" {
		t.Errorf("newest event mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, int64(5), got[1].ID)
	assert.Equal(t, "2024-01-01T00:00:04.000000Z", got[1].Timestamp)
	assert.NotEmpty(t, got[1].EventUID)
	assert.Equal(t, int64(4), got[2].ID)

	all, err := s.RecentEvents(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 6)
}

func TestInsertEventIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	e := events.NewIntrusionEvent(time.Now())

	first, err := s.InsertEvent(ctx, e)
	require.NoError(t, err)
	second, err := s.InsertEvent(ctx, e)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	got, err := s.RecentEvents(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestInsertEventValidates(t *testing.T) {
	s := openTestStore(t)
	_, err := s.InsertEvent(context.Background(), events.Event{EventType: events.EventTypeIntrusion})
	assert.ErrorIs(t, err, events.ErrMissingFields)
}

func TestStoreAsSink(t *testing.T) {
	s := openTestStore(t)
	var sink events.Sink = s
	d := events.NewDispatcher(sink, 4, time.Second)
	require.True(t, d.Dispatch(events.NewIntrusionEvent(time.Now())))
	d.Close()

	got, err := s.RecentEvents(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, events.EventTypeIntrusion, got[0].EventType)
	assert.Equal(t, 1, got[0].Value)
}
