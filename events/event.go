package events

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	// EventTypeIntrusion is emitted when a tracked object crosses the perimeter
	EventTypeIntrusion = "intrusion_detected"
	// EventTypeMotion carries motion intensity of a frame
	EventTypeMotion = "motion_detected"

	// TimestampLayout is ISO-8601 in UTC with microseconds and "Z" suffix
	TimestampLayout = "2006-01-02T15:04:05.000000Z"
)

// ErrMissingFields is returned by Validate for incomplete events
var ErrMissingFields = errors.New("missing required fields")

// Event is the record handed to event sinks.
type Event struct {
	// ID is optional. Sinks may use it as idempotency key
	ID        string `json:"event_id,omitempty"`
	Timestamp string `json:"timestamp"`
	EventType string `json:"event_type"`
	Value     int    `json:"value"`
}

// NewIntrusionEvent creates intrusion event stamped with the given time
func NewIntrusionEvent(now time.Time) Event {
	return Event{
		ID:        uuid.NewString(),
		Timestamp: FormatTimestamp(now),
		EventType: EventTypeIntrusion,
		Value:     1,
	}
}

// NewMotionEvent creates motion event with intensity as value
func NewMotionEvent(now time.Time, intensity int) Event {
	return Event{
		ID:        uuid.NewString(),
		Timestamp: FormatTimestamp(now),
		EventType: EventTypeMotion,
		Value:     intensity,
	}
}

// FormatTimestamp formats time as UTC ISO-8601 string
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Validate checks that required fields are filled
func (e Event) Validate() error {
	if e.Timestamp == "" {
		return fmt.Errorf("%w: timestamp", ErrMissingFields)
	}
	if e.EventType == "" {
		return fmt.Errorf("%w: event_type", ErrMissingFields)
	}
	if e.ID != "" {
		if _, err := uuid.Parse(e.ID); err != nil {
			return fmt.Errorf("bad event_id %q: %w", e.ID, err)
		}
	}
	return nil
}

func (e Event) String() string {
	return fmt.Sprintf("%s at %s (value %d)", e.EventType, e.Timestamp, e.Value)
}
