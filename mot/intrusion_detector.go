package mot

import (
	"time"

	"github.com/pkg/errors"
)

// Clock is a source of monotonic time. time.Now satisfies it via ClockFunc
type Clock interface {
	Now() time.Time
}

// ClockFunc is an adapter to allow the use of ordinary functions as Clock
type ClockFunc func() time.Time

// Now calls f()
func (f ClockFunc) Now() time.Time {
	return f()
}

// DetectorOption configures optional IntrusionDetector parameters
type DetectorOption func(*IntrusionDetector)

// WithClock overrides time source used for cooldown. Default is time.Now
func WithClock(clock Clock) DetectorOption {
	return func(detector *IntrusionDetector) {
		detector.clock = clock
	}
}

// WithMatchedOnly restricts crossing checks to objects matched in the current update.
// By default every object with a previous position is checked, including objects
// that kept their last movement segment because no detection matched them.
func WithMatchedOnly() DetectorOption {
	return func(detector *IntrusionDetector) {
		detector.matchedOnly = true
	}
}

// Crossing is the result of a single IntrusionDetector.Update call
type Crossing struct {
	// Crossed is true when some object crossed the perimeter and was not suppressed by cooldown
	Crossed bool
	// Objects are live tracked objects in registration order
	Objects []Track
	// ObjectID is the crossed object. Valid only when Crossed is true
	ObjectID Identity
	// At is the time the update was evaluated
	At time.Time
}

// IntrusionDetector detects tracked objects crossing perimeter line.
// At most one crossing is reported per Update call, even if several objects cross simultaneously.
type IntrusionDetector struct {
	tracker  *CentroidTracker
	line     PerimeterLine
	cooldown time.Duration
	clock    Clock
	// Skip objects with FramesSinceSeen > 0
	matchedOnly bool
	// Object ID -> time of last reported crossing. Entries are never removed
	lastEventTime map[Identity]time.Time
}

// NewIntrusionDetector creates new instance of IntrusionDetector
func NewIntrusionDetector(tracker *CentroidTracker, line PerimeterLine, cooldown time.Duration, options ...DetectorOption) (*IntrusionDetector, error) {
	if tracker == nil {
		return nil, errors.Wrap(ErrConfiguration, "tracker must be provided")
	}
	if cooldown <= 0 {
		return nil, errors.Wrapf(ErrConfiguration, "cooldown must be positive, got %s", cooldown)
	}
	if !line.A.IsFinite() || !line.B.IsFinite() {
		return nil, errors.Wrap(ErrConfiguration, "perimeter line endpoints must be finite")
	}
	if line.Length() == 0 {
		return nil, errors.Wrapf(ErrConfiguration, "perimeter line is degenerate: (%f, %f)-(%f, %f)", line.A.X, line.A.Y, line.B.X, line.B.Y)
	}
	detector := &IntrusionDetector{
		tracker:       tracker,
		line:          line,
		cooldown:      cooldown,
		clock:         ClockFunc(time.Now),
		lastEventTime: make(map[Identity]time.Time),
	}
	for _, option := range options {
		option(detector)
	}
	if detector.clock == nil {
		return nil, errors.Wrap(ErrConfiguration, "clock must not be nil")
	}
	return detector, nil
}

// Update feeds detections to the tracker and checks tracked objects for perimeter crossing.
// Objects are examined in registration order and scanning stops at the first reported crossing.
func (detector *IntrusionDetector) Update(detections []Point) (Crossing, error) {
	objects, err := detector.tracker.Update(detections)
	if err != nil {
		return Crossing{}, errors.Wrap(err, "can't update tracker")
	}
	now := detector.clock.Now()
	result := Crossing{
		Objects: objects,
		At:      now,
	}
	for _, track := range objects {
		object, ok := detector.tracker.objects[track.ID]
		if !ok || !object.HasPrevious {
			continue
		}
		if detector.matchedOnly && object.FramesSinceSeen != 0 {
			continue
		}
		if !detector.line.Crossed(object.PreviousPosition, object.Position) {
			continue
		}
		if last, ok := detector.lastEventTime[track.ID]; ok && now.Sub(last) < detector.cooldown {
			continue
		}
		detector.lastEventTime[track.ID] = now
		result.Crossed = true
		result.ObjectID = track.ID
		break
	}
	return result, nil
}

// Tracker returns underlying tracker
func (detector *IntrusionDetector) Tracker() *CentroidTracker {
	return detector.tracker
}

// Line returns configured perimeter line
func (detector *IntrusionDetector) Line() PerimeterLine {
	return detector.line
}

// LastEventTime returns time of the last reported crossing for the given object
func (detector *IntrusionDetector) LastEventTime(objectID Identity) (time.Time, bool) {
	t, ok := detector.lastEventTime[objectID]
	return t, ok
}
