package mot

import (
	"math"

	"github.com/pkg/errors"
)

// Identity is a stable handle of a tracked object. Allocated monotonically starting from zero, never reused.
type Identity int64

// TrackedObject is the tracker's view on a single object.
type TrackedObject struct {
	ID       Identity
	Position Point
	// PreviousPosition is the position at the prior successful update. Valid only when HasPrevious is true
	PreviousPosition Point
	HasPrevious      bool
	// Number of consecutive updates without matching detection
	FramesSinceSeen int
}

// Track is an element of tracker output: identity and its current position.
type Track struct {
	ID       Identity
	Position Point
}

// TrackerOption configures optional CentroidTracker parameters
type TrackerOption func(*CentroidTracker)

// WithMatchingAlgorithm sets algorithm used to match detections to existing objects
func WithMatchingAlgorithm(algorithm MatchingAlgorithm) TrackerOption {
	return func(tracker *CentroidTracker) {
		tracker.algorithm = algorithm
	}
}

// CentroidTracker assigns stable identities to unordered sets of centroids.
// It is not safe for concurrent use: callers must serialize Update calls.
type CentroidTracker struct {
	// Main storage
	objects map[Identity]*TrackedObject
	// Registration order of live objects. Since identities are monotonic it is sorted ascending
	order []Identity
	// Next identity to allocate
	nextID Identity
	// Max number of consecutive updates object could be missing before deregistration. Default 30
	maxDisappeared int
	// Max distance (in pixels) between object and detection to be considered a match. Default 80.0
	maxTrackingDistance float64
	// Algorithm to use for matching
	algorithm MatchingAlgorithm
}

// NewCentroidTrackerDefault creates default instance of CentroidTracker
func NewCentroidTrackerDefault() *CentroidTracker {
	return &CentroidTracker{
		objects:             make(map[Identity]*TrackedObject),
		order:               make([]Identity, 0),
		maxDisappeared:      30,
		maxTrackingDistance: 80.0,
		algorithm:           MatchingAlgorithmGreedy,
	}
}

// NewCentroidTracker creates new instance of CentroidTracker
func NewCentroidTracker(maxDisappeared int, maxTrackingDistance float64, options ...TrackerOption) (*CentroidTracker, error) {
	if maxDisappeared < 0 {
		return nil, errors.Wrapf(ErrConfiguration, "max disappeared must be non-negative, got %d", maxDisappeared)
	}
	if maxTrackingDistance <= 0 || math.IsNaN(maxTrackingDistance) || math.IsInf(maxTrackingDistance, 0) {
		return nil, errors.Wrapf(ErrConfiguration, "max tracking distance must be positive finite number, got %f", maxTrackingDistance)
	}
	tracker := &CentroidTracker{
		objects:             make(map[Identity]*TrackedObject),
		order:               make([]Identity, 0),
		maxDisappeared:      maxDisappeared,
		maxTrackingDistance: maxTrackingDistance,
		algorithm:           MatchingAlgorithmGreedy,
	}
	for _, option := range options {
		option(tracker)
	}
	if tracker.algorithm != MatchingAlgorithmGreedy && tracker.algorithm != MatchingAlgorithmHungarian {
		return nil, errors.Wrapf(ErrConfiguration, "unknown matching algorithm %d", tracker.algorithm)
	}
	return tracker, nil
}

// Update matches detections of the current frame to tracked objects.
// Returns live objects in registration order.
func (tracker *CentroidTracker) Update(detections []Point) ([]Track, error) {
	for i, detection := range detections {
		if !detection.IsFinite() {
			return nil, errors.Wrapf(ErrInvalidInput, "detection #%d has non-finite coordinates (%f, %f)", i, detection.X, detection.Y)
		}
	}

	if len(detections) == 0 {
		for _, objectID := range tracker.snapshotOrder() {
			tracker.markDisappeared(objectID)
		}
		return tracker.Objects(), nil
	}

	if len(tracker.order) == 0 {
		for _, detection := range detections {
			tracker.register(detection)
		}
		return tracker.Objects(), nil
	}

	objectIDs := tracker.snapshotOrder()
	objectCenters := make([]Point, len(objectIDs))
	for i, objectID := range objectIDs {
		objectCenters[i] = tracker.objects[objectID].Position
	}

	dist := distanceMatrix(objectCenters, detections)
	var matches [][2]int
	switch tracker.algorithm {
	case MatchingAlgorithmHungarian:
		matches = hungarianMatching(dist, tracker.maxTrackingDistance)
	default:
		matches = greedyMatching(dist, tracker.maxTrackingDistance)
	}

	usedRows := make([]bool, len(objectIDs))
	usedCols := make([]bool, len(detections))
	for _, match := range matches {
		row, col := match[0], match[1]
		object := tracker.objects[objectIDs[row]]
		object.PreviousPosition = object.Position
		object.HasPrevious = true
		object.Position = detections[col]
		object.FramesSinceSeen = 0
		usedRows[row] = true
		usedCols[col] = true
	}

	for row, used := range usedRows {
		if !used {
			tracker.markDisappeared(objectIDs[row])
		}
	}

	for col, used := range usedCols {
		if !used {
			tracker.register(detections[col])
		}
	}

	return tracker.Objects(), nil
}

// Objects returns live objects in registration order
func (tracker *CentroidTracker) Objects() []Track {
	tracks := make([]Track, 0, len(tracker.order))
	for _, objectID := range tracker.order {
		tracks = append(tracks, Track{
			ID:       objectID,
			Position: tracker.objects[objectID].Position,
		})
	}
	return tracks
}

// Object returns copy of tracked object state
func (tracker *CentroidTracker) Object(objectID Identity) (TrackedObject, bool) {
	object, ok := tracker.objects[objectID]
	if !ok {
		return TrackedObject{}, false
	}
	return *object, true
}

// Len returns number of live objects
func (tracker *CentroidTracker) Len() int {
	return len(tracker.order)
}

// NextID returns identity which will be allocated for the next registered object
func (tracker *CentroidTracker) NextID() Identity {
	return tracker.nextID
}

func (tracker *CentroidTracker) register(center Point) {
	objectID := tracker.nextID
	tracker.objects[objectID] = &TrackedObject{
		ID:       objectID,
		Position: center,
	}
	tracker.order = append(tracker.order, objectID)
	tracker.nextID++
}

func (tracker *CentroidTracker) deregister(objectID Identity) {
	delete(tracker.objects, objectID)
	for i := range tracker.order {
		if tracker.order[i] == objectID {
			tracker.order = append(tracker.order[:i], tracker.order[i+1:]...)
			break
		}
	}
}

// markDisappeared increments no-match counter and removes object if it was not found for a long time
func (tracker *CentroidTracker) markDisappeared(objectID Identity) {
	object := tracker.objects[objectID]
	object.FramesSinceSeen++
	if object.FramesSinceSeen > tracker.maxDisappeared {
		tracker.deregister(objectID)
	}
}

// snapshotOrder copies registration order so deregistration does not disturb iteration
func (tracker *CentroidTracker) snapshotOrder() []Identity {
	ids := make([]Identity, len(tracker.order))
	copy(ids, tracker.order)
	return ids
}
