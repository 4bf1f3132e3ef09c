package mot

import "github.com/pkg/errors"

var (
	// ErrInvalidInput is returned when detections contain malformed points (NaN or infinite coordinates).
	// Tracker state is left untouched in that case.
	ErrInvalidInput = errors.New("invalid input")
	// ErrConfiguration is returned by constructors for unusable parameters.
	ErrConfiguration = errors.New("configuration error")
)
