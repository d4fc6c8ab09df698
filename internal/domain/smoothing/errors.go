package smoothing

import "errors"

// Sentinel kinds for smoothing errors.
var (
	ErrInvalidWindow  = errors.New("invalid smoothing window")
	ErrInvalidBounds  = errors.New("stream end precedes start")
	ErrUnsortedEvents = errors.New("stream events are not sorted by timestamp")
)
