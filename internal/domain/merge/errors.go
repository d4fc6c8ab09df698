package merge

import "errors"

// Sentinel kinds for merge errors.
var (
	ErrUnsortedEvents = errors.New("stream events are not sorted by timestamp")
)
