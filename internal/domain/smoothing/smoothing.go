// Package smoothing turns an irregular damage stream into a dense damage
// rate curve using a moving-sum window.
package smoothing

import (
	"fmt"
	"strings"

	"github.com/okian/combatlog/internal/domain/model"
)

// Mode selects where the window sits relative to each sample.
type Mode string

const (
	// Trailing sums the Width seconds up to and including the sample.
	Trailing Mode = "trailing"
	// Centered sums Width seconds on either side of the sample.
	Centered Mode = "centered"
)

// Defaults used by the interactive tool.
const (
	DefaultMode          = Centered
	DefaultWidth         = 5
	DefaultTrailingWidth = 10
)

// ParseMode accepts "trailing" or "centered" (case-insensitive).
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case Trailing, Centered:
		return m, nil
	default:
		return "", fmt.Errorf("%w: unknown mode %q", ErrInvalidWindow, s)
	}
}

// Window configures a smoothing pass. Width is the full window for Trailing
// and the half-width for Centered, in whole seconds.
type Window struct {
	Mode  Mode
	Width int
}

// DefaultWindow returns the centered five-second window.
func DefaultWindow() Window {
	return Window{Mode: DefaultMode, Width: DefaultWidth}
}

// Validate rejects unknown modes and non-positive widths.
func (w Window) Validate() error {
	if w.Mode != Trailing && w.Mode != Centered {
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidWindow, w.Mode)
	}
	if w.Width <= 0 {
		return fmt.Errorf("%w: width must be positive, got %d", ErrInvalidWindow, w.Width)
	}
	return nil
}

// Divisor is the number of seconds the summed damage is averaged over.
func (w Window) Divisor() float64 {
	if w.Mode == Centered {
		return float64(2 * w.Width)
	}
	return float64(w.Width)
}

// offsets returns how many seconds after (lead) and before (trail) sample i
// the window boundaries sit. Events at or before the trail boundary have
// left the window.
func (w Window) offsets() (lead, trail int64) {
	if w.Mode == Centered {
		return int64(w.Width), int64(w.Width)
	}
	return 0, int64(w.Width)
}

func (w Window) String() string {
	return fmt.Sprintf("%s/%ds", w.Mode, w.Width)
}

// Smooth samples the damage rate of stream once per second from StartTime to
// EndTime inclusive. Sample i sits at StartTime+i*1000 and holds the damage
// inside the window divided by Window.Divisor.
//
// Two pointers walk the events once each, so the cost is linear in the
// number of events plus the curve length.
func Smooth(stream model.DamageStream, w Window) (model.RateCurve, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	if stream.EndTime < stream.StartTime {
		return nil, fmt.Errorf("%w: start=%d end=%d", ErrInvalidBounds, stream.StartTime, stream.EndTime)
	}
	if i := firstUnsorted(stream.Events); i > 0 {
		return nil, fmt.Errorf("%w: event %d at %d precedes %d", ErrUnsortedEvents,
			i, stream.Events[i].Timestamp, stream.Events[i-1].Timestamp)
	}

	base := stream.StartTime
	events := stream.Events
	leadOff, trailOff := w.offsets()
	divisor := w.Divisor()

	curve := make(model.RateCurve, model.CurveLength(stream.StartTime, stream.EndTime))
	lead, trail := 0, 0
	sum := 0.0
	for i := range curve {
		sec := int64(i)
		for lead < len(events) && events[lead].Timestamp-base <= (sec+leadOff)*model.MillisPerSecond {
			sum += events[lead].Amount
			lead++
		}
		for trail < len(events) && events[trail].Timestamp-base <= (sec-trailOff)*model.MillisPerSecond {
			sum -= events[trail].Amount
			trail++
		}
		curve[i] = model.RatePoint{
			Timestamp: base + sec*model.MillisPerSecond,
			Rate:      sum / divisor,
		}
	}
	return curve, nil
}

// firstUnsorted returns the index of the first event older than its
// predecessor, or -1 when events are in non-decreasing order.
func firstUnsorted(events []model.DamageEvent) int {
	for i := 1; i < len(events); i++ {
		if events[i].Timestamp < events[i-1].Timestamp {
			return i
		}
	}
	return -1
}
