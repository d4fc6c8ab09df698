// Package selection picks the streams that belong on a chart and builds
// their legend labels.
package selection

import (
	"strconv"
	"strings"

	"github.com/okian/combatlog/internal/domain/model"
)

// DefaultYou is the identity the game log uses for the listener.
const DefaultYou = "You"

// TimeRange is an inclusive [Min, Max] window in milliseconds.
type TimeRange struct {
	Min int64
	Max int64
}

// LabelOptions controls optional label parts.
type LabelOptions struct {
	// TotalDamage appends " <total>dmg".
	TotalDamage bool
}

// Criteria describes which streams to keep.
type Criteria struct {
	// You is matched against the Role field of each stream.
	You  string
	Role model.Role
	// Range prunes streams that lie entirely outside it. Nil keeps all.
	Range *TimeRange
	Label LabelOptions
}

// Selected pairs a kept stream with its display label.
type Selected struct {
	Label  string
	Stream model.DamageStream
}

// Select keeps streams whose Role identity equals You and, when a range is
// given, whose [StartTime, EndTime] overlaps it. Input order is preserved.
func Select(streams []model.DamageStream, c Criteria) []Selected {
	out := make([]Selected, 0, len(streams))
	for i := range streams {
		s := &streams[i]
		if s.RoleValue(c.Role) != c.You {
			continue
		}
		if c.Range != nil && !s.Overlaps(c.Range.Min, c.Range.Max) {
			continue
		}
		out = append(out, Selected{
			Label:  Label(s, s.EnemyName(c.Role), c.Label),
			Stream: *s,
		})
	}
	return out
}

// Label renders "enemy (ticker) weapon <total>dmg [ships]". The ticker is
// omitted when empty and the weapon when it is model.UnknownValue.
func Label(s *model.DamageStream, enemy string, opts LabelOptions) string {
	var b strings.Builder
	b.WriteString(enemy)
	if s.Ticker != "" {
		b.WriteString(" (")
		b.WriteString(s.Ticker)
		b.WriteString(")")
	}
	if s.Weapon != model.UnknownValue {
		b.WriteString(" ")
		b.WriteString(s.Weapon)
	}
	if opts.TotalDamage {
		b.WriteString(" ")
		b.WriteString(strconv.FormatFloat(s.TotalDamage, 'f', -1, 64))
		b.WriteString("dmg")
	}
	b.WriteString(" [")
	b.WriteString(s.EnemyShips)
	b.WriteString("]")
	return b.String()
}

// Bounds returns the earliest start and latest end across streams. It is the
// range a chart resets to when zooming out. Streams without events are
// ignored; ok is false when none has any.
func Bounds(streams []model.DamageStream) (r TimeRange, ok bool) {
	for _, s := range streams {
		if len(s.Events) == 0 {
			continue
		}
		if !ok || s.StartTime < r.Min {
			r.Min = s.StartTime
		}
		if !ok || s.EndTime > r.Max {
			r.Max = s.EndTime
		}
		ok = true
	}
	return r, ok
}
