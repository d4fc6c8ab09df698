// Package merge aligns several damage streams on their event timestamps.
package merge

import (
	"fmt"
	"math"

	"github.com/okian/combatlog/internal/domain/model"
)

// exhausted marks a stream whose cursor has passed its last event.
const exhausted = math.MaxInt64

// Merge produces one row per distinct event timestamp across streams, in
// ascending order, with one column per stream in input order. A cell is set
// only when that stream has an event at exactly the row timestamp; several
// events at the same timestamp in one stream are summed into one cell.
//
// Each step scans the stream cursors for the minimum timestamp, so the cost
// is O(total events * len(streams)).
func Merge(streams []model.DamageStream) (model.MergedTable, error) {
	for i := range streams {
		if err := checkSorted(i, streams[i].Events); err != nil {
			return model.MergedTable{}, err
		}
	}

	table := model.MergedTable{Columns: len(streams)}
	cursor := make([]int, len(streams))
	current := make([]int64, len(streams))
	for i := range streams {
		current[i] = head(streams[i].Events, 0)
	}

	for {
		working := minimum(current)
		if working == exhausted {
			break
		}
		row := model.MergedRow{Timestamp: working, Cells: make([]model.Cell, len(streams))}
		for i := range streams {
			events := streams[i].Events
			for cursor[i] < len(events) && events[cursor[i]].Timestamp == working {
				row.Cells[i].Value += events[cursor[i]].Amount
				row.Cells[i].Valid = true
				cursor[i]++
			}
			current[i] = head(events, cursor[i])
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

func head(events []model.DamageEvent, at int) int64 {
	if at < len(events) {
		return events[at].Timestamp
	}
	return exhausted
}

func minimum(ts []int64) int64 {
	m := int64(exhausted)
	for _, t := range ts {
		if t < m {
			m = t
		}
	}
	return m
}

func checkSorted(stream int, events []model.DamageEvent) error {
	for i := 1; i < len(events); i++ {
		if events[i].Timestamp < events[i-1].Timestamp {
			return fmt.Errorf("%w: stream %d event %d at %d precedes %d",
				ErrUnsortedEvents, stream, i, events[i].Timestamp, events[i-1].Timestamp)
		}
	}
	return nil
}
