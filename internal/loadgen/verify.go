package loadgen

import (
	"fmt"
	"sort"
)

// VerifyTable checks the merged table against the streams that produced it:
// one column per uploaded stream, strictly increasing rows, exactly the
// distinct event timestamps, and column sums equal to stream totals.
func VerifyTable(up Upload, t Table) error {
	streams := up.Streams
	if len(t.Headers) != len(streams) {
		return fmt.Errorf("got %d columns, want %d", len(t.Headers), len(streams))
	}

	distinct := map[int64]struct{}{}
	want := make([]float64, len(streams))
	for i, s := range streams {
		for _, d := range s.Damage {
			distinct[int64(d[0])] = struct{}{}
			want[i] += d[1]
		}
	}
	if len(t.Rows) != len(distinct) {
		return fmt.Errorf("got %d rows, want %d distinct timestamps", len(t.Rows), len(distinct))
	}

	got := make([]float64, len(streams))
	for i, row := range t.Rows {
		if i > 0 && row.Timestamp <= t.Rows[i-1].Timestamp {
			return fmt.Errorf("row %d: timestamp %d not after %d", i, row.Timestamp, t.Rows[i-1].Timestamp)
		}
		if _, ok := distinct[row.Timestamp]; !ok {
			return fmt.Errorf("row %d: unexpected timestamp %d", i, row.Timestamp)
		}
		if len(row.Values) != len(streams) {
			return fmt.Errorf("row %d: %d cells, want %d", i, len(row.Values), len(streams))
		}
		for c, v := range row.Values {
			if v != nil {
				got[c] += *v
			}
		}
	}
	for c := range want {
		if got[c] != want[c] {
			return fmt.Errorf("column %d: sum %v, want %v", c, got[c], want[c])
		}
	}
	return nil
}

// VerifyPlots checks that every series is a dense once-per-second curve
// spanning its stream.
func VerifyPlots(p Plots, wantSeries int) error {
	if len(p.Series) != wantSeries {
		return fmt.Errorf("%s view: got %d series, want %d", p.View, len(p.Series), wantSeries)
	}
	for i, s := range p.Series {
		n := int((s.EndTime-s.StartTime)/1000) + 1
		if len(s.Points) != n {
			return fmt.Errorf("%s series %d: %d points, want %d", p.View, i, len(s.Points), n)
		}
		ok := sort.SliceIsSorted(s.Points, func(a, b int) bool { return s.Points[a][0] < s.Points[b][0] })
		if !ok {
			return fmt.Errorf("%s series %d: points out of order", p.View, i)
		}
		for _, pt := range s.Points {
			if pt[1] < 0 {
				return fmt.Errorf("%s series %d: negative rate %v", p.View, i, pt[1])
			}
		}
	}
	return nil
}
