package smoothing_test

import (
	"errors"
	"testing"

	"github.com/okian/combatlog/internal/domain/model"
	"github.com/okian/combatlog/internal/domain/smoothing"
	. "github.com/smartystreets/goconvey/convey"
)

func singleEventStream(start, end, at int64, amount float64) model.DamageStream {
	return model.DamageStream{
		Attacker:  "You",
		Target:    "Enemy",
		StartTime: start,
		EndTime:   end,
		Events:    []model.DamageEvent{{Timestamp: at, Amount: amount}},
	}
}

func nonZeroIndexes(curve model.RateCurve) []int {
	var idx []int
	for i, p := range curve {
		if p.Rate != 0 {
			idx = append(idx, i)
		}
	}
	return idx
}

func span(from, to int) []int {
	var out []int
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}

func TestSmooth_Trailing(t *testing.T) {
	Convey("Given a trailing ten-second window", t, func() {
		w := smoothing.Window{Mode: smoothing.Trailing, Width: 10}

		Convey("When smoothing a single event on a whole second", func() {
			curve, err := smoothing.Smooth(singleEventStream(0, 20_000, 3_000, 20), w)

			Convey("Then samples 3..12 carry A/W and the rest are zero", func() {
				So(err, ShouldBeNil)
				So(len(curve), ShouldEqual, 21)
				So(nonZeroIndexes(curve), ShouldResemble, span(3, 12))
				for _, i := range span(3, 12) {
					So(curve[i].Rate, ShouldEqual, 2.0)
				}
			})
		})

		Convey("When smoothing a single event between seconds", func() {
			curve, err := smoothing.Smooth(singleEventStream(0, 20_000, 3_500, 10), w)

			Convey("Then the window starts at the next whole sample", func() {
				So(err, ShouldBeNil)
				So(nonZeroIndexes(curve), ShouldResemble, span(4, 13))
				So(curve[4].Rate, ShouldEqual, 1.0)
			})
		})

		Convey("When two events overlap in the window", func() {
			s := model.DamageStream{
				StartTime: 1_000,
				EndTime:   5_000,
				Events: []model.DamageEvent{
					{Timestamp: 1_000, Amount: 10},
					{Timestamp: 2_000, Amount: 30},
				},
			}
			curve, err := smoothing.Smooth(s, smoothing.Window{Mode: smoothing.Trailing, Width: 2})

			Convey("Then the running sum adds and drops each event once", func() {
				So(err, ShouldBeNil)
				rates := make([]float64, len(curve))
				for i, p := range curve {
					rates[i] = p.Rate
				}
				So(rates, ShouldResemble, []float64{5, 20, 15, 0, 0})
				So(curve[0].Timestamp, ShouldEqual, 1_000)
				So(curve[4].Timestamp, ShouldEqual, 5_000)
			})
		})
	})
}

func TestSmooth_Centered(t *testing.T) {
	Convey("Given a centered window with half-width five", t, func() {
		w := smoothing.Window{Mode: smoothing.Centered, Width: 5}

		Convey("When smoothing a single event in the middle of the stream", func() {
			curve, err := smoothing.Smooth(singleEventStream(0, 20_000, 10_000, 30), w)

			Convey("Then the window is symmetric around the event", func() {
				So(err, ShouldBeNil)
				So(nonZeroIndexes(curve), ShouldResemble, span(5, 14))
				for _, i := range span(5, 14) {
					So(curve[i].Rate, ShouldEqual, 3.0)
				}
			})
		})

		Convey("When the event sits at the start of the stream", func() {
			curve, err := smoothing.Smooth(singleEventStream(0, 20_000, 0, 10), w)

			Convey("Then the window is clipped by the curve start", func() {
				So(err, ShouldBeNil)
				So(nonZeroIndexes(curve), ShouldResemble, span(0, 4))
				So(curve[0].Rate, ShouldEqual, 1.0)
			})
		})
	})
}

func TestSmooth_Shape(t *testing.T) {
	Convey("Given a stream without events", t, func() {
		s := model.DamageStream{StartTime: 5_000, EndTime: 9_500}

		Convey("When smoothing it", func() {
			curve, err := smoothing.Smooth(s, smoothing.DefaultWindow())

			Convey("Then the curve is all zero with floor((end-start)/1000)+1 samples", func() {
				So(err, ShouldBeNil)
				So(len(curve), ShouldEqual, 5)
				for i, p := range curve {
					So(p.Rate, ShouldEqual, 0)
					So(p.Timestamp, ShouldEqual, 5_000+int64(i)*1000)
				}
			})
		})
	})

	Convey("Given a stream whose start equals its end", t, func() {
		curve, err := smoothing.Smooth(singleEventStream(7_000, 7_000, 7_000, 4), smoothing.Window{Mode: smoothing.Trailing, Width: 2})

		So(err, ShouldBeNil)
		So(len(curve), ShouldEqual, 1)
		So(curve[0].Rate, ShouldEqual, 2.0)
	})
}

func TestSmooth_Errors(t *testing.T) {
	Convey("Given malformed input", t, func() {
		good := singleEventStream(0, 1_000, 0, 1)

		Convey("When the width is not positive", func() {
			_, err := smoothing.Smooth(good, smoothing.Window{Mode: smoothing.Trailing, Width: 0})
			So(errors.Is(err, smoothing.ErrInvalidWindow), ShouldBeTrue)

			_, err = smoothing.Smooth(good, smoothing.Window{Mode: smoothing.Centered, Width: -3})
			So(errors.Is(err, smoothing.ErrInvalidWindow), ShouldBeTrue)
		})

		Convey("When the mode is unknown", func() {
			_, err := smoothing.Smooth(good, smoothing.Window{Mode: "leading", Width: 3})
			So(errors.Is(err, smoothing.ErrInvalidWindow), ShouldBeTrue)
		})

		Convey("When end precedes start", func() {
			_, err := smoothing.Smooth(model.DamageStream{StartTime: 2_000, EndTime: 1_000}, smoothing.DefaultWindow())
			So(errors.Is(err, smoothing.ErrInvalidBounds), ShouldBeTrue)
		})

		Convey("When events are out of order", func() {
			s := model.DamageStream{
				StartTime: 0,
				EndTime:   5_000,
				Events:    []model.DamageEvent{{Timestamp: 3_000, Amount: 1}, {Timestamp: 1_000, Amount: 1}},
			}
			_, err := smoothing.Smooth(s, smoothing.DefaultWindow())
			So(errors.Is(err, smoothing.ErrUnsortedEvents), ShouldBeTrue)
		})

		Convey("When events repeat a timestamp", func() {
			s := model.DamageStream{
				StartTime: 0,
				EndTime:   1_000,
				Events:    []model.DamageEvent{{Timestamp: 0, Amount: 1}, {Timestamp: 0, Amount: 3}},
			}
			curve, err := smoothing.Smooth(s, smoothing.Window{Mode: smoothing.Trailing, Width: 2})
			So(err, ShouldBeNil)
			So(curve[0].Rate, ShouldEqual, 2.0)
		})
	})
}

func TestParseMode(t *testing.T) {
	Convey("Given mode names", t, func() {
		m, err := smoothing.ParseMode("Trailing")
		So(err, ShouldBeNil)
		So(m, ShouldEqual, smoothing.Trailing)

		m, err = smoothing.ParseMode(" centered ")
		So(err, ShouldBeNil)
		So(m, ShouldEqual, smoothing.Centered)

		_, err = smoothing.ParseMode("ewma")
		So(errors.Is(err, smoothing.ErrInvalidWindow), ShouldBeTrue)

		So(smoothing.Window{Mode: smoothing.Centered, Width: 5}.Divisor(), ShouldEqual, 10)
		So(smoothing.Window{Mode: smoothing.Trailing, Width: 10}.Divisor(), ShouldEqual, 10)
		So(smoothing.DefaultWindow().String(), ShouldEqual, "centered/5s")
	})
}
