package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/okian/combatlog/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	Convey("Given a new InMemoryDeduper", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper()

		Convey("Then it starts empty", func() {
			So(d.Size(), ShouldEqual, 0)
		})

		Convey("When a digest is recorded for the first time", func() {
			id, seen := d.SeenAndRecord(ctx, "digest-1", "dataset-1")

			Convey("Then it is reported as new", func() {
				So(seen, ShouldBeFalse)
				So(id, ShouldEqual, "dataset-1")
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("And a repeat returns the original dataset id", func() {
				id, seen := d.SeenAndRecord(ctx, "digest-1", "dataset-2")
				So(seen, ShouldBeTrue)
				So(id, ShouldEqual, "dataset-1")
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("And after unrecording it is new again", func() {
				d.Unrecord(ctx, "digest-1")
				So(d.Size(), ShouldEqual, 0)
				id, seen := d.SeenAndRecord(ctx, "digest-1", "dataset-3")
				So(seen, ShouldBeFalse)
				So(id, ShouldEqual, "dataset-3")
			})
		})

		Convey("When unrecording an unknown digest", func() {
			d.Unrecord(ctx, "missing")

			Convey("Then nothing changes", func() {
				So(d.Size(), ShouldEqual, 0)
			})
		})
	})
}

func TestInMemoryDeduper_Bounded(t *testing.T) {
	Convey("Given a deduper bounded to two digests", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(2))
		d.SeenAndRecord(ctx, "a", "1")
		d.SeenAndRecord(ctx, "b", "2")

		Convey("When a third digest arrives", func() {
			d.SeenAndRecord(ctx, "c", "3")

			Convey("Then the oldest digest is evicted", func() {
				So(d.Size(), ShouldEqual, 2)
				_, seen := d.SeenAndRecord(ctx, "b", "x")
				So(seen, ShouldBeTrue)
				_, seen = d.SeenAndRecord(ctx, "a", "y")
				So(seen, ShouldBeFalse)
			})
		})
	})

	Convey("Given an unbounded deduper", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
		for i := 0; i < 1000; i++ {
			d.SeenAndRecord(ctx, fmt.Sprintf("d-%d", i), "id")
		}
		So(d.Size(), ShouldEqual, 1000)
	})
}

func TestInMemoryDeduper_Concurrent(t *testing.T) {
	Convey("Given many goroutines uploading the same digest", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper()

		var wg sync.WaitGroup
		var mu sync.Mutex
		fresh := 0
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				if _, seen := d.SeenAndRecord(ctx, "same", fmt.Sprintf("id-%d", i)); !seen {
					mu.Lock()
					fresh++
					mu.Unlock()
				}
			}(i)
		}
		wg.Wait()

		Convey("Then exactly one of them records it", func() {
			So(fresh, ShouldEqual, 1)
			So(d.Size(), ShouldEqual, 1)
		})
	})
}
