package export_test

import (
	"bytes"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/combatlog/internal/adapters/export"
	"github.com/okian/combatlog/internal/domain/merge"
	"github.com/okian/combatlog/internal/domain/model"
)

func TestFormatTimestamp(t *testing.T) {
	Convey("Given epoch milliseconds", t, func() {
		So(export.FormatTimestamp(0), ShouldEqual, "1970/1/1 0:0:0")
		So(export.FormatTimestamp(1_500), ShouldEqual, "1970/1/1 0:0:1")
		// 2021-03-07T04:05:09Z
		So(export.FormatTimestamp(1615089909000), ShouldEqual, "2021/3/7 4:5:9")
		So(export.FormatTimestamp(1640995199000), ShouldEqual, "2021/12/31 23:59:59")
	})
}

func TestWriteCSV(t *testing.T) {
	Convey("Given the merged table of streams A and B", t, func() {
		a := model.NewDamageStream("You", "Pirate", []model.DamageEvent{{Timestamp: 1_000, Amount: 5}, {Timestamp: 2_000, Amount: 5.25}})
		b := model.NewDamageStream("Pirate", "You", []model.DamageEvent{{Timestamp: 1_500, Amount: 3}})
		table, err := merge.Merge([]model.DamageStream{a, b})
		So(err, ShouldBeNil)

		Convey("When written as CSV", func() {
			var buf bytes.Buffer
			err := export.WriteCSV(&buf, []string{"target: Pirate [Unknown]", "attacker: Pirate [Unknown]"}, table)

			Convey("Then empty cells stay empty and times are unpadded", func() {
				So(err, ShouldBeNil)
				So(buf.String(), ShouldEqual,
					"time,target: Pirate [Unknown],attacker: Pirate [Unknown]\n"+
						"1970/1/1 0:0:1,5,\n"+
						"1970/1/1 0:0:1,,3\n"+
						"1970/1/1 0:0:2,5.25,\n")
			})
		})

		Convey("When a header contains a comma", func() {
			var buf bytes.Buffer
			So(export.WriteCSV(&buf, []string{"target: A [Rifter, Slasher]", "b"}, table), ShouldBeNil)

			Convey("Then it is quoted", func() {
				So(buf.String(), ShouldStartWith, "time,\"target: A [Rifter, Slasher]\",b\n")
			})
		})

		Convey("When the header count is wrong", func() {
			err := export.WriteCSV(&bytes.Buffer{}, []string{"only one"}, table)

			Convey("Then ErrColumnMismatch is returned", func() {
				So(errors.Is(err, export.ErrColumnMismatch), ShouldBeTrue)
			})
		})
	})
}
