package model_test

import (
	"testing"

	"github.com/okian/combatlog/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNewDamageStream(t *testing.T) {
	Convey("Given ordered damage events", t, func() {
		events := []model.DamageEvent{{Timestamp: 1000, Amount: 5}, {Timestamp: 4000, Amount: 7.5}}

		Convey("When building a stream without options", func() {
			s := model.NewDamageStream("You", "Enemy", events)

			Convey("Then bounds and totals are derived from the events", func() {
				So(s.StartTime, ShouldEqual, 1000)
				So(s.EndTime, ShouldEqual, 4000)
				So(s.TotalDamage, ShouldEqual, 12.5)
				So(s.Weapon, ShouldEqual, model.UnknownValue)
				So(s.EnemyShips, ShouldEqual, model.UnknownValue)
				So(s.Ticker, ShouldBeEmpty)
			})

			Convey("And the stream does not alias the caller's slice", func() {
				events[0].Amount = 100
				So(s.Events[0].Amount, ShouldEqual, 5)
			})
		})

		Convey("When building a stream with metadata", func() {
			s := model.NewDamageStream("Enemy", "You", events,
				model.WithWeapon("Hammerhead II"),
				model.WithTicker("CORP"),
				model.WithEnemyShips("Rifter", "Slasher"),
			)

			Convey("Then the metadata is recorded", func() {
				So(s.Weapon, ShouldEqual, "Hammerhead II")
				So(s.Ticker, ShouldEqual, "CORP")
				So(s.EnemyShips, ShouldEqual, "Rifter, Slasher")
			})

			Convey("And the enemy is the opposite role", func() {
				So(s.EnemyName(model.RoleTarget), ShouldEqual, "Enemy")
				So(s.EnemyName(model.RoleAttacker), ShouldEqual, "You")
			})
		})

		Convey("When building a stream with no events", func() {
			s := model.NewDamageStream("You", "Enemy", nil, model.WithWeapon(""))

			Convey("Then it has zero bounds and keeps defaults", func() {
				So(s.StartTime, ShouldEqual, 0)
				So(s.EndTime, ShouldEqual, 0)
				So(s.TotalDamage, ShouldEqual, 0)
				So(s.Weapon, ShouldEqual, model.UnknownValue)
			})
		})
	})
}

func TestRole(t *testing.T) {
	Convey("Given role names", t, func() {
		r, err := model.ParseRole(" Target ")
		So(err, ShouldBeNil)
		So(r, ShouldEqual, model.RoleTarget)
		So(r.Opposite(), ShouldEqual, model.RoleAttacker)
		So(r.String(), ShouldEqual, "target")

		_, err = model.ParseRole("healer")
		So(err, ShouldEqual, model.ErrUnknownRole)
	})
}

func TestOverlapsAndCurveLength(t *testing.T) {
	Convey("Given a stream spanning 1000..3000", t, func() {
		s := model.DamageStream{StartTime: 1000, EndTime: 3000}

		So(s.Overlaps(0, 999), ShouldBeFalse)
		So(s.Overlaps(0, 1000), ShouldBeTrue)
		So(s.Overlaps(2500, 9000), ShouldBeTrue)
		So(s.Overlaps(3001, 9000), ShouldBeFalse)

		So(model.CurveLength(1000, 3000), ShouldEqual, 3)
		So(model.CurveLength(1000, 3999), ShouldEqual, 3)
		So(model.CurveLength(5, 5), ShouldEqual, 1)
	})
}
