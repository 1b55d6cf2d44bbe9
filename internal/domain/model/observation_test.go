package model_test

import (
	"testing"

	model "github.com/okian/esmtidy/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestValue(t *testing.T) {
	convey.Convey("Given typed survey answers", t, func() {
		convey.Convey("When constructing a null value", func() {
			v := model.NullValue()

			convey.Convey("Then it should report missing and render empty", func() {
				convey.So(v.IsNull(), convey.ShouldBeTrue)
				convey.So(v.String(), convey.ShouldEqual, "")
			})
		})

		convey.Convey("When constructing a numeric value", func() {
			v := model.NumberValue(7)

			convey.Convey("Then it should not be null and render without a decimal tail", func() {
				convey.So(v.IsNull(), convey.ShouldBeFalse)
				convey.So(v.Num, convey.ShouldEqual, 7)
				convey.So(v.String(), convey.ShouldEqual, "7")
			})
		})

		convey.Convey("When constructing a text value", func() {
			v := model.TextValue("07:30")

			convey.Convey("Then it should carry the raw string", func() {
				convey.So(v.IsNull(), convey.ShouldBeFalse)
				convey.So(v.String(), convey.ShouldEqual, "07:30")
			})
		})

		convey.Convey("When using the zero value", func() {
			var v model.Value

			convey.Convey("Then it should be null", func() {
				convey.So(v.IsNull(), convey.ShouldBeTrue)
			})
		})
	})
}

func TestTimeKey(t *testing.T) {
	convey.Convey("Given composite time keys", t, func() {
		convey.Convey("When rendering the composite form", func() {
			k := model.TimeKey{Day: 3, Point: 2}

			convey.Convey("Then it should be day.timepoint", func() {
				convey.So(k.Composite(), convey.ShouldEqual, "3.2")
			})
		})

		convey.Convey("When ordering keys where string sort would lie", func() {
			// "10.1" sorts before "2.1" as a string; chronologically it is after.
			early := model.TimeKey{Day: 2, Point: 1}
			late := model.TimeKey{Day: 10, Point: 1}

			convey.Convey("Then ordering must follow the numeric pair", func() {
				convey.So(early.Before(late), convey.ShouldBeTrue)
				convey.So(late.Before(early), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When days match", func() {
			a := model.TimeKey{Day: 4, Point: 1}
			b := model.TimeKey{Day: 4, Point: 5}

			convey.Convey("Then the timepoint breaks the tie", func() {
				convey.So(a.Before(b), convey.ShouldBeTrue)
			})
		})
	})
}

func TestCleanedObservationKey(t *testing.T) {
	convey.Convey("Given a cleaned observation", t, func() {
		obs := model.CleanedObservation{
			Moniker:  "p001",
			Block:    1,
			Variable: "happy",
			Answer:   model.NumberValue(5),
			Time:     model.TimeKey{Day: 2, Point: 3},
		}

		convey.Convey("Then its key should combine participant, time, and variable", func() {
			convey.So(obs.Key(), convey.ShouldEqual, "p001|2.3|happy")
		})
	})
}

func TestWideTable(t *testing.T) {
	convey.Convey("Given a wide table with two participants", t, func() {
		table := &model.WideTable{
			Name:    "block1",
			Columns: []string{"happy", "sad"},
			Rows: []model.WideRow{
				{Moniker: "p002", Time: model.TimeKey{Day: 10, Point: 1}, Cells: map[string]model.Value{"happy": model.NumberValue(4)}},
				{Moniker: "p001", Time: model.TimeKey{Day: 1, Point: 1}, Cells: map[string]model.Value{"happy": model.NumberValue(3)}},
				{Moniker: "p002", Time: model.TimeKey{Day: 2, Point: 1}, Cells: map[string]model.Value{"happy": model.NumberValue(6)}},
			},
		}

		convey.Convey("When listing monikers", func() {
			convey.So(table.Monikers(), convey.ShouldResemble, []string{"p001", "p002"})
		})

		convey.Convey("When fetching one participant's rows", func() {
			rows := table.ParticipantRows("p002")

			convey.Convey("Then rows should be sorted by the numeric time pair", func() {
				convey.So(len(rows), convey.ShouldEqual, 2)
				convey.So(rows[0].Time.Day, convey.ShouldEqual, 2)
				convey.So(rows[1].Time.Day, convey.ShouldEqual, 10)
			})
		})

		convey.Convey("When reading an absent cell", func() {
			v := table.Rows[0].Cell("sad")

			convey.Convey("Then it should be null", func() {
				convey.So(v.IsNull(), convey.ShouldBeTrue)
			})
		})
	})
}
