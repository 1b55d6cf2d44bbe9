package remap_test

import (
	"context"
	"errors"
	"testing"

	model "github.com/okian/esmtidy/internal/domain/model"
	remap "github.com/okian/esmtidy/internal/domain/remap"
	"github.com/okian/esmtidy/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	_ = logger.Init()
	m.Run()
}

func TestBuildKeyTable(t *testing.T) {
	Convey("Given codebook entries", t, func() {
		Convey("When building from plain and suffixed codes", func() {
			table, err := remap.BuildKeyTable([]remap.Entry{
				{Block: 1, Item: "5", Variable: "happy"},
				{Block: 1, Item: "5t", Variable: "happy_rt"},
				{Block: 2, Item: "16e", Variable: "reappraisal_efficacy"},
			})

			Convey("Then both tables should resolve independently", func() {
				So(err, ShouldBeNil)
				So(table.Size(), ShouldEqual, 3)

				name, ok := table.Lookup(1, "5")
				So(ok, ShouldBeTrue)
				So(name, ShouldEqual, "happy")

				name, ok = table.Lookup(1, "5t")
				So(ok, ShouldBeTrue)
				So(name, ShouldEqual, "happy_rt")

				name, ok = table.Lookup(2, "16e")
				So(ok, ShouldBeTrue)
				So(name, ShouldEqual, "reappraisal_efficacy")
			})
		})

		Convey("When the same code appears in different blocks", func() {
			table, err := remap.BuildKeyTable([]remap.Entry{
				{Block: 1, Item: "3", Variable: "sad"},
				{Block: 2, Item: "3", Variable: "sleepquality"},
			})

			Convey("Then the block disambiguates", func() {
				So(err, ShouldBeNil)
				name, _ := table.Lookup(1, "3")
				So(name, ShouldEqual, "sad")
				name, _ = table.Lookup(2, "3")
				So(name, ShouldEqual, "sleepquality")
			})
		})

		Convey("When a duplicate mapping exists", func() {
			_, err := remap.BuildKeyTable([]remap.Entry{
				{Block: 1, Item: "5", Variable: "happy"},
				{Block: 1, Item: "5", Variable: "pleased"},
			})

			Convey("Then building should fail", func() {
				So(errors.Is(err, remap.ErrDuplicateMapping), ShouldBeTrue)
			})
		})

		Convey("When the entry list is empty", func() {
			_, err := remap.BuildKeyTable(nil)
			So(errors.Is(err, remap.ErrEmptyKeyTable), ShouldBeTrue)
		})

		Convey("When an entry is malformed", func() {
			_, err := remap.BuildKeyTable([]remap.Entry{{Block: 1, Item: "", Variable: "happy"}})
			So(errors.Is(err, remap.ErrInvalidEntry), ShouldBeTrue)
		})
	})
}

func TestRemap(t *testing.T) {
	Convey("Given a key table and normalized observations", t, func() {
		ctx := context.Background()
		table, err := remap.BuildKeyTable([]remap.Entry{
			{Block: 1, Item: "5", Variable: "happy"},
			{Block: 1, Item: "9", Variable: "MWoccur"},
		})
		So(err, ShouldBeNil)

		obs := []model.Observation{
			{Moniker: "p001", Block: 1, Item: "5", Answer: model.NumberValue(4), Time: model.TimeKey{Day: 1, Point: 1}, Seq: 0},
			{Moniker: "p001", Block: 1, Item: "9", Answer: model.NumberValue(1), Time: model.TimeKey{Day: 1, Point: 1}, Seq: 1},
			{Moniker: "p001", Block: 1, Item: "99", Answer: model.NumberValue(2), Time: model.TimeKey{Day: 1, Point: 1}, Seq: 2},
		}

		Convey("When remapping", func() {
			cleaned, dropped := remap.Remap(ctx, obs, table)

			Convey("Then known codes should gain canonical names", func() {
				So(len(cleaned), ShouldEqual, 2)
				So(cleaned[0].Variable, ShouldEqual, "happy")
				So(cleaned[1].Variable, ShouldEqual, "MWoccur")
			})

			Convey("And unknown codes should be dropped silently", func() {
				So(dropped, ShouldEqual, 1)
			})

			Convey("And answers, times, and sequence should carry over", func() {
				So(cleaned[0].Answer.Num, ShouldEqual, 4)
				So(cleaned[0].Time.Composite(), ShouldEqual, "1.1")
				So(cleaned[1].Seq, ShouldEqual, 1)
			})
		})
	})
}
