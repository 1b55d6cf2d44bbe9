package normalize_test

import (
	"context"
	"testing"

	model "github.com/okian/esmtidy/internal/domain/model"
	normalize "github.com/okian/esmtidy/internal/domain/normalize"
	"github.com/okian/esmtidy/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	_ = logger.Init()
	m.Run()
}

func raw(moniker, block, item, answer, point, day string) model.RawObservation {
	return model.RawObservation{
		Moniker:    moniker,
		Block:      block,
		ItemCode:   item,
		Answer:     answer,
		Timepoint:  point,
		TestingDay: day,
	}
}

func TestNormalize(t *testing.T) {
	Convey("Given a normalizer with defaults", t, func() {
		n := normalize.New()
		ctx := context.Background()

		Convey("When rows carry the sentinel testing day", func() {
			rows := []model.RawObservation{
				raw("p001", "1", "5", "4", "1", "0"),
				raw("p001", "1", "5", "4", "1", "2"),
			}
			out, stats := n.Normalize(ctx, rows)

			Convey("Then sentinel-day rows should be dropped", func() {
				So(len(out), ShouldEqual, 1)
				So(stats.SentinelDay, ShouldEqual, 1)
				So(out[0].Time.Day, ShouldEqual, 2)
			})
		})

		Convey("When rows carry a null item code", func() {
			rows := []model.RawObservation{
				raw("p001", "1", "", "press any key", "1", "2"),
				raw("p001", "1", "6", "3", "1", "2"),
			}
			out, stats := n.Normalize(ctx, rows)

			Convey("Then instructional rows should be dropped without counting as missing", func() {
				So(len(out), ShouldEqual, 1)
				So(stats.NullItem, ShouldEqual, 1)
				So(out[0].Item, ShouldEqual, "6")
			})
		})

		Convey("When a row fails to parse", func() {
			rows := []model.RawObservation{
				raw("p001", "one", "5", "4", "1", "2"),
				raw("p001", "1", "5", "4", "x", "2"),
				raw("p001", "1", "5", "4", "1", "2"),
			}
			out, stats := n.Normalize(ctx, rows)

			Convey("Then structural failures should be dropped, not fatal", func() {
				So(len(out), ShouldEqual, 1)
				So(stats.Structural, ShouldEqual, 2)
			})
		})

		Convey("When observing the preserved file order", func() {
			rows := []model.RawObservation{
				raw("p001", "1", "5", "4", "1", "2"),
				raw("p001", "1", "6", "4", "1", "2"),
			}
			out, _ := n.Normalize(ctx, rows)

			Convey("Then Seq should reflect original positions", func() {
				So(out[0].Seq, ShouldEqual, 0)
				So(out[1].Seq, ShouldEqual, 1)
			})
		})
	})

	Convey("Given a normalizer with an exclusion list", t, func() {
		n := normalize.New(normalize.WithExclusions([]string{"pilot01", "dropout02"}))
		ctx := context.Background()

		Convey("When excluded monikers appear many times", func() {
			rows := []model.RawObservation{
				raw("pilot01", "1", "5", "4", "1", "2"),
				raw("p001", "1", "5", "4", "1", "2"),
				raw("pilot01", "1", "6", "3", "2", "2"),
				raw("dropout02", "2", "7", "5", "1", "3"),
				raw("pilot01", "2", "7", "1", "1", "4"),
			}
			out, stats := n.Normalize(ctx, rows)

			Convey("Then exclusion removal should be total", func() {
				So(len(out), ShouldEqual, 1)
				So(stats.Excluded, ShouldEqual, 4)
				for _, o := range out {
					So(o.Moniker, ShouldNotEqual, "pilot01")
					So(o.Moniker, ShouldNotEqual, "dropout02")
				}
			})
		})
	})

	Convey("Given a normalizer with a custom day sentinel", t, func() {
		n := normalize.New(normalize.WithDaySentinel("-1"))
		ctx := context.Background()

		Convey("When day zero appears it is real data", func() {
			rows := []model.RawObservation{
				raw("p001", "1", "5", "4", "1", "0"),
				raw("p001", "1", "5", "4", "1", "-1"),
			}
			out, stats := n.Normalize(ctx, rows)

			So(len(out), ShouldEqual, 1)
			So(stats.SentinelDay, ShouldEqual, 1)
			So(out[0].Time.Day, ShouldEqual, 0)
		})
	})
}

func TestCodeAnswer(t *testing.T) {
	Convey("Given the answer-coding rules", t, func() {
		Convey("When label text is anchored at scale endpoints", func() {
			So(normalize.CodeAnswer("1 - Not at all").Num, ShouldEqual, 1)
			So(normalize.CodeAnswer("7 - Very much").Num, ShouldEqual, 7)
		})

		Convey("When answers are yes/no", func() {
			So(normalize.CodeAnswer("no").Num, ShouldEqual, 0)
			So(normalize.CodeAnswer("yes").Num, ShouldEqual, 1)
			So(normalize.CodeAnswer("not at all today").Num, ShouldEqual, 0)
		})

		Convey("When matching is case-sensitive", func() {
			v := normalize.CodeAnswer("No")

			Convey("Then capitalized variants do not match the anchor", func() {
				So(v.Kind, ShouldEqual, model.Text)
			})
		})

		Convey("When the first matching prefix wins", func() {
			// "1" beats a full numeric parse of "12".
			So(normalize.CodeAnswer("12").Num, ShouldEqual, 1)
		})

		Convey("When the answer is a plain mid-scale number", func() {
			v := normalize.CodeAnswer("4")
			So(v.Kind, ShouldEqual, model.Number)
			So(v.Num, ShouldEqual, 4)
		})

		Convey("When the answer is free text", func() {
			v := normalize.CodeAnswer("thinking about dinner")
			So(v.Kind, ShouldEqual, model.Text)
			So(v.Raw, ShouldEqual, "thinking about dinner")
		})

		Convey("When the answer is empty", func() {
			So(normalize.CodeAnswer("").IsNull(), ShouldBeTrue)
			So(normalize.CodeAnswer("   ").IsNull(), ShouldBeTrue)
		})
	})
}
