package missingness_test

import (
	"fmt"
	"testing"

	missingness "github.com/okian/esmtidy/internal/domain/missingness"
	model "github.com/okian/esmtidy/internal/domain/model"
	"github.com/okian/esmtidy/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	_ = logger.Init()
	m.Run()
}

func TestProfile(t *testing.T) {
	Convey("Given a wide table with known nulls", t, func() {
		// 100 rows; "happy" null in exactly 10, "sad" never null,
		// "MWvalence" null wherever "MWoccur" is 0.
		table := &model.WideTable{
			Name:    "block1",
			Columns: []string{"MWoccur", "MWvalence", "happy", "sad"},
		}
		for i := 0; i < 100; i++ {
			cells := map[string]model.Value{
				"sad":       model.NumberValue(2),
				"MWoccur":   model.NumberValue(1),
				"MWvalence": model.NumberValue(5),
			}
			if i < 10 {
				cells["happy"] = model.NullValue()
			} else {
				cells["happy"] = model.NumberValue(4)
			}
			if i >= 80 {
				cells["MWoccur"] = model.NumberValue(0)
				cells["MWvalence"] = model.NullValue()
			}
			table.Rows = append(table.Rows, model.WideRow{
				Moniker: fmt.Sprintf("p%03d", i%20),
				Time:    model.TimeKey{Day: i/20 + 1, Point: i%20 + 1},
				Cells:   cells,
			})
		}

		Convey("When profiling without options", func() {
			report := missingness.Profile(table)

			Convey("Then column fractions should be exact", func() {
				So(report.ByColumn["happy"], ShouldEqual, 0.10)
				So(report.ByColumn["sad"], ShouldEqual, 0)
				So(report.ByColumn["MWvalence"], ShouldEqual, 0.20)
			})

			Convey("And per-row fractions should be exact", func() {
				So(len(report.ByRow), ShouldEqual, 100)
				So(report.ByRow[0].Fraction, ShouldEqual, 0.25) // happy null, 1 of 4
				So(report.ByRow[50].Fraction, ShouldEqual, 0)
			})

			Convey("And patterns should sort by frequency descending", func() {
				So(len(report.Patterns), ShouldEqual, 2)
				So(report.Patterns[0].Count, ShouldEqual, 20)
				So(report.Patterns[0].Columns, ShouldResemble, []string{"MWvalence"})
				So(report.Patterns[1].Count, ShouldEqual, 10)
				So(report.Patterns[1].Columns, ShouldResemble, []string{"happy"})
			})

			Convey("And cell totals should add up", func() {
				So(report.TotalCells, ShouldEqual, 400)
				So(report.MissingCells, ShouldEqual, 30)
			})
		})

		Convey("When profiling with a gate column", func() {
			report := missingness.Profile(table, missingness.WithGateColumn("MWoccur"))

			Convey("Then the gate column floats to the front", func() {
				So(report.Columns[0], ShouldEqual, "MWoccur")
			})

			Convey("And gate-free patterns still group apart from gate patterns", func() {
				// Neither pattern nulls the gate itself here, so ordering
				// stays frequency-first.
				So(report.Patterns[0].ContainsGate, ShouldBeFalse)
			})
		})

		Convey("When excluding defective clock columns", func() {
			table.Columns = append(table.Columns, "sleeptime")
			for i := range table.Rows {
				table.Rows[i].Cells["sleeptime"] = model.NullValue()
			}

			report := missingness.Profile(table, missingness.WithExcludedColumns("sleeptime"))

			Convey("Then the excluded column stays out of the summary", func() {
				_, ok := report.ByColumn["sleeptime"]
				So(ok, ShouldBeFalse)
				So(report.Excluded, ShouldResemble, []string{"sleeptime"})
				So(report.TotalCells, ShouldEqual, 400)
			})
		})
	})

	Convey("Given an empty table", t, func() {
		report := missingness.Profile(&model.WideTable{Name: "empty", Columns: []string{"a"}})

		Convey("Then fractions should be zero, not NaN", func() {
			So(report.ByColumn["a"], ShouldEqual, 0)
			So(report.MissingCells, ShouldEqual, 0)
		})
	})
}

func TestCompareCompletion(t *testing.T) {
	Convey("Given completion metrics across clinical groups", t, func() {
		Convey("When two groups differ sharply", func() {
			records := []model.GroupRecord{
				{Moniker: "p001", Group: "control", Completion: 1},
				{Moniker: "p002", Group: "control", Completion: 2},
				{Moniker: "p003", Group: "control", Completion: 3},
				{Moniker: "p004", Group: "clinical", Completion: 10},
				{Moniker: "p005", Group: "clinical", Completion: 11},
				{Moniker: "p006", Group: "clinical", Completion: 12},
			}

			cmp := missingness.CompareCompletion(records)

			Convey("Then per-group means should be reported sorted by group", func() {
				So(len(cmp.Groups), ShouldEqual, 2)
				So(cmp.Groups[0].Group, ShouldEqual, "clinical")
				So(cmp.Groups[0].Mean, ShouldEqual, 11)
				So(cmp.Groups[1].Group, ShouldEqual, "control")
				So(cmp.Groups[1].Mean, ShouldEqual, 2)
			})

			Convey("And the rank test should flag the separation", func() {
				So(cmp.DF, ShouldEqual, 1)
				So(cmp.H, ShouldAlmostEqual, 3.857, 0.01)
				So(cmp.PValue, ShouldBeLessThan, 0.05)
			})

			Convey("And symmetric pooled data admits a parametric test", func() {
				So(cmp.Parametric, ShouldBeTrue)
			})
		})

		Convey("When the completion metric is heavily skewed", func() {
			records := []model.GroupRecord{
				{Moniker: "p001", Group: "a", Completion: 95},
				{Moniker: "p002", Group: "a", Completion: 96},
				{Moniker: "p003", Group: "b", Completion: 97},
				{Moniker: "p004", Group: "b", Completion: 98},
				{Moniker: "p005", Group: "c", Completion: 99},
				{Moniker: "p006", Group: "c", Completion: 99},
				{Moniker: "p007", Group: "d", Completion: 99},
				{Moniker: "p008", Group: "d", Completion: 12},
			}

			cmp := missingness.CompareCompletion(records)

			Convey("Then the skew check selects the rank-based test", func() {
				So(cmp.Parametric, ShouldBeFalse)
				So(cmp.DF, ShouldEqual, 3)
				So(cmp.H, ShouldBeGreaterThan, 0)
				So(cmp.PValue, ShouldBeBetween, 0, 1)
			})
		})

		Convey("When only one group exists", func() {
			records := []model.GroupRecord{
				{Moniker: "p001", Group: "only", Completion: 50},
				{Moniker: "p002", Group: "only", Completion: 60},
			}

			cmp := missingness.CompareCompletion(records)

			Convey("Then no test statistic is produced", func() {
				So(cmp.H, ShouldEqual, 0)
				So(cmp.DF, ShouldEqual, 0)
			})
		})
	})
}
