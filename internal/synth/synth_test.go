package synth_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/esmtidy/internal/adapters/csvfile"
	"github.com/okian/esmtidy/internal/synth"
	"github.com/okian/esmtidy/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	_ = logger.Init()
	m.Run()
}

func TestGenerate(t *testing.T) {
	Convey("Given a small dataset shape", t, func() {
		ctx := context.Background()
		cfg := synth.Config{
			Participants: 5,
			Days:         2,
			PointsPerDay: 3,
			MissingRate:  0.1,
			SkipRate:     0.4,
			SentinelRate: 0.05,
			Pilots:       1,
			Seed:         42,
			Workers:      3,
		}

		Convey("When generating twice with the same seed", func() {
			first, firstStats, err := synth.Generate(ctx, cfg)
			So(err, ShouldBeNil)
			second, secondStats, err := synth.Generate(ctx, cfg)
			So(err, ShouldBeNil)

			Convey("Then the output is byte-for-byte identical", func() {
				So(second.Survey, ShouldResemble, first.Survey)
				So(second.Groups, ShouldResemble, first.Groups)
				So(*secondStats, ShouldResemble, *firstStats)
			})
		})

		Convey("When generating once", func() {
			ds, stats, err := synth.Generate(ctx, cfg)
			So(err, ShouldBeNil)

			Convey("Then pilots appear in the survey but not the covariates", func() {
				found := false
				for _, row := range ds.Survey {
					if row.Moniker == "pilot1" {
						found = true
						break
					}
				}
				So(found, ShouldBeTrue)
				for _, rec := range ds.Groups {
					So(rec.Moniker, ShouldNotEqual, "pilot1")
				}
				So(len(ds.Groups), ShouldEqual, 5)
			})

			Convey("Then structural rows close every beep", func() {
				// 6 participants (5 real + 1 pilot) x 2 days x 3 beeps.
				So(stats.StructuralRows, ShouldEqual, 36)
			})

			Convey("Then skipped beeps blank the whole follow-up chain", func() {
				// Six follow-up items go blank per skipped beep.
				So(stats.BranchSkips%6, ShouldEqual, 0)
			})

			Convey("Then the codebook resolves every emitted item code", func() {
				table, buildErr := csvfile.ReadKeyTable(ctx, writeKeyTable(t, ds))
				So(buildErr, ShouldBeNil)
				So(table.Size(), ShouldEqual, len(ds.KeyTable))
			})
		})

		Convey("When the shape is degenerate", func() {
			_, _, err := synth.Generate(ctx, synth.Config{Participants: 0, Days: 1, PointsPerDay: 1})

			Convey("Then generation fails", func() {
				So(errors.Is(err, synth.ErrInvalidConfig), ShouldBeTrue)
			})
		})
	})
}

func TestWriteFiles(t *testing.T) {
	Convey("Given a generated dataset", t, func() {
		ctx := context.Background()
		ds, _, err := synth.Generate(ctx, synth.Config{
			Participants: 2, Days: 1, PointsPerDay: 2, Seed: 7, Workers: 2,
		})
		So(err, ShouldBeNil)

		Convey("When writing it to a directory", func() {
			dir := t.TempDir()
			So(ds.WriteFiles(ctx, dir), ShouldBeNil)

			Convey("Then the files read back through the pipeline's readers", func() {
				rows, _, readErr := csvfile.ReadSurvey(ctx, dir+"/"+synth.SurveyFile)
				So(readErr, ShouldBeNil)
				So(len(rows), ShouldEqual, len(ds.Survey))

				groups, readErr := csvfile.ReadGroups(ctx, dir+"/"+synth.GroupsFile)
				So(readErr, ShouldBeNil)
				So(len(groups), ShouldEqual, 2)

				table, readErr := csvfile.ReadKeyTable(ctx, dir+"/"+synth.KeyTableFile)
				So(readErr, ShouldBeNil)
				So(table.Size(), ShouldEqual, len(ds.KeyTable))
			})
		})
	})
}

func writeKeyTable(t *testing.T, ds *synth.Dataset) string {
	t.Helper()
	dir := t.TempDir()
	if err := ds.WriteFiles(context.Background(), dir); err != nil {
		t.Fatalf("writing dataset: %v", err)
	}
	return dir + "/" + synth.KeyTableFile
}
