package bus

import (
	"errors"
	"testing"

	"github.com/okian/elrobot/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMatch(t *testing.T) {
	Convey("Given key expressions", t, func() {
		So(Match("elrobot/cams/*", "elrobot/cams/cam0"), ShouldBeTrue)
		So(Match("elrobot/cams/*", "elrobot/cams/cam0/x"), ShouldBeFalse)
		So(Match("elrobot/faces/*/*", "elrobot/faces/cam0/1"), ShouldBeTrue)
		So(Match("elrobot/faces/*/*", "elrobot/faces/cam0/1/box"), ShouldBeFalse)
		So(Match("elrobot/faces/*/*/box", "elrobot/faces/cam0/1/box"), ShouldBeTrue)
		So(Match("elrobot/vectors/**", "elrobot/vectors/bob/0"), ShouldBeTrue)
		So(Match("elrobot/vectors/**", "elrobot/vectors"), ShouldBeTrue)
		So(Match("elrobot/**/box", "elrobot/faces/cam0/1/box"), ShouldBeTrue)
		So(Match("rt/rosout", "rt/rosout"), ShouldBeTrue)
		So(Match("rt/rosout", "rt/rosout2"), ShouldBeFalse)
	})

	Convey("Given pattern validation", t, func() {
		So(ValidatePattern("a/*/b/**"), ShouldBeNil)
		So(errors.Is(ValidatePattern(""), ErrInvalidPattern), ShouldBeTrue)
		So(errors.Is(ValidatePattern("a//b"), ErrInvalidPattern), ShouldBeTrue)
		So(errors.Is(ValidatePattern("a/b*"), ErrInvalidPattern), ShouldBeTrue)
		So(HasWildcard("a/*"), ShouldBeTrue)
		So(HasWildcard("a/b"), ShouldBeFalse)
	})
}

func TestKeys(t *testing.T) {
	Convey("Given the default key hierarchy", t, func() {
		k := Keys{Prefix: "elrobot", Rosout: "rt/rosout"}
		face := model.FaceKey{Camera: "cam0", Index: 2}

		Convey("Then builders and patterns agree", func() {
			So(k.Camera("cam0"), ShouldEqual, "elrobot/cams/cam0")
			So(k.Crop(face), ShouldEqual, "elrobot/faces/cam0/2")
			So(k.Box(face), ShouldEqual, "elrobot/faces/cam0/2/box")
			So(k.Label(face), ShouldEqual, "elrobot/faces/cam0/2/name")
			So(k.Vector("bob", "3"), ShouldEqual, "elrobot/vectors/bob/3")

			So(Match(k.CamerasPattern(), k.Camera("cam0")), ShouldBeTrue)
			So(Match(k.CropsPattern(), k.Crop(face)), ShouldBeTrue)
			So(Match(k.BoxesPattern(), k.Box(face)), ShouldBeTrue)
			So(Match(k.LabelsPattern(), k.Label(face)), ShouldBeTrue)
			So(Match(k.VectorsPattern(), k.Vector("bob", "3")), ShouldBeTrue)
		})

		Convey("Then keys classify by kind", func() {
			cases := map[string]Parsed{
				"elrobot/cams/cam0":         {Kind: model.KindFrame, Face: model.FaceKey{Camera: "cam0"}},
				"elrobot/faces/cam0/2":      {Kind: model.KindCrop, Face: face},
				"elrobot/faces/cam0/2/box":  {Kind: model.KindBox, Face: face},
				"elrobot/faces/cam0/2/name": {Kind: model.KindLabel, Face: face},
				"elrobot/vectors/bob/3":     {Kind: model.KindVector, Name: "bob", Number: "3"},
				"elrobot/vectors/x/y/bob/3": {Kind: model.KindVector, Name: "bob", Number: "3"},
				"rt/rosout":                 {Kind: model.KindLog},
			}
			for key, want := range cases {
				got, err := k.Classify(key)
				So(err, ShouldBeNil)
				So(got, ShouldResemble, want)
			}
		})

		Convey("Then unknown keys are rejected", func() {
			for _, key := range []string{
				"other/cams/cam0",
				"elrobot/cams",
				"elrobot/faces/cam0/-1",
				"elrobot/faces/cam0/one/box",
				"elrobot/faces/cam0/1/size",
				"elrobot/vectors/bob",
				"elrobot//cams",
			} {
				_, err := k.Classify(key)
				So(errors.Is(err, ErrUnknownKey), ShouldBeTrue)
			}
		})
	})
}
