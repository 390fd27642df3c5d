package history

import (
	"testing"
	"time"

	"github.com/mellow-player/mellow/filesystem"
	"github.com/mellow-player/mellow/key"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestHistory(t *testing.T) {
	Convey("Given an empty history", t, func() {
		So(Clear(), ShouldBeNil)

		Convey("Last reports nothing", func() {
			last, err := Last()
			So(err, ShouldBeNil)
			So(last.IsAbsent(), ShouldBeTrue)
		})

		Convey("When saving a track", func() {
			err := Save("https://example.com/music/Blue%20in%20Green.flac", 42, 337)
			So(err, ShouldBeNil)

			Convey("Then it is remembered with its position", func() {
				tracks, err := Get()
				So(err, ShouldBeNil)
				So(tracks, ShouldHaveLength, 1)

				track := tracks["https://example.com/music/Blue%20in%20Green.flac"]
				So(track, ShouldNotBeNil)
				So(track.Title, ShouldEqual, "Blue in Green")
				So(track.Position, ShouldEqual, 42)
				So(track.ResumeAt(), ShouldEqual, 42)
			})

			Convey("Then saving it again overwrites the position", func() {
				So(Save("https://example.com/music/Blue%20in%20Green.flac", 10, 337), ShouldBeNil)
				last, err := Last()
				So(err, ShouldBeNil)
				So(last.MustGet().Position, ShouldEqual, 10)
			})

			Convey("Then it can be removed", func() {
				So(Remove("https://example.com/music/Blue%20in%20Green.flac"), ShouldBeNil)
				tracks, err := Get()
				So(err, ShouldBeNil)
				So(tracks, ShouldBeEmpty)
			})
		})

		Convey("When searching", func() {
			So(Save("https://example.com/jazz/Blue%20in%20Green.flac", 1, 10), ShouldBeNil)
			So(Save("/home/me/music/So What.mp3", 1, 10), ShouldBeNil)

			Convey("Then titles match fuzzily and case-insensitively", func() {
				found, err := Search("blugreen")
				So(err, ShouldBeNil)
				So(found, ShouldHaveLength, 1)
				So(found[0].Title, ShouldEqual, "Blue in Green")
			})

			Convey("Then URLs match too", func() {
				found, err := Search("jazz")
				So(err, ShouldBeNil)
				So(found, ShouldHaveLength, 1)
			})

			Convey("Then an unrelated query matches nothing", func() {
				found, err := Search("coltrane")
				So(err, ShouldBeNil)
				So(found, ShouldBeEmpty)
			})
		})

		Convey("When saving more tracks than the limit", func() {
			viper.Set(key.HistoryLimit, 2)
			Reset(func() { viper.Set(key.HistoryLimit, 100) })

			for _, u := range []string{"/a.mp3", "/b.mp3", "/c.mp3"} {
				So(Save(u, 1, 10), ShouldBeNil)
				time.Sleep(time.Millisecond)
			}

			Convey("Then the oldest is dropped", func() {
				tracks, err := List()
				So(err, ShouldBeNil)
				So(tracks, ShouldHaveLength, 2)
				So(tracks[0].URL, ShouldEqual, "/c.mp3")
				So(tracks[1].URL, ShouldEqual, "/b.mp3")
			})
		})
	})
}

func TestTrack(t *testing.T) {
	Convey("Given a track played to its end", t, func() {
		track := &Track{Title: "so_what", Position: 538, Duration: 541}

		Convey("It counts as finished and resumes from the start", func() {
			So(track.Finished(), ShouldBeTrue)
			So(track.ResumeAt(), ShouldEqual, 0)
			So(track.Percentage(), ShouldAlmostEqual, 99.44, 0.01)
			So(track.String(), ShouldEqual, "so_what : 8:58 / 9:01")
		})
	})

	Convey("Given a stream of unknown length", t, func() {
		track := &Track{Title: "radio", Position: 120}

		So(track.Finished(), ShouldBeFalse)
		So(track.Percentage(), ShouldEqual, 0)
		So(track.String(), ShouldEqual, "radio")
	})
}
