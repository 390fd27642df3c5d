package util

import (
	"testing"

	"github.com/mellow-player/mellow/filesystem"
	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
)

func TestQuantify(t *testing.T) {
	Convey("Quantify", t, func() {
		So(Quantify(1, "track", "tracks"), ShouldEqual, "1 track")
		So(Quantify(2, "track", "tracks"), ShouldEqual, "2 tracks")
	})
}

func TestCapitalize(t *testing.T) {
	Convey("Capitalize", t, func() {
		So(Capitalize("paused"), ShouldEqual, "Paused")
		So(Capitalize(""), ShouldEqual, "")
	})
}

func TestTrackTitle(t *testing.T) {
	Convey("TrackTitle", t, func() {
		Convey("Should use the last path segment of a URL", func() {
			So(TrackTitle("https://example.com/music/Blue%20in%20Green.flac"), ShouldEqual, "Blue in Green")
		})
		Convey("Should use the file stem of a local path", func() {
			So(TrackTitle("/music/so_what.mp3"), ShouldEqual, "so_what")
		})
		Convey("Should fall back to the host of a bare URL", func() {
			So(TrackTitle("https://radio.example.com/"), ShouldEqual, "radio.example.com")
		})
	})
}

func TestFormatDuration(t *testing.T) {
	Convey("FormatDuration", t, func() {
		So(FormatDuration(0), ShouldEqual, "0:00")
		So(FormatDuration(65.4), ShouldEqual, "1:05")
		So(FormatDuration(3725), ShouldEqual, "1:02:05")
		So(FormatDuration(-3), ShouldEqual, "0:00")
	})
}

func TestFileStem(t *testing.T) {
	Convey("FileStem", t, func() {
		So(FileStem("path/to/file.txt"), ShouldEqual, "file")
		So(FileStem("file"), ShouldEqual, "file")
	})
}

func TestMaxMin(t *testing.T) {
	Convey("Max/Min", t, func() {
		So(Max(1, 5, 2), ShouldEqual, 5)
		So(Min(1, 5, 2), ShouldEqual, 1)
		So(Max[int](), ShouldEqual, 0)
	})
}

func TestDelete(t *testing.T) {
	Convey("Delete", t, func() {
		filesystem.SetMemMapFs()
		fs := filesystem.API()
		lo.Must0(fs.MkdirAll("/cache/mellow", 0o755))
		lo.Must0(fs.WriteFile("/cache/mellow/version.json", []byte("{}"), 0o644))

		So(Delete("/cache/mellow"), ShouldBeNil)
		So(lo.Must(fs.Exists("/cache/mellow")), ShouldBeFalse)
		So(Delete("/cache/mellow"), ShouldNotBeNil)
	})
}

func TestStack(t *testing.T) {
	Convey("Stack", t, func() {
		var s Stack[string]
		s.Push("a.mp3")
		s.Push("b.mp3")
		So(s.Len(), ShouldEqual, 2)
		So(s.Peek(), ShouldEqual, "b.mp3")
		So(s.Pop(), ShouldEqual, "b.mp3")
		So(s.Pop(), ShouldEqual, "a.mp3")
		So(s.Pop(), ShouldEqual, "")
	})
}
