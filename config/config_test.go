package config

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

func TestSetup(t *testing.T) {
	Convey("Config Setup", t, func() {
		Reset(viper.Reset)

		Convey("Should initialize without error", func() {
			So(Setup(), ShouldBeNil)
		})

		Convey("Should have default values populated", func() {
			So(Setup(), ShouldBeNil)
			for name := range Default {
				So(viper.IsSet(name), ShouldBeTrue)
			}
			So(viper.GetDuration(key.PlayerRequestTimeout).Seconds(), ShouldEqual, 5)
			So(viper.GetString(key.PlayerBinary), ShouldEqual, "mpv")
			So(viper.GetDuration(key.PlayerRecoveryBackoffCap), ShouldEqual, 30*time.Second)
		})

		Convey("Should pick up environment overrides", func() {
			t.Setenv("MELLOW_PLAYER_CONNECT_ATTEMPTS", "9")
			So(Setup(), ShouldBeNil)
			So(viper.GetInt(key.PlayerConnectAttempts), ShouldEqual, 9)
		})

		Convey("Should reject a malformed duration", func() {
			t.Setenv("MELLOW_PLAYER_STALL_INTERVAL", "often")
			So(Setup(), ShouldNotBeNil)
		})

		Convey("Should reject an out of range volume", func() {
			t.Setenv("MELLOW_PLAYER_VOLUME", "4")
			So(Setup(), ShouldNotBeNil)
		})

		Convey("EnvKeyReplacer should convert dots to underscores", func() {
			So(EnvKeyReplacer.Replace("player.request_timeout"), ShouldEqual, "player_request_timeout")
		})
	})
}

func TestField(t *testing.T) {
	Convey("Given a registered field", t, func() {
		field := Default[key.PlayerStallInterval]

		Convey("Its env name carries the application prefix", func() {
			So(field.Env(), ShouldEqual, "MELLOW_PLAYER_STALL_INTERVAL")
		})

		Convey("Its type is reported by name", func() {
			So(field.typeName(), ShouldEqual, "string")
			vol := Default[key.PlayerVolume]
			So(vol.typeName(), ShouldEqual, "float")
		})
	})
}
