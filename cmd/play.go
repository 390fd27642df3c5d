package cmd

import (
	"errors"

	"github.com/mellow-player/mellow/key"
	"github.com/mellow-player/mellow/tui"
	"github.com/mellow-player/mellow/util"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(playCmd)
	addPlaybackFlags(playCmd)
}

// addPlaybackFlags registers the flags shared by every command that plays something.
// Unset flags fall back to the configuration.
func addPlaybackFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("continue", "c", false, "Resume the most recently played track first")
	cmd.Flags().BoolP("loop", "l", false, "Loop every track")
	cmd.Flags().Float64("volume", 0, "Volume from 0 to 1")
	cmd.Flags().Float64("speed", 0, "Playback speed, 1 being normal")
}

type playback struct {
	continued bool
	loop      bool
	volume    float64
	speed     float64
}

func playbackFlags(cmd *cobra.Command) playback {
	flags := cmd.Flags()

	pick := func(name, configKey string) float64 {
		if flags.Changed(name) {
			return lo.Must(flags.GetFloat64(name))
		}
		return viper.GetFloat64(configKey)
	}

	return playback{
		continued: lo.Must(flags.GetBool("continue")),
		loop:      lo.Ternary(flags.Changed("loop"), lo.Must(flags.GetBool("loop")), viper.GetBool(key.PlayerLoop)),
		volume:    util.Min(util.Max(pick("volume", key.PlayerVolume), 0), 1),
		speed:     pick("speed", key.PlayerSpeed),
	}
}

var playCmd = &cobra.Command{
	Use:   "play [url...]",
	Short: "Play tracks in the terminal",
	Long: `Play the given files or URLs one after another in a full screen view.
With --continue the most recently played track is resumed first.`,
	Example: "  mellow play ~/Music/*.flac\n  mellow play --continue",
	Run: func(cmd *cobra.Command, args []string) {
		if !util.IsTerminal() {
			handleErr(errors.New("play needs a terminal, use \"mellow inline\" to play without one"))
		}
		CheckDependencies()

		flags := playbackFlags(cmd)

		p := newPlayer()
		err := tui.Run(p, &tui.Options{
			Tracks:   args,
			Continue: flags.continued,
			Loop:     flags.loop,
			Volume:   flags.volume,
			Speed:    flags.speed,
		})
		util.Ignore(p.Close)
		handleErr(err)
	},
}
