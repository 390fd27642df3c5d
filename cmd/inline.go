package cmd

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mellow-player/mellow/filesystem"
	"github.com/mellow-player/mellow/history"
	"github.com/mellow-player/mellow/inline"
	"github.com/mellow-player/mellow/key"
	"github.com/mellow-player/mellow/log"
	"github.com/mellow-player/mellow/player"
	"github.com/mellow-player/mellow/util"

	"github.com/invopop/jsonschema"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(inlineCmd)

	addPlaybackFlags(inlineCmd)
	inlineCmd.Flags().StringP("tracks", "t", "", "Select which of the given tracks to play")
	inlineCmd.Flags().StringP("output", "o", "", "Write the events to a file instead of stdout")
	inlineCmd.Flags().Duration("progress-interval", 0, "Write at most one progress event per interval")
}

var inlineCmd = &cobra.Command{
	Use:   "inline [url...]",
	Short: "Play tracks without a UI, writing playback events as JSON lines",
	Long: `Play the given files or URLs one after another and write every playback
event to stdout as one JSON object per line. See "mellow inline schema".

Track selectors:
  first - first track
  last - last track
  all - every track
  [number] - track by index (starting from 0)
  [from]-[to] - tracks by index range
  @[substring]@ - tracks whose URL contains substring`,
	Example: "  mellow inline -t 1-3 a.mp3 b.mp3 c.mp3 d.mp3\n  mellow inline --continue -o events.jsonl",
	Run: func(cmd *cobra.Command, args []string) {
		CheckDependencies()

		flags := playbackFlags(cmd)

		tracks := args
		if flags.continued {
			last, err := history.Last()
			handleErr(err)
			if track, ok := last.Get(); ok {
				tracks = append([]string{track.URL}, tracks...)
			}
		}

		filter := mo.None[inline.TrackFilter]()
		if selector := lo.Must(cmd.Flags().GetString("tracks")); selector != "" {
			fn, err := inline.ParseTrackFilter(selector)
			handleErr(err)
			filter = mo.Some(fn)
		}

		var writer io.Writer = os.Stdout
		if output := lo.Must(cmd.Flags().GetString("output")); output != "" {
			file, err := filesystem.API().Create(output)
			handleErr(err)
			defer util.Ignore(file.Close)
			writer = file
		}

		hook := mo.None[inline.ProgressHook]()
		if viper.GetBool(key.HistorySave) {
			hook = mo.Some[inline.ProgressHook](func(track string, progress player.ProgressSnapshot) {
				if err := history.Save(track, progress.CurrentTime, progress.Duration); err != nil {
					log.Warnf("save history: %v", err)
				}
			})
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		p := newPlayer()
		err := inline.Run(ctx, &inline.Options{
			Out:              writer,
			Player:           p,
			Tracks:           tracks,
			Filter:           filter,
			Loop:             flags.loop,
			Volume:           flags.volume,
			Speed:            flags.speed,
			ProgressInterval: lo.Must(cmd.Flags().GetDuration("progress-interval")),
			OnProgress:       hook,
		})
		util.Ignore(p.Close)
		handleErr(err)
	},
}

func init() {
	inlineCmd.AddCommand(inlineSchemaCmd)
}

var inlineSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of the inline events",
	Run: func(cmd *cobra.Command, args []string) {
		reflector := new(jsonschema.Reflector)
		reflector.Anonymous = true

		schema := reflector.Reflect(&inline.Event{})
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		handleErr(encoder.Encode(schema))
	},
}
