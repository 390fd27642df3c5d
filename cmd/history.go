package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/mellow-player/mellow/color"
	"github.com/mellow-player/mellow/history"
	"github.com/mellow-player/mellow/icon"
	"github.com/mellow-player/mellow/style"
	"github.com/mellow-player/mellow/tui"
	"github.com/mellow-player/mellow/util"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().BoolP("json", "j", false, "Print the history as JSON")
	historyCmd.Flags().BoolP("urls", "u", false, "Print only the URLs, one per line")
	historyCmd.Flags().StringP("search", "s", "", "Only show tracks matching this text")
	historyCmd.MarkFlagsMutuallyExclusive("json", "urls")
	historyCmd.SetOut(os.Stdout)

	historyCmd.AddCommand(historyRemoveCmd)
	historyCmd.AddCommand(historyClearCmd)
	historyClearCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
	historyCmd.AddCommand(historyPickCmd)
	addPlaybackFlags(historyPickCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently played tracks",
	Run: func(cmd *cobra.Command, args []string) {
		var (
			tracks []*history.Track
			err    error
		)
		if search := lo.Must(cmd.Flags().GetString("search")); search != "" {
			tracks, err = history.Search(search)
		} else {
			tracks, err = history.List()
		}
		handleErr(err)

		switch {
		case lo.Must(cmd.Flags().GetBool("json")):
			handleErr(json.NewEncoder(cmd.OutOrStdout()).Encode(tracks))
			return
		case lo.Must(cmd.Flags().GetBool("urls")):
			for _, track := range tracks {
				cmd.Println(track.URL)
			}
			return
		}

		if len(tracks) == 0 {
			cmd.Println("Nothing played yet")
			return
		}

		for _, track := range tracks {
			status := style.Fg(color.Yellow)(fmt.Sprintf("%3.0f%%", track.Percentage()))
			if track.Finished() {
				status = style.Fg(color.Green)(icon.Get(icon.Success) + "   ")
			}

			cmd.Printf("%s %s\n", status, style.Bold(track.String()))
			cmd.Printf("     %s  %s\n", style.Faint(track.URL), style.Faint(track.PlayedAt.Format("2006-01-02 15:04")))
		}

		cmd.Println()
		cmd.Println(style.Faint(util.Quantify(len(tracks), "track", "tracks")))
	},
}

var historyRemoveCmd = &cobra.Command{
	Use:   "remove <url>...",
	Short: "Forget the given tracks",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		for _, url := range args {
			handleErr(history.Remove(url))
		}
		cmd.Printf("%s Removed %s\n", icon.Get(icon.Success), util.Quantify(len(args), "track", "tracks"))
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget every track",
	Run: func(cmd *cobra.Command, args []string) {
		if !lo.Must(cmd.Flags().GetBool("yes")) {
			var confirmed bool
			handleErr(survey.AskOne(&survey.Confirm{
				Message: "Forget every played track?",
				Default: false,
			}, &confirmed))

			if !confirmed {
				return
			}
		}

		handleErr(history.Clear())
		cmd.Printf("%s History cleared\n", icon.Get(icon.Success))
	},
}

var historyPickCmd = &cobra.Command{
	Use:   "pick",
	Short: "Choose a track from the history and continue playing it",
	Run: func(cmd *cobra.Command, args []string) {
		tracks, err := history.List()
		handleErr(err)

		if len(tracks) == 0 {
			cmd.Println("Nothing played yet")
			return
		}

		var index int
		handleErr(survey.AskOne(&survey.Select{
			Message: "Continue playing",
			Options: lo.Map(tracks, func(t *history.Track, _ int) string {
				return t.String()
			}),
			PageSize: 15,
		}, &index, survey.WithFilter(func(filter, _ string, i int) bool {
			return history.Matches(filter, tracks[i])
		})))

		CheckDependencies()

		picked := tracks[index]
		flags := playbackFlags(cmd)

		p := newPlayer()
		err = tui.Run(p, &tui.Options{
			Tracks:   []string{picked.URL},
			ResumeAt: picked.ResumeAt(),
			Loop:     flags.loop,
			Volume:   flags.volume,
			Speed:    flags.speed,
		})
		util.Ignore(p.Close)
		handleErr(err)
	},
}
