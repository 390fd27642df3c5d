// Package tui is the interactive now-playing view over a player.
package tui

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mellow-player/mellow/history"
	"github.com/mellow-player/mellow/log"
	"github.com/mellow-player/mellow/player"
)

// ErrNothingToPlay is returned when neither tracks nor a history entry to continue were given.
var ErrNothingToPlay = errors.New("nothing to play")

// Options configures a playback session.
type Options struct {
	Tracks []string

	// Continue puts the most recently played track first and resumes it where it stopped.
	Continue bool

	// ResumeAt is where the first track starts, in seconds.
	ResumeAt float64

	Loop   bool
	Volume float64
	Speed  float64
}

// Run plays the tracks in a full screen view until the user quits.
func Run(p player.Player, options *Options) error {
	tracks := options.Tracks
	resumeAt := options.ResumeAt

	if options.Continue {
		last, err := history.Last()
		if err != nil {
			return err
		}

		if track, ok := last.Get(); ok {
			tracks = append([]string{track.URL}, tracks...)
			resumeAt = track.ResumeAt()
			log.Infof("continuing %s at %.0fs", track.URL, resumeAt)
		}
	}

	if len(tracks) == 0 {
		return ErrNothingToPlay
	}

	bubble := newBubble(p, tracks, options)
	bubble.resumeAt = resumeAt

	_, err := tea.NewProgram(bubble, tea.WithAltScreen()).Run()
	return err
}
