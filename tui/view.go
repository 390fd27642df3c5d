package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mellow-player/mellow/color"
	"github.com/mellow-player/mellow/icon"
	"github.com/mellow-player/mellow/player"
	"github.com/mellow-player/mellow/style"
	"github.com/mellow-player/mellow/util"
	"github.com/muesli/reflow/wrap"
)

var paddingStyle = lipgloss.NewStyle().Padding(1, 2)

func (b *statefulBubble) View() string {
	var output string

	switch b.state {
	case loadingState:
		output = b.viewLoading()
	case playingState:
		output = b.viewPlaying()
	case finishedState:
		output = b.viewFinished()
	case errorState:
		output = b.viewError()
	default:
		output = "Unknown state"
	}

	return b.notice.View(output)
}

func (b *statefulBubble) viewLoading() string {
	return b.renderLines(
		true,
		[]string{
			style.Title("Loading"),
			"",
			style.Truncate(b.width)(b.spinnerC.View() + " " + style.Fg(color.Purple)(util.TrackTitle(b.current))),
			"",
			b.viewQueue(),
		},
	)
}

func (b *statefulBubble) viewPlaying() string {
	status := icon.Get(icon.Play)
	if b.phase == player.Paused {
		status = icon.Get(icon.Pause)
	}

	var percent float64
	if b.progress.Duration > 0 {
		percent = b.progress.CurrentTime / b.progress.Duration
	}

	settings := []string{
		fmt.Sprintf("%s %.0f%%", icon.Get(icon.Volume), b.volume*100),
		fmt.Sprintf("%s %.2fx", icon.Get(icon.Speed), b.speed),
	}
	if b.loop {
		settings = append(settings, icon.Get(icon.Loop)+" loop")
	}

	return b.renderLines(
		true,
		[]string{
			style.Title("Now Playing"),
			"",
			style.Truncate(b.width)(status + " " + style.Fg(color.Purple)(util.TrackTitle(b.current))),
			"",
			b.progressC.ViewAs(percent),
			style.Faint(fmt.Sprintf("%s / %s", util.FormatDuration(b.progress.CurrentTime), util.FormatDuration(b.progress.Duration))),
			"",
			strings.Join(settings, "   "),
			b.viewQueue(),
		},
	)
}

func (b *statefulBubble) viewQueue() string {
	if len(b.queue) == 0 {
		return style.Faint("last track")
	}
	return style.Faint(fmt.Sprintf("up next: %s (%s)", util.TrackTitle(b.queue[0]), util.Quantify(len(b.queue), "track", "tracks")))
}

func (b *statefulBubble) viewFinished() string {
	return b.renderLines(
		true,
		[]string{
			style.Title("Finished"),
			"",
			icon.Get(icon.Success) + " Played " + util.Quantify(b.played.Len(), "track", "tracks"),
		},
	)
}

func (b *statefulBubble) viewError() string {
	errorStyle := style.New().Foreground(style.HiRed).Bold(true)
	errorMsg := wrap.String(errorStyle.Render(b.lastError.Error()), b.width)
	return b.renderLines(
		true,
		[]string{
			style.ErrorTitle("Error"),
			"",
			icon.Get(icon.Fail) + " The player stopped:",
			"",
			errorMsg,
		},
	)
}

func (b *statefulBubble) renderLines(addHelp bool, lines []string) string {
	h := len(lines)
	l := strings.Join(lines, "\n")
	if addHelp {
		if b.height > h {
			l += strings.Repeat("\n", b.height-h)
		}
		l += b.helpC.View(b.keymap)
	}

	return paddingStyle.Render(l)
}
