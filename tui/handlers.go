package tui

import (
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mellow-player/mellow/history"
	"github.com/mellow-player/mellow/key"
	"github.com/mellow-player/mellow/log"
	"github.com/mellow-player/mellow/player"
	"github.com/mellow-player/mellow/util"
	"github.com/spf13/viper"
)

type notificationMsg struct {
	player.Notification
}

type notificationsClosedMsg struct{}

// playFailedMsg is sent when a track is rejected outright, so the playlist moves past it.
type playFailedMsg struct {
	track string
	err   error
}

func (b *statefulBubble) waitForNotification() tea.Cmd {
	notifications := b.player.Notifications()
	return func() tea.Msg {
		n, ok := <-notifications
		if !ok {
			return notificationsClosedMsg{}
		}
		return notificationMsg{n}
	}
}

// playCurrent starts the current track. Volume and speed need an engine, so
// they are applied once, after the first track was accepted.
func (b *statefulBubble) playCurrent() tea.Cmd {
	p, ctx := b.player, b.ctx
	track, loop := b.current, b.loop
	configure, volume, speed := b.configure, b.volume, b.speed

	b.started = false
	b.progress = player.ProgressSnapshot{}
	b.lastSave = time.Time{}
	b.setState(loadingState)

	return func() tea.Msg {
		_ = p.SetLoop(ctx, loop)

		if err := p.Play(ctx, track); err != nil {
			return playFailedMsg{track: track, err: err}
		}

		if configure {
			if err := p.SetVolume(ctx, volume); err != nil {
				log.Warnf("set volume: %v", err)
			}
			if err := p.SetSpeed(ctx, speed); err != nil {
				log.Warnf("set speed: %v", err)
			}
		}
		return nil
	}
}

// run executes a player command, showing a notice if it fails.
func (b *statefulBubble) run(what string, command func() error) tea.Cmd {
	return func() tea.Msg {
		if err := command(); err != nil {
			if errors.Is(err, player.ErrRecovering) {
				return noticeMsg("player is restarting, try again")
			}
			log.Warnf("%s: %v", what, err)
			return noticeMsg(fmt.Sprintf("%s failed", what))
		}
		return nil
	}
}

func (b *statefulBubble) handleNotification(n player.Notification) tea.Cmd {
	switch n := n.(type) {
	case player.StateChanged:
		return b.phaseChanged(n.Phase)
	case player.ProgressUpdated:
		b.progress = n.ProgressSnapshot
		b.saveProgress(false)
	case player.Finished:
		if !b.started {
			log.Debugf("ignoring finish of a track that never started")
			return nil
		}
		b.saveProgress(true)
		return b.next()
	case player.Failed:
		if player.IsFatal(n.Err) {
			b.raiseError(n.Err)
			return nil
		}
		return notify(n.Err.Error())
	}
	return nil
}

func (b *statefulBubble) phaseChanged(phase player.Phase) tea.Cmd {
	b.phase = phase

	if b.state == finishedState || b.state == errorState {
		return nil
	}

	switch phase {
	case player.Idle:
		return nil
	case player.Buffering:
		b.started = true
		b.setState(loadingState)
		return nil
	}

	b.started = true
	b.configure = false
	b.setState(playingState)

	if b.resumeAt > 0 && phase == player.Playing {
		at := b.resumeAt
		b.resumeAt = 0
		p, ctx := b.player, b.ctx
		return tea.Batch(
			notify(fmt.Sprintf("resuming at %s", util.FormatDuration(at))),
			b.run("seek", func() error { return p.Seek(ctx, at) }),
		)
	}
	return nil
}

// saveProgress records the position of the current track. Unless force is
// set it writes at most once per saveInterval.
func (b *statefulBubble) saveProgress(force bool) {
	if !viper.GetBool(key.HistorySave) || b.progress.Duration <= 0 {
		return
	}

	now := time.Now()
	if !force && now.Sub(b.lastSave) < saveInterval {
		return
	}
	b.lastSave = now

	if err := history.Save(b.current, b.progress.CurrentTime, b.progress.Duration); err != nil {
		log.Warnf("save history: %v", err)
	}
}

// next moves to the following track, or to the end of the playlist.
func (b *statefulBubble) next() tea.Cmd {
	b.played.Push(b.current)

	if len(b.queue) == 0 {
		b.current = ""
		b.resumeAt = 0
		b.setState(finishedState)
		p := b.player
		return func() tea.Msg {
			p.Stop()
			return nil
		}
	}

	b.current, b.queue = b.queue[0], b.queue[1:]
	b.resumeAt = 0
	return b.playCurrent()
}

func (b *statefulBubble) previous() tea.Cmd {
	if b.played.Len() == 0 {
		return notify("no previous track")
	}

	if b.current != "" {
		b.queue = append([]string{b.current}, b.queue...)
	}
	b.current = b.played.Pop()
	b.resumeAt = 0
	return b.playCurrent()
}
