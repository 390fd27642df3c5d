package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mellow-player/mellow/log"
	"github.com/mellow-player/mellow/util"
	"github.com/samber/lo"
)

func (b *statefulBubble) Init() tea.Cmd {
	return tea.Batch(b.spinnerC.Tick, b.waitForNotification(), b.playCurrent())
}

func (b *statefulBubble) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	if cmd := b.notice.Update(msg); cmd != nil {
		cmds = append(cmds, cmd)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.resize(msg.Width, msg.Height)
	case spinner.TickMsg:
		var cmd tea.Cmd
		b.spinnerC, cmd = b.spinnerC.Update(msg)
		cmds = append(cmds, cmd)
	case notificationMsg:
		cmds = append(cmds, b.handleNotification(msg.Notification), b.waitForNotification())
	case notificationsClosedMsg:
		return b, tea.Quit
	case playFailedMsg:
		log.Errorf("play %s: %v", msg.track, msg.err)
		if msg.track == b.current {
			cmds = append(cmds, notify(fmt.Sprintf("skipped %s", util.TrackTitle(msg.track))), b.next())
		}
	case error:
		b.raiseError(msg)
	case tea.KeyMsg:
		cmds = append(cmds, b.handleKey(msg)...)
	}

	return b, tea.Batch(cmds...)
}

func (b *statefulBubble) handleKey(msg tea.KeyMsg) []tea.Cmd {
	p, ctx := b.player, b.ctx

	switch {
	case key.Matches(msg, b.keymap.forceQuit), key.Matches(msg, b.keymap.quit):
		b.saveProgress(true)
		return []tea.Cmd{tea.Quit}
	case key.Matches(msg, b.keymap.showHelp):
		b.helpC.ShowAll = !b.helpC.ShowAll
		return nil
	}

	switch b.state {
	case errorState:
		return nil
	case finishedState:
		if key.Matches(msg, b.keymap.previous) {
			return []tea.Cmd{b.previous()}
		}
		return nil
	case loadingState:
		if key.Matches(msg, b.keymap.next) {
			return []tea.Cmd{b.next()}
		}
		return nil
	}

	switch {
	case key.Matches(msg, b.keymap.togglePause):
		return []tea.Cmd{b.run("pause", func() error { return p.TogglePause(ctx) })}
	case key.Matches(msg, b.keymap.seekForward), key.Matches(msg, b.keymap.seekBackward):
		step := lo.Ternary(key.Matches(msg, b.keymap.seekForward), seekStep(), -seekStep())
		target := util.Max(b.progress.CurrentTime+step, 0)
		if b.progress.Duration > 0 {
			target = util.Min(target, b.progress.Duration)
		}
		b.progress.CurrentTime = target
		return []tea.Cmd{b.run("seek", func() error { return p.Seek(ctx, target) })}
	case key.Matches(msg, b.keymap.volumeUp), key.Matches(msg, b.keymap.volumeDown):
		step := lo.Ternary(key.Matches(msg, b.keymap.volumeUp), volumeStep, -volumeStep)
		b.volume = lo.Clamp(b.volume+step, 0, 1)
		volume := b.volume
		return []tea.Cmd{b.run("volume", func() error { return p.SetVolume(ctx, volume) })}
	case key.Matches(msg, b.keymap.speedUp), key.Matches(msg, b.keymap.speedDown):
		step := lo.Ternary(key.Matches(msg, b.keymap.speedUp), speedStep, -speedStep)
		b.speed = lo.Clamp(b.speed+step, minSpeed, maxSpeed)
		speed := b.speed
		return []tea.Cmd{b.run("speed", func() error { return p.SetSpeed(ctx, speed) })}
	case key.Matches(msg, b.keymap.loop):
		b.loop = !b.loop
		loop := b.loop
		return []tea.Cmd{
			notify(lo.Ternary(loop, "loop on", "loop off")),
			b.run("loop", func() error { return p.SetLoop(ctx, loop) }),
		}
	case key.Matches(msg, b.keymap.next):
		b.saveProgress(true)
		return []tea.Cmd{b.next()}
	case key.Matches(msg, b.keymap.previous):
		b.saveProgress(true)
		return []tea.Cmd{b.previous()}
	}

	return nil
}
