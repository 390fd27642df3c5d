package player

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mellow-player/mellow/log"
	"github.com/samber/lo"
)

const (
	minSpeed = 0.01
	maxSpeed = 100.0
)

// MPV implements Player by supervising an mpv process.
type MPV struct {
	opts Options

	mu           sync.Mutex
	session      *session
	intent       Intent
	phase        Phase
	progress     ProgressSnapshot
	enginePaused bool
	health       HealthState
	stopping     bool
	closing      bool
	closed       bool

	// startMu serializes spawning so there is never more than one engine.
	startMu sync.Mutex

	loadWatchdog *time.Timer
	stallStop    chan struct{}

	notes *notifier
}

// NewMPV creates a player. No process is spawned until the first command.
func NewMPV(opts Options) *MPV {
	return &MPV{
		opts:  opts.withDefaults(),
		notes: newNotifier(),
	}
}

// Notifications returns the channel every update is published on.
// It is closed by Close.
func (m *MPV) Notifications() <-chan Notification {
	return m.notes.out
}

// Phase returns the current playback phase.
func (m *MPV) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// Progress returns the last position reported by the engine.
func (m *MPV) Progress() ProgressSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.progress
}

// Intent returns the last playback request.
func (m *MPV) Intent() Intent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.intent
}

// Health returns the state of the health and recovery state machine.
func (m *MPV) Health() HealthState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.health
}

// Socket returns the IPC address of the current engine, or "" without one.
func (m *MPV) Socket() string {
	if s := m.current(); s != nil {
		return s.address
	}
	return ""
}

// Close stops the engine and closes the notification channel.
func (m *MPV) Close() error {
	m.mu.Lock()
	m.closing = true
	m.mu.Unlock()

	m.Stop()

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		m.notes.close()
	}
	return nil
}

// Load prepares url paused, so that a later TogglePause starts it instantly.
func (m *MPV) Load(ctx context.Context, rawURL string) error {
	target, err := sanitizeMediaTarget(rawURL)
	if err != nil {
		return fmt.Errorf("invalid media target: %w", err)
	}

	s, err := m.ensureEngine(ctx)
	if err != nil {
		return err
	}

	intent := m.updateIntent(func(i Intent) Intent { return i.withTrack(target, false) })
	m.stopStall()

	for _, c := range []Command{
		LoadFile{URL: target},
		SetPause{Paused: true},
		SetLoopFile{Enabled: intent.Loop},
	} {
		if _, err := s.send(ctx, c, false, m.opts.RequestTimeout); err != nil {
			return fmt.Errorf("load %s: %w", target, err)
		}
	}
	return nil
}

// Play loads url and lets it play. A track that cannot be loaded is reported
// as Finished instead of leaving the caller waiting for it.
func (m *MPV) Play(ctx context.Context, rawURL string) error {
	target, err := sanitizeMediaTarget(rawURL)
	if err != nil {
		m.emit(Finished{})
		return fmt.Errorf("invalid media target: %w", err)
	}

	s, err := m.ensureEngine(ctx)
	if err != nil {
		return err
	}

	intent := m.updateIntent(func(i Intent) Intent { return i.withTrack(target, true) })

	if _, err := s.send(ctx, LoadFile{URL: target}, false, m.opts.RequestTimeout); err != nil {
		log.Errorf("play %s: %v", target, err)
		m.emit(Finished{})
		return fmt.Errorf("play %s: %w", target, err)
	}

	// A previous Load may have left the engine paused.
	m.sendLogged(ctx, s, SetPause{Paused: false})
	m.sendLogged(ctx, s, SetLoopFile{Enabled: intent.Loop})

	m.startStall()
	return nil
}

// TogglePause flips between playing and paused. The resulting phase is
// published before the engine confirms it; the pause property-change event
// corrects it if the prediction was wrong. Without a ready engine the
// current pause state is unknown and the call does nothing.
func (m *MPV) TogglePause(ctx context.Context) error {
	m.mu.Lock()
	recovering := m.health == Recovering
	s := m.session
	track := m.intent.URL
	m.mu.Unlock()

	if recovering {
		return ErrRecovering
	}
	if s == nil || !s.Ready() || track == "" {
		log.Infof("ignoring pause toggle: engine not ready")
		return nil
	}

	s, err := m.ensureEngine(ctx)
	if err != nil {
		return err
	}

	data, err := s.send(ctx, GetProperty{Name: PropPause}, false, m.opts.RequestTimeout)
	if err != nil {
		return fmt.Errorf("read pause: %w", err)
	}
	paused, _ := decodeBool(data)
	pausing := !paused

	m.mu.Lock()
	m.intent = m.intent.withPlaying(!pausing)
	if pausing {
		m.setPhaseLocked(Paused)
		m.stopStallLocked()
	} else {
		m.setPhaseLocked(Playing)
		m.startStallLocked()
	}
	m.mu.Unlock()

	if _, err := s.send(ctx, CyclePause{}, false, m.opts.RequestTimeout); err != nil {
		return fmt.Errorf("toggle pause: %w", err)
	}
	return nil
}

// Seek jumps to seconds from the start of the track.
func (m *MPV) Seek(ctx context.Context, seconds float64) error {
	return m.setProperty(ctx, SetTimePos{Seconds: lo.Max([]float64{seconds, 0})})
}

// SetVolume maps level from 0..1 onto the engine's 0..100 scale.
func (m *MPV) SetVolume(ctx context.Context, level float64) error {
	return m.setProperty(ctx, SetVolume{Level: lo.Clamp(level, 0, 1) * 100})
}

// SetSpeed sets the playback rate, 1 being normal speed.
func (m *MPV) SetSpeed(ctx context.Context, factor float64) error {
	return m.setProperty(ctx, SetSpeed{Factor: lo.Clamp(factor, minSpeed, maxSpeed)})
}

// SetLoop records whether tracks loop and applies it to the current track, if any.
// With nothing loaded no engine command is issued.
func (m *MPV) SetLoop(ctx context.Context, enabled bool) error {
	m.mu.Lock()
	m.intent = m.intent.withLoop(enabled)
	track := m.intent.URL
	recovering := m.health == Recovering
	s := m.session
	m.mu.Unlock()

	// Recovery replays the stored intent, loop included.
	if track == "" || s == nil || recovering {
		return nil
	}

	m.sendLogged(ctx, s, SetLoopFile{Enabled: enabled})
	return nil
}

// setProperty sends a single property change. Engine failures are only logged.
func (m *MPV) setProperty(ctx context.Context, c Command) error {
	s, err := m.ensureEngine(ctx)
	if err != nil {
		return err
	}
	m.sendLogged(ctx, s, c)
	return nil
}

func (m *MPV) sendLogged(ctx context.Context, s *session, c Command) {
	if _, err := s.send(ctx, c, false, m.opts.RequestTimeout); err != nil {
		log.Warnf("%s %v: %v", c.Verb(), c.args(), err)
	}
}

// ensureEngine returns a session fit to take commands: it refuses while
// recovering, recovers an engine that died or stopped answering, and spawns
// one if there is none.
func (m *MPV) ensureEngine(ctx context.Context) (*session, error) {
	m.mu.Lock()
	if m.closing {
		m.mu.Unlock()
		return nil, ErrSessionClosed
	}
	if m.health == Recovering {
		m.mu.Unlock()
		return nil, ErrRecovering
	}
	s := m.session
	m.mu.Unlock()

	switch {
	case s == nil:
		if err := m.startIfNone(); err != nil {
			if errors.Is(err, ErrSessionClosed) {
				return nil, err
			}
			log.Error(err)
			m.emit(Failed{Err: err})
			m.Stop()
			return nil, err
		}
	case !s.Alive():
		log.Warnf("engine process is gone, recovering")
		if err := m.recover(ctx, true); err != nil {
			return nil, err
		}
	case s.Lost():
		log.Warnf("engine socket was lost, recovering")
		if err := m.recover(ctx, true); err != nil {
			return nil, err
		}
	case s.Ready() && !m.healthy(ctx):
		if err := m.recover(ctx, true); err != nil {
			return nil, err
		}
	}

	s = m.current()
	if s == nil {
		return nil, ErrSessionClosed
	}
	return s, nil
}

func (m *MPV) current() *session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// isClosed reports whether Close has begun.
func (m *MPV) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closing
}

// updateIntent applies fn to the intent and returns the result.
func (m *MPV) updateIntent(fn func(Intent) Intent) Intent {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.intent = fn(m.intent)
	return m.intent
}

// setPhaseLocked is the only place the phase changes; every change is published.
func (m *MPV) setPhaseLocked(phase Phase) {
	m.phase = phase
	m.emitLocked(StateChanged{Phase: phase})
}

func (m *MPV) emit(n Notification) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emitLocked(n)
}

func (m *MPV) emitLocked(n Notification) {
	if m.closed {
		return
	}
	m.notes.emit(n)
}

// sanitizeMediaTarget validates that a URL is safe to pass to mpv.
// Prevents flag injection through crafted playlist entries.
func sanitizeMediaTarget(link string) (string, error) {
	l := strings.TrimSpace(link)
	if l == "" {
		return "", fmt.Errorf("empty URL")
	}

	// Reject control characters
	if strings.ContainsAny(l, "\x00\n\r") {
		return "", fmt.Errorf("invalid control characters in URL")
	}

	// Prevent flag injection: URLs must not start with -
	if strings.HasPrefix(l, "-") {
		return "", fmt.Errorf("url must not start with '-' (looks like a flag)")
	}

	if strings.Contains(l, "://") {
		u, err := url.Parse(l)
		if err != nil {
			return "", fmt.Errorf("invalid URL: %w", err)
		}
		switch strings.ToLower(u.Scheme) {
		case "http", "https", "file":
			return l, nil
		default:
			return "", fmt.Errorf("unsupported URL scheme: %s", u.Scheme)
		}
	}

	// Treat as local file path
	return filepath.Clean(l), nil
}
