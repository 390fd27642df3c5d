package player

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

const track = "https://example.com/a.mp3"

func newTestMPV(h *harness, tweak func(*Options)) (*MPV, *recorder) {
	opts := testOptions(h)
	if tweak != nil {
		tweak(&opts)
	}
	m := NewMPV(opts)
	return m, record(m)
}

func ready(m *MPV) func() bool {
	return func() bool {
		s := m.current()
		return s != nil && s.Ready()
	}
}

func TestCommandQueue(t *testing.T) {
	Convey("Given an engine whose socket is not reachable yet", t, func() {
		h := &harness{gate: make(chan struct{})}
		m, _ := newTestMPV(h, nil)
		ctx := context.Background()
		Reset(func() { _ = m.Close() })

		So(m.Load(ctx, track), ShouldBeNil)
		So(m.Seek(ctx, 30), ShouldBeNil)
		So(m.SetVolume(ctx, 0.5), ShouldBeNil)
		So(m.TogglePause(ctx), ShouldBeNil)
		So(h.launches(), ShouldEqual, 1)

		Convey("When the socket comes up", func() {
			close(h.gate)
			So(eventually(ready(m)), ShouldBeTrue)

			Convey("Then queued commands are sent once each, in order", func() {
				So(h.engine(0).sent(), ShouldResemble, []string{
					"loadfile " + track + " replace",
					"set_property pause true",
					"set_property loop-file no",
					"set_property time-pos 30",
					"set_property volume 50",
				})
			})

			Convey("Then the track ends up paused without a pause toggle", func() {
				So(eventually(func() bool { return m.Phase() == Paused }), ShouldBeTrue)
				So(h.engine(0).received("cycle pause"), ShouldEqual, 0)
			})
		})
	})
}

func TestPlayback(t *testing.T) {
	Convey("Given a playing track", t, func() {
		h := &harness{}
		m, rec := newTestMPV(h, nil)
		ctx := context.Background()
		Reset(func() { _ = m.Close() })

		So(m.Play(ctx, track), ShouldBeNil)
		So(eventually(ready(m)), ShouldBeTrue)
		So(eventually(func() bool { return m.Phase() == Playing }), ShouldBeTrue)

		engine := h.engine(0)

		Convey("TogglePause pauses and resumes it", func() {
			So(m.TogglePause(ctx), ShouldBeNil)
			So(m.Phase(), ShouldEqual, Paused)
			So(eventually(engine.isPaused), ShouldBeTrue)
			So(m.Intent().Playing, ShouldBeFalse)

			So(m.TogglePause(ctx), ShouldBeNil)
			So(m.Phase(), ShouldEqual, Playing)
			So(eventually(func() bool { return !engine.isPaused() }), ShouldBeTrue)
			So(engine.received("cycle pause"), ShouldEqual, 2)
		})

		Convey("Position is not published before the duration is known", func() {
			engine.event(map[string]any{"event": "property-change", "id": 1, "name": "time-pos", "data": 5})
			So(eventually(func() bool { return m.Progress().CurrentTime == 5 }), ShouldBeTrue)
			So(rec.progress(), ShouldBeEmpty)

			engine.event(map[string]any{"event": "property-change", "id": 2, "name": "duration", "data": 100})
			engine.event(map[string]any{"event": "property-change", "id": 1, "name": "time-pos", "data": 6})

			So(eventually(func() bool { return len(rec.progress()) == 1 }), ShouldBeTrue)
			So(rec.progress()[0], ShouldResemble, ProgressSnapshot{CurrentTime: 6, Duration: 100})
		})

		Convey("Reaching the end finishes the track and resets progress", func() {
			engine.event(map[string]any{"event": "property-change", "id": 2, "name": "duration", "data": 120})
			engine.event(map[string]any{"event": "property-change", "id": 1, "name": "time-pos", "data": 119})
			So(eventually(func() bool { return len(rec.progress()) == 1 }), ShouldBeTrue)

			engine.event(map[string]any{"event": "end-file", "reason": "eof"})

			So(eventually(func() bool { return rec.finished() == 1 }), ShouldBeTrue)
			So(m.Progress(), ShouldResemble, ProgressSnapshot{})
			So(m.Phase(), ShouldEqual, Idle)
			So(m.Intent().Playing, ShouldBeFalse)
			So(m.Intent().URL, ShouldEqual, track)
		})

		Convey("An end-file error finishes the track, other reasons do not", func() {
			engine.event(map[string]any{"event": "end-file", "reason": "stop"})
			engine.event(map[string]any{"event": "end-file", "reason": "error"})
			So(eventually(func() bool { return rec.finished() == 1 }), ShouldBeTrue)
		})

		Convey("A track the engine refuses is reported as finished", func() {
			engine.configure(func(e *fakeEngine) { e.failLoad = true })

			err := m.Play(ctx, "https://example.com/missing.mp3")
			var engineErr *EngineError
			So(errors.As(err, &engineErr), ShouldBeTrue)
			So(eventually(func() bool { return rec.finished() == 1 }), ShouldBeTrue)
		})

		Convey("An invalid target is reported as finished without reaching the engine", func() {
			So(m.Play(ctx, "--script=evil.lua"), ShouldNotBeNil)
			So(eventually(func() bool { return rec.finished() == 1 }), ShouldBeTrue)
			So(engine.received("loadfile --script=evil.lua replace"), ShouldEqual, 0)
		})

		Convey("Property setters clamp their values", func() {
			So(m.SetVolume(ctx, 3), ShouldBeNil)
			So(m.SetSpeed(ctx, 0), ShouldBeNil)
			So(m.Seek(ctx, -10), ShouldBeNil)

			So(engine.received("set_property volume 100"), ShouldEqual, 1)
			So(engine.received("set_property speed 0.01"), ShouldEqual, 1)
			So(engine.received("set_property time-pos 0"), ShouldEqual, 1)
		})
	})
}

func TestLoop(t *testing.T) {
	Convey("Given a player with nothing loaded", t, func() {
		h := &harness{}
		m, _ := newTestMPV(h, nil)
		ctx := context.Background()
		Reset(func() { _ = m.Close() })

		Convey("SetLoop only records the choice", func() {
			So(m.SetLoop(ctx, true), ShouldBeNil)
			So(h.launches(), ShouldEqual, 0)
			So(m.Intent().Loop, ShouldBeTrue)

			Convey("And the next Play applies it", func() {
				So(m.Play(ctx, track), ShouldBeNil)
				So(eventually(ready(m)), ShouldBeTrue)
				So(h.engine(0).received("set_property loop-file inf"), ShouldEqual, 1)

				So(m.SetLoop(ctx, false), ShouldBeNil)
				So(h.engine(0).received("set_property loop-file no"), ShouldEqual, 1)
			})
		})
	})
}

func TestStop(t *testing.T) {
	Convey("Given a running engine", t, func() {
		h := &harness{}
		m, _ := newTestMPV(h, nil)
		ctx := context.Background()
		Reset(func() { _ = m.Close() })

		So(m.Play(ctx, track), ShouldBeNil)
		So(eventually(ready(m)), ShouldBeTrue)

		Convey("Concurrent Stop calls terminate it exactly once", func() {
			var wg sync.WaitGroup
			for i := 0; i < 4; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					m.Stop()
				}()
			}
			wg.Wait()

			So(h.process(0).killCount(), ShouldEqual, 1)
			So(m.current(), ShouldBeNil)
			So(m.Phase(), ShouldEqual, Idle)
			So(m.Progress(), ShouldResemble, ProgressSnapshot{})
		})

		Convey("Stop without an engine still ends idle", func() {
			m.Stop()
			m.Stop()
			So(m.Phase(), ShouldEqual, Idle)
			So(h.process(0).killCount(), ShouldEqual, 1)
		})

		Convey("A command after Stop spawns a new engine", func() {
			m.Stop()
			So(m.Play(ctx, track), ShouldBeNil)
			So(h.launches(), ShouldEqual, 2)
			So(m.Socket(), ShouldNotBeEmpty)
		})
	})
}

func TestFailures(t *testing.T) {
	Convey("Given an engine that cannot be launched", t, func() {
		h := &harness{launchErr: errors.New("mpv: not found")}
		m, rec := newTestMPV(h, nil)
		Reset(func() { _ = m.Close() })

		Convey("Play fails and publishes the error", func() {
			So(m.Play(context.Background(), track), ShouldNotBeNil)
			So(eventually(func() bool { return len(rec.failures()) == 1 }), ShouldBeTrue)
			So(m.Phase(), ShouldEqual, Idle)
		})
	})

	Convey("Given a socket that never accepts", t, func() {
		h := &harness{dialErr: errors.New("connection refused")}
		m, rec := newTestMPV(h, nil)
		Reset(func() { _ = m.Close() })

		Convey("Connecting gives up after the configured attempts", func() {
			So(m.Play(context.Background(), track), ShouldBeNil)
			So(eventually(func() bool { return len(rec.failures()) == 1 }), ShouldBeTrue)
			So(errors.Is(rec.failures()[0], ErrConnect), ShouldBeTrue)
		})
	})

	Convey("Given a file that never finishes loading", t, func() {
		h := &harness{setup: func(e *fakeEngine) { e.stuckLoad = true }}
		m, rec := newTestMPV(h, func(o *Options) { o.FileLoadTimeout = 50 * time.Millisecond })
		Reset(func() { _ = m.Close() })

		Convey("It is skipped", func() {
			So(m.Play(context.Background(), track), ShouldBeNil)
			So(eventually(func() bool { return rec.finished() == 1 }), ShouldBeTrue)
			So(m.Phase(), ShouldEqual, Buffering)
		})
	})
}

func TestRecovery(t *testing.T) {
	Convey("Given a track playing with the stall watchdog running", t, func() {
		h := &harness{}
		m, _ := newTestMPV(h, func(o *Options) { o.StallInterval = 30 * time.Millisecond })
		ctx := context.Background()
		Reset(func() { _ = m.Close() })

		So(m.Play(ctx, track), ShouldBeNil)
		So(eventually(ready(m)), ShouldBeTrue)

		Convey("When the engine stops answering", func() {
			h.engine(0).hang()

			Convey("Then it is replaced once and the track is played again", func() {
				So(eventually(func() bool {
					e := h.engine(1)
					return e != nil && e.received("loadfile "+track+" replace") == 1
				}), ShouldBeTrue)
				So(h.process(0).killCount(), ShouldEqual, 1)
				So(eventually(func() bool { return m.Phase() == Playing }), ShouldBeTrue)
				So(h.launches(), ShouldEqual, 2)
				So(m.Health(), ShouldEqual, Healthy)
			})
		})
	})

	Convey("Given an engine process that died", t, func() {
		h := &harness{}
		m, _ := newTestMPV(h, func(o *Options) { o.RecoverySettle = 300 * time.Millisecond })
		ctx := context.Background()
		Reset(func() { _ = m.Close() })

		So(m.Play(ctx, track), ShouldBeNil)
		So(eventually(ready(m)), ShouldBeTrue)
		h.process(0).exit()

		Convey("The next command recovers it and replays the intent", func() {
			done := make(chan error, 1)
			go func() { done <- m.SetVolume(ctx, 0.5) }()

			So(eventually(func() bool { return m.Health() == Recovering }), ShouldBeTrue)

			Convey("While recovering, other commands are refused", func() {
				So(m.recover(ctx, true), ShouldEqual, ErrRecovering)
				So(m.Play(ctx, track), ShouldEqual, ErrRecovering)
				So(m.TogglePause(ctx), ShouldEqual, ErrRecovering)
			})

			So(<-done, ShouldBeNil)
			So(h.launches(), ShouldEqual, 2)

			replayed := h.engine(1)
			So(replayed.received("loadfile "+track+" replace"), ShouldEqual, 1)
			So(replayed.received("set_property pause false"), ShouldEqual, 1)
			So(replayed.received("set_property volume 50"), ShouldEqual, 1)
		})
	})
}

func TestSessionLifecycle(t *testing.T) {
	Convey("Given a fresh player whose engine is slow to launch", t, func() {
		h := &harness{delay: 20 * time.Millisecond}
		m, _ := newTestMPV(h, nil)
		ctx := context.Background()
		Reset(func() { _ = m.Close() })

		Convey("Concurrent first commands share a single engine", func() {
			var wg sync.WaitGroup
			errs := make([]error, 4)
			for i := range errs {
				wg.Add(1)
				go func() {
					defer wg.Done()
					errs[i] = m.SetVolume(ctx, 0.5)
				}()
			}
			wg.Wait()

			So(errs, ShouldResemble, make([]error, 4))
			So(h.launches(), ShouldEqual, 1)
			So(eventually(ready(m)), ShouldBeTrue)
			So(h.engine(0).received("set_property volume 50"), ShouldEqual, 4)

			So(m.Close(), ShouldBeNil)
			So(h.alive(), ShouldEqual, 0)
		})
	})

	Convey("Given an engine whose socket could not be reached", t, func() {
		h := &harness{dialErr: errors.New("connection refused")}
		m, rec := newTestMPV(h, nil)
		ctx := context.Background()
		Reset(func() { _ = m.Close() })

		So(m.Play(ctx, track), ShouldBeNil)
		So(eventually(func() bool { return len(rec.failures()) == 1 }), ShouldBeTrue)

		Convey("The session is stopped and its process killed", func() {
			So(eventually(func() bool { return m.current() == nil }), ShouldBeTrue)
			So(h.process(0).killCount(), ShouldEqual, 1)
			So(m.Phase(), ShouldEqual, Idle)
		})

		Convey("The next command starts a new engine", func() {
			So(eventually(func() bool { return m.current() == nil }), ShouldBeTrue)
			h.setDialErr(nil)

			So(m.Play(ctx, track), ShouldBeNil)
			So(h.launches(), ShouldEqual, 2)
			So(eventually(ready(m)), ShouldBeTrue)
			So(h.engine(1).received("loadfile "+track+" replace"), ShouldEqual, 1)
		})
	})

	Convey("Given a playing engine that closes its socket but keeps running", t, func() {
		h := &harness{}
		m, _ := newTestMPV(h, nil)
		ctx := context.Background()
		Reset(func() { _ = m.Close() })

		So(m.Play(ctx, track), ShouldBeNil)
		So(eventually(ready(m)), ShouldBeTrue)

		lost := m.current()
		h.engine(0).dropSocket()
		So(eventually(lost.Lost), ShouldBeTrue)

		Convey("The session is no longer ready and refuses commands", func() {
			So(lost.Ready(), ShouldBeFalse)
			_, err := lost.send(ctx, SetVolume{Level: 50}, false, time.Second)
			So(err, ShouldEqual, ErrSessionClosed)
		})

		Convey("The next command replaces the engine", func() {
			So(m.SetVolume(ctx, 0.5), ShouldBeNil)
			So(h.launches(), ShouldEqual, 2)
			So(h.process(0).killCount(), ShouldEqual, 1)

			replaced := h.engine(1)
			So(replaced.received("loadfile "+track+" replace"), ShouldEqual, 1)
			So(eventually(func() bool { return replaced.received("set_property volume 50") == 1 }), ShouldBeTrue)
		})
	})

	Convey("Given a recovery waiting to respawn a dead engine", t, func() {
		h := &harness{}
		m, _ := newTestMPV(h, func(o *Options) { o.RecoverySettle = 300 * time.Millisecond })
		ctx := context.Background()

		So(m.Play(ctx, track), ShouldBeNil)
		So(eventually(ready(m)), ShouldBeTrue)
		h.process(0).exit()

		done := make(chan error, 1)
		go func() { done <- m.SetVolume(ctx, 0.5) }()
		So(eventually(func() bool { return m.Health() == Recovering }), ShouldBeTrue)

		Convey("Close leaves no engine behind", func() {
			So(m.Close(), ShouldBeNil)
			So(errors.Is(<-done, ErrSessionClosed), ShouldBeTrue)

			So(h.launches(), ShouldEqual, 1)
			So(h.alive(), ShouldEqual, 0)
			So(m.current(), ShouldBeNil)

			So(m.Play(ctx, track), ShouldEqual, ErrSessionClosed)
			So(h.launches(), ShouldEqual, 1)
		})
	})
}

func TestHealthCheck(t *testing.T) {
	Convey("Given an engine that stopped answering", t, func() {
		h := &harness{}
		m, _ := newTestMPV(h, nil)
		Reset(func() { _ = m.Close() })

		So(m.Play(context.Background(), track), ShouldBeNil)
		So(eventually(ready(m)), ShouldBeTrue)
		h.engine(0).hang()

		Convey("A check abandoned by its caller does not stay in checking", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
			defer cancel()

			So(m.healthy(ctx), ShouldBeFalse)
			So(m.Health(), ShouldEqual, Healthy)
		})

		Convey("A check that runs to the end reports unhealthy", func() {
			So(m.healthy(context.Background()), ShouldBeFalse)
			So(m.Health(), ShouldEqual, Checking)
		})
	})
}

func TestSanitizeMediaTarget(t *testing.T) {
	Convey("sanitizeMediaTarget", t, func() {
		Convey("Should accept http, https and file URLs", func() {
			for _, u := range []string{"http://a.b/c.mp3", "https://a.b/c.ogg", "file:///music/c.flac"} {
				got, err := sanitizeMediaTarget(u)
				So(err, ShouldBeNil)
				So(got, ShouldEqual, u)
			}
		})

		Convey("Should clean local paths", func() {
			got, err := sanitizeMediaTarget("  /music/../music/a.mp3 ")
			So(err, ShouldBeNil)
			So(got, ShouldEqual, "/music/a.mp3")
		})

		Convey("Should reject flags, control characters and foreign schemes", func() {
			for _, u := range []string{"", "   ", "--input-conf=x", "a\nb", "ftp://a.b/c", "javascript://x"} {
				_, err := sanitizeMediaTarget(u)
				So(err, ShouldNotBeNil)
			}
		})
	})
}

func TestBackoff(t *testing.T) {
	Convey("backoff doubles up to the ceiling", t, func() {
		So(backoff(time.Second, 8*time.Second, 0), ShouldEqual, time.Second)
		So(backoff(time.Second, 8*time.Second, 2), ShouldEqual, 4*time.Second)
		So(backoff(time.Second, 8*time.Second, 10), ShouldEqual, 8*time.Second)
		So(backoff(10*time.Second, 8*time.Second, 0), ShouldEqual, 8*time.Second)
	})
}

func TestNotifier(t *testing.T) {
	Convey("A notifier never blocks the emitter and keeps order", t, func() {
		n := newNotifier()
		for i := 0; i < 100; i++ {
			n.emit(StateChanged{Phase: Phase(i % 4)})
		}
		n.close()

		var got []Notification
		for note := range n.out {
			got = append(got, note)
		}
		So(got, ShouldHaveLength, 100)
		So(got[5], ShouldResemble, StateChanged{Phase: Phase(1)})
	})
}
