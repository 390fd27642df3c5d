package player

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mellow-player/mellow/log"
)

const healthProbes = 2

// healthy probes the current engine with a cheap property read.
// Two consecutive failed probes make it unhealthy.
func (m *MPV) healthy(ctx context.Context) (ok bool) {
	s := m.current()
	if s == nil {
		return false
	}

	m.setHealth(Checking)
	// Only a failed check whose caller is still waiting leaves Checking behind;
	// that caller recovers next.
	defer func() {
		if ok || ctx.Err() != nil {
			m.setHealth(Healthy)
		}
	}()

	for probe := 0; probe < healthProbes; probe++ {
		if probe > 0 {
			if !sleep(ctx, m.opts.HealthRetryDelay) {
				return false
			}
		}

		if !s.Alive() {
			log.Warnf("health check: engine process is gone")
			return false
		}

		_, err := s.send(ctx, GetProperty{Name: PropVolume}, true, m.opts.HealthTimeout)
		var engineErr *EngineError
		if err == nil || errors.As(err, &engineErr) {
			return true
		}
		log.Warnf("health check %d/%d failed: %v", probe+1, healthProbes, err)
	}

	return false
}

// recover replaces a malfunctioning engine with a fresh one. With replay set,
// the captured intent is reloaded and, if it was playing, resumed from the
// start of the track. Only one recovery runs at a time; a concurrent call
// returns ErrRecovering without doing anything.
func (m *MPV) recover(ctx context.Context, replay bool) error {
	m.mu.Lock()
	if m.health == Recovering {
		m.mu.Unlock()
		log.Warnf("recovery already in progress, ignoring")
		return ErrRecovering
	}
	m.health = Recovering
	intent := m.intent
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.health = Healthy
		m.mu.Unlock()
	}()

	log.Warnf("recovering engine (url %q, playing %v)", intent.URL, intent.Playing)

	var lastErr error
	for attempt := 0; attempt < m.opts.RecoveryAttempts; attempt++ {
		if attempt > 0 {
			delay := backoff(m.opts.RecoveryBackoff, m.opts.RecoveryBackoffCap, attempt-1)
			if !sleep(ctx, delay) {
				return ctx.Err()
			}
		}

		if m.isClosed() {
			return ErrSessionClosed
		}

		err := m.restart(ctx, intent, replay)
		if err == nil {
			log.Infof("engine recovered after %d attempt(s)", attempt+1)
			return nil
		}
		if m.isClosed() {
			return ErrSessionClosed
		}

		lastErr = err
		log.Errorf("recovery attempt %d/%d failed: %v", attempt+1, m.opts.RecoveryAttempts, err)
		m.emit(Failed{Err: fmt.Errorf("recover engine: %w", err)})
	}

	err := fmt.Errorf("%w after %d attempts: %w", ErrRecoveryFailed, m.opts.RecoveryAttempts, lastErr)
	m.emit(Failed{Err: err})
	return err
}

// restart runs one recovery attempt.
func (m *MPV) restart(ctx context.Context, intent Intent, replay bool) error {
	m.Stop()

	if !sleep(ctx, m.opts.RecoverySettle) {
		return ctx.Err()
	}

	if err := m.start(); err != nil {
		return err
	}

	s := m.current()
	if s == nil {
		return ErrSessionClosed
	}

	if err := m.awaitReady(ctx, s); err != nil {
		return err
	}

	if !replay || intent.URL == "" {
		return nil
	}

	replayed := []Command{
		LoadFile{URL: intent.URL},
		SetPause{Paused: true},
		SetLoopFile{Enabled: intent.Loop},
	}
	for _, c := range replayed {
		if _, err := s.send(ctx, c, true, m.opts.RequestTimeout); err != nil {
			return fmt.Errorf("replay %s: %w", c.Verb(), err)
		}
	}

	if !intent.Playing {
		return nil
	}

	if !sleep(ctx, m.opts.UnpauseDelay) {
		return ctx.Err()
	}
	if _, err := s.send(ctx, SetPause{Paused: false}, true, m.opts.RequestTimeout); err != nil {
		return fmt.Errorf("resume after replay: %w", err)
	}
	m.startStall()
	return nil
}

// setHealth records a health transition unless a recovery owns the state.
func (m *MPV) setHealth(h HealthState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.health != Recovering {
		m.health = h
	}
}

// sleep waits for d, reporting false if ctx ends first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
