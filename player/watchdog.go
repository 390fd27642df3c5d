package player

import (
	"context"
	"errors"
	"time"

	"github.com/mellow-player/mellow/log"
)

// startStall begins polling the playback position while a track plays.
func (m *MPV) startStall() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startStallLocked()
}

func (m *MPV) startStallLocked() {
	if m.stallStop != nil || m.closed {
		return
	}
	stop := make(chan struct{})
	m.stallStop = stop
	go m.watchStall(stop, m.opts.StallInterval)
}

func (m *MPV) stopStall() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopStallLocked()
}

func (m *MPV) stopStallLocked() {
	if m.stallStop != nil {
		close(m.stallStop)
		m.stallStop = nil
	}
}

// watchStall polls time-pos every interval. A failed poll is escalated to a
// health check; an unhealthy engine is recovered and the captured track replayed.
func (m *MPV) watchStall(stop chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		if m.pollPosition(ctx) {
			continue
		}
		if ctx.Err() != nil {
			return
		}

		url := m.Intent().URL
		if m.healthy(ctx) {
			continue
		}
		if ctx.Err() != nil {
			m.setHealth(Healthy)
			return
		}

		log.Warnf("playback stalled on %s, restarting engine", url)

		// Recovery stops the session, which closes stop; keep going detached from it.
		if err := m.recover(context.Background(), false); err != nil {
			return
		}
		if url != "" {
			if err := m.Play(context.Background(), url); err != nil {
				log.Errorf("replay %s after recovery: %v", url, err)
			}
		}
		return
	}
}

// pollPosition reports whether the engine answered a position read.
// A session that has not reached its socket yet counts as answering.
func (m *MPV) pollPosition(ctx context.Context) bool {
	s := m.current()
	if s == nil {
		return true
	}
	if !s.Alive() {
		return false
	}
	if s.Connecting() {
		return true
	}

	_, err := s.send(ctx, GetProperty{Name: PropTimePos}, true, m.opts.RequestTimeout)
	var engineErr *EngineError
	return err == nil || errors.As(err, &engineErr)
}
