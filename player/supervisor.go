package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/mellow-player/mellow/log"
)

const (
	readBufSize       = 4096
	readyPollInterval = 100 * time.Millisecond
)

// engineArgs builds the fixed flag set for a headless audio-only engine.
func (m *MPV) engineArgs(address string) []string {
	args := []string{
		"--idle=yes",
		"--no-terminal",
		"--really-quiet",
		fmt.Sprintf("--input-ipc-server=%s", address),
		"--no-video",
		"--vo=null",
		"--force-window=no",
		"--audio-display=no",
		"--cache=yes",
		fmt.Sprintf("--demuxer-max-bytes=%s", m.opts.DemuxerMaxBytes),
		"--demuxer-max-back-bytes=50MiB",
		"--reset-on-next-file=af,vf",
	}
	return append(args, m.opts.ExtraArgs...)
}

// start spawns a fresh engine with a unique socket, replacing any current session.
// Connecting happens in the background; commands queue until it completes.
func (m *MPV) start() error {
	m.startMu.Lock()
	defer m.startMu.Unlock()

	if m.current() != nil {
		m.Stop()
	}
	return m.spawn()
}

// startIfNone spawns an engine unless another caller already did.
// Concurrent first commands all end up on the same session.
func (m *MPV) startIfNone() error {
	m.startMu.Lock()
	defer m.startMu.Unlock()

	if m.current() != nil {
		return nil
	}
	return m.spawn()
}

// spawn must be called with startMu held.
func (m *MPV) spawn() error {
	if m.isClosed() {
		return ErrSessionClosed
	}

	address := socketPath(m.opts.SocketDir, "mellow-"+uuid.NewString())

	proc, err := m.opts.Launcher.Launch(m.opts.Binary, m.engineArgs(address))
	if err != nil {
		return fmt.Errorf("launch engine: %w", err)
	}

	s := newSession(address, proc)

	m.mu.Lock()
	if m.closing {
		m.mu.Unlock()
		s.close()
		return ErrSessionClosed
	}
	m.session = s
	m.setPhaseLocked(Buffering)
	m.mu.Unlock()

	log.WithFields(log.Fields{"pid": proc.Pid(), "socket": address}).Info("engine started")

	go m.watchExit(s)
	go m.connect(s)
	return nil
}

// stopSession stops s if it is still the current session.
func (m *MPV) stopSession(s *session) {
	if m.current() == s {
		m.Stop()
	}
}

// watchExit logs the engine's death. It never stops the session itself:
// stopping from inside an exit handler would race with an in-flight Stop.
func (m *MPV) watchExit(s *session) {
	select {
	case <-s.proc.Done():
		if s.ctx.Err() == nil {
			log.Warnf("engine on %s exited unexpectedly", s.address)
		}
	case <-s.ctx.Done():
	}
}

// connect dials the session's socket with capped exponential backoff.
func (m *MPV) connect(s *session) {
	for attempt := 0; attempt < m.opts.ConnectAttempts; attempt++ {
		select {
		case <-time.After(backoff(m.opts.ConnectDelay, m.opts.ConnectBackoffCap, attempt)):
		case <-s.ctx.Done():
			return
		}

		if !s.Alive() {
			log.Warnf("engine exited before its socket %s was ready", s.address)
			return
		}

		conn, err := m.opts.Dialer(s.ctx, s.address)
		if err != nil {
			log.Debugf("connect %s (attempt %d): %v", s.address, attempt+1, err)
			continue
		}

		if !s.attach(conn) {
			_ = conn.Close()
			return
		}

		go m.readLoop(s, conn)
		m.handshake(s)
		return
	}

	err := fmt.Errorf("%w %s after %d attempts", ErrConnect, s.address, m.opts.ConnectAttempts)
	log.Error(err)
	m.emit(Failed{Err: err})
	m.stopSession(s)
}

// handshake subscribes to the observed properties and flushes queued commands in order.
func (m *MPV) handshake(s *session) {
	for _, o := range observed {
		if _, err := s.send(s.ctx, o, true, m.opts.RequestTimeout); err != nil {
			log.Warnf("observe %s: %v", o.Name, err)
		}
	}

	flushed := 0
	for {
		c, ok := s.nextQueued()
		if !ok {
			break
		}
		if _, err := s.send(s.ctx, c, true, m.opts.RequestTimeout); err != nil {
			log.Warnf("flush %s: %v", c.Verb(), err)
		}
		flushed++
	}

	if s.Ready() {
		log.Infof("engine ready on %s (%d queued commands flushed)", s.address, flushed)
	}
}

// readLoop feeds socket bytes to the framer and routes every message.
func (m *MPV) readLoop(s *session, conn io.Reader) {
	buf := make([]byte, readBufSize)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			for _, msg := range s.framer.Feed(buf[:n]) {
				if msg.isResponse() {
					if !s.pending.resolve(msg) {
						log.Debugf("ignoring reply to settled request %d", *msg.RequestID)
					}
					continue
				}
				m.dispatch(s, msg)
			}
		}

		if err != nil {
			if s.ctx.Err() == nil && !errors.Is(err, io.EOF) {
				log.Warnf("engine socket read: %v", err)
			}
			s.detach()
			log.Infof("engine socket %s closed", s.address)
			return
		}
	}
}

// awaitReady polls until s has flushed its queue, failing if the process dies.
func (m *MPV) awaitReady(ctx context.Context, s *session) error {
	ctx, cancel := context.WithTimeout(ctx, m.opts.ReadyTimeout)
	defer cancel()

	ticker := time.NewTicker(readyPollInterval)
	defer ticker.Stop()

	for {
		if s.Ready() {
			return nil
		}
		if !s.Alive() {
			return fmt.Errorf("%w during startup", ErrEngineExited)
		}

		select {
		case <-ticker.C:
		case <-s.ctx.Done():
			return ErrSessionClosed
		case <-ctx.Done():
			return fmt.Errorf("engine not ready after %s: %w", m.opts.ReadyTimeout, ctx.Err())
		}
	}
}

// Stop tears down the current session: timers, pending requests, queue,
// socket and the whole engine process tree. A call made while another
// Stop is running returns immediately. It always ends in the Idle phase.
func (m *MPV) Stop() {
	m.mu.Lock()
	if m.stopping {
		m.mu.Unlock()
		log.Debugf("stop already in progress")
		return
	}
	m.stopping = true
	s := m.session
	m.session = nil
	m.stopLoadWatchdogLocked()
	m.stopStallLocked()
	m.mu.Unlock()

	if s != nil && s.close() {
		removeSocket(s.address)
		log.Infof("engine session on %s stopped", s.address)
	}

	m.mu.Lock()
	m.stopping = false
	m.progress = ProgressSnapshot{}
	m.enginePaused = false
	m.setPhaseLocked(Idle)
	m.mu.Unlock()
}
