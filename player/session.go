package player

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/mellow-player/mellow/log"
)

// session is the binding to one spawned engine process.
// It is never reused: every restart creates a new one.
type session struct {
	address string
	proc    Process

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	conn     io.ReadWriteCloser
	attached bool
	ready    bool
	lost     bool
	closed   bool
	queue    []Command

	writeMu sync.Mutex
	framer  framer
	pending *correlator
}

func newSession(address string, proc Process) *session {
	ctx, cancel := context.WithCancel(context.Background())
	return &session{
		address: address,
		proc:    proc,
		ctx:     ctx,
		cancel:  cancel,
		pending: newCorrelator(),
	}
}

// Ready reports whether the socket is connected and the queue has been flushed.
func (s *session) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// Alive reports whether the engine process is still running.
func (s *session) Alive() bool {
	select {
	case <-s.proc.Done():
		return false
	default:
		return true
	}
}

// send issues c. Commands that are not internal are queued until the session
// is ready and report success immediately.
func (s *session) send(ctx context.Context, c Command, internal bool, timeout time.Duration) (json.RawMessage, error) {
	s.mu.Lock()
	if s.closed || s.lost {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	if !internal && !s.ready {
		s.queue = append(s.queue, c)
		s.mu.Unlock()
		log.Debugf("queued %s until engine is ready", c.Verb())
		return nil, nil
	}
	conn := s.conn
	s.mu.Unlock()

	if conn == nil {
		return nil, ErrNotReady
	}

	// Allocation and write happen together so ids reach the wire in order.
	s.writeMu.Lock()
	req := s.pending.register(c.Verb(), timeout)
	payload, err := encodeRequest(req.id, c)
	if err == nil {
		_, err = conn.Write(payload)
		if err != nil {
			err = fmt.Errorf("write %s: %w", c.Verb(), err)
		}
	}
	s.writeMu.Unlock()

	if err != nil {
		s.pending.settle(req.id, result{err: err})
	}

	select {
	case res := <-req.done:
		return res.data, res.err
	case <-ctx.Done():
		s.pending.settle(req.id, result{err: ctx.Err()})
	case <-s.ctx.Done():
		s.pending.settle(req.id, result{err: ErrSessionClosed})
	}

	res := <-req.done
	return res.data, res.err
}

// attach binds a connected socket to the session.
func (s *session) attach(conn io.ReadWriteCloser) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conn = conn
	s.attached = true
	return true
}

// Connecting reports whether the socket has not been reached yet.
func (s *session) Connecting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.attached && !s.closed
}

// Lost reports whether the socket closed while the session was still open.
// A lost session never becomes ready again.
func (s *session) Lost() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lost
}

// detach marks the socket gone and fails every request that was waiting on it.
func (s *session) detach() {
	s.mu.Lock()
	s.ready = false
	s.conn = nil
	if !s.closed {
		s.lost = true
	}
	s.queue = nil
	s.mu.Unlock()

	s.pending.rejectAll(ErrSessionClosed)
}

// nextQueued pops the oldest queued command. Once the queue is empty the
// session is marked ready, so later commands cannot overtake queued ones.
func (s *session) nextQueued() (Command, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.conn == nil {
		return nil, false
	}
	if len(s.queue) == 0 {
		s.ready = true
		return nil, false
	}

	c := s.queue[0]
	s.queue = s.queue[1:]
	return c, true
}

// close tears the session down. It reports false if it was already closed.
func (s *session) close() bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	s.closed = true
	s.ready = false
	s.queue = nil
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()

	s.cancel()
	s.pending.rejectAll(ErrSessionClosed)

	if conn != nil {
		if err := conn.Close(); err != nil {
			log.Debugf("close engine socket: %v", err)
		}
	}

	if err := s.proc.Kill(); err != nil {
		log.Warnf("terminate engine: %v", err)
	}
	return true
}
