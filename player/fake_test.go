package player

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"
)

// fakeProcess stands in for a spawned engine.
type fakeProcess struct {
	pid   int
	done  chan struct{}
	once  sync.Once
	mu    sync.Mutex
	kills int
}

func (p *fakeProcess) Pid() int              { return p.pid }
func (p *fakeProcess) Done() <-chan struct{} { return p.done }

func (p *fakeProcess) Kill() error {
	p.mu.Lock()
	p.kills++
	p.mu.Unlock()
	p.exit()
	return nil
}

func (p *fakeProcess) exit() {
	p.once.Do(func() { close(p.done) })
}

func (p *fakeProcess) killCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.kills
}

// fakeEngine answers the JSON-IPC protocol the way mpv does, closely enough for the player.
type fakeEngine struct {
	mu       sync.Mutex
	commands []string
	paused   bool
	pos      float64
	conn     net.Conn
	out      chan []byte

	hung      bool // stop answering anything
	failLoad  bool // answer loadfile with an error
	stuckLoad bool // never report file-loaded
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{out: make(chan []byte, 256)}
}

func (e *fakeEngine) serve(conn net.Conn) {
	e.mu.Lock()
	e.conn = conn
	e.mu.Unlock()

	go func() {
		for line := range e.out {
			if _, err := conn.Write(line); err != nil {
				return
			}
		}
	}()

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		var req struct {
			Command   []any `json:"command"`
			RequestID int64 `json:"request_id"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			continue
		}
		e.handle(req.RequestID, req.Command)
	}
}

func (e *fakeEngine) handle(id int64, command []any) {
	parts := make([]string, len(command))
	for i, v := range command {
		parts[i] = fmt.Sprint(v)
	}

	e.mu.Lock()
	e.commands = append(e.commands, strings.Join(parts, " "))
	hung := e.hung
	e.mu.Unlock()

	if hung {
		return
	}

	switch parts[0] {
	case "observe_property":
		e.reply(id, "success", nil)
		if parts[2] == string(PropPause) {
			e.event(map[string]any{"event": "property-change", "id": 3, "name": "pause", "data": e.isPaused()})
		}
	case "loadfile":
		e.mu.Lock()
		failLoad, stuckLoad := e.failLoad, e.stuckLoad
		e.mu.Unlock()
		if failLoad {
			e.reply(id, "loading failed", nil)
			return
		}
		e.reply(id, "success", nil)
		e.event(map[string]any{"event": "start-file"})
		if !stuckLoad {
			e.event(map[string]any{"event": "file-loaded"})
		}
	case "set_property":
		if parts[1] == string(PropPause) {
			e.setPaused(command[2] == true)
		}
		e.reply(id, "success", nil)
	case "get_property":
		switch Property(parts[1]) {
		case PropPause:
			e.reply(id, "success", e.isPaused())
		case PropVolume:
			e.reply(id, "success", 100.0)
		case PropTimePos:
			e.mu.Lock()
			pos := e.pos
			e.mu.Unlock()
			e.reply(id, "success", pos)
		default:
			e.reply(id, "property unavailable", nil)
		}
	case "cycle":
		e.setPaused(!e.isPaused())
		e.reply(id, "success", nil)
	default:
		e.reply(id, "invalid parameter", nil)
	}
}

func (e *fakeEngine) isPaused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

func (e *fakeEngine) setPaused(paused bool) {
	e.mu.Lock()
	changed := e.paused != paused
	e.paused = paused
	e.mu.Unlock()

	if changed {
		e.event(map[string]any{"event": "property-change", "id": 3, "name": "pause", "data": paused})
	}
}

func (e *fakeEngine) reply(id int64, status string, data any) {
	e.write(map[string]any{"request_id": id, "error": status, "data": data})
}

func (e *fakeEngine) event(ev map[string]any) {
	e.write(ev)
}

func (e *fakeEngine) write(v any) {
	line, _ := json.Marshal(v)
	e.out <- append(line, '\n')
}

func (e *fakeEngine) configure(fn func(e *fakeEngine)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e)
}

// dropSocket closes the control connection while the process keeps running.
func (e *fakeEngine) dropSocket() {
	e.mu.Lock()
	conn := e.conn
	e.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}

func (e *fakeEngine) hang() {
	e.mu.Lock()
	e.hung = true
	e.mu.Unlock()
}

// sent returns the received commands, without the observe/get traffic the player generates itself.
func (e *fakeEngine) sent() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []string
	for _, c := range e.commands {
		if strings.HasPrefix(c, "observe_property") || strings.HasPrefix(c, "get_property") {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (e *fakeEngine) received(command string) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := 0
	for _, c := range e.commands {
		if c == command {
			n++
		}
	}
	return n
}

// harness is a Launcher and Dialer producing one fake engine per launch.
type harness struct {
	mu        sync.Mutex
	procs     []*fakeProcess
	engines   []*fakeEngine
	gate      chan struct{}
	delay     time.Duration // how long every launch takes
	launchErr error
	dialErr   error
	setup     func(*fakeEngine)
}

func (h *harness) Launch(_ string, _ []string) (Process, error) {
	h.mu.Lock()
	delay := h.delay
	h.mu.Unlock()
	time.Sleep(delay)

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.launchErr != nil {
		return nil, h.launchErr
	}

	p := &fakeProcess{pid: 1000 + len(h.procs), done: make(chan struct{})}
	e := newFakeEngine()
	if h.setup != nil {
		h.setup(e)
	}
	h.procs = append(h.procs, p)
	h.engines = append(h.engines, e)
	return p, nil
}

func (h *harness) Dial(ctx context.Context, _ string) (io.ReadWriteCloser, error) {
	h.mu.Lock()
	gate, dialErr := h.gate, h.dialErr
	h.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if dialErr != nil {
		return nil, dialErr
	}

	e := h.engine(-1)
	if e == nil {
		return nil, errors.New("no engine launched")
	}

	client, server := net.Pipe()
	go e.serve(server)
	return client, nil
}

func (h *harness) setDialErr(err error) {
	h.mu.Lock()
	h.dialErr = err
	h.mu.Unlock()
}

// alive counts launched processes that were neither killed nor exited.
func (h *harness) alive() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := 0
	for _, p := range h.procs {
		select {
		case <-p.done:
		default:
			n++
		}
	}
	return n
}

func (h *harness) launches() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.procs)
}

// engine returns the i-th launched engine; negative i counts from the end.
func (h *harness) engine(i int) *fakeEngine {
	h.mu.Lock()
	defer h.mu.Unlock()
	if i < 0 {
		i += len(h.engines)
	}
	if i < 0 || i >= len(h.engines) {
		return nil
	}
	return h.engines[i]
}

func (h *harness) process(i int) *fakeProcess {
	h.mu.Lock()
	defer h.mu.Unlock()
	if i < 0 {
		i += len(h.procs)
	}
	if i < 0 || i >= len(h.procs) {
		return nil
	}
	return h.procs[i]
}

func testOptions(h *harness) Options {
	return Options{
		SocketDir:          "/nonexistent",
		RequestTimeout:     200 * time.Millisecond,
		HealthTimeout:      100 * time.Millisecond,
		HealthRetryDelay:   10 * time.Millisecond,
		ConnectDelay:       time.Millisecond,
		ConnectAttempts:    3,
		ConnectBackoffCap:  5 * time.Millisecond,
		FileLoadTimeout:    time.Minute,
		StallInterval:      time.Minute,
		RecoverySettle:     5 * time.Millisecond,
		ReadyTimeout:       2 * time.Second,
		RecoveryAttempts:   3,
		RecoveryBackoff:    10 * time.Millisecond,
		RecoveryBackoffCap: 20 * time.Millisecond,
		UnpauseDelay:       5 * time.Millisecond,
		Launcher:           h,
		Dialer:             h.Dial,
	}
}

// recorder collects every notification a player publishes.
type recorder struct {
	mu    sync.Mutex
	notes []Notification
}

func record(m *MPV) *recorder {
	r := &recorder{}
	go func() {
		for n := range m.Notifications() {
			r.mu.Lock()
			r.notes = append(r.notes, n)
			r.mu.Unlock()
		}
	}()
	return r
}

func (r *recorder) count(match func(Notification) bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, note := range r.notes {
		if match(note) {
			n++
		}
	}
	return n
}

func (r *recorder) finished() int {
	return r.count(func(n Notification) bool {
		_, ok := n.(Finished)
		return ok
	})
}

func (r *recorder) failures() []error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for _, note := range r.notes {
		if f, ok := note.(Failed); ok {
			errs = append(errs, f.Err)
		}
	}
	return errs
}

func (r *recorder) progress() []ProgressSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []ProgressSnapshot
	for _, note := range r.notes {
		if p, ok := note.(ProgressUpdated); ok {
			out = append(out, p.ProgressSnapshot)
		}
	}
	return out
}

func (r *recorder) lastPhase() (Phase, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := len(r.notes) - 1; i >= 0; i-- {
		if s, ok := r.notes[i].(StateChanged); ok {
			return s.Phase, true
		}
	}
	return Idle, false
}

// eventually polls cond until it holds or three seconds pass.
func eventually(cond func() bool) bool {
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}
