package player

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// result is the outcome delivered to the goroutine waiting on a request.
type result struct {
	data json.RawMessage
	err  error
}

// pendingRequest tracks one request awaiting its reply.
type pendingRequest struct {
	id       int64
	verb     string
	issuedAt time.Time
	timer    *time.Timer
	done     chan result // buffered, receives exactly one value
}

// correlator allocates request ids and matches replies to waiters.
// Whoever removes an entry from pending settles it; nobody else may.
type correlator struct {
	mu      sync.Mutex
	nextID  int64
	pending map[int64]*pendingRequest
}

func newCorrelator() *correlator {
	return &correlator{pending: make(map[int64]*pendingRequest)}
}

// register allocates the next id and arms its timeout.
func (c *correlator) register(verb string, timeout time.Duration) *pendingRequest {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	req := &pendingRequest{
		id:       c.nextID,
		verb:     verb,
		issuedAt: time.Now(),
		done:     make(chan result, 1),
	}
	c.pending[req.id] = req

	req.timer = time.AfterFunc(timeout, func() {
		c.settle(req.id, result{err: fmt.Errorf("%w: %s after %s", ErrTimeout, verb, timeout)})
	})

	return req
}

// settle completes the request with id if it is still pending.
// It reports whether this call was the one that settled it.
func (c *correlator) settle(id int64, res result) bool {
	c.mu.Lock()
	req, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
	}
	c.mu.Unlock()

	if !ok {
		return false
	}

	req.timer.Stop()
	req.done <- res
	return true
}

// resolve settles the request answered by msg.
func (c *correlator) resolve(msg *message) bool {
	c.mu.Lock()
	req, ok := c.pending[*msg.RequestID]
	c.mu.Unlock()
	if !ok {
		return false
	}

	if msg.Error == "success" {
		return c.settle(req.id, result{data: msg.Data})
	}
	return c.settle(req.id, result{err: &EngineError{Command: req.verb, Reason: msg.Error}})
}

// rejectAll settles every pending request with err.
func (c *correlator) rejectAll(err error) {
	c.mu.Lock()
	ids := make([]int64, 0, len(c.pending))
	for id := range c.pending {
		ids = append(ids, id)
	}
	c.mu.Unlock()

	for _, id := range ids {
		c.settle(id, result{err: err})
	}
}

// Len returns the number of requests still awaiting a reply.
func (c *correlator) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
