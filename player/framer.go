package player

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/mellow-player/mellow/log"
)

// request is the JSON structure sent to the engine's IPC socket.
type request struct {
	Command   []any `json:"command"`
	RequestID int64 `json:"request_id"`
}

// message is anything the engine writes to the socket: either a reply
// carrying request_id or an asynchronous event.
type message struct {
	RequestID *int64          `json:"request_id,omitempty"`
	Error     string          `json:"error,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Event     string          `json:"event,omitempty"`
	Name      string          `json:"name,omitempty"`
	Reason    string          `json:"reason,omitempty"`
}

// isResponse reports whether the message answers a request.
func (m *message) isResponse() bool {
	return m.Event == "" && m.RequestID != nil
}

// framer splits the socket byte stream into newline-delimited JSON messages.
type framer struct {
	buf []byte
}

// Feed appends chunk to the buffer and returns every complete message in it.
// A line that does not parse is logged and skipped; the rest of the stream is unaffected.
func (f *framer) Feed(chunk []byte) []*message {
	f.buf = append(f.buf, chunk...)

	var out []*message
	for {
		idx := bytes.IndexByte(f.buf, '\n')
		if idx < 0 {
			break
		}

		line := bytes.TrimSpace(f.buf[:idx])
		f.buf = f.buf[idx+1:]

		if len(line) == 0 {
			continue
		}

		var msg message
		if err := json.Unmarshal(line, &msg); err != nil {
			log.Warnf("dropping malformed engine message %q: %v", line, err)
			continue
		}
		out = append(out, &msg)
	}

	// Keep the partial tail in a fresh slice so the consumed prefix can be collected.
	if len(f.buf) == 0 {
		f.buf = nil
	} else {
		f.buf = append([]byte(nil), f.buf...)
	}

	return out
}

// Pending returns the number of buffered bytes not yet terminated by a newline.
func (f *framer) Pending() int {
	return len(f.buf)
}

// encodeRequest serializes a command with its id, newline-terminated.
func encodeRequest(id int64, c Command) ([]byte, error) {
	payload, err := json.Marshal(request{Command: wire(c), RequestID: id})
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", c.Verb(), err)
	}
	return append(payload, '\n'), nil
}
