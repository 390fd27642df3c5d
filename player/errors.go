package player

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout is returned when the engine does not answer a request in time.
	ErrTimeout = errors.New("engine request timed out")

	// ErrRecovering is returned by commands issued while the engine is being restarted.
	ErrRecovering = errors.New("engine recovery in progress")

	// ErrNotReady is returned when an internal request is issued without a connected socket.
	ErrNotReady = errors.New("engine socket not connected")

	// ErrSessionClosed is returned to requests still pending when their session goes away.
	ErrSessionClosed = errors.New("engine session closed")

	// ErrConnect is surfaced when the control socket never accepts a connection.
	ErrConnect = errors.New("could not connect to engine socket")

	// ErrEngineExited is returned when the engine process dies while it is awaited.
	ErrEngineExited = errors.New("engine process exited")

	// ErrRecoveryFailed is surfaced once every recovery attempt has failed.
	ErrRecoveryFailed = errors.New("engine recovery failed")
)

// EngineError is a reply whose error field was not "success".
type EngineError struct {
	Command string
	Reason  string
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("mpv error: %s: %s", e.Command, e.Reason)
}

// IsFatal reports whether err leaves the player without a usable engine,
// so that playing on is pointless until the user intervenes.
func IsFatal(err error) bool {
	return errors.Is(err, ErrRecoveryFailed) || errors.Is(err, ErrConnect)
}
