// Package player drives an external mpv engine over its JSON-IPC socket.
// It owns the engine process, correlates requests with replies, turns engine
// events into playback phase and progress notifications, and restarts the
// engine when it stops answering.
package player

import "context"

// Player is the command surface offered to the rest of the application.
type Player interface {
	// Load prepares url without starting playback.
	Load(ctx context.Context, url string) error

	// Play loads url and starts playing it.
	// If it cannot be loaded a Finished notification is published so a playlist can move on.
	Play(ctx context.Context, url string) error

	// TogglePause inverts the current playback suspension state.
	TogglePause(ctx context.Context) error

	// Seek moves playback to an absolute position in seconds.
	Seek(ctx context.Context, seconds float64) error

	// SetVolume sets the volume, 0 (mute) to 1 (full).
	SetVolume(ctx context.Context, level float64) error

	// SetSpeed sets the playback speed factor.
	SetSpeed(ctx context.Context, factor float64) error

	// SetLoop enables or disables looping of the current and following tracks.
	SetLoop(ctx context.Context, enabled bool) error

	// Stop terminates the engine. Later commands start a new one.
	Stop()

	// Notifications delivers state, progress, finish and error updates in order.
	Notifications() <-chan Notification

	// Close stops the engine for good and closes the notification channel.
	Close() error
}

var _ Player = (*MPV)(nil)
