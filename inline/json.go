package inline

import (
	"time"

	"github.com/mellow-player/mellow/player"
)

// Event types written to the stream.
const (
	TypeTrack    = "track"
	TypeState    = "state"
	TypeProgress = "progress"
	TypeFinished = "finished"
	TypeFailed   = "failed"
)

// Event is one line of the inline output stream.
type Event struct {
	// Time is when the event was observed.
	Time time.Time `json:"time"`
	// Type tells which of the optional fields are set.
	Type string `json:"type" jsonschema:"enum=track,enum=state,enum=progress,enum=finished,enum=failed"`
	// Index is the position of the current track in the queue, starting from 0.
	Index int `json:"index"`
	// Track is the media target the event refers to.
	Track string `json:"track"`
	// Phase is the playback phase, set for state events.
	Phase string `json:"phase,omitempty" jsonschema:"enum=idle,enum=buffering,enum=playing,enum=paused"`
	// Progress is the playback position, set for progress events.
	Progress *player.ProgressSnapshot `json:"progress,omitempty"`
	// Error describes what went wrong, set for failed events.
	Error string `json:"error,omitempty"`
}

func newEvent(typ string, index int, track string) *Event {
	return &Event{Time: time.Now(), Type: typ, Index: index, Track: track}
}

// fromNotification converts a player notification into an event.
func fromNotification(n player.Notification, index int, track string) *Event {
	switch n := n.(type) {
	case player.StateChanged:
		e := newEvent(TypeState, index, track)
		e.Phase = n.Phase.String()
		return e
	case player.ProgressUpdated:
		e := newEvent(TypeProgress, index, track)
		snapshot := n.ProgressSnapshot
		e.Progress = &snapshot
		return e
	case player.Finished:
		return newEvent(TypeFinished, index, track)
	case player.Failed:
		e := newEvent(TypeFailed, index, track)
		e.Error = n.Err.Error()
		return e
	default:
		return nil
	}
}
