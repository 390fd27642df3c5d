package player

import (
	"encoding/json"
	"time"

	"github.com/mellow-player/mellow/log"
)

// Engine event names.
const (
	eventStartFile      = "start-file"
	eventFileLoaded     = "file-loaded"
	eventEndFile        = "end-file"
	eventPropertyChange = "property-change"
)

// end-file reasons that mean the track is over.
const (
	reasonEOF   = "eof"
	reasonError = "error"
)

// dispatch applies an engine event to the cached state.
// Events from a session that is no longer current are ignored.
func (m *MPV) dispatch(s *session, msg *message) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session != s {
		return
	}

	switch msg.Event {
	case eventStartFile:
		m.setPhaseLocked(Buffering)
		m.armLoadWatchdogLocked(s)
	case eventFileLoaded:
		m.stopLoadWatchdogLocked()
		if m.phase == Paused || m.enginePaused {
			m.setPhaseLocked(Paused)
		} else {
			m.setPhaseLocked(Playing)
		}
	case eventPropertyChange:
		m.propertyChangedLocked(Property(msg.Name), msg.Data)
	case eventEndFile:
		m.fileEndedLocked(msg.Reason)
	default:
		log.Tracef("engine event %s", msg.Event)
	}
}

func (m *MPV) propertyChangedLocked(name Property, data json.RawMessage) {
	switch name {
	case PropPause:
		paused, ok := decodeBool(data)
		if !ok {
			return
		}
		m.enginePaused = paused

		// Nothing is loaded; the value only matters for the next file.
		if m.phase == Idle {
			return
		}

		if paused {
			m.setPhaseLocked(Paused)
		} else if m.phase == Paused {
			m.setPhaseLocked(Playing)
		}
	case PropDuration:
		duration, _ := decodeFloat(data)
		m.progress.Duration = duration
	case PropTimePos:
		pos, ok := decodeFloat(data)
		if !ok {
			return
		}
		m.progress.CurrentTime = pos
		if m.progress.Duration > 0 {
			m.emitLocked(ProgressUpdated{ProgressSnapshot: m.progress})
		}
	}
}

func (m *MPV) fileEndedLocked(reason string) {
	if reason != reasonEOF && reason != reasonError {
		log.Debugf("file ended (%s)", reason)
		return
	}

	log.Infof("file ended (%s): %s", reason, m.intent.URL)

	m.stopLoadWatchdogLocked()
	m.stopStallLocked()
	m.progress = ProgressSnapshot{}
	m.intent = m.intent.withPlaying(false)
	m.setPhaseLocked(Idle)
	m.emitLocked(Finished{})
}

// armLoadWatchdogLocked skips the track if it is still loading after FileLoadTimeout.
func (m *MPV) armLoadWatchdogLocked(s *session) {
	m.stopLoadWatchdogLocked()

	var t *time.Timer
	t = time.AfterFunc(m.opts.FileLoadTimeout, func() {
		m.mu.Lock()
		defer m.mu.Unlock()

		if m.loadWatchdog != t || m.session != s {
			return
		}
		m.loadWatchdog = nil

		log.Warnf("%s did not load within %s, skipping", m.intent.URL, m.opts.FileLoadTimeout)
		m.stopStallLocked()
		m.emitLocked(Finished{})
	})
	m.loadWatchdog = t
}

func (m *MPV) stopLoadWatchdogLocked() {
	if m.loadWatchdog != nil {
		m.loadWatchdog.Stop()
		m.loadWatchdog = nil
	}
}

// decodeFloat reads a numeric property value; null reports false.
func decodeFloat(data json.RawMessage) (float64, bool) {
	var v *float64
	if len(data) == 0 || json.Unmarshal(data, &v) != nil || v == nil {
		return 0, false
	}
	return *v, true
}

// decodeBool reads a flag property value; null reports false.
func decodeBool(data json.RawMessage) (bool, bool) {
	var v *bool
	if len(data) == 0 || json.Unmarshal(data, &v) != nil || v == nil {
		return false, false
	}
	return *v, true
}
