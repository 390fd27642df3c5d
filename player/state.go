package player

// Phase is the application-visible playback state.
type Phase int

const (
	Idle Phase = iota
	Buffering
	Playing
	Paused
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Buffering:
		return "buffering"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "unknown"
	}
}

// MarshalText renders the phase by name in JSON output.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Intent is the most recent playback request made by the caller.
// It outlives engine sessions and is what recovery replays.
type Intent struct {
	URL     string
	Loop    bool
	Playing bool
}

// withTrack returns the intent for a newly requested track.
func (i Intent) withTrack(url string, playing bool) Intent {
	i.URL = url
	i.Playing = playing
	return i
}

func (i Intent) withLoop(enabled bool) Intent {
	i.Loop = enabled
	return i
}

func (i Intent) withPlaying(playing bool) Intent {
	i.Playing = playing
	return i
}

// ProgressSnapshot is the last position and length reported by the engine, in seconds.
type ProgressSnapshot struct {
	CurrentTime float64 `json:"current_time"`
	Duration    float64 `json:"duration"`
}

// HealthState is the position of the health and recovery state machine.
type HealthState int

const (
	Healthy HealthState = iota
	Checking
	Recovering
)

func (h HealthState) String() string {
	switch h {
	case Healthy:
		return "healthy"
	case Checking:
		return "checking"
	case Recovering:
		return "recovering"
	default:
		return "unknown"
	}
}
