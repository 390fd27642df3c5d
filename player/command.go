package player

// Property names the engine is asked about or told to change.
type Property string

const (
	PropPause    Property = "pause"
	PropTimePos  Property = "time-pos"
	PropDuration Property = "duration"
	PropVolume   Property = "volume"
	PropSpeed    Property = "speed"
	PropLoopFile Property = "loop-file"
	PropPID      Property = "pid"
)

// Command is a single request understood by the engine.
// The set of implementations is closed; each one carries typed arguments
// and is turned into the wire array only by the framer.
type Command interface {
	// Verb returns the engine command name.
	Verb() string
	args() []any
}

// LoadFile replaces the current file with URL.
type LoadFile struct {
	URL string
}

func (LoadFile) Verb() string  { return "loadfile" }
func (c LoadFile) args() []any { return []any{c.URL, "replace"} }

// SetPause sets the pause property.
type SetPause struct {
	Paused bool
}

func (SetPause) Verb() string  { return "set_property" }
func (c SetPause) args() []any { return []any{string(PropPause), c.Paused} }

// SetTimePos seeks to an absolute position in seconds.
type SetTimePos struct {
	Seconds float64
}

func (SetTimePos) Verb() string  { return "set_property" }
func (c SetTimePos) args() []any { return []any{string(PropTimePos), c.Seconds} }

// SetVolume sets the engine volume on its native 0..100 scale.
type SetVolume struct {
	Level float64
}

func (SetVolume) Verb() string  { return "set_property" }
func (c SetVolume) args() []any { return []any{string(PropVolume), c.Level} }

// SetSpeed sets the playback speed factor.
type SetSpeed struct {
	Factor float64
}

func (SetSpeed) Verb() string  { return "set_property" }
func (c SetSpeed) args() []any { return []any{string(PropSpeed), c.Factor} }

// SetLoopFile toggles engine-native looping of the current file.
type SetLoopFile struct {
	Enabled bool
}

func (SetLoopFile) Verb() string { return "set_property" }
func (c SetLoopFile) args() []any {
	if c.Enabled {
		return []any{string(PropLoopFile), "inf"}
	}
	return []any{string(PropLoopFile), "no"}
}

// GetProperty reads a property.
type GetProperty struct {
	Name Property
}

func (GetProperty) Verb() string  { return "get_property" }
func (c GetProperty) args() []any { return []any{string(c.Name)} }

// CyclePause flips the pause property.
type CyclePause struct{}

func (CyclePause) Verb() string { return "cycle" }
func (CyclePause) args() []any  { return []any{string(PropPause)} }

// ObserveProperty subscribes to property-change events for Name.
type ObserveProperty struct {
	ID   int
	Name Property
}

func (ObserveProperty) Verb() string  { return "observe_property" }
func (c ObserveProperty) args() []any { return []any{c.ID, string(c.Name)} }

// wire returns the [verb, args...] form sent to the engine.
func wire(c Command) []any {
	return append([]any{c.Verb()}, c.args()...)
}

// observed lists the properties every session subscribes to once connected.
var observed = []ObserveProperty{
	{ID: 1, Name: PropTimePos},
	{ID: 2, Name: PropDuration},
	{ID: 3, Name: PropPause},
}
