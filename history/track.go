package history

import (
	"fmt"
	"time"

	"github.com/mellow-player/mellow/util"
)

// finishedMargin is how close to the end a saved position counts as finished.
const finishedMargin = 5.0

// Track is a played media target and where playback left off.
type Track struct {
	URL      string    `json:"url"`
	Title    string    `json:"title"`
	Position float64   `json:"position"`
	Duration float64   `json:"duration"`
	PlayedAt time.Time `json:"played_at"`
}

// Finished reports whether the saved position is at the end of the track.
func (t *Track) Finished() bool {
	return t.Duration > 0 && t.Position >= t.Duration-finishedMargin
}

// ResumeAt returns the position playback should continue from.
func (t *Track) ResumeAt() float64 {
	if t.Finished() {
		return 0
	}
	return t.Position
}

// Percentage returns how much of the track was played, from 0 to 100.
func (t *Track) Percentage() float64 {
	if t.Duration <= 0 {
		return 0
	}
	return util.Min(t.Position/t.Duration*100, 100)
}

func (t *Track) String() string {
	if t.Duration <= 0 {
		return t.Title
	}
	return fmt.Sprintf("%s : %s / %s", t.Title, util.FormatDuration(t.Position), util.FormatDuration(t.Duration))
}
