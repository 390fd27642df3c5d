package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/mellow-player/mellow/key"
	"github.com/mellow-player/mellow/player"
	"github.com/mellow-player/mellow/style"
	"github.com/mellow-player/mellow/util"
	"github.com/spf13/viper"
)

const (
	volumeStep = 0.05
	speedStep  = 0.25
	minSpeed   = 0.25
	maxSpeed   = 4.0

	// how often the position of the current track is written to history
	saveInterval = 5 * time.Second
)

type statefulBubble struct {
	state  state
	keymap *statefulKeymap

	spinnerC  spinner.Model
	progressC progress.Model
	helpC     help.Model
	notice    *notice

	player player.Player
	ctx    context.Context

	current string
	queue   []string
	played  util.Stack[string]

	// started is set once the current track left Idle, so a Finished
	// left over from the previous track is not taken for this one
	started   bool
	configure bool
	resumeAt  float64

	phase    player.Phase
	progress player.ProgressSnapshot
	volume   float64
	speed    float64
	loop     bool
	lastSave time.Time

	lastError error

	width, height int

	options *Options
}

func newBubble(p player.Player, tracks []string, options *Options) *statefulBubble {
	bubble := &statefulBubble{
		keymap:    newStatefulKeymap(),
		player:    p,
		ctx:       context.Background(),
		current:   tracks[0],
		queue:     tracks[1:],
		configure: true,
		volume:    options.Volume,
		speed:     options.Speed,
		loop:      options.Loop,
		notice:    &notice{},
		options:   options,
	}

	if bubble.speed <= 0 {
		bubble.speed = 1
	}

	bubble.helpC = help.New()

	bubble.spinnerC = spinner.New()
	bubble.spinnerC.Spinner = spinner.Dot
	bubble.spinnerC.Style = style.New().Foreground(style.AccentColor)

	bubble.progressC = progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())

	if w, h, err := util.TerminalSize(); err == nil {
		bubble.resize(w, h)
	}

	bubble.setState(loadingState)
	return bubble
}

func (b *statefulBubble) setState(s state) {
	b.state = s
	b.keymap.setState(s)
}

func (b *statefulBubble) raiseError(err error) {
	b.lastError = err
	b.setState(errorState)
}

func (b *statefulBubble) resize(width, height int) {
	x, y := paddingStyle.GetFrameSize()

	b.width = width - x
	b.height = height - y
	b.progressC.Width = b.width
	b.helpC.Width = b.width
}

// seekStep returns the configured seek distance in seconds.
func seekStep() float64 {
	step := viper.GetFloat64(key.PlayerSeek)
	if step <= 0 {
		return 5
	}
	return step
}
