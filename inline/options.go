package inline

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/mellow-player/mellow/player"
	"github.com/mellow-player/mellow/util"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

// TrackFilter narrows the queue down to the tracks that should be played.
type TrackFilter func([]string) ([]string, error)

// ProgressHook is called with every position update that is written out.
type ProgressHook func(track string, progress player.ProgressSnapshot)

type Options struct {
	Out    io.Writer
	Player player.Player
	Tracks []string
	Filter mo.Option[TrackFilter]

	Loop   bool
	Volume float64
	Speed  float64

	// ProgressInterval throttles progress events; zero writes every update.
	ProgressInterval time.Duration
	OnProgress       mo.Option[ProgressHook]
}

// ParseTrackFilter parses a track selector:
// "first", "last", "all", an index, an inclusive "from-to" range
// or "@text@" for tracks whose URL contains text.
func ParseTrackFilter(description string) (TrackFilter, error) {
	switch description {
	case "first":
		return func(tracks []string) ([]string, error) {
			if len(tracks) == 0 {
				return tracks, nil
			}
			return tracks[:1], nil
		}, nil
	case "last":
		return func(tracks []string) ([]string, error) {
			if len(tracks) == 0 {
				return tracks, nil
			}
			return tracks[len(tracks)-1:], nil
		}, nil
	case "all":
		return func(tracks []string) ([]string, error) {
			return tracks, nil
		}, nil
	}

	if parts := strings.Split(description, "-"); len(parts) == 2 {
		from, err1 := strconv.ParseUint(parts[0], 10, 16)
		to, err2 := strconv.ParseUint(parts[1], 10, 16)
		if err1 == nil && err2 == nil {
			return func(tracks []string) ([]string, error) {
				start := util.Min(from, uint64(len(tracks)))
				end := util.Min(to+1, uint64(len(tracks)))
				if start > end {
					return []string{}, nil
				}
				return tracks[start:end], nil
			}, nil
		}
	}

	if len(description) > 1 && strings.HasPrefix(description, "@") && strings.HasSuffix(description, "@") {
		sub := strings.ToLower(description[1 : len(description)-1])
		return func(tracks []string) ([]string, error) {
			return lo.Filter(tracks, func(t string, _ int) bool {
				return strings.Contains(strings.ToLower(t), sub)
			}), nil
		}, nil
	}

	if idx, err := strconv.ParseUint(description, 10, 16); err == nil {
		return func(tracks []string) ([]string, error) {
			if uint64(len(tracks)) <= idx {
				return []string{}, nil
			}
			return []string{tracks[idx]}, nil
		}, nil
	}

	return nil, fmt.Errorf("invalid track selector: %s", description)
}
