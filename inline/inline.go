// Package inline plays a queue of tracks without the player view and writes
// every notification as one JSON line, for scripts and status bars.
package inline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mellow-player/mellow/log"
	"github.com/mellow-player/mellow/player"
)

// ErrNoTracks is returned when the filter leaves nothing to play.
var ErrNoTracks = errors.New("no tracks to play")

// Run plays the queue in order, each track until it finishes.
// It returns nil once the queue is done or ctx is cancelled.
func Run(ctx context.Context, options *Options) error {
	if options.Out == nil {
		options.Out = os.Stdout
	}

	tracks := options.Tracks
	if options.Filter.IsPresent() {
		filtered, err := options.Filter.MustGet()(tracks)
		if err != nil {
			return err
		}
		tracks = filtered
	}
	if len(tracks) == 0 {
		return ErrNoTracks
	}

	r := &runner{
		options: options,
		encoder: json.NewEncoder(options.Out),
		notes:   options.Player.Notifications(),
	}

	err := r.playAll(ctx, tracks)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

type runner struct {
	options *Options
	encoder *json.Encoder
	notes   <-chan player.Notification
}

func (r *runner) playAll(ctx context.Context, tracks []string) error {
	p := r.options.Player

	if err := p.SetLoop(ctx, r.options.Loop); err != nil {
		return err
	}

	configured := false
	for i, track := range tracks {
		if err := r.write(newEvent(TypeTrack, i, track)); err != nil {
			return err
		}

		if err := p.Play(ctx, track); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warnf("inline: skipping %s: %v", track, err)
			failed := newEvent(TypeFailed, i, track)
			failed.Error = err.Error()
			if err := r.write(failed); err != nil {
				return err
			}
			continue
		}

		if !configured {
			configured = true
			r.configure(ctx)
		}

		if err := r.await(ctx, i, track); err != nil {
			return err
		}
	}
	return nil
}

// configure applies volume and speed once an engine exists.
func (r *runner) configure(ctx context.Context) {
	p := r.options.Player
	if r.options.Volume > 0 {
		if err := p.SetVolume(ctx, r.options.Volume); err != nil {
			log.Warnf("inline: set volume: %v", err)
		}
	}
	if r.options.Speed > 0 {
		if err := p.SetSpeed(ctx, r.options.Speed); err != nil {
			log.Warnf("inline: set speed: %v", err)
		}
	}
}

// await relays notifications until the track finishes. A Finished that
// arrives before the track left Idle belongs to an earlier track and is dropped.
func (r *runner) await(ctx context.Context, index int, track string) error {
	var (
		started      bool
		lastProgress time.Time
	)

	for {
		var n player.Notification
		select {
		case <-ctx.Done():
			return ctx.Err()
		case note, ok := <-r.notes:
			if !ok {
				return errors.New("player closed")
			}
			n = note
		}

		switch n := n.(type) {
		case player.StateChanged:
			if n.Phase != player.Idle {
				started = true
			}
		case player.ProgressUpdated:
			if time.Since(lastProgress) < r.options.ProgressInterval {
				continue
			}
			lastProgress = time.Now()
			if r.options.OnProgress.IsPresent() {
				r.options.OnProgress.MustGet()(track, n.ProgressSnapshot)
			}
		case player.Finished:
			if !started {
				continue
			}
		}

		event := fromNotification(n, index, track)
		if event == nil {
			continue
		}
		if err := r.write(event); err != nil {
			return err
		}

		switch n := n.(type) {
		case player.Finished:
			return nil
		case player.Failed:
			if player.IsFatal(n.Err) {
				return n.Err
			}
		}
	}
}

func (r *runner) write(e *Event) error {
	if err := r.encoder.Encode(e); err != nil {
		return fmt.Errorf("write %s event: %w", e.Type, err)
	}
	return nil
}
