package player

import (
	"os"
	"time"
)

// Options tunes how the engine is spawned and supervised.
// Zero fields are replaced by the values from DefaultOptions.
type Options struct {
	// Binary is the engine executable, looked up on PATH.
	Binary string
	// ExtraArgs are appended to the fixed engine flags.
	ExtraArgs []string
	// SocketDir holds the control sockets (ignored on windows).
	SocketDir string
	// DemuxerMaxBytes sizes the engine's forward demuxer cache, e.g. "150MiB".
	DemuxerMaxBytes string

	RequestTimeout   time.Duration
	HealthTimeout    time.Duration
	HealthRetryDelay time.Duration

	ConnectDelay      time.Duration
	ConnectAttempts   int
	ConnectBackoffCap time.Duration

	FileLoadTimeout time.Duration
	StallInterval   time.Duration

	RecoverySettle     time.Duration
	ReadyTimeout       time.Duration
	RecoveryAttempts   int
	RecoveryBackoff    time.Duration
	RecoveryBackoffCap time.Duration
	UnpauseDelay       time.Duration

	Launcher Launcher
	Dialer   Dialer
}

// DefaultOptions returns the settings used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Binary:             "mpv",
		SocketDir:          os.TempDir(),
		DemuxerMaxBytes:    "150MiB",
		RequestTimeout:     5 * time.Second,
		HealthTimeout:      5 * time.Second,
		HealthRetryDelay:   time.Second,
		ConnectDelay:       250 * time.Millisecond,
		ConnectAttempts:    6,
		ConnectBackoffCap:  8 * time.Second,
		FileLoadTimeout:    20 * time.Second,
		StallInterval:      5 * time.Second,
		RecoverySettle:     500 * time.Millisecond,
		ReadyTimeout:       10 * time.Second,
		RecoveryAttempts:   5,
		RecoveryBackoff:    2 * time.Second,
		RecoveryBackoffCap: 30 * time.Second,
		UnpauseDelay:       300 * time.Millisecond,
		Launcher:           ExecLauncher{},
		Dialer:             DialSocket,
	}
}

// withDefaults fills every zero field of o from DefaultOptions.
func (o Options) withDefaults() Options {
	d := DefaultOptions()

	str := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	dur := func(v *time.Duration, def time.Duration) {
		if *v <= 0 {
			*v = def
		}
	}
	num := func(v *int, def int) {
		if *v <= 0 {
			*v = def
		}
	}

	str(&o.Binary, d.Binary)
	str(&o.SocketDir, d.SocketDir)
	str(&o.DemuxerMaxBytes, d.DemuxerMaxBytes)
	dur(&o.RequestTimeout, d.RequestTimeout)
	dur(&o.HealthTimeout, d.HealthTimeout)
	dur(&o.HealthRetryDelay, d.HealthRetryDelay)
	dur(&o.ConnectDelay, d.ConnectDelay)
	num(&o.ConnectAttempts, d.ConnectAttempts)
	dur(&o.ConnectBackoffCap, d.ConnectBackoffCap)
	dur(&o.FileLoadTimeout, d.FileLoadTimeout)
	dur(&o.StallInterval, d.StallInterval)
	dur(&o.RecoverySettle, d.RecoverySettle)
	dur(&o.ReadyTimeout, d.ReadyTimeout)
	num(&o.RecoveryAttempts, d.RecoveryAttempts)
	dur(&o.RecoveryBackoff, d.RecoveryBackoff)
	dur(&o.RecoveryBackoffCap, d.RecoveryBackoffCap)
	dur(&o.UnpauseDelay, d.UnpauseDelay)

	if o.Launcher == nil {
		o.Launcher = d.Launcher
	}
	if o.Dialer == nil {
		o.Dialer = d.Dialer
	}
	return o
}

// backoff returns base doubled attempt times, capped at ceiling.
func backoff(base, ceiling time.Duration, attempt int) time.Duration {
	d := base
	for i := 0; i < attempt && d < ceiling; i++ {
		d *= 2
	}
	if d > ceiling {
		d = ceiling
	}
	return d
}
