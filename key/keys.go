// Package key defines the canonical set of configuration identifiers.
package key

// Engine process and socket.
const (
	PlayerBinary          = "player.binary"
	PlayerExtraArgs       = "player.extra_args"
	PlayerSocketDir       = "player.socket_dir"
	PlayerDemuxerMaxBytes = "player.demuxer_max_bytes"
)

// Request, connection and recovery timing.
const (
	PlayerRequestTimeout     = "player.request_timeout"
	PlayerHealthTimeout      = "player.health_timeout"
	PlayerHealthRetryDelay   = "player.health_retry_delay"
	PlayerConnectDelay       = "player.connect_delay"
	PlayerConnectAttempts    = "player.connect_attempts"
	PlayerConnectBackoffCap  = "player.connect_backoff_cap"
	PlayerFileLoadTimeout    = "player.file_load_timeout"
	PlayerStallInterval      = "player.stall_interval"
	PlayerRecoverySettle     = "player.recovery_settle"
	PlayerReadyTimeout       = "player.ready_timeout"
	PlayerRecoveryAttempts   = "player.recovery_attempts"
	PlayerRecoveryBackoff    = "player.recovery_backoff"
	PlayerRecoveryBackoffCap = "player.recovery_backoff_cap"
	PlayerUnpauseDelay       = "player.unpause_delay"
)

// Initial playback settings applied to every session.
const (
	PlayerVolume = "player.volume"
	PlayerSpeed  = "player.speed"
	PlayerLoop   = "player.loop"
	PlayerSeek   = "player.seek_step"
)

// History tracking.
const (
	HistorySave  = "history.save"
	HistoryLimit = "history.limit"
)

const (
	IconsVariant = "icons.variant"
)

// Logging.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI behaviour.
const (
	CliColored      = "cli.colored"
	CliVersionCheck = "cli.version_check"
)
