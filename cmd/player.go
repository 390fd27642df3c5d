package cmd

import (
	"github.com/mellow-player/mellow/key"
	"github.com/mellow-player/mellow/player"
	"github.com/mellow-player/mellow/where"
	"github.com/spf13/viper"
)

// playerOptions reads the engine settings from the configuration.
func playerOptions() player.Options {
	return player.Options{
		Binary:             viper.GetString(key.PlayerBinary),
		ExtraArgs:          viper.GetStringSlice(key.PlayerExtraArgs),
		SocketDir:          where.Sockets(),
		DemuxerMaxBytes:    viper.GetString(key.PlayerDemuxerMaxBytes),
		RequestTimeout:     viper.GetDuration(key.PlayerRequestTimeout),
		HealthTimeout:      viper.GetDuration(key.PlayerHealthTimeout),
		HealthRetryDelay:   viper.GetDuration(key.PlayerHealthRetryDelay),
		ConnectDelay:       viper.GetDuration(key.PlayerConnectDelay),
		ConnectAttempts:    viper.GetInt(key.PlayerConnectAttempts),
		ConnectBackoffCap:  viper.GetDuration(key.PlayerConnectBackoffCap),
		FileLoadTimeout:    viper.GetDuration(key.PlayerFileLoadTimeout),
		StallInterval:      viper.GetDuration(key.PlayerStallInterval),
		RecoverySettle:     viper.GetDuration(key.PlayerRecoverySettle),
		ReadyTimeout:       viper.GetDuration(key.PlayerReadyTimeout),
		RecoveryAttempts:   viper.GetInt(key.PlayerRecoveryAttempts),
		RecoveryBackoff:    viper.GetDuration(key.PlayerRecoveryBackoff),
		RecoveryBackoffCap: viper.GetDuration(key.PlayerRecoveryBackoffCap),
		UnpauseDelay:       viper.GetDuration(key.PlayerUnpauseDelay),
	}
}

func newPlayer() *player.MPV {
	return player.NewMPV(playerOptions())
}
