// Package where implements a cross-platform resolver for application-specific filesystem paths.
package where

import (
	"os"
	"path/filepath"

	"github.com/mellow-player/mellow/constant"
	"github.com/mellow-player/mellow/filesystem"
	"github.com/mellow-player/mellow/key"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// EnvConfigPath is the environment variable identifier used to override the default configuration directory.
const EnvConfigPath = "MELLOW_CONFIG_PATH"

// ensureDir creates path if needed and returns it.
func ensureDir(path string) string {
	lo.Must0(filesystem.API().MkdirAll(path, os.ModePerm))
	return path
}

// Config resolves the absolute path to the primary application configuration directory.
// The path can be overridden with the MELLOW_CONFIG_PATH environment variable.
func Config() string {
	if custom, ok := os.LookupEnv(EnvConfigPath); ok {
		return ensureDir(custom)
	}

	base := lo.Must(os.UserConfigDir())
	return ensureDir(filepath.Join(base, constant.Mellow))
}

// Cache resolves the absolute path to the application's persistent cache directory.
func Cache() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = filepath.Join(".", "cache")
	}
	return ensureDir(filepath.Join(base, constant.Mellow))
}

// Logs resolves the directory holding the dated log files.
func Logs() string {
	return ensureDir(filepath.Join(Config(), "logs"))
}

// History resolves the played tracks file.
func History() string {
	return filepath.Join(Config(), "history.json")
}

// Sockets resolves the directory engine control sockets are created in.
// It is created on the real filesystem since the engine, not us, binds it.
func Sockets() string {
	dir := viper.GetString(key.PlayerSocketDir)
	if dir == "" {
		dir = filepath.Join(os.TempDir(), constant.Mellow)
	}
	_ = os.MkdirAll(dir, 0o700)
	return dir
}
