// Package config registers the application settings and wires them into viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mellow-player/mellow/constant"
	"github.com/mellow-player/mellow/filesystem"
	"github.com/mellow-player/mellow/key"
	"github.com/mellow-player/mellow/where"
	"github.com/spf13/viper"
)

// EnvKeyReplacer is a strings.Replacer used to normalize configuration keys into environment variable naming conventions.
var EnvKeyReplacer = strings.NewReplacer(".", "_")

// Setup initializes the global configuration state, including defaults, environment bindings, and localized file resolution.
func Setup() error {
	viper.SetConfigName(constant.Mellow)
	viper.SetConfigType("toml")
	viper.SetFs(filesystem.API())
	viper.AddConfigPath(where.Config())

	// Synchronize environment variable bindings.
	viper.SetEnvPrefix(constant.Mellow)
	viper.SetEnvKeyReplacer(EnvKeyReplacer)
	for _, env := range EnvExposed {
		viper.MustBindEnv(env)
	}

	// Initialize factory default values.
	viper.SetTypeByDefaultValue(true)
	for name, field := range Default {
		viper.SetDefault(name, field.Value)
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
	}

	return validate()
}

// validate rejects settings the player cannot work with.
func validate() error {
	for name, field := range Default {
		if !isDuration(field.Value) {
			continue
		}
		if _, err := time.ParseDuration(viper.GetString(name)); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	if v := viper.GetFloat64(key.PlayerVolume); v < 0 || v > 1 {
		return fmt.Errorf("%s must be between 0 and 1, got %v", key.PlayerVolume, v)
	}
	if viper.GetFloat64(key.PlayerSpeed) <= 0 {
		return fmt.Errorf("%s must be positive", key.PlayerSpeed)
	}
	return nil
}

// isDuration reports whether a default value is written as a duration.
func isDuration(v any) bool {
	s, ok := v.(string)
	if !ok || s == "" {
		return false
	}
	_, err := time.ParseDuration(s)
	return err == nil
}
