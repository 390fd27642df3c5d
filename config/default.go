package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"text/template"

	"github.com/mellow-player/mellow/color"
	"github.com/mellow-player/mellow/constant"
	"github.com/mellow-player/mellow/key"
	"github.com/mellow-player/mellow/style"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// Field represents a configuration field definition.
type Field struct {
	Key         string
	Value       any
	Description string
}

// Pretty returns a colored string representation of the field for display.
func (f *Field) Pretty() string {
	var b strings.Builder
	lo.Must0(prettyTemplate.Execute(&b, f))
	return b.String()
}

// Env returns the environment variable name for this field.
func (f *Field) Env() string {
	env := strings.ToUpper(EnvKeyReplacer.Replace(f.Key))
	prefix := strings.ToUpper(constant.Mellow + "_")
	if strings.HasPrefix(env, prefix) {
		return env
	}
	return prefix + env
}

// MarshalJSON customizes JSON output to include current and default values.
func (f *Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Key         string `json:"key"`
		Value       any    `json:"value"`
		Default     any    `json:"default"`
		Description string `json:"description"`
		Type        string `json:"type"`
	}{
		Key:         f.Key,
		Value:       viper.Get(f.Key),
		Default:     f.Value,
		Description: f.Description,
		Type:        f.typeName(),
	})
}

// typeName returns the string representation of the field's underlying value type.
func (f *Field) typeName() string {
	switch f.Value.(type) {
	case string:
		return "string"
	case int:
		return "int"
	case float64:
		return "float"
	case bool:
		return "bool"
	case []string:
		return "[]string"
	case []int:
		return "[]int"
	default:
		return "unknown"
	}
}

// Default holds the map of all configuration fields.
var Default = make(map[string]Field)

// EnvExposed holds keys that are bound to environment variables.
var EnvExposed []string

func init() {
	register := func(k string, v any, desc string) {
		if _, exists := Default[k]; exists {
			panic("Duplicate config key: " + k)
		}
		Default[k] = Field{Key: k, Value: v, Description: desc}
		EnvExposed = append(EnvExposed, k)
	}

	register(key.PlayerBinary, constant.Engine, "Engine binary to spawn.\nEither a name looked up on PATH or an absolute path")
	register(key.PlayerExtraArgs, []string{}, "Additional flags appended to the engine command line")
	register(key.PlayerSocketDir, "", "Directory for the engine control sockets.\nEmpty means the system temp directory. Ignored on Windows")
	register(key.PlayerDemuxerMaxBytes, "150MiB", "Forward cache size passed to --demuxer-max-bytes")

	register(key.PlayerRequestTimeout, "5s", "How long a command may wait for its reply")
	register(key.PlayerHealthTimeout, "5s", "How long a single health probe may take")
	register(key.PlayerHealthRetryDelay, "1s", "Pause between the two health probes")
	register(key.PlayerConnectDelay, "250ms", "Delay before the first socket connection attempt.\nDoubles with every failed attempt")
	register(key.PlayerConnectAttempts, 6, "Socket connection attempts before giving up")
	register(key.PlayerConnectBackoffCap, "8s", "Upper bound of the connection backoff")
	register(key.PlayerFileLoadTimeout, "20s", "Skip a track that takes longer than this to load")
	register(key.PlayerStallInterval, "5s", "How often the playback position is polled while playing")
	register(key.PlayerRecoverySettle, "500ms", "Pause between killing a broken engine and spawning a new one")
	register(key.PlayerReadyTimeout, "10s", "How long a recovered engine may take to become ready")
	register(key.PlayerRecoveryAttempts, 5, "Engine restarts tried before recovery gives up")
	register(key.PlayerRecoveryBackoff, "2s", "Delay before the second restart attempt.\nDoubles with every failed attempt")
	register(key.PlayerRecoveryBackoffCap, "30s", "Upper bound of the recovery backoff")
	register(key.PlayerUnpauseDelay, "300ms", "Pause between reloading a track and resuming it after recovery")

	register(key.PlayerVolume, 1.0, "Initial volume. From 0 to 1")
	register(key.PlayerSpeed, 1.0, "Initial playback speed factor")
	register(key.PlayerLoop, false, "Loop every track")
	register(key.PlayerSeek, 5, "Seconds skipped by the seek keys in the player view")

	register(key.HistorySave, true, "Remember played tracks and their position")
	register(key.HistoryLimit, 100, "Maximum number of remembered tracks")

	register(key.IconsVariant, "plain", "Icons variant.\nAvailable options are: emoji, kaomoji, plain, squares, nerd (nerd-font required)")
	register(key.LogsWrite, false, "Write logs")
	register(key.LogsLevel, "info", "Available options are: (from less to most verbose)\npanic, fatal, error, warn, info, debug, trace")
	register(key.LogsJson, false, "Use json format for logs")
	register(key.CliColored, true, "Enable colored CLI output")
	register(key.CliVersionCheck, true, "Check for a newer release when showing help")
}

var prettyTemplate = lo.Must(template.New("pretty").Funcs(template.FuncMap{
	"faint":    style.Faint,
	"bold":     style.Bold,
	"purple":   style.Fg(color.Purple),
	"blue":     style.Fg(color.Blue),
	"cyan":     style.Fg(color.Cyan),
	"value":    func(k string) any { return viper.Get(k) },
	"typename": func(v any) string { return reflect.TypeOf(v).String() },
	"hl": func(v any) string {
		switch value := v.(type) {
		case bool:
			b := strconv.FormatBool(value)
			if value {
				return style.Fg(color.Green)(b)
			}
			return style.Fg(color.Red)(b)
		case string:
			return style.Fg(color.Yellow)(value)
		default:
			return fmt.Sprint(value)
		}
	},
}).Parse(`{{ faint .Description }}
{{ blue "Key:" }}     {{ purple .Key }}
{{ blue "Env:" }}     {{ .Env }}
{{ blue "Value:" }}   {{ hl (value .Key) }}
{{ blue "Default:" }} {{ hl (.Value) }}
{{ blue "Type:" }}    {{ typename .Value }}`))
