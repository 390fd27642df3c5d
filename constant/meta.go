// Package constant defines immutable application-level identifiers.
package constant

const (
	// Mellow is the application name used for paths, env prefixes and CLI branding.
	Mellow = "mellow"

	// Version is the current application semantic version string.
	Version = "0.3.0"

	// Engine is the media engine binary looked up on PATH by default.
	Engine = "mpv"
)

// Build metadata, overridden at link time with -ldflags "-X".
var (
	BuiltAt  = "unknown"
	BuiltBy  = "unknown"
	Revision = "unknown"
)
