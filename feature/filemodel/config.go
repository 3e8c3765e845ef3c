package filemodel

import "time"

// DefaultReloadInterval is how often the background check compares the
// file's modification time.
const DefaultReloadInterval = 60 * time.Second

// Config holds settings for the file-backed model.
type Config struct {
	// Path is the comma-delimited preference file.
	Path string `mapstructure:"path" default:"data/preferences.csv"`
	// DisableAutoReload turns off the background staleness check. The zero
	// value keeps it on, so a bare Config{Path: p} checks every ReloadInterval.
	DisableAutoReload bool `mapstructure:"disable_auto_reload" default:"false"`
	// ReloadInterval is the period of the staleness check.
	ReloadInterval time.Duration `mapstructure:"reload_interval" default:"60s"`
}
