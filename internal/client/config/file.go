package config

import (
	"os"

	"github.com/dmitrijs2005/daybook/internal/filex"
	"github.com/dmitrijs2005/daybook/internal/flagx"
	"github.com/dmitrijs2005/daybook/internal/timex"
)

// FileConfig is the on-disk shape of the client configuration.
type FileConfig struct {
	ServerEndpointAddr  string         `json:"server_endpoint_addr" yaml:"server_endpoint_addr"`
	DatabasePath        string         `json:"database_path" yaml:"database_path"`
	AutosaveDebounce    timex.Duration `json:"autosave_debounce" yaml:"autosave_debounce"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval" yaml:"online_check_interval"`
	LogLevel            string         `json:"log_level" yaml:"log_level"`
	MaxMessageSize      int            `json:"max_message_size" yaml:"max_message_size"`
}

// parseFile overlays cfg with the file named by -c/-config. Keys missing from
// the file keep their current value; a broken file panics.
func parseFile(cfg *Config) {
	path := flagx.ConfigFileFlag(os.Args[1:])
	if path == "" {
		return
	}

	var fc FileConfig
	if err := filex.DecodeConfigFile(path, &fc); err != nil {
		panic(err)
	}

	if fc.ServerEndpointAddr != "" {
		cfg.ServerEndpointAddr = fc.ServerEndpointAddr
	}
	if fc.DatabasePath != "" {
		cfg.DatabasePath = fc.DatabasePath
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}
	if fc.AutosaveDebounce.Duration > 0 {
		cfg.AutosaveDebounce = fc.AutosaveDebounce.Duration
	}
	if fc.OnlineCheckInterval.Duration > 0 {
		cfg.OnlineCheckInterval = fc.OnlineCheckInterval.Duration
	}
	if fc.MaxMessageSize > 0 {
		cfg.MaxMessageSize = fc.MaxMessageSize
	}
}
