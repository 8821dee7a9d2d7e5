package config

import (
	"time"

	"github.com/dmitrijs2005/daybook/internal/rpc"
)

// Config holds runtime settings for the Daybook CLI.
//
// Fields:
//   - ServerEndpointAddr: host:port of the backend gRPC endpoint.
//   - DatabasePath: local SQLite file holding session metadata.
//   - AutosaveDebounce: quiet period after the last edit before the buffer
//     is written to the session autosave.
//   - OnlineCheckInterval: how often the client probes server reachability.
//   - LogLevel: slog level name for the stderr logger.
//   - MaxMessageSize: largest gRPC message the client sends or receives.
type Config struct {
	ServerEndpointAddr  string
	DatabasePath        string
	AutosaveDebounce    time.Duration
	OnlineCheckInterval time.Duration
	LogLevel            string
	MaxMessageSize      int
}

// FlagNames lists the command-line flags owned by the config loader. The CLI
// strips them before handing the rest of os.Args to its command parser.
var FlagNames = []string{"-a", "-f", "-w", "-i", "-l", "-m", "-c", "-config"}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.DatabasePath = "daybook.db"
	c.AutosaveDebounce = 450 * time.Millisecond
	c.OnlineCheckInterval = 3 * time.Second
	c.LogLevel = "warn"
	c.MaxMessageSize = rpc.DefaultMaxMessageSize
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// a config file (if present) and command-line flags (if present). Later
// sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseFile(cfg)
	parseFlags(cfg)
	return cfg
}
