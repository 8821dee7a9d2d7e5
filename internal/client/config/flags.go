package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/daybook/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   address and port of the backend server
//	-f string   local database file
//	-w int      autosave debounce in milliseconds
//	-i int      online check interval in seconds
//	-l string   log level
//	-m int      max gRPC message size in megabytes
//
// os.Args is filtered with flagx.FilterArgs so subcommand flags do not
// interfere.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-f", "-w", "-i", "-l", "-m"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	fs.StringVar(&cfg.DatabasePath, "f", cfg.DatabasePath, "local database file")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level (debug, info, warn, error)")
	debounce := fs.Int("w", int(cfg.AutosaveDebounce.Milliseconds()), "autosave debounce (in milliseconds)")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	maxMessageSize := fs.Int("m", cfg.MaxMessageSize>>20, "max gRPC message size (in megabytes)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.AutosaveDebounce = time.Duration(*debounce) * time.Millisecond
	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
	if *maxMessageSize > 0 {
		cfg.MaxMessageSize = *maxMessageSize << 20
	}
}
