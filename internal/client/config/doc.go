// Package config loads runtime configuration for the Daybook CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON or YAML file selected via -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   address:port of the backend gRPC endpoint
//	-f string   path of the local SQLite database
//	-w int      autosave debounce (milliseconds)
//	-i int      online status check interval (seconds)
//	-l string   log level
//
// # File schema
//
// Intervals use timex.Duration, so values can be either strings like "450ms"
// or integer nanoseconds:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "database_path": "daybook.db",
//	  "autosave_debounce": "450ms",
//	  "online_check_interval": "3s"
//	}
package config
