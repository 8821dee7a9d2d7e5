package config

import (
	"os"

	"github.com/dmitrijs2005/daybook/internal/filex"
	"github.com/dmitrijs2005/daybook/internal/flagx"
	"github.com/dmitrijs2005/daybook/internal/timex"
)

// FileConfig is the on-disk shape of the server configuration. Both JSON and
// YAML files are accepted; durations may be strings such as "15m".
type FileConfig struct {
	EndpointAddrGRPC             string         `json:"endpoint_addr_grpc" yaml:"endpoint_addr_grpc"`
	EndpointAddrHTTP             string         `json:"endpoint_addr_http" yaml:"endpoint_addr_http"`
	DatabaseDSN                  string         `json:"database_dsn" yaml:"database_dsn"`
	SecretKey                    string         `json:"secret_key" yaml:"secret_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration" yaml:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration" yaml:"refresh_token_validity_duration"`
	S3RootUser                   string         `json:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword               string         `json:"s3_root_password" yaml:"s3_root_password"`
	S3Bucket                     string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region                     string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint               string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
	ExportLinkValidity           timex.Duration `json:"export_link_validity" yaml:"export_link_validity"`
	LogLevel                     string         `json:"log_level" yaml:"log_level"`
	LogFormat                    string         `json:"log_format" yaml:"log_format"`
	MaxMessageSize               int            `json:"max_message_size" yaml:"max_message_size"`
}

// parseFile overlays config with the file named by -c/-config. Keys missing
// from the file keep their current value. Unreadable or malformed files
// panic, like bad flags do.
func parseFile(config *Config) {
	path := flagx.ConfigFileFlag(os.Args[1:])
	if path == "" {
		return
	}

	var fc FileConfig
	if err := filex.DecodeConfigFile(path, &fc); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrGRPC, fc.EndpointAddrGRPC)
	setString(&config.EndpointAddrHTTP, fc.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, fc.DatabaseDSN)
	setString(&config.SecretKey, fc.SecretKey)
	setString(&config.S3RootUser, fc.S3RootUser)
	setString(&config.S3RootPassword, fc.S3RootPassword)
	setString(&config.S3Bucket, fc.S3Bucket)
	setString(&config.S3Region, fc.S3Region)
	setString(&config.S3BaseEndpoint, fc.S3BaseEndpoint)
	setString(&config.LogLevel, fc.LogLevel)
	setString(&config.LogFormat, fc.LogFormat)

	if fc.AccessTokenValidityDuration.Duration > 0 {
		config.AccessTokenValidityDuration = fc.AccessTokenValidityDuration.Duration
	}
	if fc.RefreshTokenValidityDuration.Duration > 0 {
		config.RefreshTokenValidityDuration = fc.RefreshTokenValidityDuration.Duration
	}
	if fc.ExportLinkValidity.Duration > 0 {
		config.ExportLinkValidity = fc.ExportLinkValidity.Duration
	}
	if fc.MaxMessageSize > 0 {
		config.MaxMessageSize = fc.MaxMessageSize
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
