package config

import (
	"log/slog"
	"net"
)

// Config holds collate configuration.
// Stored at: ~/.collate/config.yaml
type Config struct {
	Server ServerCfg `mapstructure:"server" yaml:"server"`
	Log    LogCfg    `mapstructure:"log" yaml:"log"`
	Ingest IngestCfg `mapstructure:"ingest" yaml:"ingest"`
}

// ServerCfg configures the HTTP API server.
type ServerCfg struct {
	Host string `mapstructure:"host" yaml:"host"` // Bind address, the server falls back to 127.0.0.1 when empty
	Port string `mapstructure:"port" yaml:"port"`
}

// Addr returns the listen address in host:port form.
func (s ServerCfg) Addr() string {
	return net.JoinHostPort(s.Host, s.Port)
}

// LogCfg configures logging.
type LogCfg struct {
	Level string `mapstructure:"level" yaml:"level"` // "debug", "info", "warn", "error"
}

// SlogLevel maps the configured level name to a slog.Level.
// Unknown names fall back to info.
func (l LogCfg) SlogLevel() slog.Level {
	switch l.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IngestCfg configures observation document ingest and the inbox watcher.
type IngestCfg struct {
	RetryAttempts uint `mapstructure:"retry_attempts" yaml:"retry_attempts"` // Reads of a still-settling inbox file
	RetryDelayMS  int  `mapstructure:"retry_delay_ms" yaml:"retry_delay_ms"` // Delay between read attempts
	AutoValidate  bool `mapstructure:"auto_validate" yaml:"auto_validate"`   // Validate right after staging
	Archive       bool `mapstructure:"archive" yaml:"archive"`               // Keep ingested documents under data/ (false discards them)
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerCfg{
			Host: "",
			Port: "8080",
		},
		Log: LogCfg{
			Level: "info",
		},
		Ingest: IngestCfg{
			RetryAttempts: 5,
			RetryDelayMS:  200,
			AutoValidate:  true,
			Archive:       true,
		},
	}
}
