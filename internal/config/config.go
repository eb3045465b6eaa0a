// Package config loads promptreg server settings from an optional YAML file,
// PROMPTREG_* environment variables and command-line flags, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. PROMPTREG_HTTP_ADDR.
const EnvPrefix = "PROMPTREG"

// Transports accepted by Validate.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Log formats accepted by Validate.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// ErrInvalid marks a configuration that failed validation.
var ErrInvalid = errors.New("config: invalid")

// Config is the full server configuration.
type Config struct {
	Transport string          `mapstructure:"transport"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Manifests ManifestsConfig `mapstructure:"manifests"`
	Remote    RemoteConfig    `mapstructure:"remote"`
	Git       GitConfig       `mapstructure:"git"`
	Log       LogConfig       `mapstructure:"log"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
}

// HTTPConfig configures the HTTP transport.
type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// ManifestsConfig points at a local directory of YAML manifests.
type ManifestsConfig struct {
	Dir string `mapstructure:"dir"`
}

// RemoteConfig configures manifests served over HTTP.
type RemoteConfig struct {
	URL   string        `mapstructure:"url"`
	Token string        `mapstructure:"token"`
	TTL   time.Duration `mapstructure:"ttl"`
	IDs   []string      `mapstructure:"ids"`
}

// GitConfig configures manifests read from a Git repository.
type GitConfig struct {
	URL    string   `mapstructure:"url"`
	Branch string   `mapstructure:"branch"`
	Dir    string   `mapstructure:"dir"`
	Token  string   `mapstructure:"token"`
	IDs    []string `mapstructure:"ids"`
}

// LogConfig configures the zerolog logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TracingConfig toggles OpenTelemetry spans for prompt invocations and HTTP requests.
type TracingConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"transport":  "transport",
	"addr":       "http.addr",
	"manifests":  "manifests.dir",
	"remote-url": "remote.url",
	"git-url":    "git.url",
	"log-level":  "log.level",
	"log-format": "log.format",
	"trace":      "tracing.enabled",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("transport", TransportStdio)
	v.SetDefault("http.addr", "127.0.0.1:8765")
	v.SetDefault("manifests.dir", "")
	v.SetDefault("remote.url", "")
	v.SetDefault("remote.token", "")
	v.SetDefault("remote.ttl", 5*time.Minute)
	v.SetDefault("remote.ids", []string{})
	v.SetDefault("git.url", "")
	v.SetDefault("git.branch", "main")
	v.SetDefault("git.dir", "")
	v.SetDefault("git.token", "")
	v.SetDefault("git.ids", []string{})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", FormatConsole)
	v.SetDefault("tracing.enabled", false)
}

// Load reads configuration. path may be empty; flags may be nil. Only flags the user
// actually set override file and environment values.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}
	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("config: bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects unknown enum values and incomplete source settings.
func (c *Config) Validate() error {
	if !slices.Contains([]string{TransportStdio, TransportHTTP}, c.Transport) {
		return fmt.Errorf("%w: transport %q (want stdio or http)", ErrInvalid, c.Transport)
	}
	if c.Transport == TransportHTTP && c.HTTP.Addr == "" {
		return fmt.Errorf("%w: http.addr is required for the http transport", ErrInvalid)
	}
	if !slices.Contains([]string{FormatConsole, FormatJSON}, c.Log.Format) {
		return fmt.Errorf("%w: log.format %q (want console or json)", ErrInvalid, c.Log.Format)
	}
	if c.Git.URL != "" && strings.TrimSpace(c.Git.Branch) == "" {
		return fmt.Errorf("%w: git.branch must not be empty", ErrInvalid)
	}
	if c.Remote.URL == "" && len(c.Remote.IDs) > 0 {
		return fmt.Errorf("%w: remote.ids set without remote.url", ErrInvalid)
	}
	return nil
}
