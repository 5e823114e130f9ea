package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/pump1090/pump1090/pump/internal/conn"
	"github.com/pump1090/pump1090/pump/internal/source"
)

// ErrInvalid wraps every configuration failure.
var ErrInvalid = errors.New("config: invalid configuration")

// Trigger kinds.
const (
	TriggerPoll  = "poll"
	TriggerWatch = "watch"
)

// Default values applied when a setting is given nowhere else.
const (
	DefaultPath         = "data/aircraft.json"
	DefaultEndpoint     = "ws://localhost:3000/pump"
	DefaultSecret       = "undefined"
	DefaultTrigger      = TriggerPoll
	DefaultInterval     = 500 * time.Millisecond
	DefaultBackoff      = conn.DefaultBackoff
	DefaultWriteTimeout = conn.DefaultWriteTimeout
	DefaultMode         = string(source.ModeStructured)
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "json"
)

// Environment variable names.
const (
	EnvPath         = "DUMPFILE_PATH"
	EnvEndpoint     = "WS_ENDPOINT"
	EnvSecret       = "SERVE1090_SECRET"
	EnvTrigger      = "PUMP_TRIGGER"
	EnvInterval     = "PUMP_INTERVAL"
	EnvBackoff      = "PUMP_BACKOFF"
	EnvMode         = "PUMP_MODE"
	EnvWriteTimeout = "PUMP_WRITE_TIMEOUT"
	EnvMetricsAddr  = "PUMP_METRICS_ADDR"
	EnvLogLevel     = "PUMP_LOG_LEVEL"
	EnvLogFormat    = "PUMP_LOG_FORMAT"
	EnvSkipVerify   = "PUMP_TLS_SKIP_VERIFY"
	EnvCAFile       = "PUMP_TLS_CA_FILE"
	EnvConfig       = "PUMP_CONFIG"
)

// Config is the resolved pump configuration. YAML keys match the fields'
// yaml tags.
type Config struct {
	// Path is the data file to forward.
	Path string `yaml:"dumpfile"`

	// Endpoint is the destination URL; its scheme selects the transport.
	Endpoint string `yaml:"endpoint"`

	// Secret is injected into structured payloads and sent as gRPC metadata.
	Secret string `yaml:"secret"`

	// Trigger is poll (fixed interval) or watch (file-change events).
	Trigger  string        `yaml:"trigger"`
	Interval time.Duration `yaml:"interval"`

	// Backoff is the fixed wait between failed connection attempts.
	Backoff      time.Duration `yaml:"backoff"`
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// Mode is structured (inject the secret) or raw (forward verbatim).
	Mode string `yaml:"mode"`

	// MetricsAddr enables the /metrics and /healthz listener when non-empty.
	MetricsAddr string `yaml:"metrics_addr"`

	Log LogConfig `yaml:"log"`
	TLS TLSConfig `yaml:"tls"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TLSConfig applies to wss, grpcs and https endpoints.
type TLSConfig struct {
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
	CAFile             string `yaml:"ca_file"`
}

// SlogLevel returns the configured level. Call only on a validated Config.
func (c *Config) SlogLevel() slog.Level {
	l, _ := ParseLevel(c.Log.Level)
	return l
}

// ParseLevel parses debug, info, warn or error.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return l, nil
}

// Load resolves the configuration. path names an optional YAML file; when
// empty, the --config flag and then PUMP_CONFIG are consulted. fs may be nil.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	if path == "" {
		path = FilePath(fs)
	}

	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: read file: %w", ErrInvalid, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: parse yaml: %w", ErrInvalid, err)
		}
	}

	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if fs != nil {
		if err := applyFlags(cfg, fs); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
		}
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return cfg, nil
}

// FilePath returns the config file named by the --config flag or PUMP_CONFIG.
func FilePath(fs *pflag.FlagSet) string {
	if fs != nil {
		if f := fs.Lookup("config"); f != nil && f.Changed {
			return f.Value.String()
		}
	}
	return os.Getenv(EnvConfig)
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Path:         DefaultPath,
		Endpoint:     DefaultEndpoint,
		Secret:       DefaultSecret,
		Trigger:      DefaultTrigger,
		Interval:     DefaultInterval,
		Backoff:      DefaultBackoff,
		WriteTimeout: DefaultWriteTimeout,
		Mode:         DefaultMode,
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

type lookupFunc func(string) (string, bool)

func applyEnv(cfg *Config, lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
		return nil
	}

	str(EnvPath, &cfg.Path)
	str(EnvEndpoint, &cfg.Endpoint)
	str(EnvSecret, &cfg.Secret)
	str(EnvTrigger, &cfg.Trigger)
	str(EnvMode, &cfg.Mode)
	str(EnvMetricsAddr, &cfg.MetricsAddr)
	str(EnvLogLevel, &cfg.Log.Level)
	str(EnvLogFormat, &cfg.Log.Format)
	str(EnvCAFile, &cfg.TLS.CAFile)

	for key, dst := range map[string]*time.Duration{
		EnvInterval:     &cfg.Interval,
		EnvBackoff:      &cfg.Backoff,
		EnvWriteTimeout: &cfg.WriteTimeout,
	} {
		if err := dur(key, dst); err != nil {
			return err
		}
	}

	if v, ok := lookup(EnvSkipVerify); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvSkipVerify, err)
		}
		cfg.TLS.InsecureSkipVerify = b
	}
	return nil
}

// validate checks required fields and enumerations.
func validate(cfg *Config) error {
	if strings.TrimSpace(cfg.Path) == "" {
		return fmt.Errorf("dumpfile is required")
	}
	if _, err := conn.ParseEndpoint(cfg.Endpoint); err != nil {
		return err
	}
	switch cfg.Trigger {
	case TriggerPoll, TriggerWatch:
	default:
		return fmt.Errorf("unknown trigger %q (want poll or watch)", cfg.Trigger)
	}
	switch source.Mode(cfg.Mode) {
	case source.ModeRaw, source.ModeStructured:
	default:
		return fmt.Errorf("unknown mode %q (want raw or structured)", cfg.Mode)
	}
	if cfg.Interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}
	if cfg.Backoff <= 0 {
		return fmt.Errorf("backoff must be positive")
	}
	if cfg.WriteTimeout <= 0 {
		return fmt.Errorf("write_timeout must be positive")
	}
	if _, err := ParseLevel(cfg.Log.Level); err != nil {
		return err
	}
	switch cfg.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("unknown log format %q (want json or text)", cfg.Log.Format)
	}
	return nil
}
