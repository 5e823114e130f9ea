package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for the server configuration.
const (
	DefaultHTTPPort          = 3000
	DefaultGRPCPort          = 50051
	DefaultSecretEnv         = "SERVE1090_SECRET"
	DefaultMaxDataAge        = 10 * time.Second
	DefaultAircraftTTL       = 60 * time.Second
	DefaultBroadcastInterval = time.Second
)

// Config holds the server-side configuration parsed from the `server:` section.
type Config struct {
	Server ServerConfig `yaml:"server"`
}

// ServerConfig holds all server-side settings.
type ServerConfig struct {
	// HTTPPort serves the websocket and POST pump endpoints, the REST API and
	// the UI stream.
	HTTPPort int `yaml:"http_port"`

	// GRPCPort serves the gRPC pump endpoint. 0 disables gRPC.
	GRPCPort int `yaml:"grpc_port"`

	// SecretEnv names the environment variable holding the expected secret.
	SecretEnv string `yaml:"secret_env"`

	// MaxDataAge rejects snapshots older than this. 0 disables the check.
	MaxDataAge time.Duration `yaml:"max_data_age"`

	// AircraftTTL evicts aircraft that no accepted snapshot has mentioned
	// for this long.
	AircraftTTL time.Duration `yaml:"aircraft_ttl"`

	// BroadcastInterval is the UI hub's push period.
	BroadcastInterval time.Duration `yaml:"broadcast_interval"`
}

// Secret returns the expected pump secret resolved from the environment.
func (s ServerConfig) Secret() string {
	if s.SecretEnv == "" {
		return ""
	}
	return os.Getenv(s.SecretEnv)
}

// Load reads the config file at path. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("server config: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("server config: parse yaml: %w", err)
		}
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("server config: %w", err)
	}
	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:          DefaultHTTPPort,
			GRPCPort:          DefaultGRPCPort,
			SecretEnv:         DefaultSecretEnv,
			MaxDataAge:        DefaultMaxDataAge,
			AircraftTTL:       DefaultAircraftTTL,
			BroadcastInterval: DefaultBroadcastInterval,
		},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	s := cfg.Server
	if s.HTTPPort <= 0 || s.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", s.HTTPPort)
	}
	if s.GRPCPort < 0 || s.GRPCPort > 65535 {
		return fmt.Errorf("server.grpc_port %d is out of range [0, 65535]", s.GRPCPort)
	}
	if s.GRPCPort != 0 && s.GRPCPort == s.HTTPPort {
		return fmt.Errorf("server.grpc_port and server.http_port must differ")
	}
	if s.MaxDataAge < 0 {
		return fmt.Errorf("server.max_data_age must not be negative")
	}
	if s.AircraftTTL <= 0 {
		return fmt.Errorf("server.aircraft_ttl must be positive")
	}
	if s.BroadcastInterval <= 0 {
		return fmt.Errorf("server.broadcast_interval must be positive")
	}
	return nil
}
