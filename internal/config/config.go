// Package config loads the lobby server's YAML configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Server holds all runtime configuration for the lobby server.
type Server struct {
	// Network
	BindAddress string `yaml:"bind_address"`
	Port        int    `yaml:"port"`

	// Logging
	LogLevel string `yaml:"log_level"` // debug, info, warn, error (default: info)

	// Connection lifecycle
	UnauthenticatedIdleTimeout time.Duration `yaml:"unauthenticated_idle_timeout"`
	AuthenticatedIdleTimeout   time.Duration `yaml:"authenticated_idle_timeout"`

	// Rate limiting
	FramesPerSecondLimit      int `yaml:"frames_per_second_limit"`
	OverLimitSecondsToKick    int `yaml:"over_limit_seconds_to_kick"`
	ConnectionsPerIPPerSecond int `yaml:"connections_per_ip_per_second"`

	// Mailbox
	MailboxCapacity  int `yaml:"mailbox_capacity"`
	MailboxDrainSize int `yaml:"mailbox_drain_size"`
}

// Default returns the configuration this server runs with absent an
// override file, matching the values named in the protocol specification.
func Default() Server {
	return Server{
		BindAddress:               "0.0.0.0",
		Port:                      17000,
		LogLevel:                  "info",
		UnauthenticatedIdleTimeout: 3 * time.Second,
		AuthenticatedIdleTimeout:   10 * time.Minute,
		FramesPerSecondLimit:       5,
		OverLimitSecondsToKick:     10,
		ConnectionsPerIPPerSecond:  1,
		MailboxCapacity:            100,
		MailboxDrainSize:           50,
	}
}

// Load reads a YAML file at path, layering it over Default() so a
// partial file only needs to override what it changes.
func Load(path string) (Server, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Server{}, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Server{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// Addr returns the "host:port" listen address.
func (s Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.BindAddress, s.Port)
}
