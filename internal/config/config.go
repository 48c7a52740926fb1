package config

// Configuration loading and validation: named logger profiles so the CLI
// can say "--profile garage" instead of repeating address/serial/unit on
// every invocation.

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Angelelz/solarmanv5/internal/session"
)

// Profile identifies one logging stick and how to talk to it.
type Profile struct {
	Address         string `yaml:"address"`
	Serial          uint32 `yaml:"serial"`
	Unit            uint8  `yaml:"unit,omitempty"`
	TimeoutSeconds  int    `yaml:"timeout_seconds,omitempty"`
	AutoReconnect   bool   `yaml:"auto_reconnect,omitempty"`
	ErrorCorrection bool   `yaml:"error_correction,omitempty"`
}

// Config is the top-level configuration file.
type Config struct {
	DefaultProfile string             `yaml:"default_profile,omitempty"`
	Profiles       map[string]Profile `yaml:"profiles"`
}

// SessionConfig converts a profile into session parameters.
func (p Profile) SessionConfig() session.Config {
	return session.Config{
		Address:         p.Address,
		Serial:          p.Serial,
		UnitID:          p.Unit,
		Timeout:         time.Duration(p.TimeoutSeconds) * time.Second,
		AutoReconnect:   p.AutoReconnect,
		ErrorCorrection: p.ErrorCorrection,
	}
}

// Load reads and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s\n\n"+
				"To fix this:\n"+
				"  1. Generate a starting point: solarmanv5 config init %s\n"+
				"  2. Edit it with your logger's address and serial", path, path)
		}
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks the configuration and applies defaults in place.
func Validate(cfg *Config) error {
	if len(cfg.Profiles) == 0 {
		return fmt.Errorf("no profiles defined")
	}
	for name, p := range cfg.Profiles {
		if err := validateProfile(p); err != nil {
			return fmt.Errorf("profile %q: %w", name, err)
		}
		if p.Unit == 0 {
			p.Unit = 1
			cfg.Profiles[name] = p
		}
	}
	if cfg.DefaultProfile != "" {
		if _, ok := cfg.Profiles[cfg.DefaultProfile]; !ok {
			return fmt.Errorf("default_profile %q is not defined", cfg.DefaultProfile)
		}
	}
	return nil
}

func validateProfile(p Profile) error {
	if p.Address == "" {
		return fmt.Errorf("address is required")
	}
	if p.Serial == 0 {
		return fmt.Errorf("serial is required")
	}
	if p.Unit > 247 {
		return fmt.Errorf("unit must be 1-247, got %d", p.Unit)
	}
	if p.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout_seconds must be >= 0, got %d", p.TimeoutSeconds)
	}
	return nil
}

// Lookup resolves a profile by name; an empty name means the default
// profile (or the only profile, if exactly one is defined).
func (c *Config) Lookup(name string) (Profile, error) {
	if name == "" {
		name = c.DefaultProfile
	}
	if name == "" {
		if len(c.Profiles) == 1 {
			for _, p := range c.Profiles {
				return p, nil
			}
		}
		return Profile{}, fmt.Errorf("no profile named and no default_profile set")
	}
	p, ok := c.Profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("profile %q is not defined", name)
	}
	return p, nil
}

// WriteDefault writes a commented starter configuration.
func WriteDefault(path string) error {
	cfg := &Config{
		DefaultProfile: "inverter",
		Profiles: map[string]Profile{
			"inverter": {
				Address:        "192.168.1.45",
				Serial:         2712345678,
				Unit:           1,
				TimeoutSeconds: 10,
				AutoReconnect:  true,
			},
		},
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
