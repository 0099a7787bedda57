package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"modcalc/consts"
	"modcalc/modulation"
)

// Config represents the application configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Session SessionConfig `yaml:"session"`
	FEC     FECConfig     `yaml:"fec"`
}

// ServerConfig contains the form server settings
type ServerConfig struct {
	Listen  string `yaml:"listen"`
	Metrics *bool  `yaml:"metrics"` // Serve /metrics (default: true)
}

// SessionConfig contains per-form defaults
type SessionConfig struct {
	DefaultVariant string `yaml:"default_variant"` // Variant shown when a form opens (default: BPSK)
}

// FECConfig contains the outer code settings
type FECConfig struct {
	Enabled     bool `yaml:"enabled"`      // Show the information rate after the outer code
	DataBytes   int  `yaml:"data_bytes"`   // Data bytes per block (default: 188)
	ParityBytes int  `yaml:"parity_bytes"` // Parity bytes per block (default: 16)
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig loads configuration from a YAML file. An empty filename yields the defaults.
func LoadConfig(filename string) (*Config, error) {
	if filename == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Listen == "" {
		c.Server.Listen = consts.DefaultListenAddr
	}
	if c.Server.Metrics == nil {
		enabled := true
		c.Server.Metrics = &enabled
	}
	if c.Session.DefaultVariant == "" {
		c.Session.DefaultVariant = consts.DefaultVariant
	}
	if c.FEC.DataBytes == 0 {
		c.FEC.DataBytes = consts.TSPacketSize
	}
	if c.FEC.ParityBytes == 0 {
		c.FEC.ParityBytes = consts.RSParityBytes
	}
}

// MetricsEnabled reports whether /metrics is served
func (c *Config) MetricsEnabled() bool {
	return c.Server.Metrics == nil || *c.Server.Metrics
}

// Validate checks values that defaults cannot repair
func (c *Config) Validate() error {
	if _, err := modulation.Lookup(c.Session.DefaultVariant); err != nil {
		return fmt.Errorf("session.default_variant: %w", err)
	}
	if c.FEC.DataBytes < 1 || c.FEC.ParityBytes < 1 {
		return fmt.Errorf("fec: data_bytes and parity_bytes must be positive (got %d, %d)", c.FEC.DataBytes, c.FEC.ParityBytes)
	}
	if c.FEC.DataBytes+c.FEC.ParityBytes > 256 {
		return fmt.Errorf("fec: block of %d bytes exceeds 256", c.FEC.DataBytes+c.FEC.ParityBytes)
	}
	return nil
}
