package main

import (
	"fmt"
	"os"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/routekit/rangeroute/logging"
	"github.com/routekit/rangeroute/lpm"
)

// Config is the main configuration structure for the rangeroute tool.
type Config struct {
	// Logging configuration.
	Logging logging.Config `yaml:"logging"`
	// Routes is the list of static routes loaded into the table.
	Routes []lpm.RouteConfig `yaml:"routes"`
}

// DefaultConfig returns the configuration used when an option is absent
// from the config file.
func DefaultConfig() *Config {
	return &Config{
		Logging: logging.Config{Level: zapcore.InfoLevel},
	}
}

// LoadConfig loads configuration from a YAML file at the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML configuration: %w", err)
	}

	return cfg, nil
}
