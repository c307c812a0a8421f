package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the clubhouse.yaml file. Environment variables override the
// broker URL and the rankings feed credentials.
type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Nats struct {
		URL        string `yaml:"url"`
		StreamName string `yaml:"stream_name"`
	} `yaml:"nats"`
	Gateway struct {
		TickIntervalSec int `yaml:"tick_interval_sec"`
	} `yaml:"gateway"`
	Rankings struct {
		FeedURL string `yaml:"feed_url"`
	} `yaml:"rankings"`
}

func loadConfig(path string) (*Config, error) {
	var config Config

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No file is fine, everything has a default or env override.
	} else if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if config.Server.Port == "" {
		config.Server.Port = getEnv("PORT", "8080")
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		config.Nats.URL = v
	}
	if config.Nats.StreamName == "" {
		config.Nats.StreamName = "DRAFT_EVENTS"
	}
	if config.Gateway.TickIntervalSec <= 0 {
		config.Gateway.TickIntervalSec = 5
	}
	if v := os.Getenv("RANKINGS_FEED_URL"); v != "" {
		config.Rankings.FeedURL = v
	}

	return &config, nil
}

func (c *Config) tickInterval() time.Duration {
	return time.Duration(c.Gateway.TickIntervalSec) * time.Second
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
