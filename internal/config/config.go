package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Addr        string `yaml:"addr"`
		WSAddr      string `yaml:"ws_addr"`
		IdleTimeout string `yaml:"idle_timeout"`
	} `yaml:"server"`
	Trivia struct {
		BaseURL      string `yaml:"base_url"`
		Timeout      string `yaml:"timeout"`
		Retries      int    `yaml:"retries"`
		RetryBackoff string `yaml:"retry_backoff"`
		UseToken     bool   `yaml:"use_token"`
	} `yaml:"trivia"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
}

// Load reads YAML config from path. A missing file yields the zero
// config so the server can run with defaults and an in-memory store.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Duration parses a duration string or returns the fallback if empty or
// malformed.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
