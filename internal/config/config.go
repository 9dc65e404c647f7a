package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	API struct {
		BaseURL string `yaml:"base_url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"api"`
	Quiz struct {
		FeedbackDelay     string `yaml:"feedback_delay"`
		AnimationDuration string `yaml:"animation_duration"`
		AnimationFrame    string `yaml:"animation_frame"`
	} `yaml:"quiz"`
	Chat struct {
		Model       string   `yaml:"model"`
		Temperature float64  `yaml:"temperature"`
		Presets     []string `yaml:"presets"`
		ExportDir   string   `yaml:"export_dir"`
	} `yaml:"chat"`
	Bridge struct {
		Port   string `yaml:"port"`
		TabTTL string `yaml:"tab_ttl"`
	} `yaml:"bridge"`
	Stub struct {
		Port    string `yaml:"port"`
		Bank    string `yaml:"bank"`
		BankTTL string `yaml:"bank_ttl"`
	} `yaml:"stub"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	cfg := Config{}
	cfg.API.BaseURL = "http://localhost:5000"
	cfg.API.Timeout = "30s"
	cfg.Quiz.FeedbackDelay = "2500ms"
	cfg.Quiz.AnimationDuration = "1000ms"
	cfg.Quiz.AnimationFrame = "16ms"
	cfg.Chat.Model = "gpt-4o-mini"
	cfg.Chat.Temperature = 0.7
	cfg.Chat.ExportDir = "."
	cfg.Bridge.Port = "8080"
	cfg.Bridge.TabTTL = "30m"
	cfg.Stub.Port = "5000"
	cfg.Stub.Bank = "level-1"
	cfg.Stub.BankTTL = "10m"
	return cfg
}

// Load reads YAML config from path on top of Default. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
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

// Duration parses a duration string or returns the fallback if empty or malformed.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
