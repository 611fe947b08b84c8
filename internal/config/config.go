package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		Port        int    `yaml:"port"`
		DataDir     string `yaml:"data_dir"`
		AllowOrigin string `yaml:"allow_origin"`
	} `yaml:"app"`

	Feed struct {
		URL            string `yaml:"url"`
		StatusURL      string `yaml:"status_url"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
		RetryDelayMS   int    `yaml:"retry_delay_ms"`
	} `yaml:"feed"`

	Sink struct {
		BaseURL    string `yaml:"base_url"`
		StatePath  string `yaml:"state_path"`
		EventsPath string `yaml:"events_path"`
	} `yaml:"sink"`

	Refresh struct {
		IntervalSeconds int `yaml:"interval_seconds"`
	} `yaml:"refresh"`

	Outbox struct {
		FlushSeconds    int `yaml:"flush_seconds"`
		WritesPerSecond int `yaml:"writes_per_second"`
	} `yaml:"outbox"`

	Undo struct {
		WindowSeconds int `yaml:"window_seconds"`
	} `yaml:"undo"`
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}
