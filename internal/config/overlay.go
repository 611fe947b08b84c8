package config

import (
	"os"
	"strconv"
)

// OverlayEnv applies environment overrides on top of the loaded file.
// Handy for pointing a dev build at a staging feed without editing the
// user's config.
func OverlayEnv(cfg *Config) {
	if v := os.Getenv("VACANCYBOARD_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.App.Port = p
		}
	}
	if v := os.Getenv("VACANCYBOARD_FEED_URL"); v != "" {
		cfg.Feed.URL = v
	}
	if v := os.Getenv("VACANCYBOARD_STATUS_URL"); v != "" {
		cfg.Feed.StatusURL = v
	}
	if v := os.Getenv("VACANCYBOARD_SINK_URL"); v != "" {
		cfg.Sink.BaseURL = v
	}
}
