package config

import (
	"fmt"
	"net/url"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate returns a normalized copy plus everything wrong or
// suspicious about it. Missing tunables fall back to defaults here so the
// rest of the engine never sees a zero interval.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	out.App.DataDir = strings.TrimSpace(out.App.DataDir)
	out.App.AllowOrigin = strings.TrimSpace(out.App.AllowOrigin)
	out.Feed.URL = strings.TrimSpace(out.Feed.URL)
	out.Feed.StatusURL = strings.TrimSpace(out.Feed.StatusURL)
	out.Sink.BaseURL = strings.TrimRight(strings.TrimSpace(out.Sink.BaseURL), "/")

	if out.Feed.TimeoutSeconds <= 0 {
		out.Feed.TimeoutSeconds = 15
	}
	if out.Feed.RetryDelayMS <= 0 {
		out.Feed.RetryDelayMS = 1500
	}
	if out.Refresh.IntervalSeconds <= 0 {
		out.Refresh.IntervalSeconds = 300
	}
	if out.Outbox.FlushSeconds <= 0 {
		out.Outbox.FlushSeconds = 30
	}
	if out.Outbox.WritesPerSecond <= 0 {
		out.Outbox.WritesPerSecond = 5
	}
	if out.Undo.WindowSeconds <= 0 {
		out.Undo.WindowSeconds = 10
	}
	if out.Sink.StatePath == "" {
		out.Sink.StatePath = "/v1/state"
	}
	if out.Sink.EventsPath == "" {
		out.Sink.EventsPath = "/v1/events"
	}

	if out.App.Port <= 0 || out.App.Port > 65535 {
		res.addErr("app.port must be 1..65535")
	}
	if out.Feed.URL == "" {
		res.addErr("feed.url is required")
	} else if !validHTTPURL(out.Feed.URL) {
		res.addErr("feed.url is not a valid http(s) URL: %q", out.Feed.URL)
	}
	if out.Feed.StatusURL != "" && !validHTTPURL(out.Feed.StatusURL) {
		res.addErr("feed.status_url is not a valid http(s) URL: %q", out.Feed.StatusURL)
	}
	if out.Sink.BaseURL == "" {
		res.addWarn("sink.base_url is empty; marks and votes stay local only")
	} else if !validHTTPURL(out.Sink.BaseURL) {
		res.addErr("sink.base_url is not a valid http(s) URL: %q", out.Sink.BaseURL)
	}

	if out.Refresh.IntervalSeconds < 30 {
		res.addWarn("refresh.interval_seconds is very low (%d) and may hammer the feed host", out.Refresh.IntervalSeconds)
	}
	if out.Undo.WindowSeconds > 60 {
		res.addWarn("undo.window_seconds is unusually long (%d)", out.Undo.WindowSeconds)
	}

	return out, res
}

func validHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
