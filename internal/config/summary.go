package config

import (
	"fmt"
	"strings"
)

// Summary renders the settings that matter operationally on one line.
// It never includes credentials.
func Summary(cfg *Config) string {
	if cfg == nil {
		return "<nil>"
	}
	storage := "none"
	if cfg.Storage != nil && strings.TrimSpace(cfg.Storage.Driver) != "" {
		storage = cfg.Storage.Driver
	}
	timeout := cfg.Practicum.Timeout
	if strings.TrimSpace(timeout) == "" {
		timeout = "none"
	}
	return fmt.Sprintf(
		"interval=%s timeout=%s driver=%s log_level=%s storage=%s",
		cfg.Poll.Interval, timeout, cfg.Telegram.Driver, cfg.Logging.Level, storage,
	)
}

// Changed lists the top-level sections that differ between a and b.
func Changed(a, b *Config) []string {
	if a == nil || b == nil {
		return nil
	}
	var out []string
	if a.Practicum != b.Practicum {
		out = append(out, "practicum")
	}
	if a.Poll != b.Poll {
		out = append(out, "poll")
	}
	if a.Telegram != b.Telegram {
		out = append(out, "telegram")
	}
	if a.Notifier != b.Notifier {
		out = append(out, "notifier")
	}
	if a.Logging != b.Logging {
		out = append(out, "logging")
	}
	if storageOf(a) != storageOf(b) {
		out = append(out, "storage")
	}
	if a.Systemd != b.Systemd {
		out = append(out, "systemd")
	}
	if a.Debug != b.Debug {
		out = append(out, "debug")
	}
	return out
}

func storageOf(c *Config) StorageConfig {
	if c.Storage == nil {
		return StorageConfig{}
	}
	return *c.Storage
}
