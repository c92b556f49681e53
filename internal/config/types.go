package config

// Config holds the runtime settings read from the config file.
//
// Credentials are NOT part of this struct: they come from the environment
// (see Credentials) and are never hot-reloaded or logged.
//
// All durations are Go duration strings (e.g. "500ms", "10s", "10m").
type Config struct {
	Practicum PracticumConfig `json:"practicum"`
	Poll      PollConfig      `json:"poll"`
	Telegram  TelegramConfig  `json:"telegram"`
	Notifier  NotifierConfig  `json:"notifier"`
	Logging   LoggingConfig   `json:"logging"`
	Storage   *StorageConfig  `json:"storage,omitempty"`
	Systemd   SystemdConfig   `json:"systemd"`
	Debug     DebugConfig     `json:"debug"`
}

// PracticumConfig controls the homework status API client.
type PracticumConfig struct {
	Endpoint string `json:"endpoint"`
	// Timeout bounds a single request. Empty or "0s" means no timeout.
	Timeout string `json:"timeout,omitempty"`
}

// PollConfig controls the poll loop.
type PollConfig struct {
	// Interval accepts a Go duration ("10m"), HH:MM ("00:10"),
	// "@every 10m" or a 5-field cron expression.
	Interval string `json:"interval"`
	// Lookback sets the from_date cursor to now-lookback once at startup.
	// Empty means the default (50 days); "0s" means epoch zero.
	Lookback string `json:"lookback,omitempty"`
}

// TelegramConfig selects the bot transport. The token and chat id are credentials.
type TelegramConfig struct {
	// Driver is "telebot" (default) or "botapi".
	Driver   string `json:"driver,omitempty"`
	APIURL   string `json:"api_url,omitempty"`
	ThreadID int    `json:"thread_id,omitempty"`
}

// NotifierConfig controls outbound message throttling and bookkeeping.
type NotifierConfig struct {
	RatePerSec  int    `json:"rate_per_sec,omitempty"`
	SendTimeout string `json:"send_timeout,omitempty"`
	HistorySize int    `json:"history_size,omitempty"`
	// Silent sends without a notification sound (disable_notification).
	Silent         bool `json:"silent,omitempty"`
	DisablePreview bool `json:"disable_preview,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled    bool   `json:"enabled"`
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb,omitempty"`
	MaxBackups int    `json:"max_backups,omitempty"`
	MaxAgeDays int    `json:"max_age_days,omitempty"`
	Compress   bool   `json:"compress,omitempty"`
}

// StorageConfig controls the optional delivery journal.
//
// Example:
//
//	storage: { driver: sqlite, path: ./data/journal.db }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // sqlite only
}

type SystemdConfig struct {
	// Notify enables sd_notify READY/WATCHDOG/STOPPING messages.
	// It is a no-op when the process is not started by systemd.
	Notify bool `json:"notify"`
}

// DebugConfig controls the optional ops HTTP endpoint (/healthz, /status
// and net/http/pprof). It is hot-reloadable.
type DebugConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr,omitempty"`
	// Token is required when Addr is not a loopback address.
	Token string `json:"token,omitempty"`
	Pprof bool   `json:"pprof,omitempty"`
}
