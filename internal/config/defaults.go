package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"homeworkbot/internal/schedule"
	logx "homeworkbot/pkg/logx"
)

const (
	DefaultEndpoint    = "https://practicum.yandex.ru/api/user_api/homework_statuses/"
	DefaultLookback    = 50 * 24 * time.Hour
	DefaultSendTimeout = 10 * time.Second
	DefaultHistorySize = 50
	DefaultDebugAddr   = "127.0.0.1:6060"

	DriverTelebot = "telebot"
	DriverBotAPI  = "botapi"
)

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		Practicum: PracticumConfig{Endpoint: DefaultEndpoint},
		Poll:      PollConfig{Interval: schedule.Default},
		Telegram:  TelegramConfig{Driver: DriverTelebot},
		Notifier: NotifierConfig{
			RatePerSec:  1,
			SendTimeout: DefaultSendTimeout.String(),
			HistorySize: DefaultHistorySize,
		},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
			File:    LoggingFile{Enabled: true, Path: logx.DefaultFilePath},
		},
		Systemd: SystemdConfig{Notify: true},
	}
}

// applyDefaults fills zero values that have a meaningful default.
// Booleans are left alone: an explicit false in the file must stay false.
func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.Practicum.Endpoint) == "" {
		cfg.Practicum.Endpoint = DefaultEndpoint
	}
	if strings.TrimSpace(cfg.Poll.Interval) == "" {
		cfg.Poll.Interval = schedule.Default
	}
	if strings.TrimSpace(cfg.Telegram.Driver) == "" {
		cfg.Telegram.Driver = DriverTelebot
	}
	if cfg.Notifier.RatePerSec <= 0 {
		cfg.Notifier.RatePerSec = 1
	}
	if cfg.Notifier.HistorySize <= 0 {
		cfg.Notifier.HistorySize = DefaultHistorySize
	}
	if strings.TrimSpace(cfg.Logging.Level) == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Debug.Enabled && strings.TrimSpace(cfg.Debug.Addr) == "" {
		cfg.Debug.Addr = DefaultDebugAddr
	}
}

// Validate rejects settings that would fail later at runtime.
// It is used both at startup and before committing a hot-reloaded file.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	u, err := url.Parse(strings.TrimSpace(cfg.Practicum.Endpoint))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("practicum.endpoint: invalid url %q", cfg.Practicum.Endpoint)
	}
	if _, err := ParseDurationField("practicum.timeout", cfg.Practicum.Timeout); err != nil {
		return err
	}
	if _, err := schedule.Parse(cfg.Poll.Interval); err != nil {
		return fmt.Errorf("poll.interval: %w", err)
	}
	if _, err := ParseLookback("poll.lookback", cfg.Poll.Lookback, DefaultLookback); err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Telegram.Driver)) {
	case "", DriverTelebot, DriverBotAPI:
	default:
		return fmt.Errorf("telegram.driver: unknown driver %q (use %s or %s)", cfg.Telegram.Driver, DriverTelebot, DriverBotAPI)
	}
	if cfg.Telegram.ThreadID < 0 {
		return fmt.Errorf("telegram.thread_id must be >= 0")
	}
	if cfg.Telegram.ThreadID != 0 && strings.EqualFold(strings.TrimSpace(cfg.Telegram.Driver), DriverBotAPI) {
		return fmt.Errorf("telegram.thread_id is not supported by the %s driver", DriverBotAPI)
	}
	if cfg.Notifier.RatePerSec < 0 {
		return fmt.Errorf("notifier.rate_per_sec must be >= 0")
	}
	if _, err := ParseDurationField("notifier.send_timeout", cfg.Notifier.SendTimeout); err != nil {
		return err
	}
	if cfg.Notifier.HistorySize < 0 {
		return fmt.Errorf("notifier.history_size must be >= 0")
	}
	if !logx.ValidLevel(cfg.Logging.Level) {
		return fmt.Errorf("logging.level: unknown level %q", cfg.Logging.Level)
	}
	if cfg.Storage != nil {
		switch strings.ToLower(strings.TrimSpace(cfg.Storage.Driver)) {
		case "", "none":
		case "file", "sqlite", "sqlite3":
			if strings.TrimSpace(cfg.Storage.Path) == "" {
				return fmt.Errorf("storage.path is required when storage.driver=%s", cfg.Storage.Driver)
			}
		default:
			return fmt.Errorf("unknown storage.driver: %s", cfg.Storage.Driver)
		}
		if _, err := ParseDurationField("storage.busy_timeout", cfg.Storage.BusyTimeout); err != nil {
			return err
		}
	}
	if cfg.Debug.Enabled {
		host, _, err := net.SplitHostPort(strings.TrimSpace(cfg.Debug.Addr))
		if err != nil {
			return fmt.Errorf("debug.addr: %w", err)
		}
		if strings.TrimSpace(cfg.Debug.Token) == "" && !isLoopbackHost(host) {
			return fmt.Errorf("debug.token is required when debug.addr is not a loopback address")
		}
	}
	return nil
}

func isLoopbackHost(h string) bool {
	h = strings.TrimSpace(h)
	if strings.EqualFold(h, "localhost") {
		return true
	}
	ip := net.ParseIP(h)
	return ip != nil && ip.IsLoopback()
}

// LogConfig maps the logging section onto logx.Config.
func (c *Config) LogConfig() logx.Config {
	return logx.Config{
		Level:   c.Logging.Level,
		Console: c.Logging.Console,
		File: logx.FileConfig{
			Enabled:    c.Logging.File.Enabled,
			Path:       c.Logging.File.Path,
			MaxSizeMB:  c.Logging.File.MaxSizeMB,
			MaxBackups: c.Logging.File.MaxBackups,
			MaxAgeDays: c.Logging.File.MaxAgeDays,
			Compress:   c.Logging.File.Compress,
		},
	}
}
