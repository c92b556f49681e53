package app

import (
	"fmt"
	"strings"
	"time"

	"homeworkbot/internal/config"
	"homeworkbot/internal/notifier"
	"homeworkbot/internal/observability/status"
	"homeworkbot/internal/practicum"
	"homeworkbot/internal/schedule"
	"homeworkbot/internal/storage"
	kit "homeworkbot/internal/transport"
	"homeworkbot/internal/transport/telegram/adapter"
	"homeworkbot/internal/transport/telegram/botapi"
	logx "homeworkbot/pkg/logx"
)

func mapStorageConfig(cfg *config.Config) (storage.Config, bool, error) {
	if cfg == nil || cfg.Storage == nil {
		return storage.Config{}, false, nil
	}
	sc := cfg.Storage
	driver := strings.ToLower(strings.TrimSpace(sc.Driver))
	if driver == "" || driver == "none" {
		return storage.Config{}, false, nil
	}
	busy, err := config.ParseDurationField("storage.busy_timeout", sc.BusyTimeout)
	if err != nil {
		return storage.Config{}, false, err
	}
	return storage.Config{Driver: driver, Path: strings.TrimSpace(sc.Path), BusyTimeout: busy}, true, nil
}

func mapNotifierConfig(cfg *config.Config) (notifier.Config, error) {
	timeout, err := config.ParseDurationOrDefault("notifier.send_timeout", cfg.Notifier.SendTimeout, config.DefaultSendTimeout)
	if err != nil {
		return notifier.Config{}, err
	}
	return notifier.Config{
		RatePerSec:     cfg.Notifier.RatePerSec,
		SendTimeout:    timeout,
		HistorySize:    cfg.Notifier.HistorySize,
		Silent:         cfg.Notifier.Silent,
		DisablePreview: cfg.Notifier.DisablePreview,
	}, nil
}

func mapPracticumConfig(cfg *config.Config, creds config.Credentials) (practicum.Config, error) {
	timeout, err := config.ParseDurationField("practicum.timeout", cfg.Practicum.Timeout)
	if err != nil {
		return practicum.Config{}, err
	}
	return practicum.Config{
		Endpoint: cfg.Practicum.Endpoint,
		Token:    creds.PracticumToken,
		Timeout:  timeout,
	}, nil
}

// cursorFrom computes the fixed from_date. A zero lookback means epoch zero.
func cursorFrom(cfg *config.Config, now time.Time) (int64, error) {
	lookback, err := config.ParseLookback("poll.lookback", cfg.Poll.Lookback, config.DefaultLookback)
	if err != nil {
		return 0, err
	}
	if lookback == 0 {
		return 0, nil
	}
	return max(now.Add(-lookback).Unix(), 0), nil
}

func parseSchedule(cfg *config.Config) (schedule.Spec, error) {
	spec, err := schedule.Parse(cfg.Poll.Interval)
	if err != nil {
		return schedule.Spec{}, fmt.Errorf("poll.interval: %w", err)
	}
	return spec, nil
}

// newSender builds the Telegram driver chosen by telegram.driver.
// The HTTP timeout tracks notifier.send_timeout so a hung call cannot outlive it.
func newSender(cfg *config.Config, creds config.Credentials, sendTimeout time.Duration, log logx.Logger) (kit.Sender, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Telegram.Driver)) {
	case "", config.DriverTelebot:
		return adapter.New(adapter.Config{
			Token:   creds.TelegramToken,
			APIURL:  cfg.Telegram.APIURL,
			Timeout: sendTimeout,
		}, log)
	case config.DriverBotAPI:
		return botapi.New(botapi.Config{
			Token:   creds.TelegramToken,
			APIURL:  cfg.Telegram.APIURL,
			Timeout: sendTimeout,
		}, log)
	default:
		return nil, fmt.Errorf("telegram.driver: unknown driver %q", cfg.Telegram.Driver)
	}
}

func mapStatusConfig(cfg *config.Config) status.Config {
	return status.Config{
		Enabled: cfg.Debug.Enabled,
		Addr:    cfg.Debug.Addr,
		Token:   cfg.Debug.Token,
		Pprof:   cfg.Debug.Pprof,
	}
}
