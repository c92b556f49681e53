package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"homeworkbot/internal/config"
	"homeworkbot/internal/schedule"
	kit "homeworkbot/internal/transport"
	logx "homeworkbot/pkg/logx"
)

type recordingSender struct {
	mu    sync.Mutex
	texts []string
}

func (r *recordingSender) SendText(_ context.Context, to kit.ChatTarget, text string, _ *kit.SendOptions) (kit.MessageRef, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
	return kit.MessageRef{ChatID: to.ChatID, MessageID: len(r.texts)}, nil
}

func (r *recordingSender) sent() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.texts...)
}

func TestCursorFrom(t *testing.T) {
	t.Parallel()

	now := time.Unix(10_000_000, 0)
	tests := []struct {
		name     string
		lookback string
		want     int64
	}{
		{name: "default", lookback: "", want: now.Add(-config.DefaultLookback).Unix()},
		{name: "epoch", lookback: "0s", want: 0},
		{name: "hour", lookback: "1h", want: 10_000_000 - 3600},
		{name: "clamped", lookback: "100000h", want: 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Poll.Lookback = tc.lookback
			got, err := cursorFrom(cfg, now)
			if err != nil {
				t.Fatalf("cursorFrom: %v", err)
			}
			if got != tc.want {
				t.Fatalf("cursor = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestLoopHealthy(t *testing.T) {
	t.Parallel()

	every, err := schedule.Parse("10m")
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name          string
		started, last time.Time
		now           time.Time
		want          bool
	}{
		{name: "not started", now: t0, want: true},
		{name: "first fetch in flight", started: t0, now: t0.Add(stallGrace - time.Second), want: true},
		{name: "first fetch hung", started: t0, now: t0.Add(stallGrace + time.Second), want: false},
		{name: "waiting for next cycle", started: t0, last: t0, now: t0.Add(10*time.Minute + stallGrace - time.Second), want: true},
		{name: "next cycle overdue", started: t0, last: t0, now: t0.Add(10*time.Minute + stallGrace + time.Second), want: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := loopHealthy(tc.started, tc.last, every, tc.now); got != tc.want {
				t.Fatalf("loopHealthy = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestMapStorageConfig(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	if _, enabled, err := mapStorageConfig(cfg); err != nil || enabled {
		t.Fatalf("nil storage: enabled=%v err=%v", enabled, err)
	}

	cfg.Storage = &config.StorageConfig{Driver: " SQLite ", Path: "j.db", BusyTimeout: "2s"}
	sc, enabled, err := mapStorageConfig(cfg)
	if err != nil || !enabled {
		t.Fatalf("sqlite storage: enabled=%v err=%v", enabled, err)
	}
	if sc.Driver != "sqlite" || sc.BusyTimeout != 2*time.Second {
		t.Fatalf("unexpected storage config: %+v", sc)
	}
}

func TestNewSenderRejectsUnknownDriver(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Telegram.Driver = "carrier-pigeon"
	if _, err := newSender(cfg, config.Credentials{TelegramToken: "x"}, time.Second, logx.Nop()); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestAppPollsAndNotifies(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "OAuth p-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"homeworks":[{"homework_name":"hw1","status":"approved"}],"current_date":1}`))
	}))
	defer srv.Close()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	body := "practicum:\n  endpoint: " + srv.URL + "\n  timeout: 2s\n" +
		"poll:\n  interval: 20ms\n  lookback: 0s\n" +
		"notifier:\n  rate_per_sec: 100\n" +
		"logging:\n  level: error\n  console: false\n  file:\n    enabled: true\n    path: " + filepath.Join(dir, "bot.log") + "\n" +
		"storage:\n  driver: file\n  path: " + filepath.Join(dir, "journal.jsonl") + "\n" +
		"systemd:\n  notify: false\n"
	if err := os.WriteFile(cfgPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	snd := &recordingSender{}
	a, err := New(Options{
		ConfigPath:  cfgPath,
		Credentials: config.Credentials{PracticumToken: "p-token", TelegramToken: "t-token", ChatID: 42},
		Sender:      snd,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if a.Loop().Cursor() != 0 {
		t.Fatalf("cursor = %d, want 0", a.Loop().Cursor())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := a.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for len(snd.sent()) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	// Several cycles with the same answer must still produce one message.
	time.Sleep(100 * time.Millisecond)

	if err := a.Stop(context.Background(), StopSIGTERM); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	got := snd.sent()
	want := `Изменился статус проверки работы "hw1". Работа проверена: ревьюеру всё понравилось. Ура!`
	if len(got) != 1 || got[0] != want {
		t.Fatalf("sent = %q, want [%q]", got, want)
	}
	if a.Err() != nil {
		t.Fatalf("unexpected fatal error: %v", a.Err())
	}
	if fi, err := os.Stat(filepath.Join(dir, "journal.jsonl")); err != nil || fi.Size() == 0 {
		t.Fatalf("journal not written: %v", err)
	}
}

func TestNewFailsOnInvalidConfig(t *testing.T) {
	t.Parallel()

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("poll:\n  interval: sometimes\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, err := New(Options{
		ConfigPath:  cfgPath,
		Credentials: config.Credentials{PracticumToken: "p", TelegramToken: "t", ChatID: 1},
		Sender:      &recordingSender{},
	})
	if err == nil {
		t.Fatalf("expected error for invalid interval")
	}
}
