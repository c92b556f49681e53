package notifier

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"homeworkbot/internal/storage"
	kit "homeworkbot/internal/transport"
	logx "homeworkbot/pkg/logx"
)

type fakeSender struct {
	mu    sync.Mutex
	texts []string
	opts  []kit.SendOptions
	to    []kit.ChatTarget
	err   error
	block bool
}

func (f *fakeSender) SendText(ctx context.Context, to kit.ChatTarget, text string, opt *kit.SendOptions) (kit.MessageRef, error) {
	if f.block {
		<-ctx.Done()
		return kit.MessageRef{}, ctx.Err()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return kit.MessageRef{}, f.err
	}
	f.texts = append(f.texts, text)
	f.to = append(f.to, to)
	if opt != nil {
		f.opts = append(f.opts, *opt)
	}
	return kit.MessageRef{ChatID: to.ChatID, MessageID: len(f.texts)}, nil
}

type memStore struct {
	mu      sync.Mutex
	entries []storage.Delivery
}

func (m *memStore) AppendDelivery(_ context.Context, d storage.Delivery) error {
	m.mu.Lock()
	m.entries = append(m.entries, d)
	m.mu.Unlock()
	return nil
}

func (m *memStore) Close() error { return nil }

func fastConfig() Config {
	return Config{RatePerSec: 1000, SendTimeout: time.Second, HistorySize: 2}
}

func TestNotifyDeliversAndRecords(t *testing.T) {
	t.Parallel()

	snd := &fakeSender{}
	st := &memStore{}
	svc := New(fastConfig(), snd, kit.ChatTarget{ChatID: 7}, st, logx.Nop())

	for _, text := range []string{"a", "b", "c"} {
		if !svc.Notify(context.Background(), Notification{Text: text, CycleID: "cyc"}) {
			t.Fatalf("Notify(%q) = false", text)
		}
	}

	hist := svc.Snapshot()
	if len(hist) != 2 || hist[0].Text != "b" || hist[1].Text != "c" {
		t.Fatalf("history = %+v, want last two", hist)
	}
	if len(st.entries) != 3 || !st.entries[0].OK || st.entries[0].Kind != storage.KindUpdate || st.entries[0].CycleID != "cyc" {
		t.Fatalf("journal = %+v", st.entries)
	}
}

func TestNotifySwallowsSendError(t *testing.T) {
	t.Parallel()

	snd := &fakeSender{err: errors.New("Forbidden: bot was blocked by the user")}
	st := &memStore{}
	svc := New(fastConfig(), snd, kit.ChatTarget{ChatID: 7}, st, logx.Nop())

	if svc.Notify(context.Background(), Notification{Text: "x", Kind: storage.KindFailure}) {
		t.Fatal("Notify should report false on send error")
	}
	if len(svc.Snapshot()) != 0 {
		t.Fatal("failed send must not enter history")
	}
	if len(st.entries) != 1 || st.entries[0].OK || st.entries[0].Error == "" {
		t.Fatalf("journal = %+v", st.entries)
	}
}

func TestNotifyBoundsSlowSender(t *testing.T) {
	t.Parallel()

	cfg := fastConfig()
	cfg.SendTimeout = 50 * time.Millisecond
	svc := New(cfg, &fakeSender{block: true}, kit.ChatTarget{ChatID: 7}, nil, logx.Nop())

	start := time.Now()
	if svc.Notify(context.Background(), Notification{Text: "x"}) {
		t.Fatal("Notify should fail on timeout")
	}
	if took := time.Since(start); took > 2*time.Second {
		t.Fatalf("Notify took %v, send timeout not applied", took)
	}
}

func TestNotifyRateLimits(t *testing.T) {
	t.Parallel()

	cfg := fastConfig()
	cfg.RatePerSec = 10
	svc := New(cfg, &fakeSender{}, kit.ChatTarget{ChatID: 7}, nil, logx.Nop())

	start := time.Now()
	for i := 0; i < 3; i++ {
		svc.Notify(context.Background(), Notification{Text: "x"})
	}
	// Burst of 1 at 10/s: the 2nd and 3rd sends wait ~100ms each.
	if took := time.Since(start); took < 150*time.Millisecond {
		t.Fatalf("3 sends took %v, limiter not applied", took)
	}
}

func TestNotifyCancelledContext(t *testing.T) {
	t.Parallel()

	snd := &fakeSender{}
	svc := New(fastConfig(), snd, kit.ChatTarget{ChatID: 7}, nil, logx.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if svc.Notify(ctx, Notification{Text: "x"}) {
		t.Fatal("Notify with cancelled ctx should fail")
	}
	if len(snd.texts) != 0 {
		t.Fatal("nothing should be sent")
	}
}

func TestNotifySkipsEmptyText(t *testing.T) {
	t.Parallel()

	snd := &fakeSender{}
	svc := New(fastConfig(), snd, kit.ChatTarget{ChatID: 7}, nil, logx.Nop())
	if svc.Notify(context.Background(), Notification{Text: "  "}) {
		t.Fatal("empty text should not be sent")
	}
}

func TestNotifyPassesSendOptionsAndApply(t *testing.T) {
	t.Parallel()

	snd := &fakeSender{}
	st := &memStore{}
	cfg := fastConfig()
	cfg.Silent = true
	svc := New(cfg, snd, kit.ChatTarget{Username: "@my_channel"}, st, logx.Nop())

	ctx := context.Background()
	if !svc.Notify(ctx, Notification{Text: "first"}) {
		t.Fatal("first notification not delivered")
	}
	cfg.Silent, cfg.DisablePreview = false, true
	svc.Apply(cfg)
	if !svc.Notify(ctx, Notification{Text: "second"}) {
		t.Fatal("second notification not delivered")
	}

	snd.mu.Lock()
	defer snd.mu.Unlock()
	if len(snd.opts) != 2 {
		t.Fatalf("options recorded = %d, want 2", len(snd.opts))
	}
	if !snd.opts[0].Silent || snd.opts[0].DisablePreview {
		t.Fatalf("first options = %+v", snd.opts[0])
	}
	if snd.opts[1].Silent || !snd.opts[1].DisablePreview {
		t.Fatalf("options after Apply = %+v", snd.opts[1])
	}
	if snd.to[0].Username != "@my_channel" {
		t.Fatalf("target = %+v", snd.to[0])
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if st.entries[0].Chat != "@my_channel" {
		t.Fatalf("journal chat = %q", st.entries[0].Chat)
	}
}
