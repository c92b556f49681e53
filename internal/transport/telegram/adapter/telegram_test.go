package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	kit "homeworkbot/internal/transport"
	logx "homeworkbot/pkg/logx"
)

type fakeBotAPI struct {
	mu     sync.Mutex
	texts  []string
	paths  []string
	chats  []string
	silent []string
	fail   bool
}

func (f *fakeBotAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var params map[string]any
	_ = json.NewDecoder(r.Body).Decode(&params)

	f.mu.Lock()
	f.paths = append(f.paths, r.URL.Path)
	text, _ := params["text"].(string)
	f.texts = append(f.texts, text)
	f.chats = append(f.chats, fmt.Sprint(params["chat_id"]))
	f.silent = append(f.silent, fmt.Sprint(params["disable_notification"]))
	fail := f.fail
	n := len(f.texts)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if fail {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"ok": true,
		"result": map[string]any{
			"message_id": n,
			"date":       time.Now().Unix(),
			"chat":       map[string]any{"id": 42, "type": "private"},
			"text":       text,
		},
	})
}

func (f *fakeBotAPI) sent() ([]string, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...), append([]string(nil), f.paths...)
}

func (f *fakeBotAPI) params() (chats, silent []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.chats...), append([]string(nil), f.silent...)
}

func newTestAdapter(t *testing.T, api *fakeBotAPI) *Adapter {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	a, err := New(Config{Token: "123:abc", APIURL: srv.URL, Timeout: 2 * time.Second}, logx.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestSendTextDelivers(t *testing.T) {
	t.Parallel()

	api := &fakeBotAPI{}
	a := newTestAdapter(t, api)

	ref, err := a.SendText(context.Background(), kit.ChatTarget{ChatID: 42}, "Обновлений в ДЗ пока нет", nil)
	if err != nil {
		t.Fatalf("SendText: %v", err)
	}
	if ref.MessageID != 1 || ref.ChatID != 42 {
		t.Fatalf("ref = %+v", ref)
	}
	texts, paths := api.sent()
	if len(texts) != 1 || texts[0] != "Обновлений в ДЗ пока нет" {
		t.Fatalf("texts = %q", texts)
	}
	if !strings.HasSuffix(paths[0], "/bot123:abc/sendMessage") {
		t.Fatalf("path = %q", paths[0])
	}
}

func TestSendTextSplitsLongMessages(t *testing.T) {
	t.Parallel()

	api := &fakeBotAPI{}
	a := newTestAdapter(t, api)

	long := strings.Repeat("x", 9000)
	ref, err := a.SendText(context.Background(), kit.ChatTarget{ChatID: 42}, long, nil)
	if err != nil {
		t.Fatalf("SendText: %v", err)
	}
	if texts, _ := api.sent(); len(texts) != 3 {
		t.Fatalf("sent %d messages, want 3", len(texts))
	}
	if ref.MessageID != 1 {
		t.Fatalf("ref should point at the first chunk, got %+v", ref)
	}
}

func TestSendTextReturnsAPIError(t *testing.T) {
	t.Parallel()

	a := newTestAdapter(t, &fakeBotAPI{fail: true})
	if _, err := a.SendText(context.Background(), kit.ChatTarget{ChatID: 42}, "hi", nil); err == nil {
		t.Fatal("expected error from failing Bot API")
	}
}

func TestSendTextHonoursCancelledContext(t *testing.T) {
	t.Parallel()

	api := &fakeBotAPI{}
	a := newTestAdapter(t, api)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := a.SendText(ctx, kit.ChatTarget{ChatID: 42}, "hi", nil); err == nil {
		t.Fatal("expected context error")
	}
	if texts, _ := api.sent(); len(texts) != 0 {
		t.Fatalf("nothing should be sent after cancel, got %d", len(texts))
	}
}

func TestNewRejectsEmptyToken(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{}, logx.Nop()); err == nil {
		t.Fatal("expected error")
	}
}

func TestSendTextToChannelUsername(t *testing.T) {
	t.Parallel()

	api := &fakeBotAPI{}
	a := newTestAdapter(t, api)

	ref, err := a.SendText(context.Background(), kit.ChatTarget{Username: "@my_channel"}, "hi", &kit.SendOptions{Silent: true})
	if err != nil {
		t.Fatalf("SendText: %v", err)
	}
	chats, silent := api.params()
	if len(chats) != 1 || chats[0] != "@my_channel" {
		t.Fatalf("chat_id = %q, want @my_channel", chats)
	}
	if silent[0] != "true" {
		t.Fatalf("disable_notification = %q, want true", silent[0])
	}
	// The numeric id comes back from the API response.
	if ref.ChatID != 42 {
		t.Fatalf("ref.ChatID = %d, want 42", ref.ChatID)
	}
}
