package status

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	logx "homeworkbot/pkg/logx"
)

func waitForAddr(t *testing.T, s *Service) string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if a := s.Addr(); a != "" {
			return a
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("status endpoint did not start")
	return ""
}

func get(t *testing.T, url, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, http.NoBody)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestHealthAndStatus(t *testing.T) {
	t.Parallel()

	var healthy atomic.Bool
	healthy.Store(true)
	s := New(healthy.Load, func() any { return map[string]any{"last_message": "hi"} }, logx.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Reconfigure(ctx, Config{Enabled: true, Addr: "127.0.0.1:0"})
	t.Cleanup(func() { s.Stop(context.Background()) })
	base := "http://" + waitForAddr(t, s)

	if resp := get(t, base+"/healthz", ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz = %d", resp.StatusCode)
	}
	healthy.Store(false)
	if resp := get(t, base+"/healthz", ""); resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("stalled healthz = %d", resp.StatusCode)
	}

	resp := get(t, base+"/status", "")
	var doc map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if doc["last_message"] != "hi" {
		t.Fatalf("status doc = %v", doc)
	}

	// pprof is off unless asked for.
	if resp := get(t, base+"/debug/pprof/", ""); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("pprof without flag = %d", resp.StatusCode)
	}
}

func TestTokenAndDisable(t *testing.T) {
	t.Parallel()

	s := New(nil, nil, logx.Nop())
	ctx := context.Background()
	s.Reconfigure(ctx, Config{Enabled: true, Addr: "127.0.0.1:0", Token: "sekret", Pprof: true})
	t.Cleanup(func() { s.Stop(context.Background()) })
	base := "http://" + waitForAddr(t, s)

	if resp := get(t, base+"/healthz", ""); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("no token = %d", resp.StatusCode)
	}
	if resp := get(t, base+"/healthz?token=sekret", ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("query token = %d", resp.StatusCode)
	}
	if resp := get(t, base+"/debug/pprof/", "sekret"); resp.StatusCode != http.StatusOK {
		t.Fatalf("pprof = %d", resp.StatusCode)
	}

	s.Reconfigure(ctx, Config{Enabled: false})
	if a := s.Addr(); a != "" {
		t.Fatalf("addr after disable = %q", a)
	}
}
