package storage

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	logx "homeworkbot/pkg/logx"
)

func TestOpenDisabled(t *testing.T) {
	t.Parallel()

	for _, driver := range []string{"", "none", " NONE "} {
		st, err := Open(Config{Driver: driver}, logx.Nop())
		if err != nil || st != nil {
			t.Fatalf("driver %q: got (%v, %v), want (nil, nil)", driver, st, err)
		}
	}
	if _, err := Open(Config{Driver: "redis", Path: "x"}, logx.Nop()); err == nil {
		t.Fatal("unknown driver should fail")
	}
}

func TestFileStoreAppends(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "journal.jsonl")
	st, err := Open(Config{Driver: "file", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	ctx := context.Background()
	if err := st.AppendDelivery(ctx, Delivery{Chat: "1", Kind: KindPlaceholder, Text: "Обновлений в ДЗ пока нет", OK: true}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := st.AppendDelivery(ctx, Delivery{Chat: "1", Kind: KindFailure, Text: "boom", Error: "chat not found"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := st.AppendDelivery(ctx, Delivery{}); !errors.Is(err, ErrClosed) {
		t.Fatalf("append after close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	defer f.Close()

	var got []Delivery
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var d Delivery
		if err := json.Unmarshal(sc.Bytes(), &d); err != nil {
			t.Fatalf("line %q: %v", sc.Text(), err)
		}
		got = append(got, d)
	}
	if len(got) != 2 {
		t.Fatalf("entries = %d, want 2", len(got))
	}
	if got[0].ID == "" || got[0].ID == got[1].ID {
		t.Fatalf("ids not assigned: %q %q", got[0].ID, got[1].ID)
	}
	if got[0].At.IsZero() || got[1].Kind != KindFailure || got[1].OK {
		t.Fatalf("unexpected entries: %+v", got)
	}
}

func TestSQLiteStoreAppends(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "journal.db")
	st, err := Open(Config{Driver: "sqlite", Path: path, BusyTimeout: time.Second}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := st.AppendDelivery(ctx, Delivery{CycleID: "c1", Chat: "@hw_channel", Kind: KindUpdate, Text: "t", OK: true, TookMS: 12}); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}
	if err := st.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()

	var n, okCount int
	if err := db.QueryRow(`SELECT COUNT(*), SUM(ok) FROM deliveries WHERE chat = '@hw_channel'`).Scan(&n, &okCount); err != nil {
		t.Fatalf("query: %v", err)
	}
	if n != 3 || okCount != 3 {
		t.Fatalf("count=%d ok=%d, want 3/3", n, okCount)
	}
}
