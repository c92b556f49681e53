package storage

import (
	"errors"
	"time"
)

var ErrClosed = errors.New("storage closed")

// Config configures storage.
//
// Driver values:
//   - "file": JSON Lines file
//   - "sqlite": SQLite database file
//
// If Driver is empty or "none", storage is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Kind tells what a delivery carried.
type Kind string

const (
	KindUpdate      Kind = "update"
	KindPlaceholder Kind = "placeholder"
	KindFailure     Kind = "failure"
)

// Delivery is one notification attempt.
type Delivery struct {
	ID       string    `json:"id"`
	At       time.Time `json:"at"`
	CycleID  string    `json:"cycle_id,omitempty"`
	Chat     string    `json:"chat"`
	ThreadID int       `json:"thread_id,omitempty"`
	Kind     Kind      `json:"kind"`
	Text     string    `json:"text"`
	OK       bool      `json:"ok"`
	Error    string    `json:"error,omitempty"`
	TookMS   int64     `json:"took_ms"`
}
