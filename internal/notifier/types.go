package notifier

import (
	"time"

	"homeworkbot/internal/storage"
)

type Config struct {
	RatePerSec  int
	SendTimeout time.Duration
	HistorySize int
	// Silent delivers without a notification sound.
	Silent         bool
	DisablePreview bool
}

const (
	defaultSendTimeout = 10 * time.Second
	defaultHistorySize = 50
)

// Notification is one outgoing message. Kind and CycleID only feed the journal.
type Notification struct {
	Text    string
	Kind    storage.Kind
	CycleID string
}

type HistoryItem struct {
	At   time.Time    `json:"at"`
	Kind storage.Kind `json:"kind"`
	Text string       `json:"text"`
}
