package transport

import (
	"context"
	"strconv"
)

// ChatTarget addresses one chat, optionally a forum topic inside it.
// Username ("@channel") takes precedence over ChatID when set.
type ChatTarget struct {
	ChatID   int64
	Username string
	ThreadID int
}

// String renders the target the way the Bot API chat_id parameter expects it.
func (t ChatTarget) String() string {
	if t.Username != "" {
		return t.Username
	}
	return strconv.FormatInt(t.ChatID, 10)
}

type MessageRef struct {
	ChatID    int64
	ThreadID  int
	MessageID int
}

// SendOptions are plain-text delivery flags. Messages are never parsed as
// markup: homework names are user content.
type SendOptions struct {
	DisablePreview bool
	Silent         bool
}

// Sender delivers text to a chat. Long texts may be split into several
// messages; the returned ref points at the first one.
type Sender interface {
	SendText(ctx context.Context, to ChatTarget, text string, opt *SendOptions) (MessageRef, error)
}

// Closer is implemented by senders that hold resources (idle connections).
type Closer interface {
	Close() error
}
