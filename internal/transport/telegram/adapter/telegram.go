// Package adapter is the telebot-backed Telegram sender.
package adapter

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	kit "homeworkbot/internal/transport"
	"homeworkbot/internal/transport/telegram"
	logx "homeworkbot/pkg/logx"
)

type Config struct {
	Token string
	// APIURL overrides the Bot API server (e.g. a local telegram-bot-api).
	APIURL string
	// Timeout bounds each HTTP call to the Bot API. telebot has no context
	// support, so this is the only way to cut a hung request short.
	Timeout time.Duration
}

// Adapter only sends. It never starts telebot's poller: the bot has no
// commands and must not consume updates meant for other consumers of the token.
type Adapter struct {
	cfg  Config
	log  logx.Logger
	bot  *tele.Bot
	http *http.Client
}

func New(cfg Config, log logx.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	httpc := &http.Client{Timeout: timeout}

	b, err := tele.NewBot(tele.Settings{
		URL:    telegram.APIBase(cfg.APIURL),
		Token:  cfg.Token,
		Client: httpc,
		// Offline skips getMe so construction never touches the network.
		Offline: true,
		OnError: func(err error, _ tele.Context) {
			log.Warn("telebot error", logx.Err(err))
		},
	})
	if err != nil {
		return nil, err
	}
	return &Adapter{cfg: cfg, log: log.With(logx.String("comp", "telegram.telebot")), bot: b, http: httpc}, nil
}

// SendText sends text to the target, split into as many messages as needed.
// A cancelled ctx stops before the next chunk; the chunk in flight is bounded by Config.Timeout.
func (a *Adapter) SendText(ctx context.Context, to kit.ChatTarget, text string, opt *kit.SendOptions) (kit.MessageRef, error) {
	if opt == nil {
		opt = &kit.SendOptions{}
	}
	chunks := telegram.SplitText(text, telegram.TextLimit)
	chat := recipient(to.String())

	var first kit.MessageRef
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return first, err
		}
		msg, err := a.bot.Send(chat, chunk, &tele.SendOptions{
			DisableWebPagePreview: opt.DisablePreview,
			DisableNotification:   opt.Silent,
			ThreadID:              to.ThreadID,
		})
		if err != nil {
			return first, err
		}
		if i == 0 {
			if msg.Chat != nil {
				// Resolves the numeric id when the target was an @username.
				to.ChatID = msg.Chat.ID
			}
			first = kit.MessageRef{ChatID: to.ChatID, ThreadID: to.ThreadID, MessageID: msg.ID}
		}
		if len(chunks) > 1 {
			a.log.Debug("chunk sent", logx.Int("index", i), logx.Int("total", len(chunks)))
		}
	}
	return first, nil
}

// recipient is a chat_id value: a numeric id or a public "@username".
type recipient string

func (r recipient) Recipient() string { return string(r) }

// Close drops idle keep-alive connections to the Bot API.
func (a *Adapter) Close() error {
	a.http.CloseIdleConnections()
	return nil
}
