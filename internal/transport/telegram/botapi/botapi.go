// Package botapi is the go-telegram-bot-api backed Telegram sender,
// selected with telegram.driver: botapi.
package botapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	kit "homeworkbot/internal/transport"
	"homeworkbot/internal/transport/telegram"
	logx "homeworkbot/pkg/logx"
)

// ErrThreadUnsupported is returned for forum topic targets; this client
// library predates message_thread_id.
var ErrThreadUnsupported = errors.New("botapi driver cannot post into forum topics")

type Config struct {
	Token   string
	APIURL  string
	Timeout time.Duration
}

type Sender struct {
	api  *tgbotapi.BotAPI
	http *http.Client
	log  logx.Logger
}

// New builds the client without calling getMe, unlike tgbotapi.NewBotAPI,
// so construction never touches the network.
func New(cfg Config, log logx.Logger) (*Sender, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	httpc := &http.Client{Timeout: timeout}

	api := &tgbotapi.BotAPI{Token: cfg.Token, Client: httpc, Buffer: 100}
	api.SetAPIEndpoint(telegram.APIBase(cfg.APIURL) + "/bot%s/%s")

	return &Sender{api: api, http: httpc, log: log.With(logx.String("comp", "telegram.botapi"))}, nil
}

func (s *Sender) SendText(ctx context.Context, to kit.ChatTarget, text string, opt *kit.SendOptions) (kit.MessageRef, error) {
	if to.ThreadID != 0 {
		return kit.MessageRef{}, ErrThreadUnsupported
	}
	if opt == nil {
		opt = &kit.SendOptions{}
	}

	var first kit.MessageRef
	for i, chunk := range telegram.SplitText(text, telegram.TextLimit) {
		if err := ctx.Err(); err != nil {
			return first, err
		}
		msg := tgbotapi.NewMessage(to.ChatID, chunk)
		if to.Username != "" {
			msg = tgbotapi.NewMessageToChannel(to.Username, chunk)
		}
		msg.DisableWebPagePreview = opt.DisablePreview
		msg.DisableNotification = opt.Silent

		sent, err := s.api.Send(msg)
		if err != nil {
			return first, err
		}
		if i == 0 {
			first = kit.MessageRef{ChatID: to.ChatID, MessageID: sent.MessageID}
			if sent.Chat != nil {
				first.ChatID = sent.Chat.ID
			}
		}
	}
	return first, nil
}

func (s *Sender) Close() error {
	s.http.CloseIdleConnections()
	return nil
}
