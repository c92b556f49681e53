package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvPracticumToken = "PRACTICUM_TOKEN"
	EnvTelegramToken  = "TELEGRAM_TOKEN"
	EnvTelegramChatID = "TELEGRAM_CHAT_ID"
)

// ErrMissingCredentials is returned (wrapped) when any required variable is unset or blank.
var ErrMissingCredentials = errors.New("missing required env vars")

// Credentials are the three secrets the bot cannot run without.
// They are read once at startup and never reloaded.
//
// TELEGRAM_CHAT_ID is either a numeric chat id or a public "@username";
// exactly one of ChatID and ChatUsername is set.
type Credentials struct {
	PracticumToken string
	TelegramToken  string
	ChatID         int64
	ChatUsername   string
}

// Telegram public usernames: 5-32 characters of letters, digits and underscores.
var reChatUsername = regexp.MustCompile(`^@[A-Za-z0-9_]{5,32}$`)

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment.
// Variables already set are not overridden; a missing file is not an error.
func LoadDotEnv(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// LoadCredentials reads credentials through getenv (os.Getenv when nil).
// Every missing variable is listed in the error so the operator can fix them in one go.
func LoadCredentials(getenv func(string) string) (Credentials, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	practicum := strings.TrimSpace(getenv(EnvPracticumToken))
	telegram := strings.TrimSpace(getenv(EnvTelegramToken))
	chatRaw := strings.TrimSpace(getenv(EnvTelegramChatID))

	var missing []string
	if practicum == "" {
		missing = append(missing, EnvPracticumToken)
	}
	if telegram == "" {
		missing = append(missing, EnvTelegramToken)
	}
	if chatRaw == "" {
		missing = append(missing, EnvTelegramChatID)
	}
	if len(missing) > 0 {
		return Credentials{}, fmt.Errorf("%w: %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}

	creds := Credentials{PracticumToken: practicum, TelegramToken: telegram}
	if strings.HasPrefix(chatRaw, "@") {
		if !reChatUsername.MatchString(chatRaw) {
			return Credentials{}, fmt.Errorf("invalid %s %q: not a valid @username", EnvTelegramChatID, chatRaw)
		}
		creds.ChatUsername = chatRaw
		return creds, nil
	}
	chatID, err := strconv.ParseInt(chatRaw, 10, 64)
	if err != nil {
		return Credentials{}, fmt.Errorf("invalid %s %q: must be an integer chat id or @username", EnvTelegramChatID, chatRaw)
	}
	creds.ChatID = chatID
	return creds, nil
}
