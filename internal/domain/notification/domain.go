package notification

import (
	"context"
	"time"

	"github.com/vigild/vigil/internal/domain/account"
	"github.com/vigild/vigil/internal/domain/message"
)

// EmailSettings, SlackSettings and TelegramSettings describe one
// delivery destination each. A nil section means the channel is not
// configured for the account.
type EmailSettings struct {
	To string `json:"to"`
}

type SlackSettings struct {
	WebhookURL string `json:"webhook_url"`
	Channel    string `json:"channel,omitempty"`
}

type TelegramSettings struct {
	BotToken string `json:"bot_token"`
	ChatID   int64  `json:"chat_id"`
}

// Settings is the per-account channel configuration, owned by the
// account and read at dispatch time only.
type Settings struct {
	Email    *EmailSettings    `json:"email,omitempty"`
	Slack    *SlackSettings    `json:"slack,omitempty"`
	Telegram *TelegramSettings `json:"telegram,omitempty"`
}

func (s Settings) Empty() bool {
	return s.Email == nil && s.Slack == nil && s.Telegram == nil
}

// Notification is what gets handed to a channel.
type Notification struct {
	AccountID account.ID
	Message   message.Message
}

// Record is the stored log of a sent notification.
type Record struct {
	ID        int64      `json:"id"`
	AccountID account.ID `json:"account_id"`
	Hostname  string     `json:"hostname"`
	Channel   string     `json:"channel"`
	SentAt    time.Time  `json:"sent_at"`
	Payload   string     `json:"payload"`
}

// Channel delivers a notification to one external destination. Delivery
// is send once, log outcome; no retries.
type Channel interface {
	Name() string
	Send(ctx context.Context, n Notification) error
}

type Clock interface {
	Now() time.Time
}
