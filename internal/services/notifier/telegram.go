package notifier

import (
	"context"
	"fmt"

	tele "gopkg.in/telebot.v4"

	"github.com/vigild/vigil/internal/domain/notification"
)

// TelegramChannel sends through the account's own bot. The bot client
// is created offline: no getMe roundtrip per dispatch, and invalid
// tokens fail on Send.
type TelegramChannel struct {
	bot    *tele.Bot
	chatID int64
}

func NewTelegramChannel(s notification.TelegramSettings) (TelegramChannel, error) {
	b, err := tele.NewBot(tele.Settings{Token: s.BotToken, Offline: true})
	if err != nil {
		return TelegramChannel{}, fmt.Errorf("telegram bot: %w", err)
	}
	return TelegramChannel{bot: b, chatID: s.ChatID}, nil
}

func (c TelegramChannel) Name() string { return "telegram" }

func (c TelegramChannel) Send(ctx context.Context, n notification.Notification) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	text := fmt.Sprintf("%s: %s\n%s", n.Message.Hostname, n.Message.Title, n.Message.Body)
	_, err := c.bot.Send(&tele.Chat{ID: c.chatID}, text)
	return err
}
