package notifier

import (
	"go.uber.org/zap"

	"github.com/vigild/vigil/internal/domain/notification"
)

// Channels builds the concrete channel set for one account's settings.
type channelFactory struct {
	mailer *Mailer
	log    *zap.Logger
}

func NewChannelFactory(mailer *Mailer, log *zap.Logger) ChannelFactory {
	return &channelFactory{mailer: mailer, log: log}
}

func (f *channelFactory) Channels(s notification.Settings) []notification.Channel {
	out := make([]notification.Channel, 0, 3)
	if s.Email != nil && s.Email.To != "" && f.mailer != nil {
		out = append(out, EmailChannel{Mailer: f.mailer, To: s.Email.To})
	}
	if s.Slack != nil && s.Slack.WebhookURL != "" {
		out = append(out, NewSlackChannel(*s.Slack))
	}
	if s.Telegram != nil && s.Telegram.BotToken != "" {
		ch, err := NewTelegramChannel(*s.Telegram)
		if err != nil {
			f.log.Warn("telegram channel skipped", zap.Error(err))
		} else {
			out = append(out, ch)
		}
	}
	return out
}
