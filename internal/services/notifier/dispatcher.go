package notifier

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/vigild/vigil/internal/domain/notification"
)

// ErrNoChannels means the account has nothing configured; not a
// delivery failure.
var ErrNoChannels = errors.New("no notification channels configured")

// ChannelFactory builds the concrete channels for one account's
// settings. Settings are read at dispatch time, so edits take effect on
// the next notification.
type ChannelFactory interface {
	Channels(s notification.Settings) []notification.Channel
}

// Dispatcher fans one notification out to every configured channel.
// Channels fail independently; the dispatch succeeds if at least one
// accepted the message. No retries: notification is best effort.
type Dispatcher struct {
	settings notification.SettingsRepo
	factory  ChannelFactory
	records  notification.Repo
	clock    notification.Clock
	log      *zap.Logger
}

func NewDispatcher(
	settings notification.SettingsRepo,
	factory ChannelFactory,
	records notification.Repo,
	clock notification.Clock,
	log *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		settings: settings,
		factory:  factory,
		records:  records,
		clock:    clock,
		log:      log.With(zap.String("component", "notifier.dispatcher")),
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, n notification.Notification) error {
	s, err := d.settings.Get(ctx, n.AccountID)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	chans := d.factory.Channels(s)
	if len(chans) == 0 {
		return ErrNoChannels
	}

	var errs error
	sent := 0
	for _, ch := range chans {
		if err := ch.Send(ctx, n); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", ch.Name(), err))
			continue
		}
		sent++
		d.record(ctx, ch.Name(), n)
	}

	if sent == 0 {
		return fmt.Errorf("all channels failed: %w", errs)
	}
	if errs != nil {
		d.log.Warn("partial delivery failure",
			zap.String("account_id", n.AccountID.String()),
			zap.Int("sent", sent),
			zap.Int("failed", len(chans)-sent),
			zap.Error(errs),
		)
	}
	return nil
}

func (d *Dispatcher) record(ctx context.Context, channel string, n notification.Notification) {
	r := &notification.Record{
		AccountID: n.AccountID,
		Hostname:  n.Message.Hostname,
		Channel:   channel,
		SentAt:    d.clock.Now().UTC(),
		Payload:   n.Message.Title,
	}
	if err := d.records.Create(ctx, r); err != nil {
		d.log.Warn("record notification", zap.Error(err))
	}
}
