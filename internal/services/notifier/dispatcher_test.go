package notifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vigild/vigil/internal/domain/account"
	"github.com/vigild/vigil/internal/domain/message"
	"github.com/vigild/vigil/internal/domain/notification"
)

type fakeSettings struct {
	s   notification.Settings
	err error
}

func (f *fakeSettings) Get(ctx context.Context, id account.ID) (notification.Settings, error) {
	return f.s, f.err
}
func (f *fakeSettings) Set(ctx context.Context, id account.ID, s notification.Settings) error {
	f.s = s
	return nil
}

type fakeChannel struct {
	name string
	err  error
	sent []notification.Notification
}

func (c *fakeChannel) Name() string { return c.name }
func (c *fakeChannel) Send(ctx context.Context, n notification.Notification) error {
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, n)
	return nil
}

type fixedChannels struct{ chans []notification.Channel }

func (f fixedChannels) Channels(notification.Settings) []notification.Channel { return f.chans }

type fakeRecords struct {
	created []*notification.Record
	err     error
}

func (f *fakeRecords) Create(ctx context.Context, r *notification.Record) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, r)
	return nil
}
func (f *fakeRecords) ListByAccount(ctx context.Context, id account.ID, limit int) ([]*notification.Record, error) {
	return f.created, nil
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func testNotification() notification.Notification {
	return notification.Notification{
		AccountID: "acc-1",
		Message:   message.Message{Hostname: "web-1", Title: "heartbeat missed", Body: "last seen 10m ago"},
	}
}

func TestDispatch_AllChannelsSucceed(t *testing.T) {
	email := &fakeChannel{name: "email"}
	slack := &fakeChannel{name: "slack"}
	recs := &fakeRecords{}
	d := NewDispatcher(&fakeSettings{}, fixedChannels{[]notification.Channel{email, slack}}, recs, fixedClock{time.Now()}, zap.NewNop())

	err := d.Dispatch(context.Background(), testNotification())
	require.NoError(t, err)
	require.Len(t, email.sent, 1)
	require.Len(t, slack.sent, 1)
	require.Len(t, recs.created, 2)
}

func TestDispatch_PartialFailureStillSucceeds(t *testing.T) {
	email := &fakeChannel{name: "email", err: errors.New("smtp refused")}
	slack := &fakeChannel{name: "slack"}
	recs := &fakeRecords{}
	d := NewDispatcher(&fakeSettings{}, fixedChannels{[]notification.Channel{email, slack}}, recs, fixedClock{time.Now()}, zap.NewNop())

	err := d.Dispatch(context.Background(), testNotification())
	require.NoError(t, err)
	require.Len(t, slack.sent, 1)
	require.Len(t, recs.created, 1)
	require.Equal(t, "slack", recs.created[0].Channel)
}

func TestDispatch_AllChannelsFail(t *testing.T) {
	email := &fakeChannel{name: "email", err: errors.New("smtp refused")}
	slack := &fakeChannel{name: "slack", err: errors.New("webhook 500")}
	d := NewDispatcher(&fakeSettings{}, fixedChannels{[]notification.Channel{email, slack}}, &fakeRecords{}, fixedClock{time.Now()}, zap.NewNop())

	err := d.Dispatch(context.Background(), testNotification())
	require.Error(t, err)
	require.Contains(t, err.Error(), "smtp refused")
	require.Contains(t, err.Error(), "webhook 500")
}

func TestDispatch_NoChannels(t *testing.T) {
	d := NewDispatcher(&fakeSettings{}, fixedChannels{nil}, &fakeRecords{}, fixedClock{time.Now()}, zap.NewNop())

	err := d.Dispatch(context.Background(), testNotification())
	require.ErrorIs(t, err, ErrNoChannels)
}

func TestDispatch_SettingsError(t *testing.T) {
	boom := errors.New("db down")
	d := NewDispatcher(&fakeSettings{err: boom}, fixedChannels{nil}, &fakeRecords{}, fixedClock{time.Now()}, zap.NewNop())

	err := d.Dispatch(context.Background(), testNotification())
	require.ErrorIs(t, err, boom)
}

func TestDispatch_RecordFailureDoesNotFailDelivery(t *testing.T) {
	email := &fakeChannel{name: "email"}
	recs := &fakeRecords{err: errors.New("insert failed")}
	d := NewDispatcher(&fakeSettings{}, fixedChannels{[]notification.Channel{email}}, recs, fixedClock{time.Now()}, zap.NewNop())

	err := d.Dispatch(context.Background(), testNotification())
	require.NoError(t, err)
	require.Len(t, email.sent, 1)
}

func TestChannelFactory_BuildsConfiguredChannels(t *testing.T) {
	f := NewChannelFactory(nil, zap.NewNop())

	require.Empty(t, f.Channels(notification.Settings{}))

	chans := f.Channels(notification.Settings{
		Slack: &notification.SlackSettings{WebhookURL: "https://hooks.example.com/x"},
	})
	require.Len(t, chans, 1)
	require.Equal(t, "slack", chans[0].Name())

	// Email settings without a mailer wired stay unserved.
	chans = f.Channels(notification.Settings{
		Email: &notification.EmailSettings{To: "ops@example.com"},
	})
	require.Empty(t, chans)
}
