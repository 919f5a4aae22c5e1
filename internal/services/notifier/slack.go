package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/vigild/vigil/internal/domain/notification"
)

// SlackChannel posts to an incoming-webhook URL from the account's
// settings.
type SlackChannel struct {
	WebhookURL string
	Channel    string
	Client     *http.Client
}

func NewSlackChannel(s notification.SlackSettings) SlackChannel {
	return SlackChannel{
		WebhookURL: s.WebhookURL,
		Channel:    s.Channel,
		Client:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (c SlackChannel) Name() string { return "slack" }

type slackPayload struct {
	Text    string `json:"text"`
	Channel string `json:"channel,omitempty"`
}

func (c SlackChannel) Send(ctx context.Context, n notification.Notification) error {
	text := fmt.Sprintf("*%s: %s*\n%s", n.Message.Hostname, n.Message.Title, n.Message.Body)
	body, _ := json.Marshal(slackPayload{Text: text, Channel: c.Channel})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("slack webhook returned %d", resp.StatusCode)
	}
	return nil
}
