package kafka

import (
	"context"

	"github.com/vigild/vigil/internal/domain/account"
	"github.com/vigild/vigil/internal/domain/events"
	"github.com/vigild/vigil/internal/domain/message"
)

type MessageEventsKafka struct {
	p *Producer
}

func NewMessageEvents(p *Producer) *MessageEventsKafka { return &MessageEventsKafka{p: p} }

var _ events.MessageEvents = (*MessageEventsKafka)(nil)

func (e *MessageEventsKafka) PublishMessage(ctx context.Context, id account.ID, m message.Message) error {
	return e.p.PublishJSON(ctx, []byte(id.String()), message.Envelope{
		AccountID: id,
		Message:   m,
	})
}
