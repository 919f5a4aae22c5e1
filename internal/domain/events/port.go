package events

import (
	"context"

	"github.com/vigild/vigil/internal/domain/account"
	"github.com/vigild/vigil/internal/domain/message"
)

// MessageEvents is the producing side of the decoupling channel.
// Publish returns once the broker has accepted the entry, not once it
// has been persisted; a publish error must be surfaced to the ingesting
// caller, since nothing else guarantees the message will ever be stored.
type MessageEvents interface {
	PublishMessage(ctx context.Context, id account.ID, m message.Message) error
}
