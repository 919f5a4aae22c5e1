package message

import (
	"context"

	"github.com/vigild/vigil/internal/domain/account"
)

// Store is the keyed, append-only, retention-bounded message store.
//
// Retention applies to the whole stream: every append refreshes the
// stream's sliding TTL, and once it elapses the stream and all its
// messages become unobservable together.
type Store interface {
	// Append adds a message to the tail of the key's stream and
	// refreshes the stream TTL. Re-appending a message with the same
	// fingerprint is a no-op, which makes redelivery safe.
	Append(ctx context.Context, key Key, m Message) error
	// List returns up to limit messages for the key, oldest first.
	// Unknown or expired keys yield an empty slice, not an error.
	List(ctx context.Context, key Key, limit int) ([]Message, error)
	// Hostnames enumerates the distinct hostnames with at least one
	// live stream for the account.
	Hostnames(ctx context.Context, id account.ID) ([]string, error)
}
