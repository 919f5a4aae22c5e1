package account

import "context"

type Repo interface {
	Create(ctx context.Context, a *Account) error
	GetByID(ctx context.Context, id ID) (*Account, error)
	// Delete removes the account together with its tokens, message
	// streams and notification settings in a single transaction.
	Delete(ctx context.Context, id ID) error
}
