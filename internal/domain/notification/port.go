package notification

import (
	"context"

	"github.com/vigild/vigil/internal/domain/account"
)

type SettingsRepo interface {
	// Get returns the account's settings; an account without a stored
	// record gets empty Settings, not an error.
	Get(ctx context.Context, id account.ID) (Settings, error)
	Set(ctx context.Context, id account.ID, s Settings) error
}

// Repo logs notifications that were actually sent.
type Repo interface {
	Create(ctx context.Context, r *Record) error
	ListByAccount(ctx context.Context, id account.ID, limit int) ([]*Record, error)
}
