package token

import (
	"context"

	"github.com/vigild/vigil/internal/domain/account"
)

// Store maps tokens to accounts and back. The forward and reverse
// associations are recorded atomically: both exist or neither does.
type Store interface {
	Create(ctx context.Context, id account.ID) (Token, error)
	// TokensOf returns the live tokens of an account; an unknown account
	// yields an empty slice, not an error.
	TokensOf(ctx context.Context, id account.ID) ([]Token, error)
	// AccountOf resolves a token to its account. Unknown and revoked
	// tokens are indistinguishable: both return ErrNotFound.
	AccountOf(ctx context.Context, t Token) (account.ID, error)
	// Revoke removes both directions of the mapping, scoped to the owning
	// account. A token that is unknown or belongs to another account
	// returns ErrNotFound.
	Revoke(ctx context.Context, id account.ID, t Token) error
}
