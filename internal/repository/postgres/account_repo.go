package postgres

import (
	"context"
	"fmt"

	"github.com/vigild/vigil/internal/domain/account"
)

var _ account.Repo = (*AccountRepo)(nil)

type AccountRepo struct {
	db *DB
	tx Transactor
}

func NewAccountRepo(db *DB, tx Transactor) *AccountRepo {
	return &AccountRepo{db: db, tx: tx}
}

const (
	qAccountInsert = `
INSERT INTO accounts (id, email, created_at) VALUES ($1, $2, $3);
`
	qAccountGet = `
SELECT id, email, created_at FROM accounts WHERE id = $1;
`
	qAccountDelete          = `DELETE FROM accounts WHERE id = $1;`
	qAccountDeleteTokens    = `DELETE FROM ingest_tokens WHERE account_id = $1;`
	qAccountDeleteStreams   = `DELETE FROM message_streams WHERE account_id = $1;`
	qAccountDeleteMessages  = `DELETE FROM messages WHERE account_id = $1;`
	qAccountDeleteSettings  = `DELETE FROM notification_settings WHERE account_id = $1;`
	qAccountDeleteSentNotif = `DELETE FROM notifications WHERE account_id = $1;`
)

func (r *AccountRepo) Create(ctx context.Context, a *account.Account) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if _, err := r.db.execQueryer(ctx).Exec(ctx, qAccountInsert, a.ID.String(), a.Email, a.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (r *AccountRepo) GetByID(ctx context.Context, id account.ID) (*account.Account, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var a account.Account
	var aid string
	if err := r.db.execQueryer(ctx).QueryRow(ctx, qAccountGet, id.String()).
		Scan(&aid, &a.Email, &a.CreatedAt); err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	a.ID = account.ID(aid)
	return &a, nil
}

// Delete cascades tokens, message streams, messages, settings and the
// notification log in one transaction, so a half-deleted account is
// never observable.
func (r *AccountRepo) Delete(ctx context.Context, id account.ID) error {
	return r.tx.WithTx(ctx, func(ctx context.Context) error {
		q := r.db.execQueryer(ctx)
		for _, stmt := range []string{
			qAccountDeleteTokens,
			qAccountDeleteMessages,
			qAccountDeleteStreams,
			qAccountDeleteSettings,
			qAccountDeleteSentNotif,
		} {
			if _, err := q.Exec(ctx, stmt, id.String()); err != nil {
				return fmt.Errorf("cascade delete: %w", err)
			}
		}
		tag, err := q.Exec(ctx, qAccountDelete, id.String())
		if err != nil {
			return fmt.Errorf("delete account: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}
