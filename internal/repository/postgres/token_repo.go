package postgres

import (
	"context"
	"fmt"

	"github.com/vigild/vigil/internal/domain/account"
	"github.com/vigild/vigil/internal/domain/token"
)

var _ token.Store = (*TokenRepo)(nil)

// TokenRepo stores the token→account and account→tokens associations as
// a single row per token, so both directions are created and removed
// atomically.
type TokenRepo struct{ db *DB }

func NewTokenRepo(db *DB) *TokenRepo { return &TokenRepo{db: db} }

const (
	qTokenInsert = `
INSERT INTO ingest_tokens (token, account_id, created_at)
VALUES ($1, $2, NOW());
`
	qTokensByAccount = `
SELECT token FROM ingest_tokens WHERE account_id = $1 ORDER BY created_at;
`
	qAccountByToken = `
SELECT account_id FROM ingest_tokens WHERE token = $1;
`
	qTokenDelete = `
DELETE FROM ingest_tokens WHERE token = $1 AND account_id = $2;
`
)

func (r *TokenRepo) Create(ctx context.Context, id account.ID) (token.Token, error) {
	t, err := token.New()
	if err != nil {
		return "", err
	}

	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if _, err := r.db.execQueryer(ctx).Exec(ctx, qTokenInsert, t.String(), id.String()); err != nil {
		if isUniqueViolation(err) {
			return "", ErrConflict
		}
		return "", fmt.Errorf("insert token: %w", err)
	}
	return t, nil
}

func (r *TokenRepo) TokensOf(ctx context.Context, id account.ID) ([]token.Token, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.execQueryer(ctx).Query(ctx, qTokensByAccount, id.String())
	if err != nil {
		return nil, fmt.Errorf("query tokens: %w", err)
	}
	defer rows.Close()

	out := make([]token.Token, 0, 4)
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan token: %w", err)
		}
		out = append(out, token.Token(t))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (r *TokenRepo) AccountOf(ctx context.Context, t token.Token) (account.ID, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var id string
	if err := r.db.execQueryer(ctx).QueryRow(ctx, qAccountByToken, t.String()).Scan(&id); err != nil {
		if isNoRows(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("resolve token: %w", err)
	}
	return account.ID(id), nil
}

func (r *TokenRepo) Revoke(ctx context.Context, id account.ID, t token.Token) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.execQueryer(ctx).Exec(ctx, qTokenDelete, t.String(), id.String())
	if err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
