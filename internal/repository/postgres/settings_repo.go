package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vigild/vigil/internal/domain/account"
	"github.com/vigild/vigil/internal/domain/notification"
)

var _ notification.SettingsRepo = (*SettingsRepo)(nil)

// SettingsRepo stores the per-account channel configuration as one
// JSONB document, so the record stays introspectable in the database.
type SettingsRepo struct{ db *DB }

func NewSettingsRepo(db *DB) *SettingsRepo { return &SettingsRepo{db: db} }

const (
	qSettingsGet = `
SELECT settings FROM notification_settings WHERE account_id = $1;
`
	qSettingsSet = `
INSERT INTO notification_settings (account_id, settings, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (account_id) DO UPDATE SET settings = EXCLUDED.settings, updated_at = NOW();
`
)

func (r *SettingsRepo) Get(ctx context.Context, id account.ID) (notification.Settings, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var raw []byte
	if err := r.db.execQueryer(ctx).QueryRow(ctx, qSettingsGet, id.String()).Scan(&raw); err != nil {
		if isNoRows(err) {
			return notification.Settings{}, nil
		}
		return notification.Settings{}, fmt.Errorf("get settings: %w", err)
	}

	var s notification.Settings
	if err := json.Unmarshal(raw, &s); err != nil {
		return notification.Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	return s, nil
}

func (r *SettingsRepo) Set(ctx context.Context, id account.ID, s notification.Settings) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if _, err := r.db.execQueryer(ctx).Exec(ctx, qSettingsSet, id.String(), raw); err != nil {
		return fmt.Errorf("set settings: %w", err)
	}
	return nil
}
