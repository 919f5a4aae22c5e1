package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/vigild/vigil/internal/domain/account"
	"github.com/vigild/vigil/internal/domain/notification"
)

var _ notification.Repo = (*NotificationRepo)(nil)

type NotificationRepo struct{ db *DB }

func NewNotificationRepo(db *DB) *NotificationRepo { return &NotificationRepo{db: db} }

const (
	qNotifInsert = `
INSERT INTO notifications (account_id, hostname, channel, sent_at, payload)
VALUES ($1, $2, $3, COALESCE($4, now()), $5)
RETURNING id, sent_at;
`
	qNotifByAccount = `
SELECT id, account_id, hostname, channel, sent_at, payload
FROM notifications
WHERE account_id = $1
ORDER BY sent_at DESC
LIMIT $2;
`
)

func (r *NotificationRepo) Create(ctx context.Context, n *notification.Record) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if err := r.db.execQueryer(ctx).QueryRow(ctx, qNotifInsert,
		n.AccountID.String(),
		n.Hostname,
		n.Channel,
		nullTime(n.SentAt),
		n.Payload,
	).Scan(&n.ID, &n.SentAt); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (r *NotificationRepo) ListByAccount(ctx context.Context, id account.ID, limit int) ([]*notification.Record, error) {
	if limit <= 0 {
		limit = 50
	}

	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.execQueryer(ctx).Query(ctx, qNotifByAccount, id.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	out := make([]*notification.Record, 0, limit)
	for rows.Next() {
		var n notification.Record
		var aid string
		if err := rows.Scan(&n.ID, &aid, &n.Hostname, &n.Channel, &n.SentAt, &n.Payload); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.AccountID = account.ID(aid)
		out = append(out, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
