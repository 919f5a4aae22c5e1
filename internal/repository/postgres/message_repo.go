package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/vigild/vigil/internal/domain/account"
	"github.com/vigild/vigil/internal/domain/message"
)

var _ message.Store = (*MessageRepo)(nil)

// MessageRepo keeps one row per stream in message_streams carrying the
// sliding TTL, plus one row per message. Expiry is logical: reads filter
// on expires_at, the janitor reclaims rows later.
type MessageRepo struct {
	db      *DB
	ttl     time.Duration
	maxList int
}

const (
	DefaultTTL     = 30 * 24 * time.Hour
	DefaultMaxList = 1000
)

func NewMessageRepo(db *DB, ttl time.Duration, maxList int) *MessageRepo {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxList <= 0 {
		maxList = DefaultMaxList
	}
	return &MessageRepo{db: db, ttl: ttl, maxList: maxList}
}

const (
	qStreamUpsert = `
INSERT INTO message_streams (account_id, hostname, expires_at)
VALUES ($1, $2, $3)
ON CONFLICT (account_id, hostname) DO UPDATE SET expires_at = EXCLUDED.expires_at;
`
	qMessageInsert = `
INSERT INTO messages (account_id, hostname, fingerprint, title, body, reported_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (account_id, hostname, fingerprint) DO NOTHING;
`
	qMessageList = `
SELECT m.title, m.body, m.reported_at
FROM messages m
JOIN message_streams s ON s.account_id = m.account_id AND s.hostname = m.hostname
WHERE m.account_id = $1 AND m.hostname = $2 AND s.expires_at > NOW()
ORDER BY m.id
LIMIT $3;
`
	qHostnames = `
SELECT hostname FROM message_streams
WHERE account_id = $1 AND expires_at > NOW()
ORDER BY hostname;
`
	qPurgeExpiredMessages = `
DELETE FROM messages m
USING message_streams s
WHERE s.account_id = m.account_id AND s.hostname = m.hostname AND s.expires_at <= NOW();
`
	qPurgeExpiredStreams = `
DELETE FROM message_streams WHERE expires_at <= NOW();
`
)

// Append runs as one transaction: refresh the stream TTL, then insert
// the message. The fingerprint conflict clause makes a redelivered
// entry a no-op, so at-least-once delivery never stores duplicates.
func (r *MessageRepo) Append(ctx context.Context, key message.Key, m message.Message) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	expires := time.Now().UTC().Add(r.ttl)
	if _, err := tx.Exec(ctx, qStreamUpsert, key.AccountID.String(), key.Hostname, expires); err != nil {
		return fmt.Errorf("upsert stream: %w", err)
	}
	if _, err := tx.Exec(ctx, qMessageInsert,
		key.AccountID.String(), key.Hostname, m.Fingerprint(), m.Title, m.Body, m.Timestamp,
	); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit append: %w", err)
	}
	return nil
}

func (r *MessageRepo) List(ctx context.Context, key message.Key, limit int) ([]message.Message, error) {
	if limit <= 0 || limit > r.maxList {
		limit = r.maxList
	}

	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.execQueryer(ctx).Query(ctx, qMessageList, key.AccountID.String(), key.Hostname, limit)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	out := make([]message.Message, 0, limit)
	for rows.Next() {
		m := message.Message{Hostname: key.Hostname}
		if err := rows.Scan(&m.Title, &m.Body, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (r *MessageRepo) Hostnames(ctx context.Context, id account.ID) ([]string, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.execQueryer(ctx).Query(ctx, qHostnames, id.String())
	if err != nil {
		return nil, fmt.Errorf("query hostnames: %w", err)
	}
	defer rows.Close()

	out := make([]string, 0, 8)
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, fmt.Errorf("scan hostname: %w", err)
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

// PurgeExpired reclaims rows whose stream TTL already elapsed. Returns
// the number of deleted messages and streams.
func (r *MessageRepo) PurgeExpired(ctx context.Context) (int64, int64, error) {
	mt, err := r.db.Pool.Exec(ctx, qPurgeExpiredMessages)
	if err != nil {
		return 0, 0, fmt.Errorf("purge messages: %w", err)
	}
	st, err := r.db.Pool.Exec(ctx, qPurgeExpiredStreams)
	if err != nil {
		return mt.RowsAffected(), 0, fmt.Errorf("purge streams: %w", err)
	}
	return mt.RowsAffected(), st.RowsAffected(), nil
}
