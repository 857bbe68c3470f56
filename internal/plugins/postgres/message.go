package postgres

import (
	"context"
	"database/sql"
	"time"

	"duet/internal/core/domain"
)

type MessageRepo struct {
	db *sql.DB
}

func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

/*
	-- Messages
	CREATE TABLE messages (
		id              UUID PRIMARY KEY,
		sender_id       UUID NOT NULL REFERENCES users(id),
		receiver_id     UUID NOT NULL REFERENCES users(id),
		text            TEXT NOT NULL DEFAULT '',
		attachment_url  TEXT,
		attachment_name TEXT,
		attachment_mime TEXT,
		attachment_size BIGINT,
		disappearing    BOOLEAN NOT NULL DEFAULT FALSE,
		viewed          BOOLEAN NOT NULL DEFAULT FALSE,
		viewed_at       TIMESTAMPTZ,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX messages_pair_idx ON messages (sender_id, receiver_id, created_at);
*/

func (r *MessageRepo) CreateMessage(ctx context.Context, m *domain.Message) error {
	var url, name, mime *string
	var size *int64
	if m.Attachment != nil {
		url, name, mime, size = &m.Attachment.URL, &m.Attachment.Name, &m.Attachment.MIME, &m.Attachment.Size
	}
	query := `
		INSERT INTO messages (
			id, sender_id, receiver_id, text,
			attachment_url, attachment_name, attachment_mime, attachment_size,
			disappearing, viewed, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	exec := GetExecutor(ctx, r.db)
	_, err := exec.ExecContext(ctx, query,
		m.ID, m.SenderID.String(), m.ReceiverID.String(), m.Text,
		url, name, mime, size,
		m.Disappearing, m.Viewed, m.CreatedAt,
	)
	return err
}

func (r *MessageRepo) GetMessageByID(ctx context.Context, id string) (*domain.Message, error) {
	query := selectMessage + ` WHERE id = $1`
	exec := GetExecutor(ctx, r.db)
	rows, err := exec.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, domain.ErrMessageNotFound
	}
	m, err := scanMessage(rows)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *MessageRepo) ListBetween(ctx context.Context, a, b domain.UserID) ([]domain.Message, error) {
	query := selectMessage + `
		WHERE (sender_id = $1 AND receiver_id = $2)
		   OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY created_at ASC
	`
	exec := GetExecutor(ctx, r.db)
	rows, err := exec.QueryContext(ctx, query, a.String(), b.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var msgs []domain.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, *m)
	}
	return msgs, rows.Err()
}

func (r *MessageRepo) MarkViewed(ctx context.Context, id string, viewedAt time.Time) error {
	query := `UPDATE messages SET viewed = TRUE, viewed_at = $2 WHERE id = $1 AND viewed = FALSE`
	exec := GetExecutor(ctx, r.db)
	result, err := exec.ExecContext(ctx, query, id, viewedAt)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrMessageNotFound
	}
	return nil
}

func (r *MessageRepo) ListPartnerIDs(ctx context.Context, id domain.UserID) ([]domain.UserID, error) {
	query := `
		SELECT DISTINCT CASE WHEN sender_id = $1 THEN receiver_id ELSE sender_id END
		FROM messages
		WHERE sender_id = $1 OR receiver_id = $1
	`
	exec := GetExecutor(ctx, r.db)
	rows, err := exec.QueryContext(ctx, query, id.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.UserID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		pid, err := domain.ParseUserID(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, pid)
	}
	return out, rows.Err()
}

const selectMessage = `
	SELECT id, sender_id, receiver_id, text,
	       attachment_url, attachment_name, attachment_mime, attachment_size,
	       disappearing, viewed, viewed_at, created_at
	FROM messages
`

func scanMessage(rows *sql.Rows) (*domain.Message, error) {
	var m domain.Message
	var rawSender, rawReceiver string
	var url, name, mime sql.NullString
	var size sql.NullInt64
	var viewedAt sql.NullTime
	err := rows.Scan(
		&m.ID, &rawSender, &rawReceiver, &m.Text,
		&url, &name, &mime, &size,
		&m.Disappearing, &m.Viewed, &viewedAt, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if m.SenderID, err = domain.ParseUserID(rawSender); err != nil {
		return nil, err
	}
	if m.ReceiverID, err = domain.ParseUserID(rawReceiver); err != nil {
		return nil, err
	}
	if url.Valid {
		m.Attachment = &domain.Attachment{
			URL:  url.String,
			Name: name.String,
			MIME: mime.String,
			Size: size.Int64,
		}
	}
	if viewedAt.Valid {
		m.ViewedAt = &viewedAt.Time
	}
	return &m, nil
}
