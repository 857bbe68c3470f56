package postgres

import (
	"context"
	"database/sql"

	"duet/internal/core/domain"
)

type FriendRequestRepo struct {
	db *sql.DB
}

func NewFriendRequestRepo(db *sql.DB) *FriendRequestRepo {
	return &FriendRequestRepo{db: db}
}

/*
	-- Friend requests
	CREATE TABLE friend_requests (
		id          UUID PRIMARY KEY,
		sender_id   UUID NOT NULL REFERENCES users(id),
		receiver_id UUID NOT NULL REFERENCES users(id),
		status      TEXT NOT NULL DEFAULT 'pending',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		CHECK (sender_id <> receiver_id)
	);
	-- At most one non-rejected request per unordered pair
	CREATE UNIQUE INDEX friend_requests_pair_idx
		ON friend_requests (LEAST(sender_id, receiver_id), GREATEST(sender_id, receiver_id))
		WHERE status <> 'rejected';
*/

func (r *FriendRequestRepo) CreateRequest(ctx context.Context, fr *domain.FriendRequest) error {
	query := `
		INSERT INTO friend_requests (id, sender_id, receiver_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	exec := GetExecutor(ctx, r.db)
	_, err := exec.ExecContext(ctx, query,
		fr.ID, fr.SenderID.String(), fr.ReceiverID.String(), string(fr.Status), fr.CreatedAt,
	)
	return err
}

func (r *FriendRequestRepo) GetRequestByID(ctx context.Context, id string) (*domain.FriendRequest, error) {
	query := `SELECT id, sender_id, receiver_id, status, created_at FROM friend_requests WHERE id = $1`
	exec := GetExecutor(ctx, r.db)
	return scanRequest(exec.QueryRowContext(ctx, query, id))
}

func (r *FriendRequestRepo) FindByPair(ctx context.Context, a, b domain.UserID) (*domain.FriendRequest, error) {
	query := `
		SELECT id, sender_id, receiver_id, status, created_at
		FROM friend_requests
		WHERE (sender_id = $1 AND receiver_id = $2)
		   OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY created_at DESC
		LIMIT 1
	`
	exec := GetExecutor(ctx, r.db)
	fr, err := scanRequest(exec.QueryRowContext(ctx, query, a.String(), b.String()))
	if err == domain.ErrRequestNotFound {
		return nil, nil
	}
	return fr, err
}

func (r *FriendRequestRepo) UpdateStatus(ctx context.Context, id string, status domain.RequestStatus) error {
	query := `UPDATE friend_requests SET status = $2 WHERE id = $1`
	exec := GetExecutor(ctx, r.db)
	result, err := exec.ExecContext(ctx, query, id, string(status))
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrRequestNotFound
	}
	return nil
}

func (r *FriendRequestRepo) DeleteRequest(ctx context.Context, id string) error {
	query := `DELETE FROM friend_requests WHERE id = $1`
	exec := GetExecutor(ctx, r.db)
	result, err := exec.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrRequestNotFound
	}
	return nil
}

func (r *FriendRequestRepo) ListPending(ctx context.Context, party domain.UserID) ([]domain.FriendRequest, error) {
	query := `
		SELECT id, sender_id, receiver_id, status, created_at
		FROM friend_requests
		WHERE (sender_id = $1 OR receiver_id = $1) AND status = 'pending'
		ORDER BY created_at DESC
	`
	exec := GetExecutor(ctx, r.db)
	rows, err := exec.QueryContext(ctx, query, party.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.FriendRequest
	for rows.Next() {
		var fr domain.FriendRequest
		var rawSender, rawReceiver, rawStatus string
		if err := rows.Scan(&fr.ID, &rawSender, &rawReceiver, &rawStatus, &fr.CreatedAt); err != nil {
			return nil, err
		}
		if fr.SenderID, err = domain.ParseUserID(rawSender); err != nil {
			return nil, err
		}
		if fr.ReceiverID, err = domain.ParseUserID(rawReceiver); err != nil {
			return nil, err
		}
		fr.Status = domain.RequestStatus(rawStatus)
		out = append(out, fr)
	}
	return out, rows.Err()
}

func scanRequest(row *sql.Row) (*domain.FriendRequest, error) {
	var fr domain.FriendRequest
	var rawSender, rawReceiver, rawStatus string
	err := row.Scan(&fr.ID, &rawSender, &rawReceiver, &rawStatus, &fr.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrRequestNotFound
		}
		return nil, err
	}
	if fr.SenderID, err = domain.ParseUserID(rawSender); err != nil {
		return nil, err
	}
	if fr.ReceiverID, err = domain.ParseUserID(rawReceiver); err != nil {
		return nil, err
	}
	fr.Status = domain.RequestStatus(rawStatus)
	return &fr, nil
}
