package postgres

import (
	"context"
	"database/sql"

	"duet/internal/core/domain"
)

type FriendshipRepo struct {
	db *sql.DB
}

func NewFriendshipRepo(db *sql.DB) *FriendshipRepo {
	return &FriendshipRepo{db: db}
}

/*
	-- Friendships: one row per unordered pair, lower id first
	CREATE TABLE friendships (
		user_a     UUID NOT NULL REFERENCES users(id),
		user_b     UUID NOT NULL REFERENCES users(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (user_a, user_b),
		CHECK (user_a < user_b)
	);
*/

func orderPair(a, b domain.UserID) (domain.UserID, domain.UserID) {
	if a < b {
		return a, b
	}
	return b, a
}

func (r *FriendshipRepo) AreFriends(ctx context.Context, a, b domain.UserID) (bool, error) {
	lo, hi := orderPair(a, b)
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM friendships WHERE user_a = $1 AND user_b = $2)`
	exec := GetExecutor(ctx, r.db)
	if err := exec.QueryRowContext(ctx, query, lo.String(), hi.String()).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *FriendshipRepo) CreateFriendship(ctx context.Context, a, b domain.UserID) error {
	lo, hi := orderPair(a, b)
	query := `
		INSERT INTO friendships (user_a, user_b)
		VALUES ($1, $2)
		ON CONFLICT (user_a, user_b) DO NOTHING
	`
	exec := GetExecutor(ctx, r.db)
	_, err := exec.ExecContext(ctx, query, lo.String(), hi.String())
	return err
}

func (r *FriendshipRepo) ListFriends(ctx context.Context, id domain.UserID) ([]domain.User, error) {
	query := `
		SELECT u.id, u.full_name, u.email, u.profile_pic, u.created_at
		FROM friendships f
		JOIN users u ON u.id = CASE WHEN f.user_a = $1 THEN f.user_b ELSE f.user_a END
		WHERE f.user_a = $1 OR f.user_b = $1
		ORDER BY u.full_name ASC
	`
	exec := GetExecutor(ctx, r.db)
	rows, err := exec.QueryContext(ctx, query, id.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []domain.User
	for rows.Next() {
		var u domain.User
		var rawID string
		if err := rows.Scan(&rawID, &u.FullName, &u.Email, &u.ProfilePic, &u.CreatedAt); err != nil {
			return nil, err
		}
		if u.ID, err = domain.ParseUserID(rawID); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
