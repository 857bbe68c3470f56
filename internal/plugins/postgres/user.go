package postgres

import (
	"context"
	"database/sql"

	"duet/internal/core/domain"
)

type UserRepo struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

/*
	-- Users
	CREATE TABLE users (
		id            UUID PRIMARY KEY,
		full_name     TEXT NOT NULL,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		profile_pic   TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	);
*/

func (r *UserRepo) GetUserByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	if id.IsZero() {
		return nil, domain.ErrInvalidUserID
	}
	user := &domain.User{ID: id}
	query := `SELECT full_name, email, password_hash, profile_pic, created_at FROM users WHERE id = $1`
	exec := GetExecutor(ctx, r.db)
	err := exec.QueryRowContext(ctx, query, id.String()).Scan(
		&user.FullName, &user.Email, &user.PasswordHash, &user.ProfilePic, &user.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	user := &domain.User{Email: email}
	var rawID string
	query := `SELECT id, full_name, password_hash, profile_pic, created_at FROM users WHERE email = $1`
	exec := GetExecutor(ctx, r.db)
	err := exec.QueryRowContext(ctx, query, email).Scan(
		&rawID, &user.FullName, &user.PasswordHash, &user.ProfilePic, &user.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	user.ID, err = domain.ParseUserID(rawID)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepo) CreateUser(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (id, full_name, email, password_hash, profile_pic, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	exec := GetExecutor(ctx, r.db)
	_, err := exec.ExecContext(ctx, query,
		u.ID.String(), u.FullName, u.Email, u.PasswordHash, u.ProfilePic, u.CreatedAt,
	)
	return err
}

func (r *UserRepo) ListUsersExcept(ctx context.Context, viewer domain.UserID) ([]domain.User, error) {
	query := `
		SELECT id, full_name, email, profile_pic, created_at
		FROM users
		WHERE id <> $1
		ORDER BY full_name ASC
	`
	exec := GetExecutor(ctx, r.db)
	rows, err := exec.QueryContext(ctx, query, viewer.String())
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
