package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"release-radar/internal/repository"
)

type UserRepo struct{ db *sql.DB }

func NewUserRepo(db *sql.DB) repository.UserRepository {
	return &UserRepo{db: db}
}

func (repo *UserRepo) Get(ctx context.Context, userID string) (*repository.User, error) {
	const query = `
SELECT user_id, username, registered_at
FROM users
WHERE user_id = $1
LIMIT 1`
	var user repository.User
	err := repo.db.QueryRowContext(ctx, query, userID).Scan(
		&user.UserID, &user.Username, &user.RegisteredAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return &user, nil
}

func (repo *UserRepo) Create(ctx context.Context, user *repository.User) error {
	const query = `
INSERT INTO users (user_id, username)
VALUES ($1, $2)
ON CONFLICT (user_id) DO NOTHING`
	_, err := repo.db.ExecContext(ctx, query, user.UserID, user.Username)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (repo *UserRepo) Exists(ctx context.Context, userID string) (bool, error) {
	const query = `SELECT 1 FROM users WHERE user_id = $1 LIMIT 1`
	var one int
	err := repo.db.QueryRowContext(ctx, query, userID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("Exists: %w", err)
	}
	return true, nil
}
