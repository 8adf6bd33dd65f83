package repository

import (
	"context"
	"time"
)

// User is a registered owner allowed to track artists.
type User struct {
	UserID       string
	Username     string
	RegisteredAt time.Time
}

// UserRepository persists registered users.
type UserRepository interface {
	Get(ctx context.Context, userID string) (*User, error)
	Create(ctx context.Context, user *User) error
	Exists(ctx context.Context, userID string) (bool, error)
}
