package repository

import (
	"context"
	"errors"

	"rail-portal/internal/domain"
)

var (
	// ErrDuplicateUsername is returned by Create when the username unique index rejects the row.
	ErrDuplicateUsername = errors.New("username already exists")
	// ErrDuplicateEmail is returned by Create when the email unique index rejects the row.
	ErrDuplicateEmail = errors.New("email already exists")
)

// UserRepository defines persistence operations for User entities.
//
// Lookups return (nil, nil) when no user matches; absence is not an error.
type UserRepository interface {
	Init(ctx context.Context) error
	Ping(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) (int64, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}
