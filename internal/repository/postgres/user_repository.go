package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"rail-portal/internal/domain"
	"rail-portal/internal/repository"
)

const (
	uniqueViolationCode = "23505"

	usernameConstraint = "users_username_key"
	emailConstraint    = "users_email_key"
)

const selectUser = `
SELECT id, username, password_hash, email, name, nationality, age, mobile, created_at, updated_at
FROM users
`

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &UserRepository{db: db}
}

// Init brings the schema up to date.
func (r *UserRepository) Init(ctx context.Context) error {
	return Migrate(ctx, r.db)
}

func (r *UserRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (int64, error) {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	var age sql.NullInt64
	if user.Age != nil {
		age = sql.NullInt64{Int64: *user.Age, Valid: true}
	}

	err := r.db.QueryRowContext(ctx, `
INSERT INTO users (username, password_hash, email, name, nationality, age, mobile, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id`,
		user.Username,
		user.PasswordHash,
		user.Email,
		user.Name,
		user.Nationality,
		age,
		user.Mobile,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID)
	if err != nil {
		if dupErr := uniqueViolation(err); dupErr != nil {
			return 0, fmt.Errorf("insert user: %w", dupErr)
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}

	return user.ID, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, selectUser+`WHERE username = $1`, username)
	return scanUser(row)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, selectUser+`WHERE email = $1`, email)
	return scanUser(row)
}

func uniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolationCode {
		return nil
	}
	switch pgErr.ConstraintName {
	case usernameConstraint:
		return repository.ErrDuplicateUsername
	case emailConstraint:
		return repository.ErrDuplicateEmail
	}
	return nil
}

func scanUser(row *sql.Row) (*domain.User, error) {
	var (
		user domain.User
		age  sql.NullInt64
	)
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Email,
		&user.Name,
		&user.Nationality,
		&age,
		&user.Mobile,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	if age.Valid {
		v := age.Int64
		user.Age = &v
	}
	return &user, nil
}
