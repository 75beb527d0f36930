package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sqlitedrv "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"rail-portal/internal/domain"
	"rail-portal/internal/repository"
)

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL DEFAULT '',
	nationality TEXT NOT NULL DEFAULT '',
	age INTEGER,
	mobile TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
`

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

func (r *UserRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createUsersTable); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	return nil
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

	res, err := r.db.ExecContext(ctx, `
INSERT INTO users (username, password_hash, email, name, nationality, age, mobile, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.Username,
		user.PasswordHash,
		user.Email,
		user.Name,
		user.Nationality,
		age,
		user.Mobile,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if dupErr := uniqueViolation(err); dupErr != nil {
			return 0, fmt.Errorf("insert user: %w", dupErr)
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("user last insert id: %w", err)
	}
	user.ID = id
	return id, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, selectUser+`WHERE username = ?`, username)
	return scanUser(row)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, selectUser+`WHERE email = ?`, email)
	return scanUser(row)
}

// uniqueViolation maps a UNIQUE constraint failure to the repository sentinel for the offending column.
func uniqueViolation(err error) error {
	var sqliteErr *sqlitedrv.Error
	if !errors.As(err, &sqliteErr) || sqliteErr.Code()&0xff != sqlite3.SQLITE_CONSTRAINT {
		return nil
	}
	msg := sqliteErr.Error()
	if !strings.Contains(msg, "UNIQUE") {
		return nil
	}
	switch {
	case strings.Contains(msg, "users.username"):
		return repository.ErrDuplicateUsername
	case strings.Contains(msg, "users.email"):
		return repository.ErrDuplicateEmail
	}
	return nil
}

func scanUser(row interface {
	Scan(dest ...any) error
}) (*domain.User, error) {
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
