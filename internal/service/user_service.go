package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"rail-portal/internal/domain"
	"rail-portal/internal/repository"
)

// PasswordCost is the bcrypt work factor applied to every stored password.
const PasswordCost = 10

const maxPasswordBytes = 72

var (
	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	// It is returned for unknown usernames and wrong passwords alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrDuplicateUsername is returned when attempting to register with an existing username.
	ErrDuplicateUsername = errors.New("username already exists")
	// ErrDuplicateEmail is returned when attempting to register with an existing email.
	ErrDuplicateEmail = errors.New("email already exists")
)

// RegisterInput carries the registration form as submitted.
type RegisterInput struct {
	Username    string
	Password    string
	Email       string
	Name        string
	Nationality string
	Age         string
	Mobile      string
}

// UserService describes user lifecycle operations.
type UserService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
	Ping(ctx context.Context) error
}

type userService struct {
	users repository.UserRepository
}

func NewUserService(users repository.UserRepository) UserService {
	return &userService{users: users}
}

func (s *userService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	existing, err := s.users.GetByUsername(ctx, in.Username)
	if err != nil {
		return nil, fmt.Errorf("lookup username: %w", err)
	}
	if existing != nil {
		return nil, ErrDuplicateUsername
	}

	existing, err = s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	if existing != nil {
		return nil, ErrDuplicateEmail
	}

	hash, err := bcrypt.GenerateFromPassword(passwordBytes(in.Password), PasswordCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Username:     in.Username,
		PasswordHash: string(hash),
		Email:        in.Email,
		Name:         in.Name,
		Nationality:  in.Nationality,
		Age:          ParseAge(in.Age),
		Mobile:       in.Mobile,
	}

	// the unique indexes settle registrations that raced past the lookups above
	if _, err := s.users.Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateUsername):
			return nil, ErrDuplicateUsername
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return sanitizeUser(user), nil
}

func (s *userService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("lookup username: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), passwordBytes(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return sanitizeUser(user), nil
}

func (s *userService) Ping(ctx context.Context) error {
	return s.users.Ping(ctx)
}

// ParseAge reads the leading integer of raw, ignoring leading whitespace and
// anything after the digits. It returns nil when raw does not start with a number
// or the number does not fit in an int64.
func ParseAge(raw string) *int64 {
	s := strings.TrimLeft(raw, " \t\n\r\v\f")
	if s == "" {
		return nil
	}

	negative := false
	switch s[0] {
	case '-':
		negative = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	digits := 0
	for digits < len(s) && s[digits] >= '0' && s[digits] <= '9' {
		digits++
	}
	if digits == 0 {
		return nil
	}

	n, err := strconv.ParseInt(s[:digits], 10, 64)
	if err != nil {
		return nil
	}
	if negative {
		n = -n
	}
	return &n
}

// passwordBytes keeps the first 72 bytes, the most bcrypt reads; longer
// passwords hash and compare on that prefix.
func passwordBytes(password string) []byte {
	b := []byte(password)
	if len(b) > maxPasswordBytes {
		b = b[:maxPasswordBytes]
	}
	return b
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	clone := *user
	clone.PasswordHash = ""
	return &clone
}
