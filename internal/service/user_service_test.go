package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"rail-portal/internal/domain"
	"rail-portal/internal/repository"
)

// memoryUsers is an in-memory UserRepository enforcing the same unique indexes as the real stores.
type memoryUsers struct {
	mu      sync.Mutex
	users   []domain.User
	nextID  int64
	creates int

	lookupErr error
	createErr error
	// skipLookups hides stored users from GetBy* to simulate a registration that raced past them.
	skipLookups bool
}

func (m *memoryUsers) Init(context.Context) error { return nil }
func (m *memoryUsers) Ping(context.Context) error { return m.lookupErr }

func (m *memoryUsers) Create(_ context.Context, user *domain.User) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	if m.createErr != nil {
		return 0, m.createErr
	}
	for _, u := range m.users {
		if u.Username == user.Username {
			return 0, repository.ErrDuplicateUsername
		}
		if u.Email == user.Email {
			return 0, repository.ErrDuplicateEmail
		}
	}
	m.nextID++
	user.ID = m.nextID
	m.users = append(m.users, *user)
	return user.ID, nil
}

func (m *memoryUsers) find(match func(domain.User) bool) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	if m.skipLookups {
		return nil, nil
	}
	for _, u := range m.users {
		if match(u) {
			found := u
			return &found, nil
		}
	}
	return nil, nil
}

func (m *memoryUsers) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	return m.find(func(u domain.User) bool { return u.Username == username })
}

func (m *memoryUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return m.find(func(u domain.User) bool { return u.Email == email })
}

func aliceInput() RegisterInput {
	return RegisterInput{
		Username:    "alice",
		Password:    "secret1",
		Email:       "a@x.com",
		Name:        "Alice",
		Nationality: "IN",
		Age:         "30",
		Mobile:      "9999999999",
	}
}

func TestRegister_StoresHashedPassword(t *testing.T) {
	repo := &memoryUsers{}
	svc := NewUserService(repo)

	user, err := svc.Register(context.Background(), aliceInput())
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Empty(t, user.PasswordHash, "returned user must not expose the hash")

	stored, err := repo.GetByUsername(context.Background(), "alice")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.NotEqual(t, "secret1", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secret1")))

	cost, err := bcrypt.Cost([]byte(stored.PasswordHash))
	require.NoError(t, err)
	assert.Equal(t, PasswordCost, cost)

	require.NotNil(t, stored.Age)
	assert.Equal(t, int64(30), *stored.Age)
	assert.Equal(t, "a@x.com", stored.Email)
	assert.Equal(t, "9999999999", stored.Mobile)
}

func TestRegister_Duplicates(t *testing.T) {
	repo := &memoryUsers{}
	svc := NewUserService(repo)
	ctx := context.Background()
	_, err := svc.Register(ctx, aliceInput())
	require.NoError(t, err)

	sameName := aliceInput()
	sameName.Email = "other@x.com"
	sameName.Password = "different"

	sameEmail := aliceInput()
	sameEmail.Username = "alice2"

	// repeated attempts fail the same way and never reach the store
	for i := 0; i < 2; i++ {
		_, err = svc.Register(ctx, sameName)
		assert.ErrorIs(t, err, ErrDuplicateUsername)

		_, err = svc.Register(ctx, sameEmail)
		assert.ErrorIs(t, err, ErrDuplicateEmail)
	}
	assert.Equal(t, 1, repo.creates)
	assert.Len(t, repo.users, 1)
}

func TestRegister_UniqueIndexIsAuthoritative(t *testing.T) {
	repo := &memoryUsers{}
	svc := NewUserService(repo)
	ctx := context.Background()
	_, err := svc.Register(ctx, aliceInput())
	require.NoError(t, err)

	repo.skipLookups = true

	dupName := aliceInput()
	dupName.Email = "new@x.com"
	_, err = svc.Register(ctx, dupName)
	assert.ErrorIs(t, err, ErrDuplicateUsername)

	dupEmail := aliceInput()
	dupEmail.Username = "bob"
	_, err = svc.Register(ctx, dupEmail)
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestRegister_StorageFailures(t *testing.T) {
	boom := errors.New("connection refused")

	t.Run("lookup", func(t *testing.T) {
		svc := NewUserService(&memoryUsers{lookupErr: boom})
		_, err := svc.Register(context.Background(), aliceInput())
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, ErrDuplicateUsername)
	})

	t.Run("create", func(t *testing.T) {
		svc := NewUserService(&memoryUsers{createErr: boom})
		_, err := svc.Register(context.Background(), aliceInput())
		assert.ErrorIs(t, err, boom)
	})
}

func TestRegister_NonNumericAgeIsStored(t *testing.T) {
	repo := &memoryUsers{}
	svc := NewUserService(repo)

	in := aliceInput()
	in.Age = "thirty"
	_, err := svc.Register(context.Background(), in)
	require.NoError(t, err)

	stored, _ := repo.GetByUsername(context.Background(), "alice")
	require.NotNil(t, stored)
	assert.Nil(t, stored.Age)
}

func TestAuthenticate(t *testing.T) {
	repo := &memoryUsers{}
	svc := NewUserService(repo)
	ctx := context.Background()
	_, err := svc.Register(ctx, aliceInput())
	require.NoError(t, err)

	user, err := svc.Authenticate(ctx, "alice", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Empty(t, user.PasswordHash)

	_, wrongPassword := svc.Authenticate(ctx, "alice", "wrong")
	_, unknownUser := svc.Authenticate(ctx, "mallory", "secret1")
	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownUser, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword, unknownUser)
}

func TestRegister_LongPasswordRoundTrip(t *testing.T) {
	repo := &memoryUsers{}
	svc := NewUserService(repo)
	ctx := context.Background()

	long := strings.Repeat("p", 73)
	in := aliceInput()
	in.Password = long
	_, err := svc.Register(ctx, in)
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, "alice", long)
	assert.NoError(t, err)

	// only the first 72 bytes take part in the comparison
	_, err = svc.Authenticate(ctx, "alice", strings.Repeat("p", 72)+"x")
	assert.NoError(t, err)

	_, err = svc.Authenticate(ctx, "alice", strings.Repeat("p", 71))
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticate_StorageFailure(t *testing.T) {
	boom := errors.New("timeout")
	svc := NewUserService(&memoryUsers{lookupErr: boom})

	_, err := svc.Authenticate(context.Background(), "alice", "secret1")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestParseAge(t *testing.T) {
	tests := []struct {
		raw  string
		want *int64
	}{
		{"30", int64Ptr(30)},
		{"  42", int64Ptr(42)},
		{"30abc", int64Ptr(30)},
		{"30.9", int64Ptr(30)},
		{"+7", int64Ptr(7)},
		{"-3", int64Ptr(-3)},
		{"007", int64Ptr(7)},
		{"", nil},
		{"abc", nil},
		{"-", nil},
		{"2147483648", int64Ptr(2147483648)},
		{"9223372036854775807", int64Ptr(9223372036854775807)},
		{"99999999999999999999", nil},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseAge(tt.raw))
		})
	}
}

func int64Ptr(v int64) *int64 { return &v }
