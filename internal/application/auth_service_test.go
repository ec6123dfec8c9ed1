package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/go-invoice-dashboard/internal/domain/entity"
	repo "github.com/oksasatya/go-invoice-dashboard/internal/domain/repository"
	"github.com/oksasatya/go-invoice-dashboard/pkg/helpers"
)

type mockUserRepo struct {
	byEmail map[string]*entity.User
	byID    map[string]*entity.User

	getByEmailErr   error
	getByEmailCalls int
}

func newMockUserRepo(users ...*entity.User) *mockUserRepo {
	m := &mockUserRepo{byEmail: map[string]*entity.User{}, byID: map[string]*entity.User{}}
	for _, u := range users {
		m.byEmail[u.Email] = u
		m.byID[u.ID] = u
	}
	return m
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	m.getByEmailCalls++
	if m.getByEmailErr != nil {
		return nil, m.getByEmailErr
	}
	if u, ok := m.byEmail[email]; ok {
		return u, nil
	}
	return nil, repo.ErrNotFound
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return nil, repo.ErrNotFound
}

func testUser(t *testing.T) *entity.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("123456"), bcrypt.MinCost)
	require.NoError(t, err)
	return &entity.User{ID: "u1", Email: "user@nextmail.com", Password: string(hash), Name: "User"}
}

func setupAuthService(t *testing.T, users *mockUserRepo) (*AuthService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	jwt := helpers.NewJWTManager("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
	return NewAuthService(users, jwt, rdb, nil), mr
}

func TestAuthenticate(t *testing.T) {
	t.Run("correct credentials return the user", func(t *testing.T) {
		users := newMockUserRepo(testUser(t))
		svc, _ := setupAuthService(t, users)

		u, err := svc.Authenticate(context.Background(), "user@nextmail.com", "123456")

		require.NoError(t, err)
		assert.Equal(t, "u1", u.ID)
	})

	t.Run("unknown email and wrong password are indistinguishable", func(t *testing.T) {
		users := newMockUserRepo(testUser(t))
		svc, _ := setupAuthService(t, users)

		_, errUnknown := svc.Authenticate(context.Background(), "nobody@nextmail.com", "123456")
		_, errWrong := svc.Authenticate(context.Background(), "user@nextmail.com", "hunter2")

		assert.ErrorIs(t, errUnknown, ErrInvalidCredentials)
		assert.ErrorIs(t, errWrong, ErrInvalidCredentials)
		assert.Equal(t, errUnknown, errWrong)
	})

	t.Run("malformed input is rejected before the store is consulted", func(t *testing.T) {
		users := newMockUserRepo(testUser(t))
		svc, _ := setupAuthService(t, users)

		_, errEmail := svc.Authenticate(context.Background(), "not-an-email", "123456")
		_, errShort := svc.Authenticate(context.Background(), "user@nextmail.com", "12345")
		_, errEmpty := svc.Authenticate(context.Background(), "", "")

		assert.ErrorIs(t, errEmail, ErrInvalidCredentials)
		assert.ErrorIs(t, errShort, ErrInvalidCredentials)
		assert.ErrorIs(t, errEmpty, ErrInvalidCredentials)
		assert.Zero(t, users.getByEmailCalls)
	})

	t.Run("store failure passes through untouched", func(t *testing.T) {
		users := newMockUserRepo()
		users.getByEmailErr = errors.New("connection refused")
		svc, _ := setupAuthService(t, users)

		_, err := svc.Authenticate(context.Background(), "user@nextmail.com", "123456")

		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrInvalidCredentials)
		assert.EqualError(t, err, "connection refused")
	})
}

func TestIssueTokens(t *testing.T) {
	u := &entity.User{ID: "u1", Email: "user@nextmail.com", Name: "User"}

	t.Run("records a session keyed by user id", func(t *testing.T) {
		svc, mr := setupAuthService(t, newMockUserRepo())

		pair, err := svc.IssueTokens(context.Background(), u)

		require.NoError(t, err)
		assert.NotEmpty(t, pair.AccessToken)
		assert.NotEmpty(t, pair.RefreshToken)
		assert.True(t, pair.RefreshTokenExpiry.After(pair.AccessTokenExpiry))

		assert.Equal(t, "u1", mr.HGet("user:session:u1", "user_id"))
		assert.NotEmpty(t, mr.HGet("user:session:u1", "sid"))
	})

	t.Run("session id matches the token claims", func(t *testing.T) {
		svc, mr := setupAuthService(t, newMockUserRepo())

		pair, err := svc.IssueTokens(context.Background(), u)
		require.NoError(t, err)

		claims, err := svc.JWT.ParseAccessToken(pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "u1", claims.UserID)
		assert.Equal(t, mr.HGet("user:session:u1", "sid"), claims.SessionID)
	})
}

func TestRefresh(t *testing.T) {
	t.Run("rotates session id and both tokens", func(t *testing.T) {
		users := newMockUserRepo(testUser(t))
		svc, mr := setupAuthService(t, users)

		_, pair, err := svc.Login(context.Background(), "user@nextmail.com", "123456")
		require.NoError(t, err)
		oldSID := mr.HGet("user:session:u1", "sid")

		newPair, userID, err := svc.Refresh(context.Background(), pair.RefreshToken)

		require.NoError(t, err)
		assert.Equal(t, "u1", userID)
		assert.NotEqual(t, pair.RefreshToken, newPair.RefreshToken)
		assert.NotEqual(t, oldSID, mr.HGet("user:session:u1", "sid"))
	})

	t.Run("refresh token from a replaced session is rejected", func(t *testing.T) {
		users := newMockUserRepo(testUser(t))
		svc, _ := setupAuthService(t, users)

		_, firstPair, err := svc.Login(context.Background(), "user@nextmail.com", "123456")
		require.NoError(t, err)
		_, _, err = svc.Login(context.Background(), "user@nextmail.com", "123456")
		require.NoError(t, err)

		_, _, err = svc.Refresh(context.Background(), firstPair.RefreshToken)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		svc, _ := setupAuthService(t, newMockUserRepo())

		_, _, err := svc.Refresh(context.Background(), "not.a.jwt")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestLogout(t *testing.T) {
	users := newMockUserRepo(testUser(t))
	svc, mr := setupAuthService(t, users)

	_, _, err := svc.Login(context.Background(), "user@nextmail.com", "123456")
	require.NoError(t, err)
	require.True(t, mr.Exists("user:session:u1"))

	svc.Logout(context.Background(), "u1")
	assert.False(t, mr.Exists("user:session:u1"))
}
