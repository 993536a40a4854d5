package services

import (
	"log/slog"
	"testing"
	"time"

	"chat-relay/auth"
	"chat-relay/errors"
	"chat-relay/repositories"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func newAuthService(t *testing.T) (*AuthService, *auth.TokenManager) {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).
		WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	users, err := repositories.NewUserRepository(db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = users.Close() })

	tokens := auth.NewTokenManager("test-secret", time.Hour)
	return NewAuthService(slog.Default(), users, tokens), tokens
}

func Test_Register_Then_Login(t *testing.T) {
	req := require.New(t)
	service, tokens := newAuthService(t)

	id, err := service.Register(auth.RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "Sup3r-Secret-Pass!",
	})
	req.NoError(err)
	req.GreaterOrEqual(id, int64(1))

	token, err := service.Login(auth.LoginRequest{Username: "alice", Password: "Sup3r-Secret-Pass!"})
	req.NoError(err)

	claims, err := tokens.Validate(token)
	req.NoError(err)
	req.Equal(id, claims.UserID)
	req.Equal("alice", claims.Username)
	req.False(claims.Admin())
}

func Test_Register_Rejects_Weak_Password(t *testing.T) {
	req := require.New(t)
	service, _ := newAuthService(t)

	_, err := service.Register(auth.RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "alllowercasesecret",
	})
	req.ErrorIs(err, errors.ErrInvalidPassword)
}

func Test_Register_Duplicate_Username(t *testing.T) {
	req := require.New(t)
	service, _ := newAuthService(t)

	_, err := service.Register(auth.RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "Sup3r-Secret-Pass!",
	})
	req.NoError(err)

	_, err = service.Register(auth.RegisterRequest{
		Username: "alice",
		Email:    "other@example.com",
		Password: "Sup3r-Secret-Pass!",
	})
	req.ErrorIs(err, errors.ErrUserAlreadyExists)
}

// Unknown account and wrong password are indistinguishable to callers.
func Test_Login_Failures_Collapse(t *testing.T) {
	req := require.New(t)
	service, _ := newAuthService(t)

	_, err := service.Register(auth.RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "Sup3r-Secret-Pass!",
	})
	req.NoError(err)

	_, err = service.Login(auth.LoginRequest{Username: "alice", Password: "wrong-password"})
	req.ErrorIs(err, errors.ErrInvalidCredentials)

	_, err = service.Login(auth.LoginRequest{Username: "ghost", Password: "Sup3r-Secret-Pass!"})
	req.ErrorIs(err, errors.ErrInvalidCredentials)

	_, err = service.Login(auth.LoginRequest{Username: "", Password: ""})
	req.ErrorIs(err, errors.ErrInvalidCredentials)
}
