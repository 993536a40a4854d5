//go:generate go run go.uber.org/mock/mockgen -source=auth_service.go -destination=../mocks/mock_auth_service.go -package=mocks
package services

import (
	"log/slog"

	"chat-relay/auth"
	"chat-relay/errors"
	"chat-relay/repositories"
)

type IAuthService interface {
	Register(req auth.RegisterRequest) (int64, error)
	Login(req auth.LoginRequest) (string, error)
}

type AuthService struct {
	log    *slog.Logger
	users  repositories.IUserRepository
	tokens *auth.TokenManager
}

func NewAuthService(log *slog.Logger, users repositories.IUserRepository, tokens *auth.TokenManager) *AuthService {
	return &AuthService{log: log, users: users, tokens: tokens}
}

// Register validates the request, hashes the password and stores the
// account. Returns the new numeric user id.
func (s *AuthService) Register(req auth.RegisterRequest) (int64, error) {
	if err := auth.ValidateRegister(req); err != nil {
		return 0, err
	}
	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		return 0, err
	}
	id, err := s.users.CreateUser(req.Username, req.Email, hashed)
	if err != nil {
		return 0, err
	}
	s.log.Info("Account created", "username", req.Username)
	return id, nil
}

// Login verifies the credentials and returns a signed session token.
// All failure modes collapse into ErrInvalidCredentials so callers
// cannot probe which part was wrong.
func (s *AuthService) Login(req auth.LoginRequest) (string, error) {
	if err := auth.ValidateLogin(req); err != nil {
		return "", errors.ErrInvalidCredentials
	}
	user, err := s.users.GetUserByUsername(req.Username)
	if err != nil {
		return "", errors.ErrInvalidCredentials
	}
	match, err := auth.ComparePassword(req.Password, user.PasswordHash)
	if err != nil || !match {
		return "", errors.ErrInvalidCredentials
	}
	return s.tokens.Generate(user.ID, user.Username, user.Roles)
}
