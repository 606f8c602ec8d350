//go:generate go run go.uber.org/mock/mockgen -source=auth_service.go -destination=../mocks/mock_auth_service.go -package=mocks
package services

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"dm-lab/auth"
	"dm-lab/domain"
	"dm-lab/errors"
	"dm-lab/repositories"
)

type IAuthService interface {
	Register(username, displayName, password string) (domain.User, Token, error)
	Login(username, password string) (domain.User, Token, error)
}

type Token string

type AuthService struct {
	log           *slog.Logger
	users         repositories.IUserRepository
	index         repositories.IUserIndex
	tokenDuration time.Duration
}

func NewAuthService(log *slog.Logger, users repositories.IUserRepository,
	index repositories.IUserIndex, tokenDuration time.Duration) IAuthService {
	return &AuthService{log: log, users: users, index: index, tokenDuration: tokenDuration}
}

func (s *AuthService) Register(username, displayName, password string) (domain.User, Token, error) {
	valReq := auth.RegisterRequest{
		Username:    username,
		DisplayName: displayName,
		Password:    password,
	}

	// Business rules first, before any expensive cryptographic operation.
	if err := auth.ValidateRegister(valReq); err != nil {
		return domain.User{}, "", fmt.Errorf("%w: %v", errors.ErrInvalidPassword, err)
	}

	// Hashing happens in the service layer to keep the repository unaware
	// of plain passwords.
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("hashing failed: %w", err)
	}

	now := time.Now().UTC()
	user := repositories.User{
		ID:           uuid.NewString(),
		Username:     username,
		DisplayName:  displayName,
		PasswordHash: hashedPassword,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.CreateUser(user); err != nil {
		return domain.User{}, "", err // Propagates ErrUsernameExists if the name is taken
	}

	// The search index is secondary; a failed indexing never fails the
	// registration.
	if err := s.index.Index(user); err != nil {
		s.log.Warn("Failed to index new user", "user_id", user.ID, "error", err)
	}

	token, err := auth.GenerateToken(user.ID, s.tokenDuration)
	if err != nil {
		return domain.User{}, "", errors.ErrTokenGeneration
	}

	return toDomainUser(user), Token(token), nil
}

func (s *AuthService) Login(username, password string) (domain.User, Token, error) {
	user, err := s.users.GetUserByUsername(username)
	if err != nil {
		// Generic error to prevent user enumeration attacks
		return domain.User{}, "", errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return domain.User{}, "", errors.ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(user.ID, s.tokenDuration)
	if err != nil {
		return domain.User{}, "", errors.ErrTokenGeneration
	}

	return toDomainUser(user), Token(token), nil
}

func toDomainUser(user repositories.User) domain.User {
	return domain.User{
		ID:          user.ID,
		Username:    user.Username,
		DisplayName: user.DisplayName,
		Avatar:      user.Avatar,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}
}
