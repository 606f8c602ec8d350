package services_test

import (
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"dm-lab/auth"
	"dm-lab/errors"
	"dm-lab/mocks"
	"dm-lab/repositories"
	"dm-lab/services"
)

func TestAuthService_Register(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockIUserRepository(ctrl)
	mockIndex := mocks.NewMockIUserIndex(ctrl)
	svc := services.NewAuthService(slog.Default(), mockRepo, mockIndex, 24*time.Hour)

	t.Run("should register successfully when input is valid", func(t *testing.T) {
		req := require.New(t)
		password := "ComplexPass123!"

		// CreateUser receives a hashed password, never the plain one.
		mockRepo.EXPECT().
			CreateUser(gomock.Any()).
			DoAndReturn(func(user repositories.User) error {
				req.Equal("alice42", user.Username)
				req.NotEqual(password, user.PasswordHash)
				req.NotEmpty(user.ID)
				return nil
			}).
			Times(1)
		mockIndex.EXPECT().Index(gomock.Any()).Return(nil).Times(1)

		user, token, err := svc.Register("alice42", "Alice", password)

		req.NoError(err)
		req.NotEmpty(token)
		req.Equal("alice42", user.Username)

		claims, err := auth.ValidateToken(string(token))
		req.NoError(err)
		req.Equal(user.ID, claims.UserID)
	})

	t.Run("should fail when password complexity is not met", func(t *testing.T) {
		req := require.New(t)

		// Repository is never reached
		mockRepo.EXPECT().CreateUser(gomock.Any()).Times(0)

		_, token, err := svc.Register("alice42", "Alice", "simple")

		req.ErrorIs(err, errors.ErrInvalidPassword)
		req.Empty(token)
	})

	t.Run("should fail when username is taken", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().
			CreateUser(gomock.Any()).
			Return(errors.ErrUsernameExists).
			Times(1)

		_, _, err := svc.Register("duplicate1", "Dup", "ComplexPass123!")

		req.ErrorIs(err, errors.ErrUsernameExists)
	})

	t.Run("should register even when indexing fails", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().CreateUser(gomock.Any()).Return(nil).Times(1)
		mockIndex.EXPECT().Index(gomock.Any()).Return(fmt.Errorf("index writer closed")).Times(1)

		_, token, err := svc.Register("bob12345", "Bob", "ComplexPass123!")

		req.NoError(err)
		req.NotEmpty(token)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockIUserRepository(ctrl)
	mockIndex := mocks.NewMockIUserIndex(ctrl)
	svc := services.NewAuthService(slog.Default(), mockRepo, mockIndex, 24*time.Hour)

	t.Run("should login successfully with correct credentials", func(t *testing.T) {
		req := require.New(t)
		password := "Secret123456!"

		hashedPassword, _ := auth.HashPassword(password)
		storedUser := repositories.User{
			ID:           "uuid-123",
			Username:     "alice42",
			PasswordHash: hashedPassword,
		}

		mockRepo.EXPECT().
			GetUserByUsername("alice42").
			Return(storedUser, nil).
			Times(1)

		user, token, err := svc.Login("alice42", password)

		req.NoError(err)
		req.NotEmpty(token)
		req.Equal(storedUser.ID, user.ID)

		claims, err := auth.ValidateToken(string(token))
		req.NoError(err)
		req.Equal(storedUser.ID, claims.UserID)
	})

	t.Run("should return invalid credentials on wrong password", func(t *testing.T) {
		req := require.New(t)

		hashedPassword, _ := auth.HashPassword("CorrectPassword123!")
		storedUser := repositories.User{
			Username:     "alice42",
			PasswordHash: hashedPassword,
		}

		mockRepo.EXPECT().
			GetUserByUsername("alice42").
			Return(storedUser, nil).
			Times(1)

		_, _, err := svc.Login("alice42", "WrongPassword123!")

		req.ErrorIs(err, errors.ErrInvalidCredentials)
	})

	t.Run("should return invalid credentials when user is not found", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().
			GetUserByUsername("unknown").
			Return(repositories.User{}, errors.ErrUserNotFound).
			Times(1)

		_, _, err := svc.Login("unknown", "anyPassword")

		// Same error as a wrong password: no user enumeration.
		req.ErrorIs(err, errors.ErrInvalidCredentials)
	})
}
