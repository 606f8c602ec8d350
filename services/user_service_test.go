package services_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"dm-lab/auth"
	"dm-lab/domain"
	"dm-lab/errors"
	"dm-lab/mocks"
	"dm-lab/repositories"
	"dm-lab/services"
)

func TestUserService_ChangePassword(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockIUserRepository(ctrl)
	mockIndex := mocks.NewMockIUserIndex(ctrl)
	svc := services.NewUserService(slog.Default(), mockRepo, mockIndex, 20)

	currentPassword := "CurrentPass123!"
	hashedPassword, _ := auth.HashPassword(currentPassword)
	stored := repositories.User{ID: "uuid-1", Username: "alice42", PasswordHash: hashedPassword}

	t.Run("should change password with valid current password", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().GetUserByID("uuid-1").Return(stored, nil).Times(1)
		mockRepo.EXPECT().
			UpdatePassword("uuid-1", gomock.Any()).
			DoAndReturn(func(id, newHash string) error {
				// A fresh hash, never the plain text.
				match, err := auth.ComparePassword("NextPassword456!", newHash)
				req.NoError(err)
				req.True(match)
				return nil
			}).
			Times(1)

		req.NoError(svc.ChangePassword("uuid-1", currentPassword, "NextPassword456!"))
	})

	t.Run("should reject a wrong current password", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().GetUserByID("uuid-1").Return(stored, nil).Times(1)
		mockRepo.EXPECT().UpdatePassword(gomock.Any(), gomock.Any()).Times(0)

		err := svc.ChangePassword("uuid-1", "WrongPass123!", "NextPassword456!")
		req.ErrorIs(err, errors.ErrInvalidCredentials)
	})

	t.Run("should reject a weak new password", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().GetUserByID("uuid-1").Return(stored, nil).Times(1)
		mockRepo.EXPECT().UpdatePassword(gomock.Any(), gomock.Any()).Times(0)

		err := svc.ChangePassword("uuid-1", currentPassword, "weak")
		req.ErrorIs(err, errors.ErrInvalidPassword)
	})
}

func TestUserService_SearchUsers(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockIUserRepository(ctrl)
	mockIndex := mocks.NewMockIUserIndex(ctrl)
	svc := services.NewUserService(slog.Default(), mockRepo, mockIndex, 20)

	t.Run("should resolve hits and exclude the requester", func(t *testing.T) {
		req := require.New(t)

		mockIndex.EXPECT().
			Search(gomock.Any(), "ali", 20).
			Return([]string{"me", "alice-id", "alicia-id"}, nil).
			Times(1)
		mockRepo.EXPECT().GetUserByID("alice-id").
			Return(repositories.User{ID: "alice-id", Username: "alice42"}, nil).Times(1)
		mockRepo.EXPECT().GetUserByID("alicia-id").
			Return(repositories.User{ID: "alicia-id", Username: "alicia", Avatar: []byte{1}}, nil).Times(1)

		recipients, err := svc.SearchUsers(context.Background(), "me", "ali")
		req.NoError(err)
		req.Equal([]string{"alice-id", "alicia-id"},
			lo.Map(recipients, func(r domain.Recipient, _ int) string { return r.ID }))
		req.False(recipients[0].HasAvatar)
		req.True(recipients[1].HasAvatar)
	})

	t.Run("should skip dangling index entries", func(t *testing.T) {
		req := require.New(t)

		mockIndex.EXPECT().
			Search(gomock.Any(), "ghost", 20).
			Return([]string{"gone-id"}, nil).
			Times(1)
		mockRepo.EXPECT().GetUserByID("gone-id").
			Return(repositories.User{}, errors.ErrUserNotFound).Times(1)

		recipients, err := svc.SearchUsers(context.Background(), "me", "ghost")
		req.NoError(err)
		req.Empty(recipients)
	})

	t.Run("should short-circuit blank queries", func(t *testing.T) {
		req := require.New(t)

		recipients, err := svc.SearchUsers(context.Background(), "me", "   ")
		req.NoError(err)
		req.Empty(recipients)
	})
}

func TestUserService_GetAvatar(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockIUserRepository(ctrl)
	mockIndex := mocks.NewMockIUserIndex(ctrl)
	svc := services.NewUserService(slog.Default(), mockRepo, mockIndex, 20)

	t.Run("should sniff the content type from the bytes", func(t *testing.T) {
		req := require.New(t)
		pngHeader := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}

		mockRepo.EXPECT().GetUserByID("uuid-1").
			Return(repositories.User{ID: "uuid-1", Avatar: pngHeader}, nil).Times(1)

		data, contentType, err := svc.GetAvatar("uuid-1")
		req.NoError(err)
		req.Equal(pngHeader, data)
		req.Equal("image/png", contentType)
	})

	t.Run("should report missing avatars", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().GetUserByID("uuid-1").
			Return(repositories.User{ID: "uuid-1"}, nil).Times(1)

		_, _, err := svc.GetAvatar("uuid-1")
		req.ErrorIs(err, errors.ErrAvatarNotFound)
	})
}

func TestUserService_UpdateProfile_ReIndexes(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockIUserRepository(ctrl)
	mockIndex := mocks.NewMockIUserIndex(ctrl)
	svc := services.NewUserService(slog.Default(), mockRepo, mockIndex, 20)

	displayName := "Alice In Chains"
	updated := repositories.User{ID: "uuid-1", Username: "alice42", DisplayName: displayName}

	mockRepo.EXPECT().
		UpdateProfile("uuid-1", &displayName, nil).
		Return(updated, nil).
		Times(1)
	mockIndex.EXPECT().Index(updated).Return(nil).Times(1)

	user, err := svc.UpdateProfile("uuid-1", &displayName, nil)
	req.NoError(err)
	req.Equal(displayName, user.DisplayName)
}
