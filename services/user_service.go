//go:generate go run go.uber.org/mock/mockgen -source=user_service.go -destination=../mocks/mock_user_service.go -package=mocks
package services

import (
	"context"
	"log/slog"
	"strings"

	stderrors "errors"

	"github.com/gabriel-vasile/mimetype"

	"dm-lab/auth"
	"dm-lab/domain"
	"dm-lab/errors"
	"dm-lab/repositories"
)

type IUserService interface {
	GetProfile(userID string) (domain.User, error)
	UpdateProfile(userID string, displayName *string, avatar []byte) (domain.User, error)
	ChangePassword(userID, currentPassword, newPassword string) error
	SearchUsers(ctx context.Context, requesterID, query string) ([]domain.Recipient, error)
	GetAvatar(userID string) ([]byte, string, error)
}

type UserService struct {
	log         *slog.Logger
	users       repositories.IUserRepository
	index       repositories.IUserIndex
	searchLimit int
}

func NewUserService(log *slog.Logger, users repositories.IUserRepository,
	index repositories.IUserIndex, searchLimit int) IUserService {
	return &UserService{log: log, users: users, index: index, searchLimit: searchLimit}
}

func (s *UserService) GetProfile(userID string) (domain.User, error) {
	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return domain.User{}, err
	}
	return toDomainUser(user), nil
}

// UpdateProfile applies a partial update and re-indexes the user so search
// reflects the new display name immediately.
func (s *UserService) UpdateProfile(userID string, displayName *string, avatar []byte) (domain.User, error) {
	user, err := s.users.UpdateProfile(userID, displayName, avatar)
	if err != nil {
		return domain.User{}, err
	}
	if err := s.index.Index(user); err != nil {
		s.log.Warn("Failed to re-index user after profile update", "user_id", userID, "error", err)
	}
	return toDomainUser(user), nil
}

func (s *UserService) ChangePassword(userID, currentPassword, newPassword string) error {
	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return err
	}

	match, err := auth.ComparePassword(currentPassword, user.PasswordHash)
	if err != nil || !match {
		return errors.ErrInvalidCredentials
	}

	if err := auth.ValidatePassword(newPassword); err != nil {
		if stderrors.Is(err, errors.ErrInvalidPassword) {
			return err
		}
		return errors.ErrInvalidPassword
	}

	hashedPassword, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(userID, hashedPassword)
}

// SearchUsers resolves index hits back to user records. The requester is
// excluded from results; dangling index entries are skipped, not errors.
func (s *UserService) SearchUsers(ctx context.Context, requesterID, query string) ([]domain.Recipient, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	ids, err := s.index.Search(ctx, query, s.searchLimit)
	if err != nil {
		return nil, err
	}

	var recipients []domain.Recipient
	for _, id := range ids {
		if id == requesterID {
			continue
		}
		user, err := s.users.GetUserByID(id)
		if err != nil {
			if stderrors.Is(err, errors.ErrUserNotFound) {
				s.log.Warn("Search index entry without user record", "user_id", id)
				continue
			}
			return nil, err
		}
		recipients = append(recipients, toDomainUser(user).AsRecipient())
	}
	return recipients, nil
}

// GetAvatar returns the raw avatar bytes and a sniffed content type.
// The type is detected from the bytes, never trusted from upload time.
func (s *UserService) GetAvatar(userID string) ([]byte, string, error) {
	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return nil, "", err
	}
	if len(user.Avatar) == 0 {
		return nil, "", errors.ErrAvatarNotFound
	}
	return user.Avatar, mimetype.Detect(user.Avatar).String(), nil
}
