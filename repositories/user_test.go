package repositories

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

	"dm-lab/errors"
)

func TestUserRepository_CreateAndGet(t *testing.T) {
	req := require.New(t)
	db := newTestDB(t)

	alice := seedUser(t, db, "alice")
	repository := NewUserRepository(db)

	byID, err := repository.GetUserByID(alice.ID)
	req.NoError(err)
	req.Equal(alice.Username, byID.Username)
	req.Equal(alice.PasswordHash, byID.PasswordHash)

	byName, err := repository.GetUserByUsername("alice")
	req.NoError(err)
	req.Equal(alice.ID, byName.ID)
}

func TestUserRepository_DuplicateUsername(t *testing.T) {
	req := require.New(t)
	db := newTestDB(t)

	alice := seedUser(t, db, "alice")
	repository := NewUserRepository(db)

	clone := alice
	clone.ID = "another-id"
	err := repository.CreateUser(clone)
	req.ErrorIs(err, errors.ErrUsernameExists)

	// The original record is untouched.
	byName, err := repository.GetUserByUsername("alice")
	req.NoError(err)
	req.Equal(alice.ID, byName.ID)
}

func TestUserRepository_GetUnknown(t *testing.T) {
	req := require.New(t)
	db := newTestDB(t)
	repository := NewUserRepository(db)

	_, err := repository.GetUserByID("nope")
	req.ErrorIs(err, errors.ErrUserNotFound)

	_, err = repository.GetUserByUsername("nope")
	req.ErrorIs(err, errors.ErrUserNotFound)
}

func TestUserRepository_UpdateProfilePartial(t *testing.T) {
	req := require.New(t)
	db := newTestDB(t)

	alice := seedUser(t, db, "alice")
	repository := NewUserRepository(db)

	updated, err := repository.UpdateProfile(alice.ID, lo.ToPtr("Alice In Chains"), nil)
	req.NoError(err)
	req.Equal("Alice In Chains", updated.DisplayName)
	req.Equal(alice.Username, updated.Username)
	req.Empty(updated.Avatar)

	avatar := []byte{0x89, 0x50, 0x4e, 0x47}
	updated, err = repository.UpdateProfile(alice.ID, nil, avatar)
	req.NoError(err)
	req.Equal("Alice In Chains", updated.DisplayName)
	req.Equal(avatar, updated.Avatar)
}

func TestUserRepository_UpdatePassword(t *testing.T) {
	req := require.New(t)
	db := newTestDB(t)

	alice := seedUser(t, db, "alice")
	repository := NewUserRepository(db)

	req.NoError(repository.UpdatePassword(alice.ID, "$argon2id$new"))

	stored, err := repository.GetUserByID(alice.ID)
	req.NoError(err)
	req.Equal("$argon2id$new", stored.PasswordHash)
}
