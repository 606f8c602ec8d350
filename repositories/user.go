//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	stderrors "errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"dm-lab/errors"
)

type IUserRepository interface {
	CreateUser(user User) error
	GetUserByID(id string) (User, error)
	GetUserByUsername(username string) (User, error)
	UpdateProfile(id string, displayName *string, avatar []byte) (User, error)
	UpdatePassword(id, passwordHash string) error
}

// User is the repository-level representation of an account row.
// PasswordHash stays inside the service layer; transport works with
// domain projections.
type User struct {
	ID           string
	Username     string
	DisplayName  string
	PasswordHash string
	Avatar       []byte
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) *UserRepository {
	return &UserRepository{db: db}
}

func userKey(id string) []byte       { return []byte("user:id:" + id) }
func usernameKey(name string) []byte { return []byte("user:name:" + name) }

// CreateUser persists the user and claims its username in the same
// transaction. The username key doubles as the uniqueness constraint:
// check-then-set inside one txn keeps concurrent registrations from
// double-inserting.
func (u *UserRepository) CreateUser(user User) error {
	data, err := marshalValue(user)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}

	return u.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(usernameKey(user.Username)); err == nil {
			return errors.ErrUsernameExists
		}
		if err := txn.Set(usernameKey(user.Username), []byte(user.ID)); err != nil {
			return err
		}
		return txn.Set(userKey(user.ID), data)
	})
}

func (u *UserRepository) GetUserByID(id string) (User, error) {
	var user User
	err := u.db.View(func(txn *badger.Txn) error {
		return readUser(txn, id, &user)
	})
	return user, err
}

func (u *UserRepository) GetUserByUsername(username string) (User, error) {
	var user User
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(usernameKey(username))
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return errors.ErrUserNotFound
		}
		if err != nil {
			return err
		}
		var id string
		if err := item.Value(func(val []byte) error {
			id = string(val)
			return nil
		}); err != nil {
			return err
		}
		return readUser(txn, id, &user)
	})
	return user, err
}

// UpdateProfile applies the provided fields only: a nil displayName leaves
// the current value intact, nil avatar keeps the stored one. Usernames are
// immutable after creation.
func (u *UserRepository) UpdateProfile(id string, displayName *string, avatar []byte) (User, error) {
	var updated User
	err := u.db.Update(func(txn *badger.Txn) error {
		var user User
		if err := readUser(txn, id, &user); err != nil {
			return err
		}
		if displayName != nil {
			user.DisplayName = *displayName
		}
		if avatar != nil {
			user.Avatar = avatar
		}
		user.UpdatedAt = time.Now().UTC()
		data, err := marshalValue(user)
		if err != nil {
			return fmt.Errorf("marshal failed: %w", err)
		}
		updated = user
		return txn.Set(userKey(id), data)
	})
	return updated, err
}

func (u *UserRepository) UpdatePassword(id, passwordHash string) error {
	return u.db.Update(func(txn *badger.Txn) error {
		var user User
		if err := readUser(txn, id, &user); err != nil {
			return err
		}
		user.PasswordHash = passwordHash
		user.UpdatedAt = time.Now().UTC()
		data, err := marshalValue(user)
		if err != nil {
			return fmt.Errorf("marshal failed: %w", err)
		}
		return txn.Set(userKey(id), data)
	})
}

// readUser is shared with the conversation repository, which joins
// participant rows against user records inside its own transactions.
func readUser(txn *badger.Txn, id string, out *User) error {
	item, err := txn.Get(userKey(id))
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return errors.ErrUserNotFound
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return unmarshalValue(val, out)
	})
}
