//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"time"

	"chat-relay/errors"

	"github.com/dgraph-io/badger/v4"
)

type IUserRepository interface {
	CreateUser(username, email, hashedPassword string) (int64, error)
	GetUserByUsername(username string) (User, error)
	Close() error
}

// User is the repository-level representation of an account.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Roles        []string
	CreatedAt    time.Time
}

type UserRepository struct {
	db  *badger.DB
	ids *badger.Sequence
}

func NewUserRepository(db *badger.DB) (*UserRepository, error) {
	ids, err := db.GetSequence([]byte("seq:user"), 64)
	if err != nil {
		return nil, err
	}
	return &UserRepository{db: db, ids: ids}, nil
}

type diskUser struct {
	ID           int64    `json:"id"`
	Username     string   `json:"username"`
	Email        string   `json:"email"`
	PasswordHash string   `json:"password_hash"`
	Roles        []string `json:"roles"`
	CreatedAt    int64    `json:"created_at"`
}

func userKey(username string) []byte {
	return []byte("user:" + username)
}

// CreateUser persists a new account and returns its numeric id.
// The password must already be hashed by the auth package.
func (u *UserRepository) CreateUser(username, email, hashedPassword string) (int64, error) {
	id, err := u.ids.Next()
	if err != nil {
		return 0, err
	}
	record := diskUser{
		ID:           int64(id) + 1,
		Username:     username,
		Email:        email,
		PasswordHash: hashedPassword,
		Roles:        []string{"user"},
		CreatedAt:    time.Now().Unix(),
	}

	data, err := json.Marshal(record)
	if err != nil {
		return 0, fmt.Errorf("marshal failed: %w", err)
	}

	err = u.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(userKey(username)); err == nil {
			return errors.ErrUserAlreadyExists
		}
		return txn.Set(userKey(username), data)
	})
	if err != nil {
		return 0, err
	}
	return record.ID, nil
}

func (u *UserRepository) GetUserByUsername(username string) (User, error) {
	var record diskUser
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(username))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
	})
	if err == badger.ErrKeyNotFound {
		return User{}, errors.ErrInvalidCredentials
	}
	if err != nil {
		return User{}, err
	}
	return User{
		ID:           record.ID,
		Username:     record.Username,
		Email:        record.Email,
		PasswordHash: record.PasswordHash,
		Roles:        record.Roles,
		CreatedAt:    time.Unix(record.CreatedAt, 0).UTC(),
	}, nil
}

func (u *UserRepository) Close() error {
	return u.ids.Release()
}
