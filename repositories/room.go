//go:generate go run go.uber.org/mock/mockgen -source=room.go -destination=../mocks/mock_room_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"time"

	"chat-relay/domain"
	"chat-relay/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IRoomRepository interface {
	Create(title string, allowAnonymous bool, ownerID int64) (domain.Room, error)
	GetByToken(token domain.RoomToken) (domain.Room, error)
	List() ([]domain.Room, error)
	Delete(token domain.RoomToken) (bool, error)
	Close() error
}

type RoomRepository struct {
	db  *badger.DB
	ids *badger.Sequence
}

func NewRoomRepository(db *badger.DB) (*RoomRepository, error) {
	// Badger hands out numeric ids in leased batches; ids may have gaps
	// across restarts, which is fine for an internal key.
	ids, err := db.GetSequence([]byte("seq:room"), 64)
	if err != nil {
		return nil, err
	}
	return &RoomRepository{db: db, ids: ids}, nil
}

type diskRoom struct {
	ID             int64  `json:"id"`
	Token          string `json:"token"`
	Title          string `json:"title"`
	AllowAnonymous bool   `json:"allow_anonymous"`
	OwnerID        int64  `json:"owner_id"`
	CreatedAt      int64  `json:"created_at"`
}

func roomKey(token domain.RoomToken) []byte {
	return []byte("room:" + string(token))
}

// Create persists a new room under a freshly generated join code.
// The code is a full UUID: unguessable, unique, immutable.
func (r *RoomRepository) Create(title string, allowAnonymous bool, ownerID int64) (domain.Room, error) {
	id, err := r.ids.Next()
	if err != nil {
		return domain.Room{}, err
	}
	room := domain.Room{
		// Sequence values start at 0; room ids start at 1.
		ID:             domain.RoomID(id + 1),
		Token:          domain.RoomToken(uuid.NewString()),
		Title:          title,
		AllowAnonymous: allowAnonymous,
		OwnerID:        ownerID,
		CreatedAt:      time.Now().UTC(),
	}

	bytes, err := json.Marshal(fromRoom(room))
	if err != nil {
		return domain.Room{}, err
	}
	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(roomKey(room.Token), bytes)
	})
	if err != nil {
		return domain.Room{}, err
	}
	return room, nil
}

func (r *RoomRepository) GetByToken(token domain.RoomToken) (domain.Room, error) {
	var record diskRoom
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(roomKey(token))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
	})
	if err == badger.ErrKeyNotFound {
		return domain.Room{}, fmt.Errorf("%w: %s", errors.ErrRoomNotFound, token)
	}
	if err != nil {
		return domain.Room{}, err
	}
	return toRoom(record), nil
}

func (r *RoomRepository) List() ([]domain.Room, error) {
	var rooms []domain.Room
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte("room:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var record diskRoom
				if err := json.Unmarshal(val, &record); err != nil {
					return err
				}
				rooms = append(rooms, toRoom(record))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return rooms, err
}

// Delete removes the room record. The message cascade is the caller's
// responsibility (see services.AdminService) so that ledger and room
// stores stay independent.
func (r *RoomRepository) Delete(token domain.RoomToken) (bool, error) {
	found := false
	err := r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(roomKey(token)); err == badger.ErrKeyNotFound {
			return nil
		} else if err != nil {
			return err
		}
		found = true
		return txn.Delete(roomKey(token))
	})
	return found, err
}

// Close releases the id sequence lease back to badger.
func (r *RoomRepository) Close() error {
	return r.ids.Release()
}

func fromRoom(room domain.Room) diskRoom {
	return diskRoom{
		ID:             int64(room.ID),
		Token:          string(room.Token),
		Title:          room.Title,
		AllowAnonymous: room.AllowAnonymous,
		OwnerID:        room.OwnerID,
		CreatedAt:      room.CreatedAt.UnixNano(),
	}
}

func toRoom(record diskRoom) domain.Room {
	return domain.Room{
		ID:             domain.RoomID(record.ID),
		Token:          domain.RoomToken(record.Token),
		Title:          record.Title,
		AllowAnonymous: record.AllowAnonymous,
		OwnerID:        record.OwnerID,
		CreatedAt:      time.Unix(0, record.CreatedAt).UTC(),
	}
}
