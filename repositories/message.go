//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"chat-relay/domain"
	"chat-relay/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IMessageRepository interface {
	Append(room domain.RoomID, senderID int64, senderName, body string) (domain.Message, error)
	ListOrdered(room domain.RoomID) ([]domain.Message, error)
	DeleteByID(room domain.RoomID, messageID string) (bool, error)
	PurgeRoom(room domain.RoomID) (int, error)
}

type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) MessageRepository {
	return MessageRepository{db: db, log: log}
}

// diskMessage is the stored representation of a ledger entry.
type diskMessage struct {
	ID         string `json:"id"`
	Room       int64  `json:"room"`
	Seq        int64  `json:"seq"`
	SenderID   int64  `json:"sender_id"`
	SenderName string `json:"sender_name"`
	Body       string `json:"body"`
	At         int64  `json:"at"`
}

// Ledger keys are formatted as "msg:{room_id}:{seq_padded}" so that a
// prefix scan yields messages in sequence order (19-digit zero padding
// keeps lexicographic and numeric order aligned). A secondary index
// "idx:msg:{room_id}:{uuid}" maps the global id back to the primary key
// for deletion.
func ledgerKey(room domain.RoomID, seq int64) []byte {
	return []byte(fmt.Sprintf("msg:%d:%019d", room, seq))
}

func ledgerPrefix(room domain.RoomID) []byte {
	return []byte(fmt.Sprintf("msg:%d:", room))
}

func indexKey(room domain.RoomID, id string) []byte {
	return []byte(fmt.Sprintf("idx:msg:%d:%s", room, id))
}

// Append computes seq = 1 + max(existing seq) and persists the row.
//
// The max-then-insert pair is a read-then-write race window: callers
// must hold the per-room lock of the session coordinator around this
// call. As a second line of defence the whole pair runs in one badger
// transaction, and a transaction conflict is retried exactly once
// before surfacing ErrSequenceConflict.
func (m MessageRepository) Append(room domain.RoomID, senderID int64, senderName, body string) (domain.Message, error) {
	msg := domain.Message{
		ID:         uuid.New(),
		RoomID:     room,
		SenderID:   senderID,
		SenderName: senderName,
		Body:       body,
		CreatedAt:  time.Now().UTC(),
	}

	store := func() error {
		return m.db.Update(func(txn *badger.Txn) error {
			last, err := lastSeq(txn, room)
			if err != nil {
				return err
			}
			msg.Seq = last + 1

			bytes, err := json.Marshal(fromMessage(msg))
			if err != nil {
				return err
			}
			if err = txn.Set(ledgerKey(room, msg.Seq), bytes); err != nil {
				return err
			}
			return txn.Set(indexKey(room, msg.ID.String()), ledgerKey(room, msg.Seq))
		})
	}

	err := store()
	if err == badger.ErrConflict {
		m.log.Warn("Ledger append conflict, retrying once", "room", room)
		err = store()
	}
	if err == badger.ErrConflict {
		return domain.Message{}, fmt.Errorf("%w: room %d", errors.ErrSequenceConflict, room)
	}
	if err != nil {
		return domain.Message{}, err
	}
	return msg, nil
}

// ListOrdered returns the full ledger of a room in insertion order.
// The padded seq in the key makes the forward prefix scan sufficient.
func (m MessageRepository) ListOrdered(room domain.RoomID) ([]domain.Message, error) {
	var records []diskMessage
	err := m.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := ledgerPrefix(room)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				var record diskMessage
				if err := json.Unmarshal(value, &record); err != nil {
					return err
				}
				records = append(records, record)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var messages []domain.Message
	for _, record := range records {
		msg, err := toMessage(record)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// DeleteByID removes one ledger entry. It reports whether a row
// actually existed so callers can distinguish deletion from a miss.
func (m MessageRepository) DeleteByID(room domain.RoomID, messageID string) (bool, error) {
	found := false
	err := m.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(indexKey(room, messageID))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		var primary []byte
		if err = item.Value(func(val []byte) error {
			primary = append([]byte(nil), val...)
			return nil
		}); err != nil {
			return err
		}
		if err = txn.Delete(primary); err != nil {
			return err
		}
		if err = txn.Delete(indexKey(room, messageID)); err != nil {
			return err
		}
		found = true
		return nil
	})
	return found, err
}

// PurgeRoom drops every ledger entry and index row of a room. Used by
// the cascade when an admin deletes the room itself.
func (m MessageRepository) PurgeRoom(room domain.RoomID) (int, error) {
	deleted := 0
	err := m.db.Update(func(txn *badger.Txn) error {
		for i, prefix := range [][]byte{ledgerPrefix(room), []byte(fmt.Sprintf("idx:msg:%d:", room))} {
			it := txn.NewIterator(badger.IteratorOptions{PrefetchValues: false})
			var keys [][]byte
			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				keys = append(keys, it.Item().KeyCopy(nil))
			}
			it.Close()
			for _, key := range keys {
				if err := txn.Delete(key); err != nil {
					return err
				}
				if i == 0 {
					deleted++
				}
			}
		}
		return nil
	})
	return deleted, err
}

// lastSeq reads the highest assigned sequence number via a reverse
// seek just past the room's prefix, or 0 for an empty ledger.
func lastSeq(txn *badger.Txn, room domain.RoomID) (int64, error) {
	options := badger.DefaultIteratorOptions
	options.Reverse = true
	options.PrefetchValues = false
	it := txn.NewIterator(options)
	defer it.Close()

	prefix := ledgerPrefix(room)
	seekKey := append(append([]byte(nil), prefix...), []byte("9999999999999999999")...)
	it.Seek(seekKey)
	if !it.ValidForPrefix(prefix) {
		return 0, nil
	}
	return seqFromKey(string(it.Item().Key()))
}

func seqFromKey(key string) (int64, error) {
	idx := strings.LastIndex(key, ":")
	if idx < 0 {
		return 0, fmt.Errorf("malformed ledger key %q", key)
	}
	return strconv.ParseInt(key[idx+1:], 10, 64)
}

func fromMessage(msg domain.Message) diskMessage {
	return diskMessage{
		ID:         msg.ID.String(),
		Room:       int64(msg.RoomID),
		Seq:        msg.Seq,
		SenderID:   msg.SenderID,
		SenderName: msg.SenderName,
		Body:       msg.Body,
		At:         msg.CreatedAt.UnixNano(),
	}
}

func toMessage(record diskMessage) (domain.Message, error) {
	parsedID, err := uuid.Parse(record.ID)
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{
		ID:         parsedID,
		RoomID:     domain.RoomID(record.Room),
		Seq:        record.Seq,
		SenderID:   record.SenderID,
		SenderName: record.SenderName,
		Body:       record.Body,
		CreatedAt:  time.Unix(0, record.At).UTC(),
	}, nil
}
