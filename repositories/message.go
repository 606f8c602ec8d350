//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"dm-lab/errors"
)

type IMessageRepository interface {
	StoreMessage(message DiskMessage) error
	GetMessages(conversationID string, limit, offset int) ([]DiskMessage, error)
	GetMessageByID(id string) (DiskMessage, error)
}

// DiskMessage is the repository-level representation of one stored message.
type DiskMessage struct {
	ID             string
	ConversationID string
	AuthorID       string
	Content        string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type MessageRepository struct {
	db  *badger.DB
	seq *badger.Sequence
	log *slog.Logger
}

// NewMessageRepository reserves a monotonic sequence used to break
// same-nanosecond ordering ties. Close releases the unused range.
func NewMessageRepository(db *badger.DB, log *slog.Logger) (*MessageRepository, error) {
	seq, err := db.GetSequence([]byte("seq:message"), 128)
	if err != nil {
		return nil, fmt.Errorf("message sequence: %w", err)
	}
	return &MessageRepository{db: db, seq: seq, log: log}, nil
}

func (m *MessageRepository) Close() error {
	return m.seq.Release()
}

// The key is formatted as "msg:{conversationID}:{timestamp_padded}:{seq}" to:
//  1. Ensure chronological sorting using 19-digit zero padding
//     (lexicographical order equals created_at ascending).
//  2. Break ties between messages committed in the same nanosecond with a
//     monotonic sequence, so retrieval order always matches commit order.
func messageKey(conversationID string, at time.Time, seq uint64) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d:%012d", conversationID, at.UnixNano(), seq))
}

func messageRefKey(id string) []byte { return []byte("msgref:" + id) }

// StoreMessage persists the message and bumps the owning conversation's
// updated_at in the same transaction, mirroring the append-then-touch
// contract callers rely on for conversation list ordering.
func (m *MessageRepository) StoreMessage(message DiskMessage) error {
	seq, err := m.seq.Next()
	if err != nil {
		return fmt.Errorf("message sequence: %w", err)
	}
	data, err := marshalValue(message)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	key := messageKey(message.ConversationID, message.CreatedAt, seq)

	return m.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(convKey(message.ConversationID))
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return errors.ErrConversationNotFound
		}
		if err != nil {
			return err
		}
		var row ConversationRow
		if err := item.Value(func(val []byte) error {
			return unmarshalValue(val, &row)
		}); err != nil {
			return err
		}
		row.UpdatedAt = message.CreatedAt
		rowData, err := marshalValue(row)
		if err != nil {
			return fmt.Errorf("marshal failed: %w", err)
		}

		if err := txn.Set(key, data); err != nil {
			return err
		}
		if err := txn.Set(messageRefKey(message.ID), key); err != nil {
			return err
		}
		return txn.Set(convKey(message.ConversationID), rowData)
	})
}

// GetMessages retrieves a page of messages for a conversation using a
// forward prefix scan, so results come back ascending by created_at with
// commit-order tie-breaking. Pagination is offset/limit; stability at a
// page boundary under concurrent inserts is not guaranteed.
func (m *MessageRepository) GetMessages(conversationID string, limit, offset int) ([]DiskMessage, error) {
	var messages []DiskMessage
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte("msg:" + conversationID + ":")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		skipped := 0
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if skipped < offset {
				skipped++
				continue
			}
			if limit > 0 && len(messages) == limit {
				break
			}
			var message DiskMessage
			if err := it.Item().Value(func(val []byte) error {
				return unmarshalValue(val, &message)
			}); err != nil {
				return err
			}
			messages = append(messages, message)
		}
		return nil
	})
	return messages, err
}

func (m *MessageRepository) GetMessageByID(id string) (DiskMessage, error) {
	var message DiskMessage
	err := m.db.View(func(txn *badger.Txn) error {
		ref, err := txn.Get(messageRefKey(id))
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return badger.ErrKeyNotFound
		}
		if err != nil {
			return err
		}
		var key []byte
		if err := ref.Value(func(val []byte) error {
			key = append([]byte(nil), val...)
			return nil
		}); err != nil {
			return err
		}
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return unmarshalValue(val, &message)
		})
	})
	return message, err
}
