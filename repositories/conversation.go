//go:generate go run go.uber.org/mock/mockgen -source=conversation.go -destination=../mocks/mock_conversation_repository.go -package=mocks
package repositories

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"dm-lab/domain"
	"dm-lab/errors"
)

type IConversationRepository interface {
	CreateConversation(row ConversationRow, participantIDs []string) error
	GetConversation(conversationID, requesterID string) (domain.Conversation, error)
	GetUserConversations(userID string) ([]domain.Conversation, error)
	GetParticipantIDs(conversationID string) ([]string, error)
	IsUserInConversation(userID, conversationID string) (bool, error)
	RemoveParticipant(conversationID, userID string) error
	DeleteConversation(conversationID string) error
	Exists(conversationID string) (bool, error)
}

type ConversationRow struct {
	ID        string
	Type      int
	CreatorID string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type ParticipantRow struct {
	UserID         string
	ConversationID string
	JoinedAt       time.Time
}

// ConversationRepository stores conversations, participant rows, and the
// per-user conversation index in BadgerDB:
//
//	conv:{conversationID}          -> ConversationRow
//	part:{conversationID}:{userID} -> ParticipantRow
//	userconv:{userID}:{convID}     -> (empty, reverse index)
//
// The part keyspace is the composite-unique participant relation: one key
// per user per conversation by construction.
type ConversationRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewConversationRepository(db *badger.DB, log *slog.Logger) *ConversationRepository {
	return &ConversationRepository{db: db, log: log}
}

func convKey(id string) []byte { return []byte("conv:" + id) }

func participantKey(conversationID, userID string) []byte {
	return []byte(fmt.Sprintf("part:%s:%s", conversationID, userID))
}

func userConvKey(userID, conversationID string) []byte {
	return []byte(fmt.Sprintf("userconv:%s:%s", userID, conversationID))
}

// CreateConversation inserts the conversation and its participant rows in a
// single transaction. Participant insertion is idempotent: an id already
// present in the keyspace is skipped, never double-inserted, so duplicate
// ids in the input collapse to one row.
func (c *ConversationRepository) CreateConversation(row ConversationRow, participantIDs []string) error {
	data, err := marshalValue(row)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}

	return c.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(convKey(row.ID), data); err != nil {
			return err
		}
		for _, userID := range participantIDs {
			key := participantKey(row.ID, userID)
			if _, err := txn.Get(key); err == nil {
				continue
			} else if !stderrors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			part, err := marshalValue(ParticipantRow{
				UserID:         userID,
				ConversationID: row.ID,
				JoinedAt:       row.CreatedAt,
			})
			if err != nil {
				return fmt.Errorf("marshal failed: %w", err)
			}
			if err := txn.Set(key, part); err != nil {
				return err
			}
			if err := txn.Set(userConvKey(userID, row.ID), nil); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetConversation returns the hydrated conversation as seen by requesterID:
// metadata plus every participant except the requester, resolved against
// the user records in the same transaction.
func (c *ConversationRepository) GetConversation(conversationID, requesterID string) (domain.Conversation, error) {
	var conversation domain.Conversation
	err := c.db.View(func(txn *badger.Txn) error {
		var err error
		conversation, err = c.readConversation(txn, conversationID, requesterID)
		return err
	})
	return conversation, err
}

// GetUserConversations returns every conversation the user participates in,
// each hydrated with its other participants. Ordering is storage order;
// the engine sorts explicitly by updated_at.
func (c *ConversationRepository) GetUserConversations(userID string) ([]domain.Conversation, error) {
	var conversations []domain.Conversation
	err := c.db.View(func(txn *badger.Txn) error {
		prefix := []byte("userconv:" + userID + ":")
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			conversationID := string(it.Item().Key()[len(prefix):])
			conversation, err := c.readConversation(txn, conversationID, userID)
			if stderrors.Is(err, errors.ErrConversationNotFound) {
				// Dangling index entry; tolerated on read, repaired by delete.
				c.log.Warn("conversation index points at missing record",
					"user_id", userID, "conversation_id", conversationID)
				continue
			}
			if err != nil {
				return err
			}
			conversations = append(conversations, conversation)
		}
		return nil
	})
	return conversations, err
}

func (c *ConversationRepository) GetParticipantIDs(conversationID string) ([]string, error) {
	var ids []string
	err := c.db.View(func(txn *badger.Txn) error {
		var err error
		ids, err = readParticipantIDs(txn, conversationID)
		return err
	})
	return ids, err
}

func (c *ConversationRepository) IsUserInConversation(userID, conversationID string) (bool, error) {
	err := c.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(participantKey(conversationID, userID))
		return err
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (c *ConversationRepository) RemoveParticipant(conversationID, userID string) error {
	return c.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(participantKey(conversationID, userID)); err != nil {
			return err
		}
		return txn.Delete(userConvKey(userID, conversationID))
	})
}

func (c *ConversationRepository) Exists(conversationID string) (bool, error) {
	err := c.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(convKey(conversationID))
		return err
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// DeleteConversation cascades over messages, participant rows, reverse
// index entries, and finally the conversation row, all inside one Badger
// transaction: a failure anywhere aborts the whole cascade and leaves
// prior state intact.
func (c *ConversationRepository) DeleteConversation(conversationID string) error {
	return c.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(convKey(conversationID)); stderrors.Is(err, badger.ErrKeyNotFound) {
			return errors.ErrConversationNotFound
		} else if err != nil {
			return err
		}

		participantIDs, err := readParticipantIDs(txn, conversationID)
		if err != nil {
			return err
		}

		// Collect first, delete after: mutating the keyspace mid-iteration
		// is not supported.
		var doomed [][]byte
		msgPrefix := []byte("msg:" + conversationID + ":")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		for it.Seek(msgPrefix); it.ValidForPrefix(msgPrefix); it.Next() {
			item := it.Item()
			doomed = append(doomed, item.KeyCopy(nil))
			var message DiskMessage
			if err := item.Value(func(val []byte) error {
				return unmarshalValue(val, &message)
			}); err != nil {
				it.Close()
				return err
			}
			doomed = append(doomed, messageRefKey(message.ID))
		}
		it.Close()

		for _, userID := range participantIDs {
			doomed = append(doomed,
				participantKey(conversationID, userID),
				userConvKey(userID, conversationID))
		}
		doomed = append(doomed, convKey(conversationID))

		for _, key := range doomed {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
}

func (c *ConversationRepository) readConversation(txn *badger.Txn, conversationID, requesterID string) (domain.Conversation, error) {
	item, err := txn.Get(convKey(conversationID))
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Conversation{}, errors.ErrConversationNotFound
	}
	if err != nil {
		return domain.Conversation{}, err
	}

	var row ConversationRow
	if err := item.Value(func(val []byte) error {
		return unmarshalValue(val, &row)
	}); err != nil {
		return domain.Conversation{}, err
	}

	participantIDs, err := readParticipantIDs(txn, conversationID)
	if err != nil {
		return domain.Conversation{}, err
	}

	conversation := domain.Conversation{
		ID:        row.ID,
		Type:      domain.ConversationType(row.Type),
		CreatorID: row.CreatorID,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
	for _, userID := range participantIDs {
		if userID == requesterID {
			continue
		}
		var user User
		if err := readUser(txn, userID, &user); err != nil {
			return domain.Conversation{}, err
		}
		conversation.Recipients = append(conversation.Recipients, domain.Recipient{
			ID:          user.ID,
			Username:    user.Username,
			DisplayName: user.DisplayName,
			HasAvatar:   len(user.Avatar) > 0,
		})
	}
	return conversation, nil
}

func readParticipantIDs(txn *badger.Txn, conversationID string) ([]string, error) {
	prefix := []byte("part:" + conversationID + ":")
	options := badger.DefaultIteratorOptions
	options.PrefetchValues = false
	it := txn.NewIterator(options)
	defer it.Close()

	var ids []string
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		ids = append(ids, string(it.Item().Key()[len(prefix):]))
	}
	return ids, nil
}
