package repositories

import (
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

	"dm-lab/errors"
)

func TestMessageRepository_OrderedRetrieval(t *testing.T) {
	req := require.New(t)
	db := newTestDB(t)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	conversations := NewConversationRepository(db, slog.Default())
	row := newConversationRow(alice.ID, 1)
	req.NoError(conversations.CreateConversation(row, []string{alice.ID, bob.ID}))

	repository, err := NewMessageRepository(db, slog.Default())
	req.NoError(err)
	defer repository.Close()

	at := time.Now().UTC().Truncate(time.Microsecond)
	stored := []DiskMessage{
		{ID: uuid.NewString(), ConversationID: row.ID, AuthorID: alice.ID, Content: "first", CreatedAt: at, UpdatedAt: at},
		{ID: uuid.NewString(), ConversationID: row.ID, AuthorID: bob.ID, Content: "second", CreatedAt: at.Add(time.Second), UpdatedAt: at.Add(time.Second)},
		{ID: uuid.NewString(), ConversationID: row.ID, AuthorID: alice.ID, Content: "third", CreatedAt: at.Add(2 * time.Second), UpdatedAt: at.Add(2 * time.Second)},
	}
	for _, message := range stored {
		req.NoError(repository.StoreMessage(message))
	}

	fetched, err := repository.GetMessages(row.ID, 0, 0)
	req.NoError(err)
	req.Equal(stored, fetched)

	for i := 1; i < len(fetched); i++ {
		req.False(fetched[i].CreatedAt.Before(fetched[i-1].CreatedAt))
	}
}

func TestMessageRepository_SameInstantKeepsCommitOrder(t *testing.T) {
	req := require.New(t)
	db := newTestDB(t)
	alice := seedUser(t, db, "alice")
	conversations := NewConversationRepository(db, slog.Default())
	row := newConversationRow(alice.ID, 3)
	req.NoError(conversations.CreateConversation(row, []string{alice.ID}))

	repository, err := NewMessageRepository(db, slog.Default())
	req.NoError(err)
	defer repository.Close()

	// Identical created_at: the monotonic sequence must keep commit order.
	at := time.Now().UTC()
	var contents []string
	for i := 0; i < 5; i++ {
		content := uuid.NewString()
		contents = append(contents, content)
		req.NoError(repository.StoreMessage(DiskMessage{
			ID:             uuid.NewString(),
			ConversationID: row.ID,
			AuthorID:       alice.ID,
			Content:        content,
			CreatedAt:      at,
			UpdatedAt:      at,
		}))
	}

	fetched, err := repository.GetMessages(row.ID, 0, 0)
	req.NoError(err)
	req.Equal(contents, lo.Map(fetched, func(m DiskMessage, _ int) string { return m.Content }))
}

func TestMessageRepository_Pagination(t *testing.T) {
	req := require.New(t)
	db := newTestDB(t)
	alice := seedUser(t, db, "alice")
	conversations := NewConversationRepository(db, slog.Default())
	row := newConversationRow(alice.ID, 3)
	req.NoError(conversations.CreateConversation(row, []string{alice.ID}))

	repository, err := NewMessageRepository(db, slog.Default())
	req.NoError(err)
	defer repository.Close()

	at := time.Now().UTC()
	for i := 0; i < 10; i++ {
		req.NoError(repository.StoreMessage(DiskMessage{
			ID:             uuid.NewString(),
			ConversationID: row.ID,
			AuthorID:       alice.ID,
			Content:        "msg",
			CreatedAt:      at.Add(time.Duration(i) * time.Second),
		}))
	}

	page, err := repository.GetMessages(row.ID, 4, 0)
	req.NoError(err)
	req.Len(page, 4)

	next, err := repository.GetMessages(row.ID, 4, 8)
	req.NoError(err)
	req.Len(next, 2)
}

func TestMessageRepository_BumpsConversationUpdatedAt(t *testing.T) {
	req := require.New(t)
	db := newTestDB(t)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	conversations := NewConversationRepository(db, slog.Default())
	row := newConversationRow(alice.ID, 1)
	row.UpdatedAt = row.UpdatedAt.Add(-time.Hour)
	req.NoError(conversations.CreateConversation(row, []string{alice.ID, bob.ID}))

	repository, err := NewMessageRepository(db, slog.Default())
	req.NoError(err)
	defer repository.Close()

	at := time.Now().UTC().Truncate(time.Microsecond)
	req.NoError(repository.StoreMessage(DiskMessage{
		ID:             uuid.NewString(),
		ConversationID: row.ID,
		AuthorID:       alice.ID,
		Content:        "bump",
		CreatedAt:      at,
	}))

	conversation, err := conversations.GetConversation(row.ID, alice.ID)
	req.NoError(err)
	req.Equal(at, conversation.UpdatedAt)
}

func TestMessageRepository_StoreIntoMissingConversation(t *testing.T) {
	req := require.New(t)
	db := newTestDB(t)

	repository, err := NewMessageRepository(db, slog.Default())
	req.NoError(err)
	defer repository.Close()

	err = repository.StoreMessage(DiskMessage{
		ID:             uuid.NewString(),
		ConversationID: "missing",
		AuthorID:       "anyone",
		Content:        "hello?",
		CreatedAt:      time.Now().UTC(),
	})
	req.ErrorIs(err, errors.ErrConversationNotFound)
}

func TestMessageRepository_GetByID(t *testing.T) {
	req := require.New(t)
	db := newTestDB(t)
	alice := seedUser(t, db, "alice")
	conversations := NewConversationRepository(db, slog.Default())
	row := newConversationRow(alice.ID, 3)
	req.NoError(conversations.CreateConversation(row, []string{alice.ID}))

	repository, err := NewMessageRepository(db, slog.Default())
	req.NoError(err)
	defer repository.Close()

	message := DiskMessage{
		ID:             uuid.NewString(),
		ConversationID: row.ID,
		AuthorID:       alice.ID,
		Content:        "findable",
		CreatedAt:      time.Now().UTC().Truncate(time.Microsecond),
	}
	req.NoError(repository.StoreMessage(message))

	fetched, err := repository.GetMessageByID(message.ID)
	req.NoError(err)
	req.Equal(message, fetched)
}
