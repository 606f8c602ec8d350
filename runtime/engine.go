// Package runtime hosts the conversation engine, the live-session registry
// and the supervised workers that fan events out to connected clients.
package runtime

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"dm-lab/domain"
	"dm-lab/domain/event"
	"dm-lab/errors"
	"dm-lab/repositories"
)

// Engine enforces conversation rules on top of the repositories and emits
// domain events toward the fan-out pipeline. Every read and write is
// authorized against the participant relation; callers never reach the
// repositories directly.
type Engine struct {
	mu                  sync.Mutex
	log                 *slog.Logger
	users               repositories.IUserRepository
	conversations       repositories.IConversationRepository
	messages            repositories.IMessageRepository
	events              chan<- event.DomainEvent
	conversationLocks   map[string]*sync.Mutex
	defaultMessageLimit int
	maxContentLength    int
}

func NewEngine(log *slog.Logger,
	users repositories.IUserRepository,
	conversations repositories.IConversationRepository,
	messages repositories.IMessageRepository,
	events chan<- event.DomainEvent,
	defaultMessageLimit, maxContentLength int) *Engine {
	return &Engine{
		log:                 log,
		users:               users,
		conversations:       conversations,
		messages:            messages,
		events:              events,
		conversationLocks:   make(map[string]*sync.Mutex),
		defaultMessageLimit: defaultMessageLimit,
		maxContentLength:    maxContentLength,
	}
}

// lockConversation returns the mutex serializing writes to one conversation.
// Locks are created on demand and never evicted; the footprint is one mutex
// per conversation written to during the process lifetime.
func (e *Engine) lockConversation(conversationID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.conversationLocks[conversationID]
	if !ok {
		l = &sync.Mutex{}
		e.conversationLocks[conversationID] = l
	}
	return l
}

// CreateConversation validates the participant set against the conversation
// type, persists the conversation and notifies every participant's live
// sessions with their refreshed conversation list.
//
// DIRECT requires exactly one participant besides the creator. GROUP
// accepts any set, including a creator-only group. SELF ignores the
// participant list entirely. The creator is always a participant and is
// deduced from the command, never from the participant list.
func (e *Engine) CreateConversation(cmd domain.CreateConversationCommand) (domain.Conversation, error) {
	if !cmd.Type.Valid() {
		return domain.Conversation{}, fmt.Errorf("%w: %d", errors.ErrInvalidConversationType, cmd.Type)
	}
	if _, err := e.users.GetUserByID(cmd.CreatorID); err != nil {
		return domain.Conversation{}, err
	}

	others := lo.Uniq(lo.Filter(cmd.ParticipantIDs, func(id string, _ int) bool {
		return id != cmd.CreatorID && id != ""
	}))

	switch cmd.Type {
	case domain.Direct:
		if len(others) != 1 {
			return domain.Conversation{}, fmt.Errorf("%w: direct requires exactly one recipient, got %d", errors.ErrInvalidParticipantCount, len(others))
		}
	case domain.Self:
		// Whatever the caller sent is ignored; the creator is the sole
		// participant of a self conversation.
		others = nil
	}

	// Every recipient must exist before anything is written.
	for _, id := range others {
		if _, err := e.users.GetUserByID(id); err != nil {
			return domain.Conversation{}, err
		}
	}

	now := time.Now().UTC()
	row := repositories.ConversationRow{
		ID:        uuid.NewString(),
		Type:      int(cmd.Type),
		CreatorID: cmd.CreatorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	participants := append([]string{cmd.CreatorID}, others...)
	if err := e.conversations.CreateConversation(row, participants); err != nil {
		return domain.Conversation{}, err
	}

	for _, userID := range participants {
		refreshed, err := e.GetUserConversations(userID)
		if err != nil {
			e.log.Warn("Failed to build conversation list for notification", "user_id", userID, "error", err)
			continue
		}
		e.emit(event.ConversationCreated{UserID: userID, Conversations: refreshed})
	}

	return e.conversations.GetConversation(row.ID, cmd.CreatorID)
}

// GetConversationByID returns the conversation as seen by the requester.
// Non-participants get not-found, so the existence of a conversation is
// never revealed to outsiders.
func (e *Engine) GetConversationByID(conversationID, requesterID string) (domain.Conversation, error) {
	in, err := e.conversations.IsUserInConversation(requesterID, conversationID)
	if err != nil {
		return domain.Conversation{}, err
	}
	if !in {
		return domain.Conversation{}, errors.ErrConversationNotFound
	}
	return e.conversations.GetConversation(conversationID, requesterID)
}

// GetUserConversations lists the requester's conversations, most recently
// active first.
func (e *Engine) GetUserConversations(userID string) ([]domain.Conversation, error) {
	conversations, err := e.conversations.GetUserConversations(userID)
	if err != nil {
		return nil, err
	}
	sort.Slice(conversations, func(i, j int) bool {
		return conversations[i].UpdatedAt.After(conversations[j].UpdatedAt)
	})
	return conversations, nil
}

// SendMessage validates, persists and fans out one message. The whole
// persist-then-emit sequence runs under the conversation lock so events
// leave the engine in commit order; the fan-out worker drains the channel
// serially and preserves it.
func (e *Engine) SendMessage(cmd domain.PostMessageCommand) (domain.Message, error) {
	content := strings.TrimSpace(cmd.Content)
	if content == "" {
		return domain.Message{}, errors.ErrEmptyContent
	}
	if e.maxContentLength > 0 && len(content) > e.maxContentLength {
		return domain.Message{}, fmt.Errorf("%w: %d bytes over %d", errors.ErrContentTooLong, len(content), e.maxContentLength)
	}

	exists, err := e.conversations.Exists(cmd.ConversationID)
	if err != nil {
		return domain.Message{}, err
	}
	if !exists {
		return domain.Message{}, errors.ErrConversationNotFound
	}
	in, err := e.conversations.IsUserInConversation(cmd.AuthorID, cmd.ConversationID)
	if err != nil {
		return domain.Message{}, err
	}
	if !in {
		return domain.Message{}, errors.ErrNotParticipant
	}

	author, err := e.users.GetUserByID(cmd.AuthorID)
	if err != nil {
		return domain.Message{}, err
	}

	at := cmd.CreatedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	disk := repositories.DiskMessage{
		ID:             uuid.NewString(),
		ConversationID: cmd.ConversationID,
		AuthorID:       cmd.AuthorID,
		Content:        content,
		CreatedAt:      at,
		UpdatedAt:      at,
	}

	lock := e.lockConversation(cmd.ConversationID)
	lock.Lock()
	defer lock.Unlock()

	if err := e.messages.StoreMessage(disk); err != nil {
		return domain.Message{}, err
	}

	message := domain.Message{
		ID:                disk.ID,
		ConversationID:    disk.ConversationID,
		AuthorID:          disk.AuthorID,
		AuthorUsername:    author.Username,
		AuthorDisplayName: author.DisplayName,
		Content:           disk.Content,
		CreatedAt:         disk.CreatedAt,
		UpdatedAt:         disk.UpdatedAt,
	}

	participants, err := e.conversations.GetParticipantIDs(cmd.ConversationID)
	if err != nil {
		// The message is committed; fan-out is best effort.
		e.log.Warn("Failed to resolve participants after commit", "conversation_id", cmd.ConversationID, "error", err)
		return message, nil
	}

	e.emit(event.MessagePosted{
		ConversationID: cmd.ConversationID,
		Message:        message,
		Recipients:     participants,
	})
	for _, userID := range participants {
		if userID == cmd.AuthorID {
			continue
		}
		e.emit(event.NotificationRaised{UserID: userID, Message: message})
	}

	return message, nil
}

// GetConversationMessages returns the chronological message page for a
// participant. Author display fields are joined in; a missing author (user
// records are never deleted today, but the join tolerates it) leaves the
// display fields empty rather than failing the page.
func (e *Engine) GetConversationMessages(cmd domain.GetMessagesCommand) ([]domain.Message, error) {
	in, err := e.conversations.IsUserInConversation(cmd.RequesterID, cmd.ConversationID)
	if err != nil {
		return nil, err
	}
	if !in {
		return nil, errors.ErrConversationNotFound
	}

	limit := cmd.Limit
	if limit <= 0 {
		limit = e.defaultMessageLimit
	}
	disk, err := e.messages.GetMessages(cmd.ConversationID, limit, cmd.Offset)
	if err != nil {
		return nil, err
	}

	authors := make(map[string]repositories.User)
	return lo.Map(disk, func(item repositories.DiskMessage, _ int) domain.Message {
		author, ok := authors[item.AuthorID]
		if !ok {
			author, _ = e.users.GetUserByID(item.AuthorID)
			authors[item.AuthorID] = author
		}
		return domain.Message{
			ID:                item.ID,
			ConversationID:    item.ConversationID,
			AuthorID:          item.AuthorID,
			AuthorUsername:    author.Username,
			AuthorDisplayName: author.DisplayName,
			Content:           item.Content,
			CreatedAt:         item.CreatedAt,
			UpdatedAt:         item.UpdatedAt,
		}
	}), nil
}

// DeleteConversation removes the conversation with its participant rows and
// messages, then refreshes every former participant's conversation list.
// Only participants may delete; outsiders get not-found.
func (e *Engine) DeleteConversation(conversationID, requesterID string) error {
	exists, err := e.conversations.Exists(conversationID)
	if err != nil {
		return err
	}
	if !exists {
		return errors.ErrConversationNotFound
	}
	in, err := e.conversations.IsUserInConversation(requesterID, conversationID)
	if err != nil {
		return err
	}
	if !in {
		return errors.ErrConversationNotFound
	}

	participants, err := e.conversations.GetParticipantIDs(conversationID)
	if err != nil {
		return err
	}

	lock := e.lockConversation(conversationID)
	lock.Lock()
	defer lock.Unlock()

	if err := e.conversations.DeleteConversation(conversationID); err != nil {
		return err
	}

	for _, userID := range participants {
		refreshed, err := e.GetUserConversations(userID)
		if err != nil {
			e.log.Warn("Failed to build conversation list for notification", "user_id", userID, "error", err)
			continue
		}
		e.emit(event.ConversationCreated{UserID: userID, Conversations: refreshed})
	}
	return nil
}

// emit hands an event to the fan-out pipeline. Delivery is fire-and-forget:
// when the buffer is full the event is dropped and logged, the committed
// state is never rolled back.
func (e *Engine) emit(evt event.DomainEvent) {
	select {
	case e.events <- evt:
	default:
		e.log.Warn(fmt.Sprintf("Event channel full, dropping event on %s", evt.Channel()))
	}
}
