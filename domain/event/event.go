// Package event defines the domain events fanned out to live sessions.
// Event channel names follow the wire contract clients subscribe to:
// new-message-<conversationID>, new-conversation-<userID>,
// new-notification-<userID>.
package event

import (
	"fmt"

	"dm-lab/domain"
)

type DomainEvent interface {
	// Channel is the logical event channel the payload is published on.
	Channel() string
}

// MessagePosted is broadcast to every participant's live sessions when a
// message is committed. Recipients carries the full participant set of the
// conversation at commit time, author included.
type MessagePosted struct {
	ConversationID string
	Message        domain.Message
	Recipients     []string
}

func (e MessagePosted) Channel() string {
	return fmt.Sprintf("new-message-%s", e.ConversationID)
}

// ConversationCreated is addressed to a single user and carries that user's
// refreshed conversation list.
type ConversationCreated struct {
	UserID        string
	Conversations []domain.Conversation
}

func (e ConversationCreated) Channel() string {
	return fmt.Sprintf("new-conversation-%s", e.UserID)
}

// NotificationRaised is addressed to one participant (never the author) for
// every new message, and drives unread badges on sessions not currently
// viewing the conversation.
type NotificationRaised struct {
	UserID  string
	Message domain.Message
}

func (e NotificationRaised) Channel() string {
	return fmt.Sprintf("new-notification-%s", e.UserID)
}
